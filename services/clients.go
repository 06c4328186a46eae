package services

import "jiramigration/models"

// JiraAPI は移行エンジンがJIRA側クライアントに要求する操作です
type JiraAPI interface {
	// CheckAuth は認証情報が有効かどうかを確認します
	CheckAuth() error
	// GetIssue はイシューを取得します（includeCommentsでコメントも取得）
	GetIssue(key string, includeComments bool) (*models.JiraIssue, error)
	// DownloadAttachment は添付ファイルをダウンロードします
	DownloadAttachment(url string) ([]byte, error)
}

// ShortcutAPI は移行エンジンがShortcut側クライアントに要求する操作です
type ShortcutAPI interface {
	CheckAuth() error
	CreateStory(payload *models.ShortcutStoryPayload) (*models.ShortcutStory, error)
	UpdateStory(storyID int64, payload *models.ShortcutStoryPayload) (*models.ShortcutStory, error)
	CreateEpic(payload *models.ShortcutEpicPayload) (*models.ShortcutEpic, error)
	UpdateEpic(epicID int64, payload *models.ShortcutEpicPayload) (*models.ShortcutEpic, error)
	GetWorkflowStates() ([]models.ShortcutWorkflowState, error)
	GetMembers() ([]models.ShortcutMember, error)
	SearchStoriesByExternalID(externalID string) ([]models.ShortcutStory, error)
	SearchEpicsByExternalID(externalID string) ([]models.ShortcutEpic, error)
	GetIterations() ([]models.ShortcutIteration, error)
}

// ClickUpAPI は移行エンジンがClickUp側クライアントに要求する操作です
type ClickUpAPI interface {
	CheckAuth() error
	CreateTask(listID string, payload *models.ClickUpCreateTask) (*models.ClickUpTask, error)
	UpdateTask(taskID string, payload *models.ClickUpUpdateTask) (*models.ClickUpTask, error)
	GetTask(taskID string) (*models.ClickUpTask, error)
	// ListTasks はリスト内のタスクを取得します（クローズ済み・サブタスク込み）
	// customFieldID が空でなければカスタムフィールドの等価フィルタを付与します
	ListTasks(listID, customFieldID, value string) ([]models.ClickUpTask, error)
	GetTaskComments(taskID string) ([]models.ClickUpComment, error)
	AddTaskComment(taskID, text string) error
	UploadAttachment(taskID string, data []byte, filename string) error
	SetCustomField(taskID, fieldID string, value models.CustomFieldValue) error
	GetTeamMembers() ([]models.ClickUpUser, error)
	GetList(listID string) (*models.ClickUpList, error)
}
