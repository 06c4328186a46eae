package models

// ストーリータイプの定数（Shortcut）
const (
	StoryTypeFeature = "feature"
	StoryTypeBug     = "bug"
	StoryTypeChore   = "chore"
)

// エピック状態の定数（Shortcutのエピックは3値の固定enum）
const (
	EpicStateToDo       = "to do"
	EpicStateInProgress = "in progress"
	EpicStateDone       = "done"
)

// ShortcutStoryPayload はストーリーの作成・更新ペイロードを表します
// 更新時は ExternalID を空にしてフィールドごと省略します
// （Shortcut APIは external_id の変更を拒否するため）
type ShortcutStoryPayload struct {
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	StoryType       string          `json:"story_type,omitempty"`
	WorkflowStateID int64           `json:"workflow_state_id,omitempty"`
	IterationID     int64           `json:"iteration_id,omitempty"`
	OwnerIDs        []string        `json:"owner_ids,omitempty"`
	Labels          []ShortcutLabel `json:"labels,omitempty"`
	ExternalID      string          `json:"external_id,omitempty"`
}

// ShortcutEpicPayload はエピックの作成・更新ペイロードを表します
type ShortcutEpicPayload struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	State       string          `json:"state,omitempty"`
	OwnerIDs    []string        `json:"owner_ids,omitempty"`
	Labels      []ShortcutLabel `json:"labels,omitempty"`
	ExternalID  string          `json:"external_id,omitempty"`
}

// ShortcutLabel はShortcutのラベルを表します（作成時は名前のみ）
type ShortcutLabel struct {
	Name string `json:"name"`
}

// ShortcutStory はShortcut APIが返すストーリーを表します
type ShortcutStory struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	AppURL     string `json:"app_url"`
	StoryType  string `json:"story_type"`
	ExternalID string `json:"external_id,omitempty"`
}

// ShortcutEpic はShortcut APIが返すエピックを表します
type ShortcutEpic struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	AppURL     string `json:"app_url"`
	State      string `json:"state,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

// ShortcutSearchResult は検索APIのレスポンスページを表します
type ShortcutSearchResult[T any] struct {
	Data  []T    `json:"data"`
	Total int    `json:"total"`
	Next  string `json:"next,omitempty"`
}

// ShortcutMember はShortcutのメンバーを表します
type ShortcutMember struct {
	ID      string `json:"id"` // UUID
	Profile struct {
		Name         string `json:"name"`
		EmailAddress string `json:"email_address,omitempty"`
	} `json:"profile"`
}

// ShortcutWorkflow はワークフローとその状態一覧を表します
type ShortcutWorkflow struct {
	ID     int64                   `json:"id"`
	Name   string                  `json:"name"`
	States []ShortcutWorkflowState `json:"states"`
}

// ShortcutWorkflowState はワークフロー状態を表します
type ShortcutWorkflowState struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // unstarted / started / done
}

// ShortcutIteration はShortcutのイテレーションを表します
type ShortcutIteration struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}
