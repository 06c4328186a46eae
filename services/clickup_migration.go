package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"jiramigration/config"
	"jiramigration/models"
	"jiramigration/utils"
)

// clickupBulkDelay は一括移行でのレート制限回避用の待機時間です
// （ClickUpは100リクエスト/分の制限があるため長め）
const clickupBulkDelay = time.Second

// bugTaskTypeID はClickUpの「バグ」タスクタイプのカスタムアイテムIDです
const bugTaskTypeID = 1001

// ClickUpMigrateOptions は1件移行の追加指定を表します
type ClickUpMigrateOptions struct {
	ListID       string // 空の場合は設定のデフォルトリストを使用
	ParentTaskID string // 親タスクID（指定時は同一リスト内であることを検証）
	ForceUpdate  bool   // 既存タスクの更新のみを行い、新規作成しない
	SyncComments *bool  // nilの場合は設定値に従う
}

// ClickUpMigrator はJIRAからClickUpへの移行を処理します
type ClickUpMigrator struct {
	config  *config.Config
	jira    JiraAPI
	clickup ClickUpAPI

	// メールアドレス→ユーザーIDのキャッシュ（このインスタンスの生存期間のみ有効。
	// 永続化・共有はしない。サイズはチームのメンバー数で頭打ちになる）
	userCache map[string]int

	bulkDelay time.Duration
}

// NewClickUpMigrator は新しいClickUp移行エンジンを作成します
func NewClickUpMigrator(cfg *config.Config, jira JiraAPI, clickup ClickUpAPI) *ClickUpMigrator {
	return &ClickUpMigrator{
		config:    cfg,
		jira:      jira,
		clickup:   clickup,
		userCache: make(map[string]int),
		bulkDelay: clickupBulkDelay,
	}
}

// ValidateConnections はJIRAとClickUp両方の接続を確認します
func (m *ClickUpMigrator) ValidateConnections() (jiraOK, clickupOK bool) {
	if err := m.jira.CheckAuth(); err != nil {
		utils.LogError("JIRA認証エラー: %v", err)
	} else {
		jiraOK = true
	}
	if err := m.clickup.CheckAuth(); err != nil {
		utils.LogError("ClickUp認証エラー: %v", err)
	} else {
		clickupOK = true
	}
	return jiraOK, clickupOK
}

// InspectIssue はJIRAイシューを取得します（読み取りのみ）
func (m *ClickUpMigrator) InspectIssue(jiraKey string) (*models.JiraIssue, error) {
	return m.jira.GetIssue(jiraKey, false)
}

// GetTargetList はデフォルトの移行先リストを取得します
func (m *ClickUpMigrator) GetTargetList() (*models.ClickUpList, error) {
	return m.clickup.GetList(m.config.ClickUpListID)
}

// MigrateIssue は1件のJIRAイシューをClickUpタスクとして移行します
//
// 流れ: 取得 → 親タスク検証 → 既存タスク検索 → 作成または更新 →
// 添付ファイル同期 → コメント同期
func (m *ClickUpMigrator) MigrateIssue(jiraKey string, opts ClickUpMigrateOptions) models.MigrationResult {
	syncComments := m.config.ClickUpSyncComments
	if opts.SyncComments != nil {
		syncComments = *opts.SyncComments
	}

	issue, err := m.jira.GetIssue(jiraKey, syncComments)
	if err != nil {
		return failure(jiraKey, err)
	}

	targetListID := opts.ListID
	if targetListID == "" {
		targetListID = m.config.ClickUpListID
	}

	// 親タスクの検証（明示的に指定された場合のみ）
	// 検証に失敗した場合は何も作成・更新せずに終了する
	if opts.ParentTaskID != "" {
		if err := m.validateParentTask(opts.ParentTaskID, targetListID); err != nil {
			return failure(issue.Key, fmt.Errorf("親タスク検証エラー: %w", err))
		}
	}

	existing := m.findExistingTask(issue.Key, targetListID)

	// 強制更新モード: 既存タスクがなければ作成せずに失敗とする
	if existing == nil && opts.ForceUpdate {
		return failure(issue.Key, fmt.Errorf("強制更新モード: 更新対象の既存タスクが見つかりません"))
	}

	description := FormatClickUpDescription(issue, m.config.JiraBaseURL)
	assigneeIDs := m.resolveAssignees(issue)

	if existing != nil {
		return m.updateExistingTask(existing, issue, description, assigneeIDs, syncComments)
	}
	return m.createNewTask(issue, targetListID, description, assigneeIDs, opts.ParentTaskID, syncComments)
}

// MigrateBulk は複数のJIRAイシューを順番に移行します
// 1件の失敗は記録して次に進み、全件の結果を返します
func (m *ClickUpMigrator) MigrateBulk(jiraKeys []string, opts ClickUpMigrateOptions) []models.MigrationResult {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "一括移行")

	results := make([]models.MigrationResult, 0, len(jiraKeys))

	for _, key := range jiraKeys {
		result := m.MigrateIssue(key, opts)
		results = append(results, result)

		// レート制限回避のための待機
		time.Sleep(m.bulkDelay)
	}

	return results
}

// validateParentTask は親タスクが移行先リストに属していることを確認します
func (m *ClickUpMigrator) validateParentTask(parentTaskID, targetListID string) error {
	task, err := m.clickup.GetTask(parentTaskID)
	if err != nil {
		return fmt.Errorf("親タスク %s の取得に失敗しました: %w", parentTaskID, err)
	}

	if task.List == nil || task.List.ID != targetListID {
		listName := ""
		if task.List != nil {
			listName = task.List.Name
		}
		return fmt.Errorf("親タスク %s はリスト '%s' にありますが、作成先はリスト %s です。親子タスクは同一リストにある必要があります", parentTaskID, listName, targetListID)
	}

	utils.LogInfo("親タスクを検証しました: %s (%s)", task.Name, parentTaskID)
	return nil
}

// findExistingTask は外部IDカスタムフィールドで既存タスクを検索します
//
// カスタムフィールドIDが未設定の場合は検索せず常に新規作成になります（冪等性なし）。
// APIのフィルタ結果は部分一致の可能性があるため、クライアント側で厳密に再検証します。
// フィルタが0件の場合は全件取得して手動で突き合わせます
func (m *ClickUpMigrator) findExistingTask(externalID, listID string) *models.ClickUpTask {
	fieldID := m.config.ClickUpExternalIDFieldID
	if fieldID == "" {
		utils.LogInfo("外部IDフィールドが未設定のため、常に新規タスクを作成します（冪等性は無効）")
		return nil
	}

	utils.LogInfo("external-id %s のタスクを検索します (フィールド: %s)", externalID, fieldID)

	tasks, err := m.clickup.ListTasks(listID, fieldID, externalID)
	if err != nil {
		utils.LogWarn("タスク検索エラー: %v", err)
		return nil
	}

	matches := m.filterByExternalID(tasks, fieldID, externalID)

	// フィルタで見つからない場合は全件取得して手動で突き合わせる
	if len(matches) == 0 {
		utils.LogInfo("フィルタ検索は0件でした。全タスクを取得して手動で照合します")

		all, err := m.clickup.ListTasks(listID, "", "")
		if err != nil {
			utils.LogWarn("タスク一覧取得エラー: %v", err)
			return nil
		}

		// 一覧レスポンスにはカスタムフィールド値が含まれないことがあるため、
		// タスクごとに詳細を取得してから照合する
		detailed := make([]models.ClickUpTask, 0, len(all))
		for _, task := range all {
			full, err := m.clickup.GetTask(task.ID)
			if err != nil {
				utils.LogWarn("タスク %s の詳細取得エラー: %v", task.ID, err)
				detailed = append(detailed, task)
				continue
			}
			detailed = append(detailed, *full)
		}

		matches = m.filterByExternalID(detailed, fieldID, externalID)
	}

	if len(matches) == 0 {
		utils.LogInfo("external-id %s のタスクは見つかりませんでした", externalID)
		return nil
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	if len(matches) > 1 {
		utils.LogWarn("external-id %s のタスクが %d 件見つかりました。ID最小の %s を使用します", externalID, len(matches), matches[0].ID)
	}

	utils.LogInfo("既存タスクを検出: %s - %s", matches[0].ID, matches[0].Name)
	return &matches[0]
}

// filterByExternalID はカスタムフィールド値の厳密一致でタスクを絞り込みます
func (m *ClickUpMigrator) filterByExternalID(tasks []models.ClickUpTask, fieldID, externalID string) []models.ClickUpTask {
	var matches []models.ClickUpTask

	for _, task := range tasks {
		for _, field := range task.CustomFields {
			if field.ID == fieldID && field.Value.String() == externalID {
				matches = append(matches, task)
				break
			}
		}
	}

	return matches
}

// updateExistingTask は既存タスクを上書き更新します
func (m *ClickUpMigrator) updateExistingTask(existing *models.ClickUpTask, issue *models.JiraIssue, description string, assigneeIDs []int, syncComments bool) models.MigrationResult {
	utils.LogInfo("%s: 既存タスク %s を更新します", issue.Key, existing.ID)

	payload := &models.ClickUpUpdateTask{
		Name:        issue.Fields.Summary,
		Description: description,
		Status:      MapStatusToClickUp(issue.Fields.Status.Name, m.config.StatusMapping),
	}

	if IsBugIssueType(issue.Fields.IssueType.Name) {
		payload.CustomItemID = bugTaskTypeID
		utils.LogInfo("タスクタイプをバグに設定します")
	}

	if issue.Fields.Priority != nil {
		payload.Priority = MapPriority(issue.Fields.Priority.Name)
	}

	if len(assigneeIDs) > 0 {
		payload.Assignees = &models.ClickUpAssigneeUpdate{Add: assigneeIDs}
	}

	updated, err := m.clickup.UpdateTask(existing.ID, payload)
	if err != nil {
		return failure(issue.Key, fmt.Errorf("タスク更新エラー: %w", err))
	}

	m.syncAttachments(updated.ID, issue, updated.Attachments)

	if syncComments {
		m.syncComments(updated.ID, issue)
	}

	return models.MigrationResult{
		Success:   true,
		JiraKey:   issue.Key,
		TargetID:  updated.ID,
		TargetURL: updated.URL,
		WasUpdate: true,
	}
}

// createNewTask は新規タスクを作成します
func (m *ClickUpMigrator) createNewTask(issue *models.JiraIssue, listID, description string, assigneeIDs []int, parentTaskID string, syncComments bool) models.MigrationResult {
	utils.LogInfo("%s: 新規タスクを作成します", issue.Key)

	// タグ: 派生タイプタグ + JIRAのラベル
	tags := []string{FormatIssueTypeTag(issue.Fields.IssueType.Name)}
	tags = append(tags, issue.Fields.Labels...)

	payload := &models.ClickUpCreateTask{
		Name:        issue.Fields.Summary,
		Description: description,
		Status:      MapStatusToClickUp(issue.Fields.Status.Name, m.config.StatusMapping),
		Tags:        tags,
		Assignees:   assigneeIDs,
	}

	if issue.Fields.Priority != nil {
		payload.Priority = MapPriority(issue.Fields.Priority.Name)
	}

	if parentTaskID != "" {
		payload.Parent = parentTaskID
		utils.LogInfo("親タスク %s の配下に作成します", parentTaskID)
	}

	// 外部IDカスタムフィールド（設定されている場合のみ）
	if m.config.ClickUpExternalIDFieldID != "" {
		payload.CustomFields = []models.ClickUpCustomFieldParam{
			{ID: m.config.ClickUpExternalIDFieldID, Value: models.TextValue(issue.Key)},
		}
	}

	task, err := m.clickup.CreateTask(listID, payload)
	if err != nil {
		return failure(issue.Key, fmt.Errorf("タスク作成エラー: %w", err))
	}

	m.syncAttachments(task.ID, issue, nil)

	if syncComments {
		m.syncComments(task.ID, issue)
	}

	return models.MigrationResult{
		Success:   true,
		JiraKey:   issue.Key,
		TargetID:  task.ID,
		TargetURL: task.URL,
		WasUpdate: false,
	}
}

// syncAttachments は移行先にない添付ファイルだけをアップロードします
// ファイル名の一致で重複を判定します。1件の失敗はログに残して続行します
func (m *ClickUpMigrator) syncAttachments(taskID string, issue *models.JiraIssue, existing []models.ClickUpAttachment) {
	if len(issue.Fields.Attachment) == 0 {
		return
	}

	existingNames := make(map[string]bool, len(existing))
	for _, att := range existing {
		existingNames[att.Title] = true
	}

	var pending []models.JiraAttachment
	for _, att := range issue.Fields.Attachment {
		if !existingNames[att.Filename] {
			pending = append(pending, att)
		}
	}

	if len(pending) == 0 {
		if len(existing) > 0 {
			utils.LogInfo("添付ファイル %d 件はすべて同期済みのためスキップします", len(existing))
		}
		return
	}

	utils.LogInfo("添付ファイル %d 件をアップロードします（%d 件は同期済み）", len(pending), len(existingNames))

	for _, att := range pending {
		utils.LogInfo("  %s をダウンロード中...", att.Filename)
		data, err := m.jira.DownloadAttachment(att.Content)
		if err != nil {
			utils.LogError("  %s のダウンロードに失敗しました: %v", att.Filename, err)
			continue
		}

		if err := m.clickup.UploadAttachment(taskID, data, att.Filename); err != nil {
			utils.LogError("  %s のアップロードに失敗しました: %v", att.Filename, err)
			continue
		}
		utils.LogInfo("  %s をアップロードしました", att.Filename)
	}
}

// syncComments はまだ同期されていないコメントだけを追加します
// 判定は移行先コメント本文に埋め込んだ [Jira Comment ID: <id>] マーカーで行います
func (m *ClickUpMigrator) syncComments(taskID string, issue *models.JiraIssue) {
	if issue.Fields.Comment == nil || len(issue.Fields.Comment.Comments) == 0 {
		return
	}
	comments := issue.Fields.Comment.Comments

	utils.LogInfo("コメント %d 件を同期します", len(comments))

	existing, err := m.clickup.GetTaskComments(taskID)
	if err != nil {
		utils.LogWarn("既存コメント取得エラー: %v", err)
		return
	}

	synced := make(map[string]bool)
	for _, c := range existing {
		if id, ok := ExtractCommentID(c.CommentText); ok {
			synced[id] = true
		}
	}

	syncedCount := 0
	skippedCount := 0

	for _, comment := range comments {
		if synced[comment.ID] {
			skippedCount++
			continue
		}

		if err := m.clickup.AddTaskComment(taskID, FormatComment(comment)); err != nil {
			utils.LogError("  コメント同期失敗 (%s): %v", comment.Author.DisplayName, err)
			continue
		}
		syncedCount++
		utils.LogInfo("  %s のコメントを同期しました", comment.Author.DisplayName)
	}

	if skippedCount > 0 {
		utils.LogInfo("  同期済みコメント %d 件をスキップしました", skippedCount)
	}
	utils.LogInfo("  新規コメント %d 件を同期しました", syncedCount)
}

// resolveAssignees は担当者のメールアドレスからClickUpユーザーIDを解決します
// 解決できない場合は空リストを返します（エラーにしない）
func (m *ClickUpMigrator) resolveAssignees(issue *models.JiraIssue) []int {
	if issue.Fields.Assignee == nil || issue.Fields.Assignee.EmailAddress == "" {
		return nil
	}
	email := strings.ToLower(issue.Fields.Assignee.EmailAddress)

	if id, ok := m.userCache[email]; ok {
		return []int{id}
	}

	members, err := m.clickup.GetTeamMembers()
	if err != nil {
		utils.LogWarn("チームメンバー取得エラー: %v", err)
		return nil
	}

	for _, member := range members {
		if strings.EqualFold(member.Email, email) {
			m.userCache[email] = member.ID
			return []int{member.ID}
		}
	}

	utils.LogInfo("メールアドレス %s に一致するユーザーが見つかりません。担当者は未設定にします", email)
	return nil
}
