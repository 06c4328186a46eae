package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"jiramigration/config"
	"jiramigration/models"
	"jiramigration/utils"
)

// shortcutBulkDelay は一括移行でのレート制限回避用の待機時間です
const shortcutBulkDelay = 100 * time.Millisecond

// ShortcutMigrator はJIRAからShortcutへの移行を処理します
type ShortcutMigrator struct {
	config   *config.Config
	jira     JiraAPI
	shortcut ShortcutAPI

	// メールアドレス→メンバーIDのキャッシュ（このインスタンスの生存期間のみ有効）
	memberCache map[string]string

	bulkDelay time.Duration
}

// NewShortcutMigrator は新しいShortcut移行エンジンを作成します
func NewShortcutMigrator(cfg *config.Config, jira JiraAPI, shortcut ShortcutAPI) *ShortcutMigrator {
	return &ShortcutMigrator{
		config:      cfg,
		jira:        jira,
		shortcut:    shortcut,
		memberCache: make(map[string]string),
		bulkDelay:   shortcutBulkDelay,
	}
}

// ValidateConnections はJIRAとShortcut両方の接続を確認します
func (m *ShortcutMigrator) ValidateConnections() (jiraOK, shortcutOK bool) {
	if err := m.jira.CheckAuth(); err != nil {
		utils.LogError("JIRA認証エラー: %v", err)
	} else {
		jiraOK = true
	}
	if err := m.shortcut.CheckAuth(); err != nil {
		utils.LogError("Shortcut認証エラー: %v", err)
	} else {
		shortcutOK = true
	}
	return jiraOK, shortcutOK
}

// InspectIssue はJIRAイシューを取得します（読み取りのみ）
func (m *ShortcutMigrator) InspectIssue(jiraKey string) (*models.JiraIssue, error) {
	return m.jira.GetIssue(jiraKey, false)
}

// GetCurrentIteration は現在進行中のイテレーションを返します
// 該当なしの場合は nil を返します（エラーにしない）
func (m *ShortcutMigrator) GetCurrentIteration() (*models.ShortcutIteration, error) {
	iterations, err := m.shortcut.GetIterations()
	if err != nil {
		return nil, fmt.Errorf("イテレーション取得エラー: %w", err)
	}
	return FindCurrentIteration(iterations, time.Now()), nil
}

// FindCurrentIteration は開始日〜終了日が now を含むイテレーションを探します
func FindCurrentIteration(iterations []models.ShortcutIteration, now time.Time) *models.ShortcutIteration {
	for i, iter := range iterations {
		start, err := time.Parse("2006-01-02", iter.StartDate)
		if err != nil {
			continue
		}
		end, err := time.Parse("2006-01-02", iter.EndDate)
		if err != nil {
			continue
		}
		if !now.Before(start) && !now.After(end) {
			return &iterations[i]
		}
	}
	return nil
}

// MigrateIssue は1件のJIRAイシューをShortcutに移行します
// イシュータイプに応じてエピックまたはストーリーとして作成・更新します
func (m *ShortcutMigrator) MigrateIssue(jiraKey string, iterationID int64) models.MigrationResult {
	issue, err := m.jira.GetIssue(jiraKey, false)
	if err != nil {
		return failure(jiraKey, err)
	}

	if IsEpicIssueType(issue.Fields.IssueType.Name) {
		return m.migrateAsEpic(issue)
	}
	return m.migrateAsStory(issue, iterationID)
}

// MigrateBulk は複数のJIRAイシューを順番に移行します
// 1件の失敗は記録して次に進み、全件の結果を返します
func (m *ShortcutMigrator) MigrateBulk(jiraKeys []string, iterationID int64) []models.MigrationResult {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "一括移行")

	results := make([]models.MigrationResult, 0, len(jiraKeys))

	for _, key := range jiraKeys {
		result := m.MigrateIssue(key, iterationID)
		results = append(results, result)

		// レート制限回避のための待機
		time.Sleep(m.bulkDelay)
	}

	return results
}

// migrateAsEpic はイシューをエピックとして作成・更新します
func (m *ShortcutMigrator) migrateAsEpic(issue *models.JiraIssue) models.MigrationResult {
	existing, err := m.findExistingEpic(issue.Key)
	if err != nil {
		return failure(issue.Key, err)
	}

	payload := &models.ShortcutEpicPayload{
		Name:        issue.Fields.Summary,
		Description: FormatShortcutDescription(issue),
		State:       MapEpicState(issue.Fields.Status.Name),
		Labels:      m.buildLabels(issue, existing == nil),
		ExternalID:  issue.Key,
	}

	if ownerID := m.resolveOwner(issue); ownerID != "" {
		payload.OwnerIDs = []string{ownerID}
	}

	var result *models.ShortcutEpic

	if existing != nil {
		utils.LogInfo("%s: 既存エピック %d を更新します", issue.Key, existing.ID)
		// external_idは更新できないためペイロードから除外する
		payload.ExternalID = ""
		result, err = m.shortcut.UpdateEpic(existing.ID, payload)
		if err != nil {
			return failure(issue.Key, fmt.Errorf("エピック更新エラー: %w", err))
		}
	} else {
		utils.LogInfo("%s: 新規エピックを作成します", issue.Key)
		result, err = m.shortcut.CreateEpic(payload)
		if err != nil {
			return failure(issue.Key, fmt.Errorf("エピック作成エラー: %w", err))
		}
	}

	return models.MigrationResult{
		Success:   true,
		JiraKey:   issue.Key,
		TargetID:  strconv.FormatInt(result.ID, 10),
		TargetURL: result.AppURL,
		WasUpdate: existing != nil,
	}
}

// migrateAsStory はイシューをストーリーとして作成・更新します
func (m *ShortcutMigrator) migrateAsStory(issue *models.JiraIssue, iterationID int64) models.MigrationResult {
	existing, err := m.findExistingStory(issue.Key)
	if err != nil {
		return failure(issue.Key, err)
	}

	payload := &models.ShortcutStoryPayload{
		Name:        issue.Fields.Summary,
		Description: FormatShortcutDescription(issue),
		StoryType:   MapStoryType(issue.Fields.IssueType.Name),
		Labels:      m.buildLabels(issue, existing == nil),
		ExternalID:  issue.Key,
	}

	if iterationID > 0 {
		payload.IterationID = iterationID
	}

	// ワークフロー状態を名前で解決する（見つからなければ先頭の状態にフォールバック）
	stateName := MapStatusToWorkflowState(issue.Fields.Status.Name, m.config.StatusMapping)
	state, err := m.findWorkflowState(stateName)
	if err != nil {
		return failure(issue.Key, err)
	}
	if state != nil {
		payload.WorkflowStateID = state.ID
	}

	if ownerID := m.resolveOwner(issue); ownerID != "" {
		payload.OwnerIDs = []string{ownerID}
	}

	var result *models.ShortcutStory

	if existing != nil {
		utils.LogInfo("%s: 既存ストーリー %d を更新します", issue.Key, existing.ID)
		// external_idは更新できないためペイロードから除外する
		payload.ExternalID = ""
		result, err = m.shortcut.UpdateStory(existing.ID, payload)
		if err != nil {
			return failure(issue.Key, fmt.Errorf("ストーリー更新エラー: %w", err))
		}
	} else {
		utils.LogInfo("%s: 新規ストーリーを作成します", issue.Key)
		result, err = m.shortcut.CreateStory(payload)
		if err != nil {
			return failure(issue.Key, fmt.Errorf("ストーリー作成エラー: %w", err))
		}
	}

	return models.MigrationResult{
		Success:   true,
		JiraKey:   issue.Key,
		TargetID:  strconv.FormatInt(result.ID, 10),
		TargetURL: result.AppURL,
		WasUpdate: existing != nil,
	}
}

// findExistingStory は外部IDで既存のストーリーを検索します
// 複数件の場合はID最小のものを決定的に選び、警告を出します
func (m *ShortcutMigrator) findExistingStory(externalID string) (*models.ShortcutStory, error) {
	stories, err := m.shortcut.SearchStoriesByExternalID(externalID)
	if err != nil {
		return nil, fmt.Errorf("ストーリー検索エラー: %w", err)
	}

	if len(stories) == 0 {
		utils.LogInfo("external-id %s のストーリーは見つかりませんでした", externalID)
		return nil, nil
	}

	sort.Slice(stories, func(i, j int) bool { return stories[i].ID < stories[j].ID })

	if len(stories) > 1 {
		utils.LogWarn("external-id %s のストーリーが %d 件見つかりました。ID最小の %d を使用します", externalID, len(stories), stories[0].ID)
	}

	utils.LogInfo("既存ストーリーを検出: %d - %s", stories[0].ID, stories[0].Name)
	return &stories[0], nil
}

// findExistingEpic は外部IDで既存のエピックを検索します
func (m *ShortcutMigrator) findExistingEpic(externalID string) (*models.ShortcutEpic, error) {
	epics, err := m.shortcut.SearchEpicsByExternalID(externalID)
	if err != nil {
		return nil, fmt.Errorf("エピック検索エラー: %w", err)
	}

	if len(epics) == 0 {
		utils.LogInfo("external-id %s のエピックは見つかりませんでした", externalID)
		return nil, nil
	}

	sort.Slice(epics, func(i, j int) bool { return epics[i].ID < epics[j].ID })

	if len(epics) > 1 {
		utils.LogWarn("external-id %s のエピックが %d 件見つかりました。ID最小の %d を使用します", externalID, len(epics), epics[0].ID)
	}

	utils.LogInfo("既存エピックを検出: %d - %s", epics[0].ID, epics[0].Name)
	return &epics[0], nil
}

// findWorkflowState はワークフロー状態を名前で探します（大文字小文字は無視）
// 見つからない場合は先頭の状態を返し、状態が1つもなければ nil を返します
func (m *ShortcutMigrator) findWorkflowState(name string) (*models.ShortcutWorkflowState, error) {
	states, err := m.shortcut.GetWorkflowStates()
	if err != nil {
		return nil, fmt.Errorf("ワークフロー状態取得エラー: %w", err)
	}

	for i, state := range states {
		if strings.EqualFold(state.Name, name) {
			return &states[i], nil
		}
	}

	if len(states) > 0 {
		utils.LogWarn("ワークフロー状態 '%s' が見つかりません。'%s' にフォールバックします", name, states[0].Name)
		return &states[0], nil
	}

	return nil, nil
}

// buildLabels は移行先ラベルを組み立てます
// 派生タグ (jira:<type>) は新規作成時のみ付与し、更新時には再追加しません
func (m *ShortcutMigrator) buildLabels(issue *models.JiraIssue, isCreate bool) []models.ShortcutLabel {
	var labels []models.ShortcutLabel

	if isCreate {
		labels = append(labels, models.ShortcutLabel{Name: FormatIssueTypeTag(issue.Fields.IssueType.Name)})
	}
	for _, label := range issue.Fields.Labels {
		labels = append(labels, models.ShortcutLabel{Name: label})
	}

	return labels
}

// resolveOwner は担当者のメールアドレスからShortcutメンバーIDを解決します
// 解決できない場合は空文字を返します（エラーにしない）
func (m *ShortcutMigrator) resolveOwner(issue *models.JiraIssue) string {
	if issue.Fields.Assignee == nil || issue.Fields.Assignee.EmailAddress == "" {
		return ""
	}
	email := strings.ToLower(issue.Fields.Assignee.EmailAddress)

	if id, ok := m.memberCache[email]; ok {
		return id
	}

	members, err := m.shortcut.GetMembers()
	if err != nil {
		utils.LogWarn("メンバー取得エラー: %v", err)
		return ""
	}

	for _, member := range members {
		if strings.EqualFold(member.Profile.EmailAddress, email) {
			m.memberCache[email] = member.ID
			return member.ID
		}
	}

	utils.LogInfo("メールアドレス %s に一致するメンバーが見つかりません。担当者は未設定にします", email)
	return ""
}

// failure は失敗結果を作成します
func failure(jiraKey string, err error) models.MigrationResult {
	return models.MigrationResult{
		Success: false,
		JiraKey: jiraKey,
		Error:   err.Error(),
	}
}
