package services

import (
	"strings"

	"jiramigration/models"
)

// デフォルトのClickUpステータス値
const (
	ClickUpStatusOpen       = "Open"
	ClickUpStatusInProgress = "in progress"
	ClickUpStatusClosed     = "Closed"
)

// defaultWorkflowStateMapping はShortcutストーリー用のデフォルトマッピングです
var defaultWorkflowStateMapping = map[string]string{
	"To Do":       "Unstarted",
	"In Progress": "Started",
	"Done":        "Done",
	"Closed":      "Done",
	"Open":        "Unstarted",
	"Resolved":    "Done",
}

// priorityMapping はJIRA優先度名からClickUp優先度（1=最高〜4=最低）への固定表です
// Low と Lowest はどちらも 4 に畳み込まれます
var priorityMapping = map[string]int{
	"Highest": 1,
	"High":    2,
	"Medium":  3,
	"Low":     4,
	"Lowest":  4,
}

// MapStatusToClickUp はJIRAステータスをClickUpステータスに変換します
// 明示的な上書き表が最優先、次に部分一致ルールを固定順で評価します
func MapStatusToClickUp(jiraStatus string, override map[string]string) string {
	if mapped, ok := override[jiraStatus]; ok && mapped != "" {
		return mapped
	}

	statusLower := strings.ToLower(jiraStatus)

	if strings.Contains(statusLower, "done") ||
		strings.Contains(statusLower, "closed") ||
		strings.Contains(statusLower, "resolved") {
		return ClickUpStatusClosed
	}
	if strings.Contains(statusLower, "progress") || strings.Contains(statusLower, "review") {
		return ClickUpStatusInProgress
	}
	if strings.Contains(statusLower, "todo") ||
		strings.Contains(statusLower, "open") ||
		strings.Contains(statusLower, "backlog") ||
		strings.Contains(statusLower, "new") {
		return ClickUpStatusOpen
	}

	// 未知のステータスはOpen扱い
	return ClickUpStatusOpen
}

// MapEpicState はJIRAステータスをShortcutエピックの3値状態に変換します
// エピック状態に上書き機構はありません
func MapEpicState(jiraStatus string) string {
	statusLower := strings.ToLower(jiraStatus)

	if strings.Contains(statusLower, "done") ||
		strings.Contains(statusLower, "closed") ||
		strings.Contains(statusLower, "resolved") {
		return models.EpicStateDone
	}
	if strings.Contains(statusLower, "progress") || strings.Contains(statusLower, "review") {
		return models.EpicStateInProgress
	}
	return models.EpicStateToDo
}

// MapStatusToWorkflowState はJIRAステータスをShortcutのワークフロー状態名に変換します
// 上書き表 → デフォルト表 → "Unstarted" の順で決定します
func MapStatusToWorkflowState(jiraStatus string, override map[string]string) string {
	if mapped, ok := override[jiraStatus]; ok && mapped != "" {
		return mapped
	}
	if mapped, ok := defaultWorkflowStateMapping[jiraStatus]; ok {
		return mapped
	}
	return "Unstarted"
}

// MapStoryType はJIRAイシュータイプをShortcutストーリータイプに変換します
func MapStoryType(jiraIssueType string) string {
	typeLower := strings.ToLower(jiraIssueType)

	if strings.Contains(typeLower, "bug") || strings.Contains(typeLower, "defect") {
		return models.StoryTypeBug
	}
	if strings.Contains(typeLower, "task") || strings.Contains(typeLower, "chore") {
		return models.StoryTypeChore
	}
	return models.StoryTypeFeature
}

// IsEpicIssueType はエピックとして移行すべきイシュータイプかどうかを返します
func IsEpicIssueType(jiraIssueType string) bool {
	return jiraIssueType == "Epic"
}

// MapPriority はJIRA優先度名をClickUp優先度に変換します
// 未知・空の場合はnilを返し、呼び出し側でフィールドごと省略します
func MapPriority(jiraPriority string) *int {
	if priority, ok := priorityMapping[jiraPriority]; ok {
		return &priority
	}
	return nil
}

// FormatIssueTypeTag はイシュータイプから派生タグを作成します
// 例: "User Story" → "jira:user-story"
func FormatIssueTypeTag(jiraIssueType string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(jiraIssueType)), "-")
	return "jira:" + normalized
}

// IsBugIssueType はバグ系イシュータイプかどうかを判定します
// （大文字小文字・空白の違いは無視）
func IsBugIssueType(jiraIssueType string) bool {
	normalized := strings.Join(strings.Fields(strings.ToLower(jiraIssueType)), "-")
	switch normalized {
	case "bug", "defect", "error", "fault", "issue":
		return true
	}
	return false
}
