package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"jiramigration/models"
)

// JIRA APIのタイムスタンプ形式
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

// commentIDPattern は同期済みコメントに埋め込まれたマーカーを抽出します
var commentIDPattern = regexp.MustCompile(`\[Jira Comment ID: ([^\]]+)\]`)

// FormatComment はJIRAコメントを移行先向けに整形します
// 末尾のマーカーが重複排除の唯一の手がかりになります
func FormatComment(comment models.JiraComment) string {
	author := comment.Author.DisplayName
	date := formatJiraTime(comment.Created, "2006-01-02 15:04")
	body := ConvertDocument(&comment.Body)

	return fmt.Sprintf("**%s** (%s):\n%s\n\n---\n*[Jira Comment ID: %s]*", author, date, body, comment.ID)
}

// ExtractCommentID は移行先コメント本文からJIRAコメントIDマーカーを取り出します
func ExtractCommentID(text string) (string, bool) {
	match := commentIDPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// FormatClickUpDescription はClickUpタスク用の説明文を組み立てます
// 元イシューへのリンク・本文・メタデータ・添付ファイル一覧を含みます
func FormatClickUpDescription(issue *models.JiraIssue, jiraBaseURL string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "**Original JIRA Issue:** [%s](%s/browse/%s)\n\n", issue.Key, jiraBaseURL, issue.Key)
	sb.WriteString("---\n\n")

	if body := ConvertDocument(issue.Fields.Description); body != "" {
		sb.WriteString(body)
		sb.WriteString("\n\n---\n\n")
	}

	sb.WriteString("### JIRA Details\n\n")
	fmt.Fprintf(&sb, "- **Type:** %s\n", issue.Fields.IssueType.Name)
	fmt.Fprintf(&sb, "- **Status:** %s\n", issue.Fields.Status.Name)

	if issue.Fields.Priority != nil {
		fmt.Fprintf(&sb, "- **Priority:** %s\n", issue.Fields.Priority.Name)
	}
	if issue.Fields.Reporter != nil {
		fmt.Fprintf(&sb, "- **Reporter:** %s\n", issue.Fields.Reporter.DisplayName)
	}

	fmt.Fprintf(&sb, "- **Created:** %s\n", formatJiraTime(issue.Fields.Created, "2006-01-02 15:04"))
	fmt.Fprintf(&sb, "- **Updated:** %s\n", formatJiraTime(issue.Fields.Updated, "2006-01-02 15:04"))

	if len(issue.Fields.Components) > 0 {
		names := make([]string, 0, len(issue.Fields.Components))
		for _, c := range issue.Fields.Components {
			names = append(names, c.Name)
		}
		fmt.Fprintf(&sb, "- **Components:** %s\n", strings.Join(names, ", "))
	}

	if len(issue.Fields.Attachment) > 0 {
		sb.WriteString("\n### Attachments\n\n")
		for _, att := range issue.Fields.Attachment {
			sizeKB := int64(math.Round(float64(att.Size) / 1024))
			fmt.Fprintf(&sb, "- [%s](%s) (%d KB)\n", att.Filename, att.Content, sizeKB)
		}
	}

	return sb.String()
}

// FormatShortcutDescription はShortcutストーリー・エピック用の説明文を組み立てます
func FormatShortcutDescription(issue *models.JiraIssue) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "**Migrated from JIRA: %s**\n\n", issue.Key)

	if body := ConvertDocument(issue.Fields.Description); body != "" {
		sb.WriteString(body)
		sb.WriteString("\n\n")
	}

	sb.WriteString("**Original Details:**\n")
	fmt.Fprintf(&sb, "- Type: %s\n", issue.Fields.IssueType.Name)
	fmt.Fprintf(&sb, "- Status: %s\n", issue.Fields.Status.Name)

	if issue.Fields.Priority != nil {
		fmt.Fprintf(&sb, "- Priority: %s\n", issue.Fields.Priority.Name)
	}
	if issue.Fields.Reporter != nil {
		fmt.Fprintf(&sb, "- Reporter: %s\n", issue.Fields.Reporter.DisplayName)
	}

	fmt.Fprintf(&sb, "- Created: %s\n", formatJiraTime(issue.Fields.Created, "2006-01-02"))
	fmt.Fprintf(&sb, "- Updated: %s\n", formatJiraTime(issue.Fields.Updated, "2006-01-02"))

	if len(issue.Fields.Components) > 0 {
		names := make([]string, 0, len(issue.Fields.Components))
		for _, c := range issue.Fields.Components {
			names = append(names, c.Name)
		}
		fmt.Fprintf(&sb, "- Components: %s\n", strings.Join(names, ", "))
	}

	if len(issue.Fields.Attachment) > 0 {
		fmt.Fprintf(&sb, "\n**Attachments (%d):**\n", len(issue.Fields.Attachment))
		for _, att := range issue.Fields.Attachment {
			sizeKB := float64(att.Size) / 1024
			fmt.Fprintf(&sb, "- [%s](%s) (%.2f KB)\n", att.Filename, att.Content, sizeKB)
		}
	}

	return sb.String()
}

// formatJiraTime はJIRAのタイムスタンプ文字列をローカル時刻で整形します
// 解析できない場合は元の文字列をそのまま返します
func formatJiraTime(value, layout string) string {
	t, err := time.Parse(jiraTimeLayout, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return value
		}
	}
	return t.Local().Format(layout)
}
