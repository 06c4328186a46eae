package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jiramigration/api"
	"jiramigration/config"
	"jiramigration/services"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <JIRAキー>",
	Short: "JIRAイシューの内容と移行先での扱いを表示する（読み取りのみ）",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jiraKey := args[0]
		cfg := mustLoadConfig()

		jiraClient := api.NewJiraClient(cfg)

		issue, err := jiraClient.GetIssue(jiraKey, false)
		if err != nil {
			fmt.Println(errorStyle.Render(fmt.Sprintf("JIRAイシューの取得に失敗しました: %v", err)))
			os.Exit(1)
		}

		fmt.Println(infoStyle.Render("=== JIRAイシュー詳細 ==="))
		fmt.Printf("キー: %s\n", issue.Key)
		fmt.Printf("タイトル: %s\n", issue.Fields.Summary)
		fmt.Printf("タイプ: %s\n", issue.Fields.IssueType.Name)
		fmt.Printf("ステータス: %s\n", issue.Fields.Status.Name)
		if issue.Fields.Priority != nil {
			fmt.Printf("優先度: %s\n", issue.Fields.Priority.Name)
		}
		if issue.Fields.Assignee != nil {
			fmt.Printf("担当者: %s\n", issue.Fields.Assignee.DisplayName)
		}
		if len(issue.Fields.Labels) > 0 {
			fmt.Printf("ラベル: %s\n", strings.Join(issue.Fields.Labels, ", "))
		}
		if len(issue.Fields.Attachment) > 0 {
			fmt.Printf("添付ファイル: %d 件\n", len(issue.Fields.Attachment))
		}

		// 移行した場合の扱いを表示する
		switch cfg.TargetPlatform {
		case config.PlatformClickUp:
			tag := services.FormatIssueTypeTag(issue.Fields.IssueType.Name)
			fmt.Println(warnStyle.Render(fmt.Sprintf("\n→ ClickUpタスクとして移行されます (タグ: %s)", tag)))
		default:
			kind := "ストーリー"
			if services.IsEpicIssueType(issue.Fields.IssueType.Name) {
				kind = "エピック"
			}
			fmt.Println(warnStyle.Render(fmt.Sprintf("\n→ Shortcutの%sとして移行されます", kind)))
		}
	},
}
