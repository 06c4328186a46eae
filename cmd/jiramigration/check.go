package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jiramigration/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "JIRAと移行先プラットフォームへの接続を確認する",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		fmt.Println(infoStyle.Render(fmt.Sprintf("移行先プラットフォーム: %s", cfg.TargetPlatform)))

		var jiraOK, targetOK bool
		targetName := "Shortcut"

		switch cfg.TargetPlatform {
		case config.PlatformClickUp:
			targetName = "ClickUp"
			jiraOK, targetOK = newClickUpMigrator(cfg).ValidateConnections()
		default:
			jiraOK, targetOK = newShortcutMigrator(cfg).ValidateConnections()
		}

		printConnection("JIRA", jiraOK)
		printConnection(targetName, targetOK)

		if !jiraOK || !targetOK {
			fmt.Println(errorStyle.Render("\n接続に失敗しました。設定を確認してください"))
			os.Exit(1)
		}
		fmt.Println(successStyle.Render("\nすべての接続が正常です"))
	},
}

// printConnection は接続確認の結果を1行表示します
func printConnection(name string, ok bool) {
	if ok {
		fmt.Println(successStyle.Render(fmt.Sprintf("%s 接続: OK", name)))
	} else {
		fmt.Println(errorStyle.Render(fmt.Sprintf("%s 接続: NG", name)))
	}
}
