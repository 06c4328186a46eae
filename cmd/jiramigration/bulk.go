package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jiramigration/config"
	"jiramigration/models"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "複数のJIRAイシューをまとめて移行する",
	Long: `複数のJIRAイシューを1件ずつ順番に移行します。

キーは --keys で直接指定するか、--file で1行1キーのファイルを指定します。
ファイル内の空行と # で始まる行は無視されます。1件の失敗は記録され、
残りのキーの移行は継続されます。`,
	Run: func(cmd *cobra.Command, args []string) {
		jiraKeys, err := collectJiraKeys(cmd)
		if err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			os.Exit(1)
		}
		if len(jiraKeys) == 0 {
			fmt.Println(errorStyle.Render("JIRAキーが見つかりません。--keys または --file で指定してください"))
			os.Exit(1)
		}

		cfg := mustLoadConfig()
		fmt.Println(infoStyle.Render(fmt.Sprintf("移行先プラットフォーム: %s", cfg.TargetPlatform)))

		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			fmt.Println(warnStyle.Render("[DRY RUN] 以下のJIRAイシューを移行します:"))
			for _, key := range jiraKeys {
				fmt.Println(warnStyle.Render("  - " + key))
			}
			return
		}

		var results []models.MigrationResult

		switch cfg.TargetPlatform {
		case config.PlatformClickUp:
			migrator := newClickUpMigrator(cfg)
			jiraOK, clickupOK := migrator.ValidateConnections()
			if !jiraOK || !clickupOK {
				fmt.Println(errorStyle.Render("接続確認に失敗しました。設定を確認してください"))
				os.Exit(1)
			}
			fmt.Println(infoStyle.Render(fmt.Sprintf("%d 件のイシューを移行します", len(jiraKeys))))
			results = migrator.MigrateBulk(jiraKeys, clickUpOptionsFromFlags(cmd))
		default:
			migrator := newShortcutMigrator(cfg)
			jiraOK, shortcutOK := migrator.ValidateConnections()
			if !jiraOK || !shortcutOK {
				fmt.Println(errorStyle.Render("接続確認に失敗しました。設定を確認してください"))
				os.Exit(1)
			}
			iterationID := resolveIterationID(cmd, migrator)
			fmt.Println(infoStyle.Render(fmt.Sprintf("%d 件のイシューを移行します", len(jiraKeys))))
			results = migrator.MigrateBulk(jiraKeys, iterationID)
		}

		printBulkResults(results)
	},
}

func init() {
	bulkCmd.Flags().StringSliceP("keys", "k", nil, "JIRAイシューキーのリスト (例: PROJ-123,PROJ-124)")
	bulkCmd.Flags().StringP("file", "f", "", "JIRAキーを1行ずつ記載したファイル")
	bulkCmd.Flags().BoolP("dry-run", "d", false, "実際には移行せず、対象の一覧を表示する")
	bulkCmd.Flags().StringP("iteration", "i", "", "イテレーションIDを指定して割り当てる (Shortcutのみ)")
	bulkCmd.Flags().BoolP("current-iteration", "c", false, "現在のイテレーションに割り当てる (Shortcutのみ)")
	bulkCmd.Flags().StringP("list", "l", "", "移行先リストIDを指定する (ClickUpのみ)")
	bulkCmd.Flags().StringP("parent", "p", "", "親タスクIDを指定する (ClickUpのみ)")
	bulkCmd.Flags().BoolP("force-update", "u", false, "既存タスクの更新のみ行い、新規作成しない (ClickUpのみ)")
	bulkCmd.Flags().Bool("no-comments", false, "コメントを同期しない")
}

// collectJiraKeys はフラグから移行対象キーの一覧を収集します
func collectJiraKeys(cmd *cobra.Command) ([]string, error) {
	keys, _ := cmd.Flags().GetStringSlice("keys")
	if len(keys) > 0 {
		return keys, nil
	}

	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		return nil, fmt.Errorf("--keys または --file でJIRAキーを指定してください")
	}

	return readKeysFile(file)
}

// readKeysFile はキーファイルを読み込みます
// 空行と # で始まる行はコメントとして無視します
func readKeysFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ファイルが見つかりません: %s", path)
	}

	var keys []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}

	return keys, nil
}

// printBulkResults は一括移行の結果一覧と集計を表示します
func printBulkResults(results []models.MigrationResult) {
	summary := models.Summarize(results)

	fmt.Println(successStyle.Render(fmt.Sprintf("\n移行成功: %d/%d", summary.Succeeded, summary.Total)))
	for _, r := range results {
		if !r.Success {
			continue
		}
		line := fmt.Sprintf("  - %s → %s", r.JiraKey, r.TargetURL)
		if r.WasUpdate {
			line += " (更新)"
		}
		fmt.Println(successStyle.Render(line))
	}

	if summary.Failed > 0 {
		fmt.Println(errorStyle.Render(fmt.Sprintf("\n移行失敗: %d/%d", summary.Failed, summary.Total)))
		for _, r := range results {
			if r.Success {
				continue
			}
			fmt.Println(errorStyle.Render(fmt.Sprintf("  - %s: %s", r.JiraKey, r.Error)))
		}
	}
}
