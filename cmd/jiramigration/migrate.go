package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"jiramigration/config"
	"jiramigration/services"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <JIRAキー>",
	Short: "1件のJIRAイシューをShortcutまたはClickUpに移行する",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jiraKey := args[0]
		cfg := mustLoadConfig()

		dryRun, _ := cmd.Flags().GetBool("dry-run")

		fmt.Println(infoStyle.Render(fmt.Sprintf("移行先プラットフォーム: %s", cfg.TargetPlatform)))

		switch cfg.TargetPlatform {
		case config.PlatformClickUp:
			runClickUpMigrate(cmd, cfg, jiraKey, dryRun)
		default:
			runShortcutMigrate(cmd, cfg, jiraKey, dryRun)
		}
	},
}

func init() {
	migrateCmd.Flags().BoolP("dry-run", "d", false, "実際には移行せず、何が行われるかを表示する")
	migrateCmd.Flags().StringP("iteration", "i", "", "イテレーションIDを指定して割り当てる (Shortcutのみ)")
	migrateCmd.Flags().BoolP("current-iteration", "c", false, "現在のイテレーションに割り当てる (Shortcutのみ)")
	migrateCmd.Flags().StringP("list", "l", "", "移行先リストIDを指定する (ClickUpのみ)")
	migrateCmd.Flags().StringP("parent", "p", "", "親タスクIDを指定する (ClickUpのみ)")
	migrateCmd.Flags().BoolP("force-update", "u", false, "既存タスクの更新のみ行い、新規作成しない (ClickUpのみ)")
	migrateCmd.Flags().Bool("no-comments", false, "コメントを同期しない")
}

// runShortcutMigrate はShortcutへの1件移行を実行します
func runShortcutMigrate(cmd *cobra.Command, cfg *config.Config, jiraKey string, dryRun bool) {
	migrator := newShortcutMigrator(cfg)

	jiraOK, shortcutOK := migrator.ValidateConnections()
	if !jiraOK || !shortcutOK {
		fmt.Println(errorStyle.Render("接続確認に失敗しました。設定を確認してください"))
		os.Exit(1)
	}

	iterationID := resolveIterationID(cmd, migrator)

	if dryRun {
		fmt.Println(warnStyle.Render(fmt.Sprintf("[DRY RUN] JIRAイシュー %s を移行します", jiraKey)))
		if iterationID > 0 {
			fmt.Println(warnStyle.Render(fmt.Sprintf("[DRY RUN] イテレーション %d に割り当てます", iterationID)))
		}
		return
	}

	result := migrator.MigrateIssue(jiraKey, iterationID)
	printResult(result.JiraKey, result.Success, result.TargetURL, result.WasUpdate, result.Error)
}

// runClickUpMigrate はClickUpへの1件移行を実行します
func runClickUpMigrate(cmd *cobra.Command, cfg *config.Config, jiraKey string, dryRun bool) {
	migrator := newClickUpMigrator(cfg)

	jiraOK, clickupOK := migrator.ValidateConnections()
	if !jiraOK || !clickupOK {
		fmt.Println(errorStyle.Render("接続確認に失敗しました。設定を確認してください"))
		os.Exit(1)
	}

	opts := clickUpOptionsFromFlags(cmd)

	if dryRun {
		fmt.Println(warnStyle.Render(fmt.Sprintf("[DRY RUN] JIRAイシュー %s を移行します", jiraKey)))
		if opts.ListID != "" {
			fmt.Println(warnStyle.Render(fmt.Sprintf("[DRY RUN] リスト %s に作成します", opts.ListID)))
		}
		if opts.ParentTaskID != "" {
			fmt.Println(warnStyle.Render(fmt.Sprintf("[DRY RUN] 親タスク %s の配下に作成します", opts.ParentTaskID)))
		}
		return
	}

	result := migrator.MigrateIssue(jiraKey, opts)
	printResult(result.JiraKey, result.Success, result.TargetURL, result.WasUpdate, result.Error)
}

// resolveIterationID はフラグからイテレーションIDを決定します
func resolveIterationID(cmd *cobra.Command, migrator *services.ShortcutMigrator) int64 {
	useCurrent, _ := cmd.Flags().GetBool("current-iteration")
	if useCurrent {
		iteration, err := migrator.GetCurrentIteration()
		if err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("イテレーション取得エラー: %v", err)))
			return 0
		}
		if iteration == nil {
			fmt.Println(warnStyle.Render("現在進行中のイテレーションが見つかりません"))
			return 0
		}
		fmt.Println(infoStyle.Render(fmt.Sprintf("現在のイテレーションを使用します: %s", iteration.Name)))
		return iteration.ID
	}

	iterationStr, _ := cmd.Flags().GetString("iteration")
	if iterationStr == "" {
		return 0
	}

	iterationID, err := strconv.ParseInt(iterationStr, 10, 64)
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("イテレーションIDの解析に失敗しました: %s", iterationStr)))
		return 0
	}
	return iterationID
}

// clickUpOptionsFromFlags はフラグからClickUp移行オプションを組み立てます
func clickUpOptionsFromFlags(cmd *cobra.Command) services.ClickUpMigrateOptions {
	listID, _ := cmd.Flags().GetString("list")
	parentID, _ := cmd.Flags().GetString("parent")
	forceUpdate, _ := cmd.Flags().GetBool("force-update")

	opts := services.ClickUpMigrateOptions{
		ListID:       listID,
		ParentTaskID: parentID,
		ForceUpdate:  forceUpdate,
	}

	if noComments, _ := cmd.Flags().GetBool("no-comments"); noComments {
		syncOff := false
		opts.SyncComments = &syncOff
	}

	return opts
}

// printResult は1件の移行結果を表示します
func printResult(jiraKey string, success bool, targetURL string, wasUpdate bool, errMsg string) {
	if !success {
		fmt.Println(errorStyle.Render(fmt.Sprintf("%s の移行に失敗しました: %s", jiraKey, errMsg)))
		return
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("%s を移行しました", jiraKey)))
	fmt.Println(successStyle.Render(fmt.Sprintf("URL: %s", targetURL)))
	if wasUpdate {
		fmt.Println(infoStyle.Render("（既存レコードを更新しました）"))
	}
}
