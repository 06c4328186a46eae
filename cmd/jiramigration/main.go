package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"jiramigration/api"
	"jiramigration/config"
	"jiramigration/services"
)

// 出力スタイル
var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

var rootCmd = &cobra.Command{
	Use:     "jiramigration",
	Short:   "JIRAのイシューをShortcutまたはClickUpに移行するツール",
	Version: "1.0.0",
	Long: `JIRAのイシューをShortcut.comまたはClickUpに移行するCLIツールです。

移行は冪等です: 同じイシューキーで再実行しても移行先に重複レコードは
作成されず、既存レコードが更新されます。設定は環境変数（または.env
ファイル）から読み込みます。`,
}

func main() {
	rootCmd.AddCommand(migrateCmd, bulkCmd, inspectCmd, checkCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// mustLoadConfig は設定を読み込み、検証エラーがあれば表示して終了します
// ネットワークアクセスより前に必ず呼ばれます
func mustLoadConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("設定読み込みエラー: %v", err)))
		os.Exit(1)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Println(errorStyle.Render("設定エラー:"))
		for _, e := range errs {
			fmt.Println(errorStyle.Render("  - " + e))
		}
		os.Exit(1)
	}

	return cfg
}

// newShortcutMigrator はShortcut移行エンジンを組み立てます
func newShortcutMigrator(cfg *config.Config) *services.ShortcutMigrator {
	return services.NewShortcutMigrator(cfg, api.NewJiraClient(cfg), api.NewShortcutClient(cfg))
}

// newClickUpMigrator はClickUp移行エンジンを組み立てます
func newClickUpMigrator(cfg *config.Config) *services.ClickUpMigrator {
	return services.NewClickUpMigrator(cfg, api.NewJiraClient(cfg), api.NewClickUpClient(cfg))
}
