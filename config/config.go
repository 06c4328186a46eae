package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 移行先プラットフォームの定数
const (
	PlatformShortcut = "shortcut"
	PlatformClickUp  = "clickup"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// JIRA API設定
	JiraBaseURL  string
	JiraEmail    string
	JiraAPIToken string

	// 移行先の選択 (shortcut / clickup)
	TargetPlatform string

	// Shortcut API設定
	ShortcutAPIToken string
	DefaultTeamID    string
	DefaultProjectID string

	// ClickUp API設定
	ClickUpAPIToken          string
	ClickUpTeamID            string
	ClickUpSpaceID           string
	ClickUpListID            string
	ClickUpExternalIDFieldID string // 外部ID用カスタムフィールドのID（未設定なら冪等性なし）
	ClickUpSyncComments      bool

	// ステータスマッピングの明示的な上書き表（最優先で参照される）
	StatusMapping map[string]string
}

// LoadConfig は環境変数から設定を読み込みます
func LoadConfig() (*Config, error) {
	// .envファイルを読み込む（存在しなくてもエラーにしない）
	_ = godotenv.Load()

	config := &Config{
		JiraBaseURL:              strings.TrimRight(os.Getenv("JIRA_BASE_URL"), "/"),
		JiraEmail:                os.Getenv("JIRA_EMAIL"),
		JiraAPIToken:             os.Getenv("JIRA_API_TOKEN"),
		TargetPlatform:           getEnvWithDefault("TARGET_PLATFORM", PlatformShortcut),
		ShortcutAPIToken:         os.Getenv("SHORTCUT_API_TOKEN"),
		DefaultTeamID:            os.Getenv("DEFAULT_SHORTCUT_TEAM_ID"),
		DefaultProjectID:         os.Getenv("DEFAULT_SHORTCUT_PROJECT_ID"),
		ClickUpAPIToken:          os.Getenv("CLICKUP_API_TOKEN"),
		ClickUpTeamID:            os.Getenv("CLICKUP_TEAM_ID"),
		ClickUpSpaceID:           os.Getenv("CLICKUP_SPACE_ID"),
		ClickUpListID:            os.Getenv("CLICKUP_LIST_ID"),
		ClickUpExternalIDFieldID: os.Getenv("CLICKUP_EXTERNAL_ID_FIELD_ID"),
		ClickUpSyncComments:      getEnvAsBoolWithDefault("CLICKUP_SYNC_COMMENTS", true),
	}

	// ステータスマッピングの上書き表（YAMLファイル、任意）
	if mappingFile := os.Getenv("STATUS_MAPPING_FILE"); mappingFile != "" {
		mapping, err := loadStatusMapping(mappingFile)
		if err != nil {
			return nil, fmt.Errorf("ステータスマッピング読み込みエラー: %w", err)
		}
		config.StatusMapping = mapping
	}

	return config, nil
}

// Validate は必須設定の不足を検証し、不足項目のメッセージ一覧を返します
func (c *Config) Validate() []string {
	var errors []string

	if c.JiraBaseURL == "" {
		errors = append(errors, "JIRA_BASE_URL が設定されていません")
	}
	if c.JiraEmail == "" {
		errors = append(errors, "JIRA_EMAIL が設定されていません")
	}
	if c.JiraAPIToken == "" {
		errors = append(errors, "JIRA_API_TOKEN が設定されていません")
	}

	switch c.TargetPlatform {
	case PlatformShortcut:
		if c.ShortcutAPIToken == "" {
			errors = append(errors, "SHORTCUT_API_TOKEN が設定されていません (Shortcut移行に必須)")
		}
	case PlatformClickUp:
		if c.ClickUpAPIToken == "" {
			errors = append(errors, "CLICKUP_API_TOKEN が設定されていません (ClickUp移行に必須)")
		}
		if c.ClickUpTeamID == "" {
			errors = append(errors, "CLICKUP_TEAM_ID が設定されていません (ClickUp移行に必須)")
		}
		if c.ClickUpSpaceID == "" {
			errors = append(errors, "CLICKUP_SPACE_ID が設定されていません (ClickUp移行に必須)")
		}
		if c.ClickUpListID == "" {
			errors = append(errors, "CLICKUP_LIST_ID が設定されていません (ClickUp移行に必須)")
		}
	default:
		errors = append(errors, fmt.Sprintf("TARGET_PLATFORM の値が不正です: %s (shortcut または clickup)", c.TargetPlatform))
	}

	return errors
}

// loadStatusMapping はYAMLファイルからステータスマッピングを読み込みます
func loadStatusMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ファイルオープンエラー: %w", err)
	}

	mapping := make(map[string]string)
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("YAML解析エラー: %w", err)
	}

	return mapping, nil
}

// デフォルト値付きで環境変数を取得
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// デフォルト値付きで環境変数を真偽値として取得
func getEnvAsBoolWithDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
