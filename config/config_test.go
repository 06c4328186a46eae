package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 環境変数をテストごとにまっさらな状態にするヘルパー
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"JIRA_BASE_URL", "JIRA_EMAIL", "JIRA_API_TOKEN",
		"TARGET_PLATFORM", "SHORTCUT_API_TOKEN",
		"DEFAULT_SHORTCUT_TEAM_ID", "DEFAULT_SHORTCUT_PROJECT_ID",
		"CLICKUP_API_TOKEN", "CLICKUP_TEAM_ID", "CLICKUP_SPACE_ID",
		"CLICKUP_LIST_ID", "CLICKUP_EXTERNAL_ID_FIELD_ID",
		"CLICKUP_SYNC_COMMENTS", "STATUS_MAPPING_FILE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	// 移行先のデフォルトはShortcut、コメント同期は有効
	assert.Equal(t, PlatformShortcut, cfg.TargetPlatform)
	assert.True(t, cfg.ClickUpSyncComments)
	assert.Nil(t, cfg.StatusMapping)
}

func TestLoadConfig_TrimsTrailingSlash(t *testing.T) {
	clearEnv(t)
	t.Setenv("JIRA_BASE_URL", "https://example.atlassian.net/")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net", cfg.JiraBaseURL)
}

func TestLoadConfig_SyncCommentsDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLICKUP_SYNC_COMMENTS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.ClickUpSyncComments)
}

func TestLoadConfig_InvalidBoolFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLICKUP_SYNC_COMMENTS", "はい")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.ClickUpSyncComments)
}

func TestLoadConfig_StatusMappingFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "mapping.yaml")
	content := "検証中: in progress\nリリース済み: Closed\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("STATUS_MAPPING_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"検証中":    "in progress",
		"リリース済み": "Closed",
	}, cfg.StatusMapping)
}

func TestLoadConfig_StatusMappingFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATUS_MAPPING_FILE", filepath.Join(t.TempDir(), "nonexistent.yaml"))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ステータスマッピング読み込みエラー")
}

func TestValidate_Shortcut(t *testing.T) {
	cfg := &Config{
		JiraBaseURL:    "https://example.atlassian.net",
		JiraEmail:      "user@example.com",
		JiraAPIToken:   "token",
		TargetPlatform: PlatformShortcut,
	}

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "SHORTCUT_API_TOKEN")

	cfg.ShortcutAPIToken = "sc-token"
	assert.Empty(t, cfg.Validate())
}

func TestValidate_ClickUp(t *testing.T) {
	cfg := &Config{
		JiraBaseURL:    "https://example.atlassian.net",
		JiraEmail:      "user@example.com",
		JiraAPIToken:   "token",
		TargetPlatform: PlatformClickUp,
	}

	errs := cfg.Validate()
	// トークン・チーム・スペース・リストの4つが不足
	assert.Len(t, errs, 4)

	cfg.ClickUpAPIToken = "cu-token"
	cfg.ClickUpTeamID = "team"
	cfg.ClickUpSpaceID = "space"
	cfg.ClickUpListID = "list"
	assert.Empty(t, cfg.Validate())
}

func TestValidate_MissingJiraSettings(t *testing.T) {
	cfg := &Config{TargetPlatform: PlatformShortcut, ShortcutAPIToken: "token"}

	errs := cfg.Validate()
	assert.Len(t, errs, 3)
}

func TestValidate_UnknownPlatform(t *testing.T) {
	cfg := &Config{
		JiraBaseURL:    "https://example.atlassian.net",
		JiraEmail:      "user@example.com",
		JiraAPIToken:   "token",
		TargetPlatform: "asana",
	}

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "TARGET_PLATFORM")
}
