package services

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jiramigration/config"
	"jiramigration/models"
)

// fakeJiraAPI はテスト用のインメモリJIRAクライアントです
type fakeJiraAPI struct {
	issues      map[string]*models.JiraIssue
	attachments map[string][]byte // ダウンロードURL → データ
	downloads   []string          // ダウンロードされたURLの記録
}

func newFakeJira() *fakeJiraAPI {
	return &fakeJiraAPI{
		issues:      make(map[string]*models.JiraIssue),
		attachments: make(map[string][]byte),
	}
}

func (f *fakeJiraAPI) CheckAuth() error { return nil }

func (f *fakeJiraAPI) GetIssue(key string, includeComments bool) (*models.JiraIssue, error) {
	issue, ok := f.issues[key]
	if !ok {
		return nil, fmt.Errorf("JIRAイシュー %s が見つかりません", key)
	}
	return issue, nil
}

func (f *fakeJiraAPI) DownloadAttachment(url string) ([]byte, error) {
	data, ok := f.attachments[url]
	if !ok {
		return nil, fmt.Errorf("添付ファイルが見つかりません: %s", url)
	}
	f.downloads = append(f.downloads, url)
	return data, nil
}

// fakeShortcutAPI はテスト用のインメモリShortcutクライアントです
type fakeShortcutAPI struct {
	stories    map[int64]*models.ShortcutStory
	epics      map[int64]*models.ShortcutEpic
	states     []models.ShortcutWorkflowState
	members    []models.ShortcutMember
	iterations []models.ShortcutIteration
	nextID     int64

	createdStories []*models.ShortcutStoryPayload
	updatedStories []*models.ShortcutStoryPayload
	createdEpics   []*models.ShortcutEpicPayload
	updatedEpics   []*models.ShortcutEpicPayload
	memberCalls    int
}

func newFakeShortcut() *fakeShortcutAPI {
	return &fakeShortcutAPI{
		stories: make(map[int64]*models.ShortcutStory),
		epics:   make(map[int64]*models.ShortcutEpic),
		states: []models.ShortcutWorkflowState{
			{ID: 500, Name: "Unstarted", Type: "unstarted"},
			{ID: 501, Name: "Started", Type: "started"},
			{ID: 502, Name: "Done", Type: "done"},
		},
		nextID: 100,
	}
}

func (f *fakeShortcutAPI) CheckAuth() error { return nil }

func (f *fakeShortcutAPI) CreateStory(payload *models.ShortcutStoryPayload) (*models.ShortcutStory, error) {
	f.createdStories = append(f.createdStories, payload)
	f.nextID++
	story := &models.ShortcutStory{
		ID:         f.nextID,
		Name:       payload.Name,
		AppURL:     fmt.Sprintf("https://app.shortcut.com/story/%d", f.nextID),
		StoryType:  payload.StoryType,
		ExternalID: payload.ExternalID,
	}
	f.stories[story.ID] = story
	return story, nil
}

func (f *fakeShortcutAPI) UpdateStory(storyID int64, payload *models.ShortcutStoryPayload) (*models.ShortcutStory, error) {
	story, ok := f.stories[storyID]
	if !ok {
		return nil, fmt.Errorf("ストーリー %d が存在しません", storyID)
	}
	f.updatedStories = append(f.updatedStories, payload)
	story.Name = payload.Name
	return story, nil
}

func (f *fakeShortcutAPI) CreateEpic(payload *models.ShortcutEpicPayload) (*models.ShortcutEpic, error) {
	f.createdEpics = append(f.createdEpics, payload)
	f.nextID++
	epic := &models.ShortcutEpic{
		ID:         f.nextID,
		Name:       payload.Name,
		AppURL:     fmt.Sprintf("https://app.shortcut.com/epic/%d", f.nextID),
		State:      payload.State,
		ExternalID: payload.ExternalID,
	}
	f.epics[epic.ID] = epic
	return epic, nil
}

func (f *fakeShortcutAPI) UpdateEpic(epicID int64, payload *models.ShortcutEpicPayload) (*models.ShortcutEpic, error) {
	epic, ok := f.epics[epicID]
	if !ok {
		return nil, fmt.Errorf("エピック %d が存在しません", epicID)
	}
	f.updatedEpics = append(f.updatedEpics, payload)
	epic.Name = payload.Name
	return epic, nil
}

func (f *fakeShortcutAPI) GetWorkflowStates() ([]models.ShortcutWorkflowState, error) {
	return f.states, nil
}

func (f *fakeShortcutAPI) GetMembers() ([]models.ShortcutMember, error) {
	f.memberCalls++
	return f.members, nil
}

func (f *fakeShortcutAPI) SearchStoriesByExternalID(externalID string) ([]models.ShortcutStory, error) {
	var found []models.ShortcutStory
	for _, story := range f.stories {
		if story.ExternalID == externalID {
			found = append(found, *story)
		}
	}
	// 意図的にID降順で返し、呼び出し側の決定的な選択を検証できるようにする
	sort.Slice(found, func(i, j int) bool { return found[i].ID > found[j].ID })
	return found, nil
}

func (f *fakeShortcutAPI) SearchEpicsByExternalID(externalID string) ([]models.ShortcutEpic, error) {
	var found []models.ShortcutEpic
	for _, epic := range f.epics {
		if epic.ExternalID == externalID {
			found = append(found, *epic)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID > found[j].ID })
	return found, nil
}

func (f *fakeShortcutAPI) GetIterations() ([]models.ShortcutIteration, error) {
	return f.iterations, nil
}

// テスト用のイシューを作成するヘルパー
func testIssue(key, issueType, status string) *models.JiraIssue {
	return &models.JiraIssue{
		ID:  "1000",
		Key: key,
		Fields: models.JiraFields{
			Summary:     "テストイシュー " + key,
			Description: &models.JiraDocument{Plain: "説明文"},
			IssueType:   models.JiraNamedField{Name: issueType},
			Status:      models.JiraNamedField{Name: status},
			Created:     "2024-01-10T09:00:00.000+0900",
			Updated:     "2024-01-12T18:30:00.000+0900",
		},
	}
}

func testShortcutConfig() *config.Config {
	return &config.Config{
		JiraBaseURL:    "https://jira.example.com",
		TargetPlatform: config.PlatformShortcut,
	}
}

func newTestShortcutMigrator(fj *fakeJiraAPI, fs *fakeShortcutAPI) *ShortcutMigrator {
	m := NewShortcutMigrator(testShortcutConfig(), fj, fs)
	m.bulkDelay = 0
	return m
}

func TestShortcutMigrator_CreateThenUpdate(t *testing.T) {
	fj := newFakeJira()
	fs := newFakeShortcut()
	fj.issues["PROJ-1"] = testIssue("PROJ-1", "Story", "In Progress")

	m := newTestShortcutMigrator(fj, fs)

	// 1回目: 新規作成
	result := m.MigrateIssue("PROJ-1", 0)
	require.True(t, result.Success, "error: %s", result.Error)
	assert.False(t, result.WasUpdate)
	require.Len(t, fs.createdStories, 1)
	assert.Empty(t, fs.updatedStories)

	created := fs.createdStories[0]
	assert.Equal(t, "PROJ-1", created.ExternalID)
	assert.Equal(t, models.StoryTypeFeature, created.StoryType)
	assert.Equal(t, int64(501), created.WorkflowStateID) // In Progress → Started
	// 派生タイプタグは新規作成時に付与される
	assert.Contains(t, created.Labels, models.ShortcutLabel{Name: "jira:story"})

	// 2回目: 同じイシューは既存ストーリーの更新になる
	result = m.MigrateIssue("PROJ-1", 0)
	require.True(t, result.Success, "error: %s", result.Error)
	assert.True(t, result.WasUpdate)
	assert.Len(t, fs.createdStories, 1, "2回目の実行で新規作成されてはいけない")
	require.Len(t, fs.updatedStories, 1)

	updated := fs.updatedStories[0]
	// external_idは更新ペイロードから除外される
	assert.Empty(t, updated.ExternalID)
	// 派生タイプタグは更新時には再追加されない
	assert.NotContains(t, updated.Labels, models.ShortcutLabel{Name: "jira:story"})
}

func TestShortcutMigrator_EpicClassification(t *testing.T) {
	fj := newFakeJira()
	fs := newFakeShortcut()
	fj.issues["PROJ-2"] = testIssue("PROJ-2", "Epic", "In Progress")

	m := newTestShortcutMigrator(fj, fs)

	result := m.MigrateIssue("PROJ-2", 0)
	require.True(t, result.Success, "error: %s", result.Error)
	require.Len(t, fs.createdEpics, 1)
	assert.Empty(t, fs.createdStories, "エピックはストーリーとして作成されない")
	assert.Equal(t, models.EpicStateInProgress, fs.createdEpics[0].State)

	// 2回目はエピックの更新
	result = m.MigrateIssue("PROJ-2", 0)
	require.True(t, result.Success)
	assert.True(t, result.WasUpdate)
	assert.Len(t, fs.createdEpics, 1)
	assert.Len(t, fs.updatedEpics, 1)
}

func TestShortcutMigrator_MultipleMatchesPicksLowestID(t *testing.T) {
	fj := newFakeJira()
	fs := newFakeShortcut()
	fj.issues["PROJ-3"] = testIssue("PROJ-3", "Story", "Done")

	// 同じ外部IDを持つストーリーが2件ある状態（過去の二重移行を想定）
	fs.stories[30] = &models.ShortcutStory{ID: 30, Name: "重複その2", ExternalID: "PROJ-3"}
	fs.stories[20] = &models.ShortcutStory{ID: 20, Name: "重複その1", ExternalID: "PROJ-3"}

	m := newTestShortcutMigrator(fj, fs)

	result := m.MigrateIssue("PROJ-3", 0)
	require.True(t, result.Success, "error: %s", result.Error)
	assert.True(t, result.WasUpdate)
	// ID最小のストーリーが決定的に選ばれる
	assert.Equal(t, "20", result.TargetID)
	assert.Equal(t, "テストイシュー PROJ-3", fs.stories[20].Name)
	assert.Equal(t, "重複その2", fs.stories[30].Name, "ID最小以外は触らない")
}

func TestShortcutMigrator_WorkflowStateFallback(t *testing.T) {
	fj := newFakeJira()
	fs := newFakeShortcut()
	fj.issues["PROJ-4"] = testIssue("PROJ-4", "Story", "To Do")

	// マッピング先の "Unstarted" が存在しないワークフロー
	fs.states = []models.ShortcutWorkflowState{
		{ID: 600, Name: "Backlog", Type: "unstarted"},
		{ID: 601, Name: "Doing", Type: "started"},
	}

	m := newTestShortcutMigrator(fj, fs)

	result := m.MigrateIssue("PROJ-4", 0)
	require.True(t, result.Success, "error: %s", result.Error)
	require.Len(t, fs.createdStories, 1)
	// 先頭の状態にフォールバックする
	assert.Equal(t, int64(600), fs.createdStories[0].WorkflowStateID)
}

func TestShortcutMigrator_IterationAssignment(t *testing.T) {
	fj := newFakeJira()
	fs := newFakeShortcut()
	fj.issues["PROJ-5"] = testIssue("PROJ-5", "Story", "Open")

	m := newTestShortcutMigrator(fj, fs)

	result := m.MigrateIssue("PROJ-5", 77)
	require.True(t, result.Success)
	require.Len(t, fs.createdStories, 1)
	assert.Equal(t, int64(77), fs.createdStories[0].IterationID)
}

func TestShortcutMigrator_OwnerResolutionWithCache(t *testing.T) {
	fj := newFakeJira()
	fs := newFakeShortcut()

	member := models.ShortcutMember{ID: "uuid-123"}
	member.Profile.Name = "山田太郎"
	member.Profile.EmailAddress = "Yamada@Example.com"
	fs.members = []models.ShortcutMember{member}

	issue := testIssue("PROJ-6", "Story", "Open")
	issue.Fields.Assignee = &models.JiraUser{
		DisplayName:  "山田太郎",
		EmailAddress: "yamada@example.com",
	}
	fj.issues["PROJ-6"] = issue

	m := newTestShortcutMigrator(fj, fs)

	result := m.MigrateIssue("PROJ-6", 0)
	require.True(t, result.Success)
	require.Len(t, fs.createdStories, 1)
	assert.Equal(t, []string{"uuid-123"}, fs.createdStories[0].OwnerIDs)
	assert.Equal(t, 1, fs.memberCalls)

	// 2回目はキャッシュが使われ、メンバー一覧を再取得しない
	m.MigrateIssue("PROJ-6", 0)
	assert.Equal(t, 1, fs.memberCalls)
}

func TestShortcutMigrator_BulkContinuesOnFailure(t *testing.T) {
	fj := newFakeJira()
	fs := newFakeShortcut()
	fj.issues["PROJ-7"] = testIssue("PROJ-7", "Story", "Open")

	m := newTestShortcutMigrator(fj, fs)

	results := m.MigrateBulk([]string{"NONE-1", "PROJ-7"}, 0)
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "NONE-1")
	assert.True(t, results[1].Success)

	summary := models.Summarize(results)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
}

func TestFindCurrentIteration(t *testing.T) {
	iterations := []models.ShortcutIteration{
		{ID: 1, Name: "Sprint 1", StartDate: "2024-03-01", EndDate: "2024-03-14"},
		{ID: 2, Name: "Sprint 2", StartDate: "2024-03-15", EndDate: "2024-03-28"},
		{ID: 3, Name: "不正な日付", StartDate: "いつか", EndDate: "2024-04-11"},
	}

	// 期間内
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	current := FindCurrentIteration(iterations, now)
	require.NotNil(t, current)
	assert.Equal(t, int64(2), current.ID)

	// 開始日当日も期間内
	now = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	current = FindCurrentIteration(iterations, now)
	require.NotNil(t, current)
	assert.Equal(t, int64(2), current.ID)

	// どのイテレーションにも該当しない
	now = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, FindCurrentIteration(iterations, now))

	assert.Nil(t, FindCurrentIteration(nil, now))
}
