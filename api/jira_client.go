package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jiramigration/config"
	"jiramigration/models"
)

// issueFields は取得対象のJIRAフィールド一覧です
var issueFields = []string{
	"summary",
	"description",
	"issuetype",
	"status",
	"priority",
	"assignee",
	"reporter",
	"created",
	"updated",
	"labels",
	"components",
	"parent",
	"subtasks",
	"attachment",
}

// JiraClient はJIRA APIとのやり取りを処理します
type JiraClient struct {
	config *config.Config
	client *http.Client
}

// NewJiraClient は新しいJIRAクライアントを作成します
func NewJiraClient(cfg *config.Config) *JiraClient {
	return &JiraClient{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// CheckAuth はJIRA認証をチェックします
func (j *JiraClient) CheckAuth() error {
	endpoint := fmt.Sprintf("%s/rest/api/3/myself", j.config.JiraBaseURL)

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	req.SetBasicAuth(j.config.JiraEmail, j.config.JiraAPIToken)

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("認証失敗: %s", string(body))
	}

	return nil
}

// GetIssue はJIRAイシューをキーで取得します
// includeComments が真の場合はコメントも同時に取得します
func (j *JiraClient) GetIssue(key string, includeComments bool) (*models.JiraIssue, error) {
	fields := issueFields
	if includeComments {
		fields = append(append([]string{}, issueFields...), "comment")
	}

	params := url.Values{}
	params.Set("expand", "names,schema")
	params.Set("fields", strings.Join(fields, ","))

	endpoint := fmt.Sprintf("%s/rest/api/3/issue/%s?%s", j.config.JiraBaseURL, key, params.Encode())

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	req.SetBasicAuth(j.config.JiraEmail, j.config.JiraAPIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("JIRAイシュー %s が見つかりません", key)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("イシュー取得失敗 (%s): %s", key, string(body))
	}

	var issue models.JiraIssue
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	return &issue, nil
}

// SearchIssues はJQLでイシューを検索します
func (j *JiraClient) SearchIssues(jql string, maxResults int) ([]models.JiraIssue, error) {
	if maxResults <= 0 {
		maxResults = 50
	}

	payload := map[string]interface{}{
		"jql":        jql,
		"maxResults": maxResults,
		"fields":     issueFields,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("JSONエンコードエラー: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rest/api/3/search", j.config.JiraBaseURL)

	req, err := http.NewRequest("POST", endpoint, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	req.SetBasicAuth(j.config.JiraEmail, j.config.JiraAPIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("イシュー検索失敗: %s", string(body))
	}

	var result struct {
		Issues []models.JiraIssue `json:"issues"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	return result.Issues, nil
}

// DownloadAttachment は添付ファイルをダウンロードします
// 添付URLも同じ認証オリジンにあるため、Basic認証を付与します
func (j *JiraClient) DownloadAttachment(downloadURL string) ([]byte, error) {
	req, err := http.NewRequest("GET", downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	req.SetBasicAuth(j.config.JiraEmail, j.config.JiraAPIToken)

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("添付ファイルダウンロード失敗 (%s): %s", downloadURL, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンス読み込みエラー: %w", err)
	}

	return data, nil
}
