package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"jiramigration/config"
	"jiramigration/models"
)

// Shortcut API設定
const (
	shortcutAPIBase = "https://api.app.shortcut.com/api/v3"

	// shortcutSearchPageSize は検索1ページあたりの最大取得件数です
	shortcutSearchPageSize = 25
)

// ShortcutClient はShortcut APIとのやり取りを処理します
type ShortcutClient struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewShortcutClient は新しいShortcutクライアントを作成します
func NewShortcutClient(cfg *config.Config) *ShortcutClient {
	return &ShortcutClient{
		token:   cfg.ShortcutAPIToken,
		baseURL: shortcutAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// doRequest はShortcut APIへのリクエストを発行し、レスポンスを out に解析します
func (s *ShortcutClient) doRequest(method, path string, query url.Values, payload, out interface{}) error {
	endpoint := s.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("JSONエンコードエラー: %w", err)
		}
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequest(method, endpoint, body)
	if err != nil {
		return fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	req.Header.Set("Shortcut-Token", s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Shortcut APIエラー (%d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("レスポンス解析エラー: %w", err)
		}
	}

	return nil
}

// CheckAuth はShortcut認証をチェックします
func (s *ShortcutClient) CheckAuth() error {
	return s.doRequest("GET", "/member", nil, nil, nil)
}

// CreateStory はストーリーを作成します
func (s *ShortcutClient) CreateStory(payload *models.ShortcutStoryPayload) (*models.ShortcutStory, error) {
	var story models.ShortcutStory
	if err := s.doRequest("POST", "/stories", nil, payload, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

// UpdateStory はストーリーを更新します
func (s *ShortcutClient) UpdateStory(storyID int64, payload *models.ShortcutStoryPayload) (*models.ShortcutStory, error) {
	var story models.ShortcutStory
	path := "/stories/" + strconv.FormatInt(storyID, 10)
	if err := s.doRequest("PUT", path, nil, payload, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

// CreateEpic はエピックを作成します
func (s *ShortcutClient) CreateEpic(payload *models.ShortcutEpicPayload) (*models.ShortcutEpic, error) {
	var epic models.ShortcutEpic
	if err := s.doRequest("POST", "/epics", nil, payload, &epic); err != nil {
		return nil, err
	}
	return &epic, nil
}

// UpdateEpic はエピックを更新します
func (s *ShortcutClient) UpdateEpic(epicID int64, payload *models.ShortcutEpicPayload) (*models.ShortcutEpic, error) {
	var epic models.ShortcutEpic
	path := "/epics/" + strconv.FormatInt(epicID, 10)
	if err := s.doRequest("PUT", path, nil, payload, &epic); err != nil {
		return nil, err
	}
	return &epic, nil
}

// GetWorkflowStates は全ワークフローの状態を平坦化して返します
func (s *ShortcutClient) GetWorkflowStates() ([]models.ShortcutWorkflowState, error) {
	var workflows []models.ShortcutWorkflow
	if err := s.doRequest("GET", "/workflows", nil, nil, &workflows); err != nil {
		return nil, err
	}

	var states []models.ShortcutWorkflowState
	for _, workflow := range workflows {
		states = append(states, workflow.States...)
	}
	return states, nil
}

// GetMembers はワークスペースのメンバー一覧を取得します
func (s *ShortcutClient) GetMembers() ([]models.ShortcutMember, error) {
	var members []models.ShortcutMember
	if err := s.doRequest("GET", "/members", nil, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// GetLabels はラベル一覧を取得します
func (s *ShortcutClient) GetLabels() ([]models.ShortcutLabel, error) {
	var labels []models.ShortcutLabel
	if err := s.doRequest("GET", "/labels", nil, nil, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// SearchStoriesByExternalID は外部IDでストーリーを検索します
// 検索演算子は external-id（ハイフン区切り）です
func (s *ShortcutClient) SearchStoriesByExternalID(externalID string) ([]models.ShortcutStory, error) {
	query := url.Values{}
	query.Set("query", "external-id:"+externalID)
	query.Set("page_size", strconv.Itoa(shortcutSearchPageSize))

	var result models.ShortcutSearchResult[models.ShortcutStory]
	if err := s.doRequest("GET", "/search/stories", query, nil, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// SearchEpicsByExternalID は外部IDでエピックを検索します
func (s *ShortcutClient) SearchEpicsByExternalID(externalID string) ([]models.ShortcutEpic, error) {
	query := url.Values{}
	query.Set("query", "external-id:"+externalID)
	query.Set("page_size", strconv.Itoa(shortcutSearchPageSize))

	var result models.ShortcutSearchResult[models.ShortcutEpic]
	if err := s.doRequest("GET", "/search/epics", query, nil, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// GetIterations はイテレーション一覧を取得します
func (s *ShortcutClient) GetIterations() ([]models.ShortcutIteration, error) {
	var iterations []models.ShortcutIteration
	if err := s.doRequest("GET", "/iterations", nil, nil, &iterations); err != nil {
		return nil, err
	}
	return iterations, nil
}
