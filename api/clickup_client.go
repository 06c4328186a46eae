package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"jiramigration/config"
	"jiramigration/models"
)

// clickupAPIBase はClickUp REST APIの固定エンドポイントです
const clickupAPIBase = "https://api.clickup.com/api/v2"

// ClickUpClient はClickUp APIとのやり取りを処理します
// すべてのリクエストはレート制限（429）対応の再試行付きで発行されます
type ClickUpClient struct {
	token   string
	teamID  string
	spaceID string
	listID  string
	baseURL string
	client  *http.Client
	retry   *RetryPolicy
}

// NewClickUpClient は新しいClickUpクライアントを作成します
func NewClickUpClient(cfg *config.Config) *ClickUpClient {
	return &ClickUpClient{
		token:   cfg.ClickUpAPIToken,
		teamID:  cfg.ClickUpTeamID,
		spaceID: cfg.ClickUpSpaceID,
		listID:  cfg.ClickUpListID,
		baseURL: clickupAPIBase,
		client:  &http.Client{Timeout: 60 * time.Second},
		retry:   NewRetryPolicy(),
	}
}

// DefaultListID はデフォルトの移行先リストIDを返します
func (c *ClickUpClient) DefaultListID() string {
	return c.listID
}

// doJSON はJSONリクエストを発行し、レスポンスを out に解析します
// ボディは試行ごとに作り直されるため再試行しても安全です
func (c *ClickUpClient) doJSON(method, path string, query url.Values, payload, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payloadBytes []byte
	if payload != nil {
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("JSONエンコードエラー: %w", err)
		}
	}

	resp, err := c.retry.Do(func() (*http.Response, error) {
		var body io.Reader
		if payloadBytes != nil {
			body = bytes.NewReader(payloadBytes)
		}

		req, err := http.NewRequest(method, endpoint, body)
		if err != nil {
			return nil, fmt.Errorf("リクエスト作成エラー: %w", err)
		}

		req.Header.Set("Authorization", c.token)
		req.Header.Set("Content-Type", "application/json")

		return c.client.Do(req)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ClickUp APIエラー (%d): %s", resp.StatusCode, clickupErrorMessage(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("レスポンス解析エラー: %w", err)
		}
	}

	return nil
}

// clickupErrorMessage はエラーレスポンスからAPI提供のメッセージを取り出します
// 取り出せない場合はボディ全体を返します
func clickupErrorMessage(body []byte) string {
	var parsed struct {
		Err string `json:"err"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Err != "" {
		return parsed.Err
	}
	return string(body)
}

// CheckAuth はClickUp認証をチェックします
func (c *ClickUpClient) CheckAuth() error {
	return c.doJSON("GET", "/user", nil, nil, nil)
}

// CreateTask は指定リストにタスクを作成します
func (c *ClickUpClient) CreateTask(listID string, payload *models.ClickUpCreateTask) (*models.ClickUpTask, error) {
	var task models.ClickUpTask
	path := fmt.Sprintf("/list/%s/task", listID)
	if err := c.doJSON("POST", path, nil, payload, &task); err != nil {
		return nil, fmt.Errorf("タスク作成失敗: %w", err)
	}
	return &task, nil
}

// UpdateTask はタスクを更新します
func (c *ClickUpClient) UpdateTask(taskID string, payload *models.ClickUpUpdateTask) (*models.ClickUpTask, error) {
	var task models.ClickUpTask
	path := fmt.Sprintf("/task/%s", taskID)
	if err := c.doJSON("PUT", path, nil, payload, &task); err != nil {
		return nil, fmt.Errorf("タスク更新失敗: %w", err)
	}
	return &task, nil
}

// GetTask はタスクをIDで取得します
func (c *ClickUpClient) GetTask(taskID string) (*models.ClickUpTask, error) {
	var task models.ClickUpTask
	path := fmt.Sprintf("/task/%s", taskID)
	if err := c.doJSON("GET", path, nil, nil, &task); err != nil {
		return nil, fmt.Errorf("タスク取得失敗: %w", err)
	}
	return &task, nil
}

// ListTasks はリスト内のタスクを取得します
// クローズ済みタスクとサブタスクを常に検索対象に含めます。
// customFieldID が空でなければカスタムフィールドの等価フィルタを付与します
func (c *ClickUpClient) ListTasks(listID, customFieldID, value string) ([]models.ClickUpTask, error) {
	query := url.Values{}
	query.Set("include_closed", "true")
	query.Set("subtasks", "true")

	if customFieldID != "" {
		filter, err := json.Marshal([]map[string]string{
			{"field_id": customFieldID, "operator": "=", "value": value},
		})
		if err != nil {
			return nil, fmt.Errorf("JSONエンコードエラー: %w", err)
		}
		query.Set("custom_fields", string(filter))
	}

	var page models.ClickUpTaskPage
	path := fmt.Sprintf("/list/%s/task", listID)
	if err := c.doJSON("GET", path, query, nil, &page); err != nil {
		return nil, fmt.Errorf("タスク一覧取得失敗: %w", err)
	}
	return page.Tasks, nil
}

// GetTaskComments はタスクのコメント一覧を取得します
func (c *ClickUpClient) GetTaskComments(taskID string) ([]models.ClickUpComment, error) {
	var page models.ClickUpCommentPage
	path := fmt.Sprintf("/task/%s/comment", taskID)
	if err := c.doJSON("GET", path, nil, nil, &page); err != nil {
		return nil, fmt.Errorf("コメント取得失敗: %w", err)
	}
	return page.Comments, nil
}

// AddTaskComment はタスクにコメントを追加します
func (c *ClickUpClient) AddTaskComment(taskID, text string) error {
	payload := map[string]string{"comment_text": text}
	path := fmt.Sprintf("/task/%s/comment", taskID)
	if err := c.doJSON("POST", path, nil, payload, nil); err != nil {
		return fmt.Errorf("コメント追加失敗: %w", err)
	}
	return nil
}

// SetCustomField はタスクのカスタムフィールド値を設定します
func (c *ClickUpClient) SetCustomField(taskID, fieldID string, value models.CustomFieldValue) error {
	payload := map[string]models.CustomFieldValue{"value": value}
	path := fmt.Sprintf("/task/%s/field/%s", taskID, fieldID)
	if err := c.doJSON("POST", path, nil, payload, nil); err != nil {
		return fmt.Errorf("カスタムフィールド設定失敗: %w", err)
	}
	return nil
}

// UploadAttachment はタスクに添付ファイルをアップロードします（multipart形式）
func (c *ClickUpClient) UploadAttachment(taskID string, data []byte, filename string) error {
	endpoint := fmt.Sprintf("%s/task/%s/attachment", c.baseURL, taskID)

	resp, err := c.retry.Do(func() (*http.Response, error) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)

		part, err := writer.CreateFormFile("attachment", filename)
		if err != nil {
			return nil, fmt.Errorf("multipartフォーム作成エラー: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("ファイル書き込みエラー: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("writerクローズエラー: %w", err)
		}

		req, err := http.NewRequest("POST", endpoint, body)
		if err != nil {
			return nil, fmt.Errorf("リクエスト作成エラー: %w", err)
		}

		req.Header.Set("Authorization", c.token)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		return c.client.Do(req)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("添付ファイルアップロード失敗 (%d): %s", resp.StatusCode, clickupErrorMessage(respBody))
	}

	return nil
}

// GetTeamMembers はチームのメンバー一覧を取得します
func (c *ClickUpClient) GetTeamMembers() ([]models.ClickUpUser, error) {
	var result struct {
		Members []struct {
			User models.ClickUpUser `json:"user"`
		} `json:"members"`
	}
	path := fmt.Sprintf("/team/%s/user", c.teamID)
	if err := c.doJSON("GET", path, nil, nil, &result); err != nil {
		return nil, fmt.Errorf("チームメンバー取得失敗: %w", err)
	}

	users := make([]models.ClickUpUser, 0, len(result.Members))
	for _, member := range result.Members {
		users = append(users, member.User)
	}
	return users, nil
}

// GetList はリストをIDで取得します
func (c *ClickUpClient) GetList(listID string) (*models.ClickUpList, error) {
	var list models.ClickUpList
	path := fmt.Sprintf("/list/%s", listID)
	if err := c.doJSON("GET", path, nil, nil, &list); err != nil {
		return nil, fmt.Errorf("リスト取得失敗: %w", err)
	}
	return &list, nil
}

// GetSpace はスペースをIDで取得します
func (c *ClickUpClient) GetSpace(spaceID string) (*models.ClickUpSpace, error) {
	var space models.ClickUpSpace
	path := fmt.Sprintf("/space/%s", spaceID)
	if err := c.doJSON("GET", path, nil, nil, &space); err != nil {
		return nil, fmt.Errorf("スペース取得失敗: %w", err)
	}
	return &space, nil
}
