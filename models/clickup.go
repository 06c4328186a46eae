package models

import (
	"encoding/json"
	"strconv"
)

// CustomFieldKind はカスタムフィールド値の種別を表します
type CustomFieldKind int

// カスタムフィールド値の種別（文字列・数値・未設定のみを扱う）
const (
	CustomFieldNone CustomFieldKind = iota
	CustomFieldText
	CustomFieldNumber
)

// CustomFieldValue はClickUpカスタムフィールドの値を表します
// APIは任意の型を返しますが、境界でこの閉じた型に変換します
// （ドロップダウン等の複合値は CustomFieldNone として無視）
type CustomFieldValue struct {
	Kind   CustomFieldKind
	Text   string
	Number float64
}

// TextValue は文字列値を作成します
func TextValue(s string) CustomFieldValue {
	return CustomFieldValue{Kind: CustomFieldText, Text: s}
}

// String は比較用の文字列表現を返します
func (v CustomFieldValue) String() string {
	switch v.Kind {
	case CustomFieldText:
		return v.Text
	case CustomFieldNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// UnmarshalJSON は文字列・数値・nullを受け取り、それ以外は未設定として扱います
func (v *CustomFieldValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = CustomFieldValue{Kind: CustomFieldText, Text: s}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = CustomFieldValue{Kind: CustomFieldNumber, Number: n}
		return nil
	}

	// null および複合値（配列・オブジェクト）は未設定扱い
	*v = CustomFieldValue{}
	return nil
}

// MarshalJSON はUnmarshalJSONの逆変換です
func (v CustomFieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case CustomFieldText:
		return json.Marshal(v.Text)
	case CustomFieldNumber:
		return json.Marshal(v.Number)
	default:
		return []byte("null"), nil
	}
}

// ClickUpTask はClickUpのタスクを表します
type ClickUpTask struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Status       ClickUpTaskStatus    `json:"status"`
	Assignees    []ClickUpUser        `json:"assignees,omitempty"`
	Tags         []ClickUpTag         `json:"tags,omitempty"`
	URL          string               `json:"url"`
	List         *ClickUpListRef      `json:"list,omitempty"`
	CustomFields []ClickUpCustomField `json:"custom_fields,omitempty"`
	Priority     *ClickUpPriorityRef  `json:"priority,omitempty"`
	Attachments  []ClickUpAttachment  `json:"attachments,omitempty"`
}

// ClickUpTaskStatus はタスクのステータスを表します
type ClickUpTaskStatus struct {
	Status string `json:"status"`
	Type   string `json:"type,omitempty"`
}

// ClickUpTag はタスクのタグを表します
type ClickUpTag struct {
	Name string `json:"name"`
}

// ClickUpListRef はタスクが属するリストへの参照を表します
type ClickUpListRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ClickUpCustomField はタスク上のカスタムフィールドを表します
type ClickUpCustomField struct {
	ID    string           `json:"id"`
	Name  string           `json:"name,omitempty"`
	Value CustomFieldValue `json:"value,omitempty"`
}

// ClickUpPriorityRef はタスクの優先度を表します
type ClickUpPriorityRef struct {
	ID       string `json:"id"`
	Priority string `json:"priority"`
}

// ClickUpAttachment はタスクの添付ファイルを表します
// Title が重複排除のキーになります
type ClickUpAttachment struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// ClickUpList はClickUpのリストを表します
type ClickUpList struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Statuses []ClickUpListStatus `json:"statuses,omitempty"`
}

// ClickUpListStatus はリストに定義されたステータスを表します
type ClickUpListStatus struct {
	Status     string `json:"status"`
	Type       string `json:"type"`
	OrderIndex int    `json:"orderindex"`
}

// ClickUpSpace はClickUpのスペースを表します
type ClickUpSpace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClickUpUser はClickUpのユーザーを表します
type ClickUpUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ClickUpComment はタスクのコメントを表します
type ClickUpComment struct {
	ID          string `json:"id"`
	CommentText string `json:"comment_text"`
	Date        string `json:"date,omitempty"`
}

// ClickUpCustomFieldParam は作成ペイロード内のカスタムフィールド指定を表します
type ClickUpCustomFieldParam struct {
	ID    string           `json:"id"`
	Value CustomFieldValue `json:"value"`
}

// ClickUpCreateTask はタスク作成ペイロードを表します
type ClickUpCreateTask struct {
	Name         string                    `json:"name"`
	Description  string                    `json:"description,omitempty"`
	Status       string                    `json:"status,omitempty"`
	Assignees    []int                     `json:"assignees,omitempty"`
	Tags         []string                  `json:"tags,omitempty"`
	Priority     *int                      `json:"priority,omitempty"`
	Parent       string                    `json:"parent,omitempty"`
	CustomFields []ClickUpCustomFieldParam `json:"custom_fields,omitempty"`
}

// ClickUpAssigneeUpdate は更新時の担当者差分を表します（追加のみ使用）
type ClickUpAssigneeUpdate struct {
	Add    []int `json:"add,omitempty"`
	Remove []int `json:"rem,omitempty"`
}

// ClickUpUpdateTask はタスク更新ペイロードを表します
// カスタムフィールド（外部ID）は更新対象に含めません
type ClickUpUpdateTask struct {
	Name         string                 `json:"name,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Status       string                 `json:"status,omitempty"`
	Assignees    *ClickUpAssigneeUpdate `json:"assignees,omitempty"`
	Priority     *int                   `json:"priority,omitempty"`
	CustomItemID int                    `json:"custom_item_id,omitempty"` // タスクタイプ
}

// ClickUpTaskPage はリスト内タスク取得のレスポンスを表します
type ClickUpTaskPage struct {
	Tasks []ClickUpTask `json:"tasks"`
}

// ClickUpCommentPage はコメント取得のレスポンスを表します
type ClickUpCommentPage struct {
	Comments []ClickUpComment `json:"comments"`
}
