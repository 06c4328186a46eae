package models

import "encoding/json"

// ADFノードタイプの定数（Atlassian Document Format）
const (
	ADFNodeDoc         = "doc"
	ADFNodeParagraph   = "paragraph"
	ADFNodeHeading     = "heading"
	ADFNodeBulletList  = "bulletList"
	ADFNodeOrderedList = "orderedList"
	ADFNodeListItem    = "listItem"
	ADFNodeCodeBlock   = "codeBlock"
	ADFNodeBlockquote  = "blockquote"
	ADFNodeHardBreak   = "hardBreak"
	ADFNodeText        = "text"
)

// ADFマークタイプの定数
const (
	ADFMarkStrong = "strong"
	ADFMarkEm     = "em"
	ADFMarkCode   = "code"
	ADFMarkLink   = "link"
)

// ADFNode はADFドキュメントツリーの1ノードを表します
// 未知のタイプのノードは変換時に無視されます
type ADFNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Content []ADFNode `json:"content,omitempty"`
	Attrs   *ADFAttrs `json:"attrs,omitempty"`
	Marks   []ADFMark `json:"marks,omitempty"`
}

// ADFAttrs はノード・マークの属性を表します（必要なものだけを型付け）
type ADFAttrs struct {
	Level int    `json:"level,omitempty"` // heading のレベル
	Href  string `json:"href,omitempty"`  // link マークのURL
}

// ADFMark はテキストノードに適用される装飾を表します
type ADFMark struct {
	Type  string    `json:"type"`
	Attrs *ADFAttrs `json:"attrs,omitempty"`
}

// JiraDocument は説明文・コメント本文を表します
// JIRA APIはプレーン文字列またはADFツリーのどちらかを返すため、
// 両方を受け取れるようにしています
type JiraDocument struct {
	Plain string   // プレーン文字列だった場合の内容
	Doc   *ADFNode // ADFツリーだった場合のルートノード (type == "doc")
}

// UnmarshalJSON は文字列とADFオブジェクトの両方を受け取ります
func (d *JiraDocument) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		d.Plain = plain
		d.Doc = nil
		return nil
	}

	var node ADFNode
	if err := json.Unmarshal(data, &node); err != nil {
		return err
	}
	d.Doc = &node
	return nil
}

// MarshalJSON はUnmarshalJSONの逆変換です
func (d JiraDocument) MarshalJSON() ([]byte, error) {
	if d.Doc != nil {
		return json.Marshal(d.Doc)
	}
	return json.Marshal(d.Plain)
}

// IsEmpty は本文が空かどうかを返します
func (d *JiraDocument) IsEmpty() bool {
	return d == nil || (d.Doc == nil && d.Plain == "")
}

// JiraIssue はJIRAのイシューを表します
type JiraIssue struct {
	ID     string     `json:"id"`
	Key    string     `json:"key"` // PROJECT-123 形式
	Fields JiraFields `json:"fields"`
}

// JiraFields はJIRAイシューのフィールド群を表します
type JiraFields struct {
	Summary     string           `json:"summary"`
	Description *JiraDocument    `json:"description,omitempty"`
	IssueType   JiraNamedField   `json:"issuetype"`
	Status      JiraNamedField   `json:"status"`
	Priority    *JiraNamedField  `json:"priority,omitempty"`
	Assignee    *JiraUser        `json:"assignee,omitempty"`
	Reporter    *JiraUser        `json:"reporter,omitempty"`
	Created     string           `json:"created"`
	Updated     string           `json:"updated"`
	Labels      []string         `json:"labels"`
	Components  []JiraNamedField `json:"components"`
	Parent      *JiraIssueRef    `json:"parent,omitempty"`
	Subtasks    []JiraIssueRef   `json:"subtasks,omitempty"`
	Attachment  []JiraAttachment `json:"attachment,omitempty"`
	Comment     *JiraCommentPage `json:"comment,omitempty"`
}

// JiraNamedField は名前とIDを持つJIRAフィールド（ステータス、タイプ等）を表します
type JiraNamedField struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// JiraUser はJIRAのユーザーを表します
type JiraUser struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// JiraIssueRef は親イシュー・サブタスクへの参照を表します
type JiraIssueRef struct {
	Key    string `json:"key"`
	ID     string `json:"id"`
	Fields struct {
		Summary   string         `json:"summary"`
		IssueType JiraNamedField `json:"issuetype"`
	} `json:"fields"`
}

// JiraAttachment はJIRAの添付ファイルを表します
type JiraAttachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Content  string `json:"content"` // ダウンロードURL（認証必須）
}

// JiraCommentPage はコメント一覧のページを表します
type JiraCommentPage struct {
	Comments []JiraComment `json:"comments"`
	Total    int           `json:"total"`
}

// JiraComment はJIRAのコメントを表します
type JiraComment struct {
	ID      string       `json:"id"`
	Author  JiraUser     `json:"author"`
	Body    JiraDocument `json:"body"`
	Created string       `json:"created"`
}
