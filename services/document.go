package services

import (
	"fmt"
	"strings"

	"jiramigration/models"
)

// maxDocumentDepth はADFツリー変換の再帰深度の上限です
// 上限を超えた部分木は出力から落とし、変換自体は継続します
const maxDocumentDepth = 64

// ConvertDocument はJIRAの本文（プレーン文字列またはADFツリー）を
// Markdownテキストに変換します。純粋関数で副作用はありません
func ConvertDocument(doc *models.JiraDocument) string {
	if doc == nil {
		return ""
	}

	// プレーン文字列の場合はそのまま返す
	if doc.Doc == nil {
		return doc.Plain
	}

	if doc.Doc.Type == models.ADFNodeDoc {
		return strings.TrimSpace(renderNodes(doc.Doc.Content, 0))
	}

	return ""
}

// renderNodes はブロックレベルのノード列をMarkdownに変換します
func renderNodes(nodes []models.ADFNode, depth int) string {
	if depth > maxDocumentDepth {
		return ""
	}

	var sb strings.Builder

	for _, node := range nodes {
		switch node.Type {
		case models.ADFNodeParagraph:
			sb.WriteString(renderInline(node.Content, depth+1))
			sb.WriteString("\n\n")
		case models.ADFNodeHeading:
			level := 1
			if node.Attrs != nil && node.Attrs.Level > 0 {
				level = node.Attrs.Level
			}
			sb.WriteString(strings.Repeat("#", level))
			sb.WriteString(" ")
			sb.WriteString(renderInline(node.Content, depth+1))
			sb.WriteString("\n\n")
		case models.ADFNodeBulletList:
			sb.WriteString(renderList(node.Content, false, depth+1))
			sb.WriteString("\n")
		case models.ADFNodeOrderedList:
			sb.WriteString(renderList(node.Content, true, depth+1))
			sb.WriteString("\n")
		case models.ADFNodeCodeBlock:
			code := renderInline(node.Content, depth+1)
			sb.WriteString("```\n")
			sb.WriteString(code)
			sb.WriteString("\n```\n\n")
		case models.ADFNodeBlockquote:
			quote := renderNodes(node.Content, depth+1)
			for _, line := range strings.Split(strings.TrimRight(quote, "\n"), "\n") {
				sb.WriteString("> ")
				sb.WriteString(line)
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		case models.ADFNodeHardBreak:
			sb.WriteString("\n")
		case models.ADFNodeText:
			sb.WriteString(renderText(node))
		default:
			// 未知のノードタイプは無視する（エラーにしない）
		}
	}

	return sb.String()
}

// renderInline はインライン内容（テキスト・改行・入れ子）をMarkdownに変換します
func renderInline(content []models.ADFNode, depth int) string {
	if depth > maxDocumentDepth {
		return ""
	}

	var sb strings.Builder

	for _, item := range content {
		switch item.Type {
		case models.ADFNodeText:
			sb.WriteString(renderText(item))
		case models.ADFNodeHardBreak:
			sb.WriteString("\n")
		default:
			if len(item.Content) > 0 {
				sb.WriteString(renderInline(item.Content, depth+1))
			}
		}
	}

	return sb.String()
}

// renderText はテキストノードにマークを適用します
func renderText(node models.ADFNode) string {
	text := node.Text

	for _, mark := range node.Marks {
		switch mark.Type {
		case models.ADFMarkStrong:
			text = "**" + text + "**"
		case models.ADFMarkEm:
			text = "*" + text + "*"
		case models.ADFMarkCode:
			text = "`" + text + "`"
		case models.ADFMarkLink:
			href := ""
			if mark.Attrs != nil {
				href = mark.Attrs.Href
			}
			text = "[" + text + "](" + href + ")"
		}
	}

	return text
}

// renderList はリスト（番号付き・箇条書き）をMarkdownに変換します
func renderList(items []models.ADFNode, ordered bool, depth int) string {
	if depth > maxDocumentDepth {
		return ""
	}

	var sb strings.Builder
	index := 0

	for _, item := range items {
		if item.Type != models.ADFNodeListItem {
			continue
		}
		index++

		prefix := "- "
		if ordered {
			prefix = fmt.Sprintf("%d. ", index)
		}

		content := strings.TrimSpace(renderNodes(item.Content, depth+1))
		sb.WriteString(prefix)
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	return sb.String()
}
