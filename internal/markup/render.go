// Package markup converts GitHub-flavored markdown into Jira wiki markup.
package markup

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MaxBodyLength is the longest issue or comment body we will render. Jira
// enforces a hard ceiling on description length (32,767 characters); keeping
// headroom below it leaves space for the marker line and attribution.
const MaxBodyLength = 28000

// truncationNotice is appended to the rendered output, never to the raw
// markdown, so it cannot be swallowed by a cut-open code fence.
const truncationNotice = "\n\n----\n_The content was truncated because it exceeds the maximum length Jira accepts. See the original GitHub issue for the full text._"

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Truncate cuts s to MaxBodyLength runes. The second return reports whether
// anything was cut.
func Truncate(s string) (string, bool) {
	runes := []rune(s)
	if len(runes) <= MaxBodyLength {
		return s, false
	}
	return string(runes[:MaxBodyLength]), true
}

// RenderBody truncates the markdown, renders it to Jira wiki markup, and
// appends a truncation notice when content was cut. Truncation happens on
// the raw markdown; the parser tolerates a mid-construct cut, and the notice
// goes on the rendered output where no markup can swallow it.
func RenderBody(markdown string) string {
	cut, truncated := Truncate(markdown)
	out := Render(cut)
	if truncated {
		out += truncationNotice
	}
	return out
}

// Render converts markdown to Jira wiki markup.
func Render(markdown string) string {
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	renderBlocks(&b, doc, source, "")
	return strings.TrimRight(b.String(), "\n")
}

// renderBlocks walks the block-level children of n, writing wiki markup.
// listPrefix carries the accumulated list markers for nested lists.
func renderBlocks(b *strings.Builder, n ast.Node, source []byte, listPrefix string) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Heading:
			fmt.Fprintf(b, "h%d. %s\n\n", node.Level, renderInline(node, source))

		case *ast.Paragraph:
			b.WriteString(renderInline(node, source))
			b.WriteString("\n\n")

		case *ast.TextBlock:
			b.WriteString(renderInline(node, source))
			b.WriteString("\n")

		case *ast.FencedCodeBlock:
			language := string(node.Language(source))
			if language != "" {
				fmt.Fprintf(b, "{code:%s}\n", language)
			} else {
				b.WriteString("{code}\n")
			}
			writeLines(b, node, source)
			b.WriteString("{code}\n\n")

		case *ast.CodeBlock:
			b.WriteString("{code}\n")
			writeLines(b, node, source)
			b.WriteString("{code}\n\n")

		case *ast.Blockquote:
			var quoted strings.Builder
			renderBlocks(&quoted, node, source, listPrefix)
			b.WriteString("{quote}\n")
			b.WriteString(strings.TrimRight(quoted.String(), "\n"))
			b.WriteString("\n{quote}\n\n")

		case *ast.ThematicBreak:
			b.WriteString("----\n\n")

		case *ast.List:
			marker := "*"
			if node.IsOrdered() {
				marker = "#"
			}
			renderList(b, node, source, listPrefix+marker)
			if listPrefix == "" {
				b.WriteString("\n")
			}

		case *east.Table:
			renderTable(b, node, source)
			b.WriteString("\n")

		case *ast.HTMLBlock:
			writeLines(b, node, source)
			b.WriteString("\n")

		default:
			// Unknown block: fall back to its inline text.
			b.WriteString(renderInline(child, source))
			b.WriteString("\n")
		}
	}
}

// renderList writes one list level; prefix already includes this level's marker.
func renderList(b *strings.Builder, list *ast.List, source []byte, prefix string) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		for part := item.FirstChild(); part != nil; part = part.NextSibling() {
			switch node := part.(type) {
			case *ast.List:
				marker := "*"
				if node.IsOrdered() {
					marker = "#"
				}
				renderList(b, node, source, prefix+marker)
			default:
				fmt.Fprintf(b, "%s %s\n", prefix, renderInline(part, source))
			}
		}
	}
}

// renderTable writes a GFM table as Jira wiki table markup.
func renderTable(b *strings.Builder, table *east.Table, source []byte) {
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		header := row.Kind() == east.KindTableHeader
		sep := "|"
		if header {
			sep = "||"
		}
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			b.WriteString(sep)
			b.WriteString(renderInline(cell, source))
		}
		b.WriteString(sep)
		b.WriteString("\n")
	}
}

// writeLines copies a block node's raw source lines verbatim.
func writeLines(b *strings.Builder, n ast.Node, source []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(source))
	}
}

// renderInline renders the inline children of n.
func renderInline(n ast.Node, source []byte) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		renderInlineNode(&b, child, source)
	}
	return b.String()
}

func renderInlineNode(b *strings.Builder, n ast.Node, source []byte) {
	switch node := n.(type) {
	case *ast.Text:
		b.Write(node.Segment.Value(source))
		if node.HardLineBreak() || node.SoftLineBreak() {
			b.WriteString("\n")
		}

	case *ast.String:
		b.Write(node.Value)

	case *ast.Emphasis:
		wrap := "_"
		if node.Level == 2 {
			wrap = "*"
		}
		b.WriteString(wrap)
		b.WriteString(renderInline(node, source))
		b.WriteString(wrap)

	case *ast.CodeSpan:
		b.WriteString("{{")
		b.WriteString(renderInline(node, source))
		b.WriteString("}}")

	case *ast.Link:
		label := renderInline(node, source)
		if label == "" {
			fmt.Fprintf(b, "[%s]", node.Destination)
		} else {
			fmt.Fprintf(b, "[%s|%s]", label, node.Destination)
		}

	case *ast.AutoLink:
		fmt.Fprintf(b, "[%s]", node.URL(source))

	case *ast.Image:
		fmt.Fprintf(b, "!%s!", node.Destination)

	case *east.Strikethrough:
		b.WriteString("-")
		b.WriteString(renderInline(node, source))
		b.WriteString("-")

	case *east.TaskCheckBox:
		if node.IsChecked {
			b.WriteString("(/) ")
		} else {
			b.WriteString("( ) ")
		}

	case *ast.RawHTML:
		for i := 0; i < node.Segments.Len(); i++ {
			segment := node.Segments.At(i)
			b.Write(segment.Value(source))
		}

	default:
		b.WriteString(renderInline(n, source))
	}
}
