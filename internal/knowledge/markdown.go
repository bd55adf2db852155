package knowledge

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownToText strips markdown structure from a knowledge-base document,
// keeping headings and body text as plain lines. Code blocks and raw HTML
// are dropped; they carry no retrievable prose.
func MarkdownToText(source []byte) string {
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var sb strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			writeNodeText(&sb, n, source)
			sb.WriteString("\n")
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}

// writeNodeText collects the text content of n and its children.
func writeNodeText(sb *strings.Builder, n ast.Node, source []byte) {
	switch t := n.(type) {
	case *ast.Text:
		sb.Write(t.Segment.Value(source))
		return
	case *ast.AutoLink:
		sb.Write(t.URL(source))
		return
	}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		writeNodeText(sb, child, source)
	}
}
