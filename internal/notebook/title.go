package notebook

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Title returns the first level-one heading found in the notebook's markdown
// cells, or "" when there is none.
func (nb *Notebook) Title() string {
	md := goldmark.New()
	for _, c := range nb.Cells {
		if c.Type != MarkdownCell {
			continue
		}
		src := []byte(c.Source)
		root := md.Parser().Parse(text.NewReader(src))
		if title := firstHeading(root, src); title != "" {
			return title
		}
	}
	return ""
}

func firstHeading(root gmast.Node, src []byte) string {
	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level != 1 {
			return gmast.WalkContinue, nil
		}
		title = strings.TrimSpace(inlineText(h, src))
		return gmast.WalkStop, nil
	})
	return title
}

func inlineText(n gmast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(t.Value)
		default:
			b.WriteString(inlineText(c, src))
		}
	}
	return b.String()
}
