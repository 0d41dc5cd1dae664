package nbdiff

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/net/html"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// Render formats d against base as a human-readable report. Each change is
// headed by its path; changed multi-line strings are shown as unified diffs.
func Render(base any, d Diff) string {
	if len(d) == 0 {
		return ""
	}
	var b strings.Builder
	render(&b, base, d, "")
	return b.String()
}

func render(b *strings.Builder, base any, d Diff, path string) {
	for _, e := range d {
		p := path + "/" + keyString(e.Key)
		old := lookup(base, e.Key)
		switch e.Op {
		case OpPatch:
			render(b, old, e.Diff, p)
		case OpAdd:
			fmt.Fprintf(b, "+ %s\n", p)
			writeIndented(b, formatValue(e.Value))
		case OpRemove:
			fmt.Fprintf(b, "- %s\n", p)
			writeIndented(b, formatValue(old))
		case OpReplace:
			fmt.Fprintf(b, "~ %s\n", p)
			writeReplacement(b, old, e.Value)
		case OpAddRange:
			fmt.Fprintf(b, "+ %s (inserted %d)\n", p, len(e.ValueList))
			for _, v := range e.ValueList {
				writeIndented(b, formatValue(v))
			}
		case OpRemoveRange:
			fmt.Fprintf(b, "- %s (removed %d)\n", p, e.Length)
			if list, ok := base.([]any); ok {
				start, _ := e.Key.(int)
				for i := start; i < start+e.Length && i < len(list); i++ {
					writeIndented(b, formatValue(list[i]))
				}
			}
		}
	}
}

func lookup(base any, key any) any {
	switch container := base.(type) {
	case map[string]any:
		if k, ok := key.(string); ok {
			return container[k]
		}
	case []any:
		if i, ok := key.(int); ok && i >= 0 && i < len(container) {
			return container[i]
		}
	}
	return nil
}

func writeReplacement(b *strings.Builder, old, value any) {
	oldStr, oldOK := old.(string)
	newStr, newOK := value.(string)
	if oldOK && newOK && (strings.Contains(oldStr, "\n") || strings.Contains(newStr, "\n")) {
		unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(oldStr),
			B:        difflib.SplitLines(newStr),
			FromFile: "before",
			ToFile:   "after",
			Context:  3,
		})
		if err == nil {
			writeIndented(b, unified)
			return
		}
	}
	writeIndented(b, "before: "+formatValue(old))
	writeIndented(b, "after:  "+formatValue(value))
}

func writeIndented(b *strings.Builder, s string) {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return
	}
	for _, line := range strings.Split(s, "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case map[string]any:
		if _, ok := t["output_type"]; ok {
			return formatOutput(t)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func formatOutput(o map[string]any) string {
	var b strings.Builder
	kind, _ := o["output_type"].(string)
	switch kind {
	case "stream":
		name, _ := o["name"].(string)
		text, _ := o["text"].(string)
		fmt.Fprintf(&b, "output_type: stream (%s)\n%s", name, text)
	case "error":
		ename, _ := o["ename"].(string)
		evalue, _ := o["evalue"].(string)
		fmt.Fprintf(&b, "output_type: error\n%s: %s\n", ename, evalue)
		if tb, ok := o["traceback"].([]any); ok {
			for _, line := range tb {
				if s, ok := line.(string); ok {
					b.WriteString(ansiEscape.ReplaceAllString(s, ""))
					b.WriteByte('\n')
				}
			}
		}
	default:
		fmt.Fprintf(&b, "output_type: %s\n", kind)
		data, _ := o["data"].(map[string]any)
		mimes := make([]string, 0, len(data))
		for mime := range data {
			mimes = append(mimes, mime)
		}
		sort.Strings(mimes)
		for _, mime := range mimes {
			b.WriteString(formatMime(mime, data[mime]))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatMime(mime string, v any) string {
	s, isString := v.(string)
	switch {
	case mime == "text/html" && isString:
		return mime + ": " + HTMLText(s)
	case strings.HasPrefix(mime, "text/") && isString:
		return mime + ": " + s
	case isString:
		return fmt.Sprintf("%s: <%d bytes>", mime, len(s))
	default:
		return mime + ": " + formatValue(v)
	}
}

// HTMLText returns the visible text of an HTML fragment with whitespace
// collapsed. Script and style contents are skipped.
func HTMLText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			parts = append(parts, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, " ")
}
