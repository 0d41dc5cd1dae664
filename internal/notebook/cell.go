package notebook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CellType is the nbformat cell_type discriminator.
type CellType string

const (
	CodeCell     CellType = "code"
	MarkdownCell CellType = "markdown"
	RawCell      CellType = "raw"
)

// Output is one record of a code cell's outputs list. Its stream text and
// text mime bundles are held joined.
type Output map[string]any

// OutputType returns the output_type field.
func (o Output) OutputType() string {
	s, _ := o["output_type"].(string)
	return s
}

// Cell is a single notebook cell.
type Cell struct {
	ID             string
	Type           CellType
	Metadata       map[string]any
	Source         MultilineString
	Outputs        []Output
	ExecutionCount *int
	Attachments    map[string]any

	extra map[string]json.RawMessage
}

// NewCodeCell returns an unexecuted code cell with a fresh id.
func NewCodeCell(source string) *Cell {
	return &Cell{
		ID:       NewCellID(),
		Type:     CodeCell,
		Metadata: map[string]any{},
		Source:   MultilineString(source),
		Outputs:  []Output{},
	}
}

// NewCellID returns a random 8 character hex id, the format nbformat uses.
func NewCellID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// UnmarshalJSON decodes a cell, keeping unknown keys verbatim.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Cell{}
	for key, value := range raw {
		var err error
		switch key {
		case "id":
			err = json.Unmarshal(value, &c.ID)
		case "cell_type":
			err = json.Unmarshal(value, &c.Type)
		case "metadata":
			c.Metadata, err = decodeObject(value)
		case "source":
			err = json.Unmarshal(value, &c.Source)
		case "outputs":
			c.Outputs, err = decodeOutputs(value)
		case "execution_count":
			err = json.Unmarshal(value, &c.ExecutionCount)
		case "attachments":
			c.Attachments, err = decodeObject(value)
		default:
			if c.extra == nil {
				c.extra = make(map[string]json.RawMessage)
			}
			c.extra[key] = value
		}
		if err != nil {
			return fmt.Errorf("cell field %q: %w", key, err)
		}
	}
	return nil
}

// MarshalJSON encodes the cell in its on-disk form.
func (c *Cell) MarshalJSON() ([]byte, error) {
	return marshal(c.fields(true))
}

// Clone returns a deep copy of the cell.
func (c *Cell) Clone() *Cell {
	out := &Cell{
		ID:          c.ID,
		Type:        c.Type,
		Source:      c.Source,
		Metadata:    copyObject(c.Metadata),
		Attachments: copyObject(c.Attachments),
		extra:       copyRaw(c.extra),
	}
	if c.Outputs != nil {
		out.Outputs = make([]Output, len(c.Outputs))
		for i, o := range c.Outputs {
			out.Outputs[i] = Output(copyObject(o))
		}
	}
	if c.ExecutionCount != nil {
		n := *c.ExecutionCount
		out.ExecutionCount = &n
	}
	return out
}

// fields builds the generic form of the cell. With split set, multiline
// strings are emitted as line lists and unknown keys stay raw.
func (c *Cell) fields(split bool) map[string]any {
	m := make(map[string]any, len(c.extra)+7)
	for k, v := range c.extra {
		if split {
			m[k] = v
		} else {
			m[k] = decodeLoose(v)
		}
	}
	if c.ID != "" {
		m["id"] = c.ID
	}
	m["cell_type"] = string(c.Type)
	if c.Metadata != nil {
		m["metadata"] = copyObject(c.Metadata)
	} else {
		m["metadata"] = map[string]any{}
	}
	if split {
		m["source"] = SplitLines(string(c.Source))
	} else {
		m["source"] = string(c.Source)
	}
	if c.Type == CodeCell {
		outputs := make([]any, len(c.Outputs))
		for i, o := range c.Outputs {
			outputs[i] = o.fields(split)
		}
		m["outputs"] = outputs
		if c.ExecutionCount != nil {
			m["execution_count"] = *c.ExecutionCount
		} else {
			m["execution_count"] = nil
		}
	}
	if c.Attachments != nil {
		m["attachments"] = copyObject(c.Attachments)
	}
	return m
}

func (o Output) fields(split bool) map[string]any {
	m := copyObject(o)
	if !split {
		return m
	}
	switch o.OutputType() {
	case "stream":
		if s, ok := m["text"].(string); ok {
			m["text"] = SplitLines(s)
		}
	case "display_data", "execute_result":
		if data, ok := m["data"].(map[string]any); ok {
			for mime, v := range data {
				if s, ok := v.(string); ok && !isJSONMime(mime) {
					data[mime] = SplitLines(s)
				}
			}
		}
	}
	return m
}

// normalize joins line lists in stream text and text mime bundles.
func (o Output) normalize() {
	switch o.OutputType() {
	case "stream":
		if s, ok := joinLines(o["text"]); ok {
			o["text"] = s
		}
	case "display_data", "execute_result":
		if data, ok := o["data"].(map[string]any); ok {
			for mime, v := range data {
				if isJSONMime(mime) {
					continue
				}
				if s, ok := joinLines(v); ok {
					data[mime] = s
				}
			}
		}
	}
}

func isJSONMime(mime string) bool {
	return mime == "application/json" ||
		(strings.HasPrefix(mime, "application/") && strings.HasSuffix(mime, "+json"))
}

func joinLines(v any) (string, bool) {
	lines, ok := v.([]any)
	if !ok {
		return "", false
	}
	var b strings.Builder
	for _, l := range lines {
		s, ok := l.(string)
		if !ok {
			return "", false
		}
		b.WriteString(s)
	}
	return b.String(), true
}
