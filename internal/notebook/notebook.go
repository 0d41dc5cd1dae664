package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
)

// Extension is the file suffix of notebook documents.
const Extension = ".ipynb"

// Notebook is an nbformat v4 document.
type Notebook struct {
	Cells         []*Cell
	Metadata      map[string]any
	NBFormat      int
	NBFormatMinor int

	extra map[string]json.RawMessage
}

// New returns an empty nbformat 4.5 notebook.
func New() *Notebook {
	return &Notebook{Cells: []*Cell{}, Metadata: map[string]any{}, NBFormat: 4, NBFormatMinor: 5}
}

// Read loads the notebook stored at path.
func Read(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapError(err, errors.CategoryNotFound, "notebook not found").
				WithContext("path", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read notebook").
			WithContext("path", path).Build()
	}
	nb, err := Parse(data)
	if err != nil {
		if c, ok := errors.AsClassified(err); ok {
			return nil, c.WithContext("path", path)
		}
		return nil, err
	}
	return nb, nil
}

// Parse decodes an nbformat v4 document.
func Parse(data []byte) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotebook, "invalid notebook JSON").Build()
	}
	if nb.NBFormat != 4 {
		return nil, errors.NotebookError(fmt.Sprintf("unsupported nbformat version %d", nb.NBFormat)).
			WithContext("nbformat", nb.NBFormat).Build()
	}
	return &nb, nil
}

// Write serializes nb to path, replacing any existing content.
func Write(path string, nb *Notebook) error {
	var buf bytes.Buffer
	if err := Encode(&buf, nb); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write notebook").
			WithContext("path", path).Build()
	}
	return nil
}

// Encode writes nb the way the nbformat writer does: sorted keys, one space
// indentation, no ASCII or HTML escaping and a trailing newline.
func Encode(w io.Writer, nb *Notebook) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(nb.fields(true)); err != nil {
		return errors.WrapError(err, errors.CategoryNotebook, "failed to encode notebook").Build()
	}
	return nil
}

// UnmarshalJSON decodes a notebook, keeping unknown top-level keys verbatim.
func (nb *Notebook) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*nb = Notebook{}
	for key, value := range raw {
		var err error
		switch key {
		case "cells":
			err = json.Unmarshal(value, &nb.Cells)
		case "metadata":
			nb.Metadata, err = decodeObject(value)
		case "nbformat":
			err = json.Unmarshal(value, &nb.NBFormat)
		case "nbformat_minor":
			err = json.Unmarshal(value, &nb.NBFormatMinor)
		default:
			if nb.extra == nil {
				nb.extra = make(map[string]json.RawMessage)
			}
			nb.extra[key] = value
		}
		if err != nil {
			return fmt.Errorf("notebook field %q: %w", key, err)
		}
	}
	if nb.Cells == nil {
		nb.Cells = []*Cell{}
	}
	return nil
}

// MarshalJSON encodes the notebook in its on-disk form.
func (nb *Notebook) MarshalJSON() ([]byte, error) {
	return marshal(nb.fields(true))
}

// Generic returns the notebook as plain maps and slices with multiline
// strings joined. The result shares nothing with nb.
func (nb *Notebook) Generic() map[string]any {
	return nb.fields(false)
}

func (nb *Notebook) fields(split bool) map[string]any {
	m := make(map[string]any, len(nb.extra)+4)
	for k, v := range nb.extra {
		if split {
			m[k] = v
		} else {
			m[k] = decodeLoose(v)
		}
	}
	cells := make([]any, len(nb.Cells))
	for i, c := range nb.Cells {
		cells[i] = c.fields(split)
	}
	m["cells"] = cells
	if nb.Metadata != nil {
		m["metadata"] = copyObject(nb.Metadata)
	} else {
		m["metadata"] = map[string]any{}
	}
	m["nbformat"] = nb.NBFormat
	m["nbformat_minor"] = nb.NBFormatMinor
	return m
}

// Clone returns a deep copy of nb.
func (nb *Notebook) Clone() *Notebook {
	out := &Notebook{
		Cells:         make([]*Cell, len(nb.Cells)),
		Metadata:      copyObject(nb.Metadata),
		NBFormat:      nb.NBFormat,
		NBFormatMinor: nb.NBFormatMinor,
		extra:         copyRaw(nb.extra),
	}
	for i, c := range nb.Cells {
		out.Cells[i] = c.Clone()
	}
	return out
}

// Len returns the number of cells.
func (nb *Notebook) Len() int { return len(nb.Cells) }

// Append adds cells at the tail.
func (nb *Notebook) Append(cells ...*Cell) {
	nb.Cells = append(nb.Cells, cells...)
}

// Last returns the final cell, or nil for an empty notebook.
func (nb *Notebook) Last() *Cell {
	if len(nb.Cells) == 0 {
		return nil
	}
	return nb.Cells[len(nb.Cells)-1]
}

// Pop removes and returns the final cell, or nil for an empty notebook.
func (nb *Notebook) Pop() *Cell {
	last := nb.Last()
	if last != nil {
		nb.Cells[len(nb.Cells)-1] = nil
		nb.Cells = nb.Cells[:len(nb.Cells)-1]
	}
	return last
}

// SupportsCellIDs reports whether the document version (4.5+) carries cell ids.
func (nb *Notebook) SupportsCellIDs() bool {
	return nb.NBFormat > 4 || (nb.NBFormat == 4 && nb.NBFormatMinor >= 5)
}
