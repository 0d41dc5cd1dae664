package notebook

import (
	"encoding/json"
	"strings"
)

// MultilineString is a string stored on disk either as one JSON string or
// as a list of lines.
type MultilineString string

// UnmarshalJSON accepts both the string and the list-of-lines form.
func (m *MultilineString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = MultilineString(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*m = MultilineString(strings.Join(lines, ""))
	return nil
}

// MarshalJSON writes the list-of-lines form.
func (m MultilineString) MarshalJSON() ([]byte, error) {
	return json.Marshal(SplitLines(string(m)))
}

// SplitLines splits s after every newline, keeping the line endings.
func SplitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
