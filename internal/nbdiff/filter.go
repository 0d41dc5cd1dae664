package nbdiff

import (
	"strconv"
	"strings"
)

// DefaultIgnore lists the paths whose changes are expected from any
// re-execution and carry no regression signal.
var DefaultIgnore = []string{
	"/cells/*/execution_count",
	"/cells/*/outputs/*/execution_count",
	"/cells/*/metadata",
	"/cells/*/id",
	"/metadata/language_info/version",
	"/metadata/widgets",
}

// Filter drops every entry at or below a path matched by one of patterns.
// A "*" segment matches any key. Patches left empty are removed.
func Filter(d Diff, patterns []string) Diff {
	parsed := make([][]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.Trim(p, "/"); p != "" {
			parsed = append(parsed, strings.Split(p, "/"))
		}
	}
	return filter(d, nil, parsed)
}

func filter(d Diff, prefix []string, patterns [][]string) Diff {
	var out Diff
	for _, e := range d {
		path := append(prefix[:len(prefix):len(prefix)], keyString(e.Key))
		if ignored(path, patterns) {
			continue
		}
		if e.Op == OpPatch {
			sub := filter(e.Diff, path, patterns)
			if len(sub) == 0 {
				continue
			}
			e.Diff = sub
		}
		out = append(out, e)
	}
	return out
}

func ignored(path []string, patterns [][]string) bool {
	for _, pattern := range patterns {
		if len(pattern) > len(path) {
			continue
		}
		match := true
		for i, seg := range pattern {
			if seg != "*" && seg != path[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func keyString(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case int:
		return strconv.Itoa(k)
	default:
		return ""
	}
}
