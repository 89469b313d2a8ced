package render

import (
	"fmt"
	"slices"
	"strings"
)

// HiddenField is a hidden input rendered ahead of the visible fields. The
// server uses them to carry the schema id and session generation.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden formats value with fmt.Sprint.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// DedupeHidden drops unnamed entries, keeps the last value per name and
// orders the result by name.
func DedupeHidden(fields []HiddenField) []HiddenField {
	last := make(map[string]int, len(fields))
	out := make([]HiddenField, 0, len(fields))
	for _, f := range fields {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			continue
		}
		if i, ok := last[f.Name]; ok {
			out[i].Value = f.Value
			continue
		}
		last[f.Name] = len(out)
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b HiddenField) int { return strings.Compare(a.Name, b.Name) })
	return out
}
