package suggestions

import (
	"sort"
	"strings"
)

type ChangeType string

const (
	ChangeReplace ChangeType = "replace"
	ChangeInsert  ChangeType = "insert"
	ChangeDelete  ChangeType = "delete"
)

// Change is a line-level edit. Lines are 1-based and EndLine is inclusive.
type Change struct {
	Type       ChangeType `json:"type"`
	StartLine  int        `json:"startLine"`
	EndLine    int        `json:"endLine"`
	NewContent string     `json:"newContent"`
}

// ApplyChanges applies edits from the bottom of the file up so earlier line
// numbers stay valid. Out-of-range lines are clamped; unknown types are
// ignored.
func ApplyChanges(code string, changes []Change) string {
	sorted := append([]Change(nil), changes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartLine > sorted[j].StartLine })

	lines := strings.Split(code, "\n")
	for _, ch := range sorted {
		start := clamp(ch.StartLine-1, 0, len(lines))
		count := clamp(ch.EndLine-ch.StartLine+1, 0, len(lines)-start)
		switch ch.Type {
		case ChangeReplace:
			lines = splice(lines, start, count, strings.Split(ch.NewContent, "\n"))
		case ChangeInsert:
			lines = splice(lines, start, 0, strings.Split(ch.NewContent, "\n"))
		case ChangeDelete:
			lines = splice(lines, start, count, nil)
		}
	}
	return strings.Join(lines, "\n")
}

func splice(lines []string, start, remove int, insert []string) []string {
	out := make([]string, 0, len(lines)-remove+len(insert))
	out = append(out, lines[:start]...)
	out = append(out, insert...)
	return append(out, lines[start+remove:]...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
