package suggestions

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	ErrUnknownSuggestion = errors.New("unknown suggestion")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrInvalidSortKey    = errors.New("invalid sort key")
	ErrInvalidFilter     = errors.New("invalid filter")
)

type SortKey string

const (
	SortPriority   SortKey = "priority"
	SortConfidence SortKey = "confidence"
	SortImpact     SortKey = "impact"
	SortTimestamp  SortKey = "timestamp"
)

// ParseSortKey validates a user-supplied sort key. Empty means priority.
func ParseSortKey(raw string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case "":
		return SortPriority, nil
	case SortPriority, SortConfidence, SortImpact, SortTimestamp:
		return key, nil
	default:
		return "", ErrInvalidSortKey
	}
}

// Filter narrows the visible list. Zero fields match everything.
type Filter struct {
	Type     Type
	Severity Severity
}

// ParseFilter validates user-supplied type and severity values. Empty values
// match everything.
func ParseFilter(typ, severity string) (Filter, error) {
	f := Filter{
		Type:     Type(strings.ToLower(strings.TrimSpace(typ))),
		Severity: Severity(strings.ToLower(strings.TrimSpace(severity))),
	}
	switch f.Type {
	case "", TypePerformance, TypeSecurity, TypeBestPractice, TypeRefactor, TypeGeneral:
	default:
		return Filter{}, fmt.Errorf("%w: unknown type %q", ErrInvalidFilter, typ)
	}
	switch f.Severity {
	case "", SeverityError, SeverityWarning, SeverityInfo, SeverityImprovement:
	default:
		return Filter{}, fmt.Errorf("%w: unknown severity %q", ErrInvalidFilter, severity)
	}
	return f, nil
}

func (f Filter) match(s Suggestion) bool {
	if f.Type != "" && s.Type != f.Type {
		return false
	}
	if f.Severity != "" && s.Severity != f.Severity {
		return false
	}
	return true
}

// BoardStats summarises what the user has done with the current list.
type BoardStats struct {
	Total         int          `json:"total"`
	Applied       int          `json:"applied"`
	Visible       int          `json:"visible"`
	ByType        map[Type]int `json:"byType"`
	Rated         int          `json:"rated"`
	AverageRating float64      `json:"averageRating"`
}

// Board holds the suggestions shown for one piece of code plus what the user
// did with them. Not safe for concurrent use.
type Board struct {
	items   []Suggestion
	applied map[string]bool
	ratings map[string]int
	filter  Filter
	sortBy  SortKey
}

func NewBoard(items []Suggestion) *Board {
	b := &Board{
		applied: make(map[string]bool),
		ratings: make(map[string]int),
		sortBy:  SortPriority,
	}
	b.Replace(items)
	return b
}

// Replace swaps in a new list. Applied marks and ratings for ids that are
// still present survive.
func (b *Board) Replace(items []Suggestion) {
	b.items = append([]Suggestion(nil), items...)
	present := make(map[string]bool, len(items))
	for _, s := range items {
		present[s.ID] = true
	}
	for id := range b.applied {
		if !present[id] {
			delete(b.applied, id)
		}
	}
	for id := range b.ratings {
		if !present[id] {
			delete(b.ratings, id)
		}
	}
}

func (b *Board) SetFilter(f Filter) { b.filter = f }

func (b *Board) SetSort(key SortKey) { b.sortBy = key }

// Visible returns the filtered, unapplied suggestions in descending order of
// the sort key. Ties keep their original order.
func (b *Board) Visible() []Suggestion {
	out := make([]Suggestion, 0, len(b.items))
	for _, s := range b.items {
		if b.applied[s.ID] || !b.filter.match(s) {
			continue
		}
		out = append(out, s)
	}
	less := b.greater()
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (b *Board) greater() func(a, c Suggestion) bool {
	switch b.sortBy {
	case SortConfidence:
		return func(a, c Suggestion) bool { return a.Confidence > c.Confidence }
	case SortImpact:
		return func(a, c Suggestion) bool { return impactRank(a.EstimatedImpact) > impactRank(c.EstimatedImpact) }
	case SortTimestamp:
		return func(a, c Suggestion) bool { return a.Timestamp.After(c.Timestamp) }
	default:
		return func(a, c Suggestion) bool { return a.Priority > c.Priority }
	}
}

// Apply marks a suggestion as applied, which hides it from Visible.
func (b *Board) Apply(id string) (Suggestion, error) {
	s, ok := b.find(id)
	if !ok {
		return Suggestion{}, ErrUnknownSuggestion
	}
	b.applied[id] = true
	return s, nil
}

func (b *Board) IsApplied(id string) bool { return b.applied[id] }

// Dismiss drops a suggestion from the board entirely.
func (b *Board) Dismiss(id string) error {
	for i, s := range b.items {
		if s.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			delete(b.applied, id)
			delete(b.ratings, id)
			return nil
		}
	}
	return ErrUnknownSuggestion
}

// Rate records a 1-5 rating, replacing any earlier one.
func (b *Board) Rate(id string, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	if _, ok := b.find(id); !ok {
		return ErrUnknownSuggestion
	}
	b.ratings[id] = rating
	return nil
}

func (b *Board) Stats() BoardStats {
	st := BoardStats{
		Total:   len(b.items),
		Applied: len(b.applied),
		Visible: len(b.Visible()),
		ByType:  make(map[Type]int),
		Rated:   len(b.ratings),
	}
	for _, s := range b.items {
		st.ByType[s.Type]++
	}
	if len(b.ratings) > 0 {
		sum := 0
		for _, r := range b.ratings {
			sum += r
		}
		st.AverageRating = math.Round(float64(sum)/float64(len(b.ratings))*10) / 10
	}
	return st
}

func (b *Board) find(id string) (Suggestion, bool) {
	for _, s := range b.items {
		if s.ID == id {
			return s, true
		}
	}
	return Suggestion{}, false
}
