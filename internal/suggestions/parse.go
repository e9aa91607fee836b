package suggestions

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	parsedConfidence = 0.8
	maxSmart         = 5
	maxHints         = 3
	fallbackPreview  = 200
)

var (
	itemMarker   = regexp.MustCompile(`^(\d+\.|-|\*)`)
	bulletPrefix = regexp.MustCompile(`^[\d\-*]`)
	bulletStrip  = regexp.MustCompile(`^[\d\-*.\s]+`)
	lineRef      = regexp.MustCompile(`(?i)\bline\s+(\d+)`)
)

// ParseAnalysis turns a model's free-form review into suggestions. Numbered
// or bulleted lines start a suggestion; the lines after it form its
// description. Text with no list items becomes a single summary suggestion.
func ParseAnalysis(text string) []Suggestion {
	return parseAnalysisAt(text, time.Now().UTC())
}

func parseAnalysisAt(text string, now time.Time) []Suggestion {
	if text == "" {
		return []Suggestion{}
	}
	var (
		out         []Suggestion
		current     *Suggestion
		description strings.Builder
		reasoning   strings.Builder
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(description.String())
		current.Reasoning = strings.TrimSpace(reasoning.String())
		out = append(out, *current)
		description.Reset()
		reasoning.Reset()
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if itemMarker.MatchString(line) {
			flush()
			title := strings.TrimSpace(itemMarker.ReplaceAllString(line, ""))
			sev := inferSeverity(line)
			impact := impactForSeverity(sev)
			current = &Suggestion{
				ID:              uuid.NewString(),
				Type:            inferType(line),
				Severity:        sev,
				Title:           title,
				Message:         title,
				Line:            lineNumber(line),
				Confidence:      parsedConfidence,
				Priority:        PriorityFor(sev, impact),
				EstimatedImpact: impact,
				Timestamp:       now,
			}
			continue
		}
		if current == nil || line == "" {
			continue
		}
		description.WriteString(line)
		description.WriteByte(' ')
		lower := strings.ToLower(line)
		if strings.Contains(lower, "because") || strings.Contains(lower, "reason") {
			reasoning.WriteString(line)
			reasoning.WriteByte(' ')
		}
		if current.Line == nil {
			current.Line = lineNumber(line)
		}
	}
	flush()

	if len(out) == 0 && len(text) > 10 {
		out = append(out, Suggestion{
			ID:              uuid.NewString(),
			Type:            TypeGeneral,
			Severity:        SeverityInfo,
			Title:           "AI Analysis Available",
			Message:         "Code analysis completed successfully",
			Description:     preview(text, fallbackPreview) + "...",
			Line:            intPtr(1),
			Confidence:      parsedConfidence,
			Priority:        PriorityFor(SeverityInfo, ImpactLow),
			EstimatedImpact: ImpactLow,
			Reasoning:       "Based on AI analysis",
			Timestamp:       now,
		})
	}
	if out == nil {
		out = []Suggestion{}
	}
	return out
}

// ParseSmart extracts up to five bulleted tips.
func ParseSmart(text string) []SmartSuggestion {
	out := []SmartSuggestion{}
	for _, msg := range bullets(text, maxSmart) {
		out = append(out, SmartSuggestion{Message: msg, Type: "smart", Confidence: parsedConfidence})
	}
	return out
}

// ParseHints extracts up to three bulleted hints.
func ParseHints(text string) []Hint {
	out := []Hint{}
	for _, msg := range bullets(text, maxHints) {
		out = append(out, Hint{Message: msg, Type: "hint", Category: "general"})
	}
	return out
}

func bullets(text string, limit int) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || !bulletPrefix.MatchString(line) {
			continue
		}
		out = append(out, strings.TrimSpace(bulletStrip.ReplaceAllString(line, "")))
		if len(out) == limit {
			break
		}
	}
	return out
}

func inferType(text string) Type {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "performance", "optimize", "slow"):
		return TypePerformance
	case containsAny(lower, "security", "vulnerability", "attack"):
		return TypeSecurity
	case containsAny(lower, "refactor", "restructure", "organize"):
		return TypeRefactor
	case containsAny(lower, "best practice", "convention", "standard"):
		return TypeBestPractice
	default:
		return TypeGeneral
	}
}

func inferSeverity(text string) Severity {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "error", "bug", "critical", "fail"):
		return SeverityError
	case containsAny(lower, "warning", "caution", "potential"):
		return SeverityWarning
	case containsAny(lower, "improve", "enhance", "optimize"):
		return SeverityImprovement
	default:
		return SeverityInfo
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lineNumber(text string) *int {
	m := lineRef.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return nil
	}
	return intPtr(n)
}

// preview cuts s to at most n runes.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
