// Package suggestions models code review suggestions: the heuristic demo
// generator, parsing of free-form model output, and the board that filters,
// sorts and rates them.
package suggestions

import (
	"strings"
	"time"
)

type Type string

const (
	TypePerformance  Type = "performance"
	TypeSecurity     Type = "security"
	TypeBestPractice Type = "best_practice"
	TypeRefactor     Type = "refactor"
	TypeGeneral      Type = "general"
)

type Severity string

const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInfo        Severity = "info"
	SeverityImprovement Severity = "improvement"
)

type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Suggestion is one actionable finding about a piece of code. Line is 1-based
// and nil when the finding is not tied to a line.
type Suggestion struct {
	ID              string    `json:"id"`
	Type            Type      `json:"type"`
	Severity        Severity  `json:"severity"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Description     string    `json:"description"`
	Line            *int      `json:"line"`
	Confidence      float64   `json:"confidence"`
	Priority        int       `json:"priority"`
	EstimatedImpact Impact    `json:"estimatedImpact"`
	CodeSnippet     string    `json:"codeSnippet"`
	Reasoning       string    `json:"reasoning"`
	Timestamp       time.Time `json:"timestamp"`
}

// SmartSuggestion is a one-line tip from the smart suggestions flow.
type SmartSuggestion struct {
	Message    string  `json:"message"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Hint is a short contextual tip for the language in use.
type Hint struct {
	Message  string `json:"message"`
	Type     string `json:"type,omitempty"`
	Category string `json:"category,omitempty"`
}

// PriorityFor ranks a suggestion from its severity and estimated impact.
// Higher is more urgent.
func PriorityFor(sev Severity, impact Impact) int {
	return severityRank(sev) + impactRank(impact)
}

func severityRank(value Severity) int {
	switch Severity(strings.ToLower(strings.TrimSpace(string(value)))) {
	case SeverityError:
		return 4
	case SeverityWarning:
		return 3
	case SeverityImprovement:
		return 2
	default:
		return 1
	}
}

func impactRank(value Impact) int {
	switch Impact(strings.ToLower(strings.TrimSpace(string(value)))) {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	default:
		return 1
	}
}

func impactForSeverity(sev Severity) Impact {
	switch sev {
	case SeverityError:
		return ImpactHigh
	case SeverityWarning:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

func intPtr(v int) *int {
	return &v
}
