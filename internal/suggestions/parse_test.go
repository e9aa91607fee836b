package suggestions

import (
	"strings"
	"testing"
)

func TestParseAnalysisStructured(t *testing.T) {
	text := `Here is my review:
1. Potential bug on line 12: null dereference
   The value may be undefined because the fetch can fail.
   Add a guard.
2. Optimize the loop for performance
- Follow the naming convention`

	got := ParseAnalysis(text)
	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(got))
	}

	first := got[0]
	if first.Title != "Potential bug on line 12: null dereference" || first.Message != first.Title {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if first.Severity != SeverityError {
		t.Fatalf("expected error severity, got %s", first.Severity)
	}
	if first.Line == nil || *first.Line != 12 {
		t.Fatalf("expected line 12, got %v", first.Line)
	}
	if first.Description != "The value may be undefined because the fetch can fail. Add a guard." {
		t.Fatalf("unexpected description %q", first.Description)
	}
	if first.Reasoning != "The value may be undefined because the fetch can fail." {
		t.Fatalf("unexpected reasoning %q", first.Reasoning)
	}
	if first.ID == "" || first.Confidence != 0.8 {
		t.Fatalf("expected id and confidence, got %+v", first)
	}

	if got[1].Type != TypePerformance || got[1].Severity != SeverityImprovement {
		t.Fatalf("unexpected second: %s/%s", got[1].Type, got[1].Severity)
	}
	if got[1].Line != nil {
		t.Fatalf("expected nil line, got %v", *got[1].Line)
	}
	if got[2].Type != TypeBestPractice || got[2].Severity != SeverityInfo {
		t.Fatalf("unexpected third: %s/%s", got[2].Type, got[2].Severity)
	}
}

func TestParseAnalysisInference(t *testing.T) {
	cases := []struct {
		line string
		typ  Type
		sev  Severity
	}{
		{"- SQL injection vulnerability", TypeSecurity, SeverityInfo},
		{"- Refactor this critical path", TypeRefactor, SeverityError},
		{"- Caution: slow query", TypePerformance, SeverityWarning},
		{"- Enhance readability", TypeGeneral, SeverityImprovement},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			got := ParseAnalysis(tc.line)
			if len(got) != 1 || got[0].Type != tc.typ || got[0].Severity != tc.sev {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestParseAnalysisFallback(t *testing.T) {
	text := strings.Repeat("looks fine overall. ", 20)
	got := ParseAnalysis(text)
	if len(got) != 1 || got[0].Title != "AI Analysis Available" {
		t.Fatalf("expected fallback suggestion, got %+v", got)
	}
	if got[0].Description != text[:200]+"..." {
		t.Fatalf("unexpected fallback description %q", got[0].Description)
	}

	if got := ParseAnalysis("ok"); len(got) != 0 {
		t.Fatalf("short text should yield nothing, got %d", len(got))
	}
	if got := ParseAnalysis(""); got == nil {
		t.Fatalf("expected empty non-nil slice")
	}
}

func TestParseSmartAndHints(t *testing.T) {
	text := "Tips:\n1. Use const\n2. Avoid globals\n- Prefer map\n* Cache lookups\n3. Name things\n4. Sixth tip"
	smart := ParseSmart(text)
	if len(smart) != 5 {
		t.Fatalf("expected 5 smart suggestions, got %d", len(smart))
	}
	if smart[0].Message != "Use const" || smart[0].Type != "smart" || smart[0].Confidence != 0.8 {
		t.Fatalf("unexpected first smart: %+v", smart[0])
	}
	if smart[2].Message != "Prefer map" {
		t.Fatalf("unexpected bullet strip: %q", smart[2].Message)
	}

	hints := ParseHints(text)
	if len(hints) != 3 || hints[1].Message != "Avoid globals" || hints[1].Category != "general" {
		t.Fatalf("unexpected hints: %+v", hints)
	}
}
