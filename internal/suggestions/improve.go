package suggestions

import (
	"fmt"
	"regexp"
	"strings"
)

const maxDemoSmart = 2

var (
	jsVarDecl   = regexp.MustCompile(`var\s+(\w+)\s*=`)
	pyDefNoHint = regexp.MustCompile(`def\s+(\w+)\s*\(([^)]*)\):`)
	javaRawList = regexp.MustCompile(`List\s+(\w+)\s*=`)
)

// Improve rewrites code with a few mechanical, language-specific fixes. It is
// the offline stand-in for a model-produced improvement.
func Improve(code, language string) string {
	switch strings.ToLower(language) {
	case "javascript":
		improved := jsVarDecl.ReplaceAllString(code, "const $1 =")
		if !strings.Contains(improved, "try") && strings.Contains(improved, "fetch") {
			improved = "try {\n  " + improved + "\n} catch (error) {\n  console.error('Error:', error);\n}"
		}
		return improved
	case "python":
		return pyDefNoHint.ReplaceAllString(code, "def $1($2) -> None:")
	case "java":
		return javaRawList.ReplaceAllString(code, "List<Object> $1 =")
	default:
		return fmt.Sprintf("// Improved %s code\n%s\n\n// Configure your API key in Settings for real AI-powered improvements", language, code)
	}
}

// DemoSmart returns up to two canned tips for JavaScript code.
func DemoSmart(code, language string) []SmartSuggestion {
	out := []SmartSuggestion{}
	if strings.ToLower(language) != "javascript" {
		return out
	}
	if strings.Contains(code, "console.log") {
		out = append(out, SmartSuggestion{
			Message: "Consider using a proper logging library for production code",
			Type:    string(TypeBestPractice),
		})
	}
	if strings.Contains(code, "==") {
		out = append(out, SmartSuggestion{
			Message: "Use strict equality (===) instead of loose equality (==)",
			Type:    string(TypeBestPractice),
		})
	}
	if len(out) > maxDemoSmart {
		out = out[:maxDemoSmart]
	}
	return out
}

var demoHints = map[string][]Hint{
	"javascript": {
		{Message: "Use const for values that don't change, let for variables that do"},
		{Message: "Consider using arrow functions for shorter syntax"},
	},
	"python": {
		{Message: "Use list comprehensions for concise data transformations"},
		{Message: "Follow PEP 8 style guidelines for consistent code"},
	},
	"java": {
		{Message: "Use generics for type safety"},
		{Message: "Consider using try-with-resources for automatic resource management"},
	},
}

// DemoHints returns the fixed hints for language, or the JavaScript ones.
func DemoHints(language string) []Hint {
	hints, ok := demoHints[strings.ToLower(language)]
	if !ok {
		hints = demoHints["javascript"]
	}
	out := make([]Hint, len(hints))
	copy(out, hints)
	return out
}
