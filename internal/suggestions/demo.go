package suggestions

import (
	"strings"
	"time"
)

// MaxDemoSuggestions caps the heuristic output.
const MaxDemoSuggestions = 4

// genericLineThreshold is the line count above which unmatched code gets the
// generic complexity suggestion.
const genericLineThreshold = 50

type rule struct {
	// match reports whether the rule fires for the whole source.
	match func(code string) bool
	// anchor is the text whose first line is reported; empty means no line.
	anchor   string
	template Suggestion
}

func contains(sub string) func(string) bool {
	return func(code string) bool { return strings.Contains(code, sub) }
}

func all(preds ...func(string) bool) func(string) bool {
	return func(code string) bool {
		for _, p := range preds {
			if !p(code) {
				return false
			}
		}
		return true
	}
}

func not(pred func(string) bool) func(string) bool {
	return func(code string) bool { return !pred(code) }
}

var cppRules = []rule{
	{
		match:  all(contains("*"), not(contains("unique_ptr")), not(contains("shared_ptr"))),
		anchor: "*",
		template: Suggestion{
			ID:              "cpp-smart-pointers",
			Type:            TypeBestPractice,
			Severity:        SeverityWarning,
			Title:           "Use smart pointers",
			Message:         "Consider using smart pointers for automatic memory management",
			Description:     "Smart pointers help prevent memory leaks and provide automatic cleanup.",
			Confidence:      0.85,
			EstimatedImpact: ImpactHigh,
			CodeSnippet:     "// Instead of:\n// int* ptr = new int(42);\n// delete ptr;\n\n// Use:\nauto ptr = std::make_unique<int>(42);\n// Automatic cleanup",
			Reasoning:       "Smart pointers provide automatic memory management and prevent leaks.",
		},
	},
}

var demoRules = map[string][]rule{
	"javascript": {
		{
			match:  contains("var "),
			anchor: "var ",
			template: Suggestion{
				ID:              "js-var-usage",
				Type:            TypeBestPractice,
				Severity:        SeverityWarning,
				Title:           "Use modern variable declarations",
				Message:         "Replace var with let or const",
				Description:     "Modern variable declarations provide better scoping and prevent common bugs.",
				Confidence:      0.90,
				EstimatedImpact: ImpactMedium,
				CodeSnippet:     "// Instead of:\n// var name = \"John\";\n\n// Use:\nconst name = \"John\"; // for constants\nlet age = 30; // for variables",
				Reasoning:       "let and const provide block scoping and prevent hoisting issues.",
			},
		},
		{
			match:  all(contains("for ("), contains(".length")),
			anchor: "for (",
			template: Suggestion{
				ID:              "js-loop-optimization",
				Type:            TypePerformance,
				Severity:        SeverityInfo,
				Title:           "Optimize loop performance",
				Message:         "Consider using modern array methods",
				Description:     "Replace traditional for loops with modern array methods for better readability and performance.",
				Confidence:      0.85,
				EstimatedImpact: ImpactMedium,
				CodeSnippet:     "// Instead of:\n// for (let i = 0; i < items.length; i++) {\n//   processItem(items[i]);\n// }\n\n// Use:\nitems.forEach(item => processItem(item));\n// or\nconst results = items.map(item => processItem(item));",
				Reasoning:       "Modern array methods are more readable and often more performant.",
			},
		},
		{
			match:  contains("innerHTML"),
			anchor: "innerHTML",
			template: Suggestion{
				ID:              "js-xss-prevention",
				Type:            TypeSecurity,
				Severity:        SeverityError,
				Title:           "Potential XSS vulnerability",
				Message:         "Sanitize user input before rendering",
				Description:     "Direct insertion of user input into DOM can lead to XSS attacks.",
				Confidence:      0.95,
				EstimatedImpact: ImpactHigh,
				CodeSnippet:     "// Instead of:\n// element.innerHTML = userInput;\n\n// Use:\nelement.textContent = userInput;\n// or with sanitization:\nelement.innerHTML = DOMPurify.sanitize(userInput);",
				Reasoning:       "Using textContent or proper sanitization prevents XSS attacks.",
			},
		},
	},
	"python": {
		{
			match:  all(contains("def "), not(contains(": "))),
			anchor: "def ",
			template: Suggestion{
				ID:              "py-type-hints",
				Type:            TypeBestPractice,
				Severity:        SeverityInfo,
				Title:           "Add type hints",
				Message:         "Consider adding type hints for better code documentation",
				Description:     "Type hints improve code readability and help with IDE support.",
				Confidence:      0.80,
				EstimatedImpact: ImpactMedium,
				CodeSnippet:     "# Instead of:\n# def process_data(data):\n#     return data.upper()\n\n# Use:\ndef process_data(data: str) -> str:\n    return data.upper()",
				Reasoning:       "Type hints improve code documentation and IDE support.",
			},
		},
		{
			match:  all(contains("for "), contains("append(")),
			anchor: "append(",
			template: Suggestion{
				ID:              "py-list-comprehension",
				Type:            TypePerformance,
				Severity:        SeverityInfo,
				Title:           "Use list comprehension",
				Message:         "Replace loop with list comprehension",
				Description:     "List comprehensions are more Pythonic and often faster.",
				Confidence:      0.85,
				EstimatedImpact: ImpactMedium,
				CodeSnippet:     "# Instead of:\n# result = []\n# for item in items:\n#     result.append(process(item))\n\n# Use:\nresult = [process(item) for item in items]",
				Reasoning:       "List comprehensions are more Pythonic and often faster.",
			},
		},
	},
	"java": {
		{
			match:  all(contains("List "), not(contains("List<"))),
			anchor: "List ",
			template: Suggestion{
				ID:              "java-generics",
				Type:            TypeBestPractice,
				Severity:        SeverityWarning,
				Title:           "Use generics",
				Message:         "Specify generic types for type safety",
				Description:     "Using generics provides compile-time type checking and eliminates casting.",
				Confidence:      0.90,
				EstimatedImpact: ImpactMedium,
				CodeSnippet:     "// Instead of:\n// List items = new ArrayList();\n\n// Use:\nList<String> items = new ArrayList<>();",
				Reasoning:       "Generics provide type safety and eliminate the need for casting.",
			},
		},
	},
	"cpp": cppRules,
	"c":   cppRules,
}

var genericComplexity = Suggestion{
	ID:              "generic-complexity",
	Type:            TypeRefactor,
	Severity:        SeverityInfo,
	Title:           "Consider breaking down large functions",
	Message:         "Large functions can be hard to maintain",
	Description:     "Breaking down large functions improves readability and maintainability.",
	Confidence:      0.70,
	EstimatedImpact: ImpactMedium,
	CodeSnippet:     "// Consider breaking this function into smaller, focused functions\n// Each function should have a single responsibility",
	Reasoning:       "Smaller functions are easier to test, debug, and maintain.",
}

// Demo scans code for known anti-patterns of the given language and returns
// at most MaxDemoSuggestions fixed-template suggestions. It never calls out
// to a model and is meant to keep the UI populated when none is available.
func Demo(code, language string) []Suggestion {
	return demoAt(code, language, time.Now().UTC())
}

func demoAt(code, language string, now time.Time) []Suggestion {
	lines := strings.Split(code, "\n")
	out := make([]Suggestion, 0, MaxDemoSuggestions)
	for _, r := range demoRules[strings.ToLower(language)] {
		if len(out) == MaxDemoSuggestions {
			break
		}
		if !r.match(code) {
			continue
		}
		s := r.template
		if r.anchor != "" {
			s.Line = findLineContaining(lines, r.anchor)
		}
		out = append(out, finish(s, now))
	}
	if len(out) == 0 && len(lines) > genericLineThreshold {
		s := genericComplexity
		s.Line = intPtr(len(lines) / 2)
		out = append(out, finish(s, now))
	}
	return out
}

func finish(s Suggestion, now time.Time) Suggestion {
	s.Priority = PriorityFor(s.Severity, s.EstimatedImpact)
	s.Timestamp = now
	return s
}

func findLineContaining(lines []string, text string) *int {
	for i, line := range lines {
		if strings.Contains(line, text) {
			return intPtr(i + 1)
		}
	}
	return nil
}
