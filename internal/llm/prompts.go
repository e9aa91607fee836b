package llm

import (
	"embed"
	"fmt"
	"strings"
)

// Analysis types accepted by the analyze endpoints.
const (
	AnalysisGeneral          = "general"
	AnalysisDebug            = "debug"
	AnalysisImprove          = "improve"
	AnalysisCorrect          = "correct"
	AnalysisSecurity         = "security"
	AnalysisPerformance      = "performance"
	AnalysisSmartSuggestions = "smart_suggestions"
	AnalysisContextualHints  = "contextual_hints"
	AnalysisCodeImprovement  = "code_improvement"
)

//go:embed prompts/*.txt
var promptFS embed.FS

var systemInstructions = map[string]string{
	AnalysisGeneral:          "You are a senior software engineer with 15+ years of experience. Provide comprehensive, actionable code analysis with specific examples and clear recommendations. Use markdown formatting.",
	AnalysisDebug:            "You are an expert debugging specialist. Identify specific issues and give precise fixes with corrected code, line by line where needed.",
	AnalysisImprove:          "You are a software architect and performance expert. Prioritize improvements by impact and show before/after code.",
	AnalysisCorrect:          "You are a code correction specialist. Provide complete, working corrected code with an explanation of every fix.",
	AnalysisSecurity:         "You are a cybersecurity expert doing secure code review. Identify vulnerabilities with CVSS scores where applicable and show secure implementations.",
	AnalysisPerformance:      "You are a performance optimization expert. Analyze algorithmic efficiency and memory use and give quantifiable recommendations.",
	AnalysisSmartSuggestions: "You are a senior software engineer giving practical suggestions that can be applied immediately.",
	AnalysisContextualHints:  "You are a coding mentor giving language-specific hints, common patterns and educational insights.",
	AnalysisCodeImprovement:  "You are a code improvement specialist. Give specific improvements that keep the original functionality.",
}

const multiFileSystem = "You are an expert programmer analyzing multiple files from a codebase. Cover overall architecture, patterns and improvements."

const (
	// MaxMultiFiles and MaxMultiFileChars bound the multi-file prompt.
	MaxMultiFiles     = 10
	MaxMultiFileChars = 2000

	ConnectionTestPrompt = "Say 'Connection successful' if you can read this message."
)

type improvementRules struct {
	rules []string
	focus string
}

var languageRules = map[string]improvementRules{
	"javascript": {
		rules: []string{
			"Use modern ES6+ syntax (const/let, arrow functions, destructuring)",
			"Use async/await for promises",
			"Handle errors with try-catch",
			"Avoid var declarations",
			"Use template literals for string interpolation",
			"Use camelCase names",
		},
		focus: "modern JavaScript patterns, hooks and functional components",
	},
	"python": {
		rules: []string{
			"Follow PEP 8",
			"Add type hints where appropriate",
			"Use list and dict comprehensions when suitable",
			"Use snake_case names",
			"Use context managers for resources",
			"Add docstrings",
		},
		focus: "Pythonic idioms and clean exception handling",
	},
	"java": {
		rules: []string{
			"Use camelCase for methods and PascalCase for classes",
			"Use proper access modifiers",
			"Handle exceptions explicitly",
			"Use generics where appropriate",
			"Follow SOLID principles",
			"Use try-with-resources",
		},
		focus: "object-oriented design and encapsulation",
	},
	"cpp": {
		rules: []string{
			"Use modern C++ (11 through 20) features",
			"Prefer smart pointers over raw pointers",
			"Apply RAII",
			"Keep const-correctness",
			"Use range-based for loops",
			"Avoid memory leaks",
		},
		focus: "memory safety and modern C++ idioms",
	},
}

// NormalizeAnalysisType maps unknown or empty types to general.
func NormalizeAnalysisType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if _, ok := systemInstructions[t]; ok {
		return t
	}
	return AnalysisGeneral
}

// SystemInstruction returns the system message for an analysis type.
func SystemInstruction(analysisType string) string {
	return systemInstructions[NormalizeAnalysisType(analysisType)]
}

// AnalysisPrompt renders the user prompt for an analysis type.
func AnalysisPrompt(analysisType, code string) string {
	tmpl := mustPrompt(NormalizeAnalysisType(analysisType))
	return strings.NewReplacer("{{CODE}}", code).Replace(tmpl)
}

// AnalysisMessages builds the system and user messages for one analysis.
func AnalysisMessages(analysisType, code string) []Message {
	return []Message{
		{Role: RoleSystem, Content: SystemInstruction(analysisType)},
		{Role: RoleUser, Content: AnalysisPrompt(analysisType, code)},
	}
}

// SourceFile is one file in a multi-file analysis.
type SourceFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// MultiFileMessages renders at most MaxMultiFiles files, each cut to
// MaxMultiFileChars characters.
func MultiFileMessages(files []SourceFile) []Message {
	if len(files) > MaxMultiFiles {
		files = files[:MaxMultiFiles]
	}
	var b strings.Builder
	for i, f := range files {
		path := f.Path
		if strings.TrimSpace(path) == "" {
			path = "Unknown"
		}
		fmt.Fprintf(&b, "\n--- File %d: %s ---\n", i+1, path)
		b.WriteString(cutRunes(f.Content, MaxMultiFileChars))
		b.WriteString("\n")
	}
	user := strings.NewReplacer("{{FILES}}", b.String()).Replace(mustPrompt("multi_file"))
	return []Message{
		{Role: RoleSystem, Content: multiFileSystem},
		{Role: RoleUser, Content: user},
	}
}

// ImprovementPrompt asks for rewritten code following language rules.
// Languages without rules use the javascript set.
func ImprovementPrompt(code, language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	cfg, ok := languageRules[lang]
	if !ok {
		cfg = languageRules["javascript"]
	}
	if lang == "" {
		lang = "javascript"
	}
	rules := make([]string, 0, len(cfg.rules))
	for _, r := range cfg.rules {
		rules = append(rules, "- "+r)
	}
	return strings.NewReplacer(
		"{{LANGUAGE}}", lang,
		"{{RULES}}", strings.Join(rules, "\n"),
		"{{FOCUS}}", cfg.focus,
		"{{CODE}}", code,
	).Replace(mustPrompt("improvement_request"))
}

// SmartSuggestionsPrompt is the chat message asking for quick tips about
// code written in language.
func SmartSuggestionsPrompt(code, language string) string {
	return fmt.Sprintf("Analyze this %s code and provide smart, contextual suggestions for improvements, optimizations, and best practices. Focus on practical, actionable advice:\n\n%s", promptLanguage(language), code)
}

// ContextualHintsPrompt is the chat message asking for language hints.
func ContextualHintsPrompt(code, language string) string {
	return fmt.Sprintf("Provide contextual hints and tips for this %s code. Focus on language-specific best practices, common patterns, and helpful shortcuts:\n\n%s", promptLanguage(language), code)
}

func promptLanguage(language string) string {
	if lang := strings.ToLower(strings.TrimSpace(language)); lang != "" {
		return lang
	}
	return "javascript"
}

func mustPrompt(name string) string {
	raw, err := promptFS.ReadFile("prompts/" + name + ".txt")
	if err != nil {
		panic(fmt.Sprintf("missing prompt %s: %v", name, err))
	}
	return string(raw)
}

func cutRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
