package language

import (
	"path/filepath"
	"strings"
)

var byExtension = map[string]string{
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".py":    "python",
	".pyw":   "python",
	".pyx":   "python",
	".java":  "java",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".c++":   "cpp",
	".hpp":   "cpp",
	".h":     "c",
	".c":     "c",
	".cs":    "csharp",
	".php":   "php",
	".phtml": "php",
	".rb":    "ruby",
	".rbw":   "ruby",
	".go":    "go",
	".rs":    "rust",
	".sql":   "sql",
	".html":  "html",
	".htm":   "html",
	".css":   "css",
	".scss":  "css",
	".sass":  "css",
	".less":  "css",
	".json":  "json",
	".md":    "markdown",
	".xml":   "xml",
	".yml":   "yaml",
	".yaml":  "yaml",
	".kt":    "kotlin",
	".swift": "swift",
}

var extensions = map[string]string{
	"javascript": "js",
	"typescript": "ts",
	"python":     "py",
	"java":       "java",
	"cpp":        "cpp",
	"c":          "c",
	"csharp":     "cs",
	"html":       "html",
	"css":        "css",
	"json":       "json",
	"markdown":   "md",
	"xml":        "xml",
	"yaml":       "yml",
	"sql":        "sql",
	"php":        "php",
	"ruby":       "rb",
	"go":         "go",
	"rust":       "rs",
	"kotlin":     "kt",
	"swift":      "swift",
}

var displayNames = map[string]string{
	"javascript": "JavaScript",
	"typescript": "TypeScript",
	"python":     "Python",
	"java":       "Java",
	"cpp":        "C++",
	"c":          "C",
	"csharp":     "C#",
	"php":        "PHP",
	"ruby":       "Ruby",
	"go":         "Go",
	"rust":       "Rust",
	"sql":        "SQL",
	"html":       "HTML",
	"css":        "CSS",
	Unknown:      "Unknown",
}

// FromPath maps a file name to a language by extension, or Unknown.
func FromPath(path string) string {
	if lang, ok := byExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return Unknown
}

// Extension returns the file extension (without dot) used for language,
// "txt" when unknown.
func Extension(language string) string {
	if ext, ok := extensions[strings.ToLower(language)]; ok {
		return ext
	}
	return "txt"
}

func DisplayName(language string) string {
	if name, ok := displayNames[strings.ToLower(language)]; ok {
		return name
	}
	return language
}
