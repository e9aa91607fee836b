// Package language guesses the programming language of a snippet and maps
// between languages, file extensions and display names.
package language

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const Unknown = "unknown"

const (
	keywordWeight = 2
	patternWeight = 3
	maxAlternates = 2
)

// Candidate is a scored language guess.
type Candidate struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Detection is the outcome of Detect. Confidence is the top score's share of
// all scores, rounded to two decimals.
type Detection struct {
	Language     string      `json:"language"`
	Confidence   float64     `json:"confidence"`
	Alternatives []Candidate `json:"alternatives,omitempty"`
}

type profile struct {
	name     string
	keywords []*regexp.Regexp
	patterns []*regexp.Regexp
}

func newProfile(name string, keywords []string, patterns ...string) profile {
	p := profile{name: name}
	for _, kw := range keywords {
		p.keywords = append(p.keywords, keywordRegexp(kw))
	}
	for _, pat := range patterns {
		p.patterns = append(p.patterns, regexp.MustCompile(pat))
	}
	return p
}

// keywordRegexp matches kw as a whole word, case-insensitively. Word
// boundaries are only anchored on sides where kw has a word character.
func keywordRegexp(kw string) *regexp.Regexp {
	expr := regexp.QuoteMeta(kw)
	if isWordByte(kw[0]) {
		expr = `\b` + expr
	}
	if isWordByte(kw[len(kw)-1]) {
		expr += `\b`
	}
	return regexp.MustCompile(`(?i)` + expr)
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// profiles are scored in this order; ties keep it.
var profiles = []profile{
	newProfile("javascript",
		[]string{"function", "const", "let", "var", "async", "await", "import", "export", "require"},
		`function\s+\w+\s*\(`, `const\s+\w+\s*=`, `let\s+\w+\s*=`, `var\s+\w+\s*=`, `=>\s*\{`,
		`require\s*\(`, `import\s+.*from`, `export\s+(default\s+)?`, `console\.log\s*\(`,
		`\.then\s*\(`, `\.catch\s*\(`),
	newProfile("python",
		[]string{"def", "class", "import", "from", "if", "elif", "else", "for", "while", "try", "except", "with"},
		`def\s+\w+\s*\(`, `class\s+\w+`, `import\s+\w+`, `from\s+\w+\s+import`,
		`if\s+__name__\s*==\s*['"]__main__['"]`, `print\s*\(`, `len\s*\(`, `range\s*\(`,
		`(?m):\s*$`, `(?m)^\s*#`),
	newProfile("java",
		[]string{"public", "private", "protected", "class", "interface", "extends", "implements", "static", "final"},
		`public\s+class\s+\w+`, `public\s+static\s+void\s+main`, `System\.out\.print`, `import\s+java\.`,
		`package\s+\w+`, `\w+\s+\w+\s*\([^)]*\)\s*\{`, `new\s+\w+\s*\(`, `\.length\b`, `instanceof\s+`),
	newProfile("cpp",
		[]string{"#include", "using", "namespace", "class", "struct", "template", "public", "private", "protected"},
		`#include\s*<.*>`, `using\s+namespace\s+std`, `std::`, `cout\s*<<|cin\s*>>`, `int\s+main\s*\(`,
		`class\s+\w+`, `struct\s+\w+`, `template\s*<`, `\w+::\w+`, `delete\s+`, `new\s+\w+`),
	newProfile("c",
		[]string{"#include", "int", "char", "float", "double", "void", "struct", "typedef", "static", "extern"},
		`#include\s*<.*\.h>`, `int\s+main\s*\(`, `printf\s*\(`, `scanf\s*\(`, `malloc\s*\(`, `free\s*\(`,
		`struct\s+\w+`, `typedef\s+`, `\w+\s*\*\s*\w+`, `sizeof\s*\(`),
	newProfile("csharp",
		[]string{"using", "namespace", "class", "public", "private", "protected", "static", "void", "string"},
		`using\s+System`, `namespace\s+\w+`, `public\s+class\s+\w+`, `Console\.WriteLine`,
		`public\s+static\s+void\s+Main`, `\[.*\]`, `get\s*;\s*set\s*;`, `var\s+\w+\s*=`, `string\s+\w+`),
	newProfile("php",
		[]string{"<?php", "function", "class", "public", "private", "protected", "static", "echo", "print"},
		`<\?php`, `\$\w+`, `echo\s+`, `print\s+`, `function\s+\w+\s*\(`, `class\s+\w+`,
		`public\s+function`, `private\s+function`, `->`, `\$this->`),
	newProfile("ruby",
		[]string{"def", "class", "module", "end", "if", "elsif", "else", "unless", "case", "when"},
		`def\s+\w+`, `class\s+\w+`, `module\s+\w+`, `(?m)end\s*$`, `puts\s+`, `require\s+['"]`,
		`@\w+`, `\|\w+\|`, `\.each\s+do`, `=>\s*`),
	newProfile("go",
		[]string{"package", "import", "func", "var", "const", "type", "struct", "interface", "go", "defer"},
		`package\s+\w+`, `import\s+['"]`, `func\s+\w+\s*\(`, `func\s+main\s*\(`, `fmt\.Print`,
		`var\s+\w+\s+\w+`, `type\s+\w+\s+struct`, `go\s+\w+\s*\(`, `defer\s+`, `:=`),
	newProfile("rust",
		[]string{"fn", "let", "mut", "struct", "enum", "impl", "trait", "use", "mod", "pub"},
		`fn\s+\w+\s*\(`, `let\s+(mut\s+)?\w+`, `struct\s+\w+`, `enum\s+\w+`, `impl\s+\w+`,
		`trait\s+\w+`, `use\s+\w+`, `println!\s*\(`, `match\s+\w+`, `&str\b`, `String::`),
	newProfile("sql",
		[]string{"SELECT", "FROM", "WHERE", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP", "TABLE"},
		`(?i)SELECT\s+.*\s+FROM`, `(?i)INSERT\s+INTO`, `(?i)UPDATE\s+\w+\s+SET`, `(?i)DELETE\s+FROM`,
		`(?i)CREATE\s+TABLE`, `(?i)ALTER\s+TABLE`, `(?i)DROP\s+TABLE`, `(?i)WHERE\s+`, `(?i)JOIN\s+`,
		`(?i)GROUP\s+BY`, `(?i)ORDER\s+BY`),
	newProfile("html",
		[]string{"html", "head", "body", "div", "span", "script", "style", "link"},
		`(?i)<html`, `(?i)<head>`, `(?i)<body>`, `(?i)<div`, `(?i)<script`, `(?i)<style`, `(?i)<link`,
		`(?i)<!DOCTYPE`, `</\w+>`, `class\s*=`, `id\s*=`),
	newProfile("css",
		[]string{"color", "background", "margin", "padding", "border", "font", "display", "position"},
		`\w+\s*\{[^}]*\}`, `\.\w+\s*\{`, `#\w+\s*\{`, `color\s*:`, `background\s*:`, `margin\s*:`,
		`padding\s*:`, `font-size\s*:`, `display\s*:`, `@media`, `!important`),
}

// Detect scores code against every known language: each keyword occurrence
// is worth 2 and each matching pattern 3.
func Detect(code string) Detection {
	if strings.TrimSpace(code) == "" {
		return Detection{Language: Unknown}
	}

	type scored struct {
		name  string
		score int
	}
	scores := make([]scored, 0, len(profiles))
	total := 0
	for _, p := range profiles {
		s := 0
		for _, kw := range p.keywords {
			s += len(kw.FindAllStringIndex(code, -1)) * keywordWeight
		}
		for _, pat := range p.patterns {
			if pat.MatchString(code) {
				s += patternWeight
			}
		}
		total += s
		if s > 0 {
			scores = append(scores, scored{p.name, s})
		}
	}
	if len(scores) == 0 {
		return Detection{Language: Unknown}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	d := Detection{
		Language:   scores[0].name,
		Confidence: round2(float64(scores[0].score) / float64(total)),
	}
	for _, alt := range scores[1:] {
		if len(d.Alternatives) == maxAlternates {
			break
		}
		d.Alternatives = append(d.Alternatives, Candidate{
			Language:   alt.name,
			Confidence: round2(float64(alt.score) / float64(total)),
		})
	}
	return d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
