package language

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		code string
		want string
	}{
		{"javascript", "const add = (a, b) => {\n  return a + b;\n};\nconsole.log(add(1, 2));\nexport default add;", "javascript"},
		{"python", "def greet(name):\n    print(f\"hi {name}\")\n\nif __name__ == '__main__':\n    greet('bob')", "python"},
		{"go", "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tx := 1\n\tdefer fmt.Println(x)\n}", "go"},
		{"sql", "SELECT id, name FROM users WHERE id = 1 ORDER BY name", "sql"},
		{"java", "public class Main {\n  public static void main(String[] args) {\n    System.out.println(\"hi\");\n  }\n}", "java"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(tc.code)
			if got.Language != tc.want {
				t.Fatalf("got %s (%v), want %s", got.Language, got, tc.want)
			}
			if got.Confidence <= 0 || got.Confidence > 1 {
				t.Fatalf("confidence out of range: %v", got.Confidence)
			}
			if len(got.Alternatives) > 2 {
				t.Fatalf("expected at most 2 alternatives, got %d", len(got.Alternatives))
			}
		})
	}
}

func TestDetectUnknown(t *testing.T) {
	for _, code := range []string{"", "   ", "~~~ ??? ~~~"} {
		got := Detect(code)
		if got.Language != Unknown || got.Confidence != 0 {
			t.Fatalf("Detect(%q) = %+v, want unknown", code, got)
		}
	}
}

func TestDetectConfidenceIsShareOfTotal(t *testing.T) {
	got := Detect("SELECT")
	// Only the sql keyword fires: 2 points of 2.
	if got.Language != "sql" || got.Confidence != 1 {
		t.Fatalf("unexpected detection %+v", got)
	}
}

func TestKeywordRegexpBoundaries(t *testing.T) {
	re := keywordRegexp("let")
	if re.MatchString("outlet") {
		t.Fatalf("keyword must match whole words only")
	}
	if !re.MatchString("LET x") {
		t.Fatalf("keyword match must be case-insensitive")
	}
	if !keywordRegexp("#include").MatchString("#include <stdio.h>") {
		t.Fatalf("keywords with leading symbols must still match")
	}
}

func TestFromPathAndExtension(t *testing.T) {
	cases := map[string]string{
		"src/app.JSX":  "javascript",
		"main.go":      "go",
		"lib/util.py":  "python",
		"include/x.h":  "c",
		"README":       Unknown,
		"component.ts": "typescript",
	}
	for path, want := range cases {
		if got := FromPath(path); got != want {
			t.Fatalf("FromPath(%q) = %q, want %q", path, got, want)
		}
	}
	if Extension("python") != "py" || Extension("brainfuck") != "txt" {
		t.Fatalf("unexpected extension mapping")
	}
	if DisplayName("cpp") != "C++" || DisplayName("zig") != "zig" {
		t.Fatalf("unexpected display names")
	}
}
