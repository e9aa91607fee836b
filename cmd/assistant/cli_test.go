package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"code-assistant/internal/shared/config"
)

func TestResolveLanguage(t *testing.T) {
	py := "import os\n\ndef main():\n    print(os.getcwd())\n"
	cases := []struct {
		name, path, code, flag, want string
	}{
		{"flag wins", "main.go", py, "Rust", "rust"},
		{"extension", "main.go", py, "", "go"},
		{"content", "snippet.txt", py, "", "python"},
		{"fallback", "notes.txt", "hello there", "", "javascript"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveLanguage(tc.path, tc.code, tc.flag); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestReadSourceRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.js")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := readSource(path, ""); err == nil {
		t.Fatalf("expected an error for an empty file")
	}
}

func TestSettingsFromFlags(t *testing.T) {
	defer func() { providerFlag, modelFlag, apiKeyFlag, baseURLFlag = "", "", "", "" }()
	cfg := config.Config{LLMProvider: "openai", LLMModel: "gpt-4o"}

	s := settingsFromFlags(cfg)
	if s.Provider != "openai" || s.Model != "gpt-4o" {
		t.Fatalf("expected env defaults, got %+v", s)
	}

	providerFlag = "ollama"
	s = settingsFromFlags(cfg)
	if s.Provider != "ollama" || s.Model != "" {
		t.Fatalf("switching provider should drop the default model, got %+v", s)
	}

	modelFlag, apiKeyFlag = "codellama", "k"
	s = settingsFromFlags(cfg)
	if s.Model != "codellama" || s.APIKey != "k" {
		t.Fatalf("expected flag overrides, got %+v", s)
	}
}

func TestFlagValidationRejectsUnknownValues(t *testing.T) {
	defer func() { analyzeType, analyzeSeverity, promptType = "", "", "general" }()
	missing := filepath.Join(t.TempDir(), "never-read.js")

	cases := []struct {
		name string
		set  func()
		run  func() error
		want string
	}{
		{"analyze type", func() { analyzeType = "optimization" }, func() error { return runAnalyze(analyzeCmd, []string{missing}) }, "unknown type"},
		{"analyze severity", func() { analyzeType, analyzeSeverity = "", "critical" }, func() error { return runAnalyze(analyzeCmd, []string{missing}) }, "unknown severity"},
		{"prompt type", func() { promptType = "lint" }, func() error { return runPrompt(promptCmd, []string{missing}) }, "unknown analysis type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.set()
			err := tc.run()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got %v", tc.want, err)
			}
		})
	}
}
