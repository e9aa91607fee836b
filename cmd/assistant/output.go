package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"code-assistant/internal/language"
)

const (
	formatHuman = "human"
	formatJSON  = "json"
)

func checkFormat() error {
	switch formatFlag {
	case formatHuman, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want human or json)", formatFlag)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readSource loads a file and settles its language: the flag wins, then the
// file extension, then content detection.
func readSource(path, lang string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	code := string(data)
	if strings.TrimSpace(code) == "" {
		return "", "", fmt.Errorf("%s is empty", path)
	}
	return code, resolveLanguage(path, code, lang), nil
}

func resolveLanguage(path, code, lang string) string {
	if lang = strings.ToLower(strings.TrimSpace(lang)); lang != "" {
		return lang
	}
	if lang = language.FromPath(path); lang != "" && lang != language.Unknown {
		return lang
	}
	if d := language.Detect(code); d.Language != language.Unknown {
		return d.Language
	}
	return "javascript"
}
