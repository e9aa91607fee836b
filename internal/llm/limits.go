package llm

import (
	"strings"

	"code-assistant/internal/shared/util"
)

// DefaultContextLimit applies to models missing from the table.
const DefaultContextLimit = 4096

const (
	contextBudget   = 0.7
	promptReserve   = 1000
	charsPerToken   = 4
	truncatedSuffix = "\n\n... [Code truncated due to length limits] ..."
	halvedSuffix    = "\n\n... [Code truncated due to context length limits] ..."
)

var contextLimits = map[string]int{
	"gpt-4":                      8192,
	"gpt-4-turbo":                128000,
	"gpt-4o":                     128000,
	"gpt-4o-mini":                128000,
	"gpt-3.5-turbo":              4096,
	"gpt-35-turbo":               4096,
	"claude-3-5-sonnet-20241022": 200000,
	"claude-3-5-haiku-20241022":  200000,
	"claude-3-opus-20240229":     200000,
	"claude-3-sonnet-20240229":   200000,
	"claude-3-haiku-20240307":    200000,
}

// ContextLimit returns the context window, in tokens, for model.
func ContextLimit(model string) int {
	if n, ok := contextLimits[strings.TrimSpace(model)]; ok {
		return n
	}
	return DefaultContextLimit
}

// EstimateTokens approximates token usage at four characters per token.
func EstimateTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content) + len(m.Role)
	}
	return total / charsPerToken
}

// FitCode truncates code when the rendered prompt would use more than 70% of
// the model's context window. It reports the estimated tokens of the prompt
// before truncation and whether code was cut.
func FitCode(code, model string, render func(string) []Message) (string, int, bool) {
	estimated := EstimateTokens(render(code))
	limit := ContextLimit(model)
	budget := float64(limit) * contextBudget
	if float64(estimated) <= budget {
		return code, estimated, false
	}
	maxChars := int((budget - promptReserve) * charsPerToken)
	if maxChars < 0 {
		maxChars = 0
	}
	if len(code) <= maxChars {
		return code, estimated, false
	}
	return util.CutBytes(code, maxChars) + truncatedSuffix, estimated, true
}

// HalveCode keeps the first half of code, used after a provider rejects the
// prompt for its length.
func HalveCode(code string) string {
	return util.CutBytes(code, len(code)/2) + halvedSuffix
}

// DefaultMaxTokens sizes the completion by the length of the submitted code.
func DefaultMaxTokens(codeLen int) int {
	switch {
	case codeLen > 5000:
		return 4000
	case codeLen > 2000:
		return 3000
	default:
		return 2000
	}
}
