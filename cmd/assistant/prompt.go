package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"code-assistant/internal/llm"
	"code-assistant/internal/shared/config"
)

var (
	promptType  string
	promptModel string
	promptOut   string
)

var promptCmd = &cobra.Command{
	Use:   "prompt <file>",
	Short: "Render the analysis prompt for a file without calling a model",
	Long: `Renders the system and user messages that an analysis of the given type
would send, after fitting the code to the model's context window, and reports
the token estimate.

Examples:
  assistant prompt main.go --type security
  assistant prompt big.py --model gpt-4 --out prompt.json --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runPrompt,
}

func init() {
	promptCmd.Flags().StringVarP(&promptType, "type", "t", llm.AnalysisGeneral, "Analysis type (general, debug, improve, correct, security, performance, smart_suggestions, contextual_hints, code_improvement)")
	promptCmd.Flags().StringVar(&promptModel, "prompt-model", "", "Model whose context window is used (default: --model or LLM_MODEL)")
	promptCmd.Flags().StringVarP(&promptOut, "out", "o", "", "Write the rendered messages as JSON to this path")
	rootCmd.AddCommand(promptCmd)
}

type renderedPrompt struct {
	Type            string        `json:"type"`
	Model           string        `json:"model"`
	ContextLimit    int           `json:"context_limit"`
	EstimatedTokens int           `json:"estimated_tokens"`
	Truncated       bool          `json:"truncated"`
	Messages        []llm.Message `json:"messages"`
}

func runPrompt(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	analysisType := llm.NormalizeAnalysisType(promptType)
	if analysisType != strings.ToLower(strings.TrimSpace(promptType)) {
		return fmt.Errorf("unknown analysis type %q", promptType)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	model := promptModel
	if model == "" {
		model = settingsFromFlags(config.Load()).Model
	}
	render := func(code string) []llm.Message { return llm.AnalysisMessages(analysisType, code) }
	code, estimated, truncated := llm.FitCode(string(data), model, render)

	out := renderedPrompt{
		Type:            analysisType,
		Model:           model,
		ContextLimit:    llm.ContextLimit(model),
		EstimatedTokens: estimated,
		Truncated:       truncated,
		Messages:        render(code),
	}

	if promptOut != "" {
		f, err := os.Create(promptOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := printJSON(f, out); err != nil {
			return err
		}
	}

	if formatFlag == formatJSON {
		return printJSON(os.Stdout, out)
	}
	fmt.Fprintf(os.Stdout, "type=%s model=%s tokens~%d/%d truncated=%t\n", out.Type, out.Model, out.EstimatedTokens, out.ContextLimit, out.Truncated)
	for _, m := range out.Messages {
		fmt.Fprintf(os.Stdout, "\n--- %s ---\n%s\n", m.Role, m.Content)
	}
	return nil
}
