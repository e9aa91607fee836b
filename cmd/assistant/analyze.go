package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"code-assistant/internal/assistant"
	"code-assistant/internal/language"
	"code-assistant/internal/suggestions"
)

var (
	analyzeLanguage string
	analyzeSort     string
	analyzeType     string
	analyzeSeverity string
	analyzeRefresh  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Review a source file and list suggestions",
	Long: `Sends a file to the configured model and lists the parsed suggestions.
When no provider is configured, or the provider fails, heuristic demo
suggestions are listed instead and the reason is printed.

Examples:
  assistant analyze main.go
  assistant analyze app.js --sort confidence --severity error
  assistant analyze server.py --provider ollama --model codellama
  assistant analyze lib.rs --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeLanguage, "language", "l", "", "Language override (default: from extension or content)")
	analyzeCmd.Flags().StringVar(&analyzeSort, "sort", "priority", "Sort by priority, confidence, impact or timestamp")
	analyzeCmd.Flags().StringVar(&analyzeType, "type", "", "Only show suggestions of this type (performance, security, best_practice, refactor, general)")
	analyzeCmd.Flags().StringVar(&analyzeSeverity, "severity", "", "Only show suggestions of this severity (error, warning, improvement, info)")
	analyzeCmd.Flags().BoolVar(&analyzeRefresh, "refresh", false, "Ignore cached results")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	sortKey, err := suggestions.ParseSortKey(analyzeSort)
	if err != nil {
		return fmt.Errorf("%w: %q", err, analyzeSort)
	}
	filter, err := suggestions.ParseFilter(analyzeType, analyzeSeverity)
	if err != nil {
		return err
	}
	code, lang, err := readSource(args[0], analyzeLanguage)
	if err != nil {
		return err
	}
	svc, err := newAssistant()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if analyzeRefresh {
		svc.ClearCacheForCode(ctx, code, lang)
	}
	res := svc.Analyze(ctx, code, lang)

	board := suggestions.NewBoard(res.Suggestions)
	board.SetSort(sortKey)
	board.SetFilter(filter)

	if formatFlag == formatJSON {
		res.Suggestions = board.Visible()
		return printJSON(os.Stdout, res)
	}
	printAnalysis(os.Stdout, args[0], lang, res, board)
	return nil
}

func printAnalysis(w io.Writer, file, lang string, res assistant.Result, board *suggestions.Board) {
	fmt.Fprintf(w, "%s (%s) via %s/%s [%s]\n", file, language.DisplayName(lang), res.Provider, res.Model, res.Path)
	if res.Path.Degraded() && res.ErrorMessage != "" {
		fmt.Fprintf(w, "note: %s\n", res.ErrorMessage)
	}
	if res.Err != nil {
		fmt.Fprintf(w, "backend error: %v\n", res.Err)
	}

	visible := board.Visible()
	if len(visible) == 0 {
		fmt.Fprintln(w, "\nNo suggestions.")
		return
	}
	fmt.Fprintln(w)
	for i, s := range visible {
		loc := "-"
		if s.Line != nil {
			loc = fmt.Sprintf("L%d", *s.Line)
		}
		fmt.Fprintf(w, "%2d. [%s/%s] %s %s (confidence %.0f%%)\n", i+1, s.Severity, s.Type, loc, s.Title, s.Confidence*100)
		if s.Message != "" && s.Message != s.Title {
			fmt.Fprintf(w, "    %s\n", s.Message)
		}
	}
	stats := board.Stats()
	fmt.Fprintf(w, "\n%d shown of %d\n", stats.Visible, stats.Total)
}
