package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	improveLanguage string
	improveWrite    bool
)

var improveCmd = &cobra.Command{
	Use:   "improve <file>",
	Short: "Ask the model for an improved version of a file",
	Long: `Prints an improved version of the file. With --write the file is replaced
in place, but only when the improvement came from a model.

Examples:
  assistant improve util.ts
  assistant improve legacy.cpp --write`,
	Args: cobra.ExactArgs(1),
	RunE: runImprove,
}

func init() {
	improveCmd.Flags().StringVarP(&improveLanguage, "language", "l", "", "Language override")
	improveCmd.Flags().BoolVarP(&improveWrite, "write", "w", false, "Write the improved code back to the file")
	rootCmd.AddCommand(improveCmd)
}

func runImprove(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	code, lang, err := readSource(args[0], improveLanguage)
	if err != nil {
		return err
	}
	svc, err := newAssistant()
	if err != nil {
		return err
	}

	imp := svc.Improve(context.Background(), code, lang)
	if improveWrite {
		if imp.Path.Degraded() {
			return fmt.Errorf("not writing %s: no model available (%s)", args[0], imp.Path)
		}
		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], []byte(imp.ImprovedCode), info.Mode().Perm()); err != nil {
			return err
		}
	}

	if formatFlag == formatJSON {
		return printJSON(os.Stdout, imp)
	}
	fmt.Fprintln(os.Stdout, imp.ImprovedCode)
	if imp.Explanation != "" {
		fmt.Fprintf(os.Stderr, "\n%s [%s]\n", imp.Explanation, imp.Path)
	}
	return nil
}
