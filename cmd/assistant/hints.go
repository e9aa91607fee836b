package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var tipsLanguage string

var hintsCmd = &cobra.Command{
	Use:   "hints <file>",
	Short: "Show contextual hints for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(); err != nil {
			return err
		}
		code, lang, err := readSource(args[0], tipsLanguage)
		if err != nil {
			return err
		}
		svc, err := newAssistant()
		if err != nil {
			return err
		}
		res := svc.ContextualHints(context.Background(), code, lang)
		if formatFlag == formatJSON {
			return printJSON(os.Stdout, res)
		}
		for _, h := range res.Hints {
			fmt.Fprintf(os.Stdout, "- %s\n", h.Message)
		}
		return nil
	},
}

var smartCmd = &cobra.Command{
	Use:   "smart <file>",
	Short: "Show one-line smart suggestions for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(); err != nil {
			return err
		}
		code, lang, err := readSource(args[0], tipsLanguage)
		if err != nil {
			return err
		}
		svc, err := newAssistant()
		if err != nil {
			return err
		}
		res := svc.SmartSuggestions(context.Background(), code, lang)
		if formatFlag == formatJSON {
			return printJSON(os.Stdout, res)
		}
		for _, s := range res.Suggestions {
			fmt.Fprintf(os.Stdout, "- [%s] %s\n", s.Type, s.Message)
		}
		return nil
	},
}

func init() {
	hintsCmd.Flags().StringVarP(&tipsLanguage, "language", "l", "", "Language override")
	smartCmd.Flags().StringVarP(&tipsLanguage, "language", "l", "", "Language override")
	rootCmd.AddCommand(hintsCmd, smartCmd)
}
