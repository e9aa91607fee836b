package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"code-assistant/internal/language"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Guess the language of a file from its content",
	Long: `Scores the file content against the known language profiles and prints
the best match with alternatives. The extension is not consulted.

Example:
  assistant detect snippet.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(); err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		d := language.Detect(string(data))
		if formatFlag == formatJSON {
			return printJSON(os.Stdout, d)
		}
		fmt.Fprintf(os.Stdout, "%s (confidence %.2f)\n", language.DisplayName(d.Language), d.Confidence)
		for _, alt := range d.Alternatives {
			fmt.Fprintf(os.Stdout, "  also: %s %.2f\n", alt.Language, alt.Confidence)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
