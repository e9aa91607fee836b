package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"code-assistant/internal/llm"
	"code-assistant/internal/shared/config"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the configured LLM providers and their models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(); err != nil {
			return err
		}
		cfg := config.Load()
		catalog, err := llm.LoadCatalog(cfg.ProvidersFile)
		if err != nil {
			return err
		}
		if formatFlag == formatJSON {
			return printJSON(os.Stdout, catalog.All())
		}
		for _, id := range catalog.IDs() {
			p, _ := catalog.Lookup(id)
			ready := "ready"
			if _, err := catalog.Resolve(llm.Target{Provider: id}); err != nil {
				ready = err.Error()
			}
			fmt.Fprintf(os.Stdout, "%-10s %-22s default=%s (%s)\n", id, p.Name, p.DefaultModel, ready)
			if len(p.Models) > 0 {
				fmt.Fprintf(os.Stdout, "           models: %s\n", strings.Join(p.Models, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
