package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"code-assistant/internal/editor"
	"code-assistant/internal/suggestions"
)

var (
	watchLanguage string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-analyze a file as it changes",
	Long: `Polls the file and feeds every change into a live analysis session. Edits
are debounced by the size of the file, so a burst of saves yields one
analysis. Results print as they complete; a result that finished after a
newer analysis had started is marked stale.

Stop with Ctrl-C.

Example:
  assistant watch src/app.ts --interval 500ms`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchLanguage, "language", "l", "", "Language override (default: detected on each change)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "How often to check the file for changes")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	svc, err := newAssistant()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lang := watchLanguage
	if lang == "" {
		lang = resolveLanguage(path, string(data), "")
	}
	session := editor.NewLiveSession(ctx, svc, lang, editor.WithListener(printUpdate))
	defer session.Close()

	last := string(data)
	session.Flush(last)
	fmt.Fprintf(os.Stderr, "watching %s (%s)\n", path, lang)

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
				continue
			}
			if code := string(data); code != last {
				last = code
				session.Change(code)
			}
		}
	}
}

func printUpdate(u editor.Update) {
	if formatFlag == formatJSON {
		_ = printJSON(os.Stdout, u.Result)
		return
	}
	board := suggestions.NewBoard(u.Result.Suggestions)
	stale := ""
	if u.Stale {
		stale = " (stale)"
	}
	fmt.Fprintf(os.Stdout, "\n#%d %s %s in %s%s\n", u.Generation, u.Finished.Format("15:04:05"), u.Result.Path, u.Finished.Sub(u.Started).Round(time.Millisecond), stale)
	for _, s := range board.Visible() {
		line := "-"
		if s.Line != nil {
			line = fmt.Sprintf("L%d", *s.Line)
		}
		fmt.Fprintf(os.Stdout, "  [%s] %s %s\n", s.Severity, line, s.Title)
	}
}
