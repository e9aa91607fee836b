package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"code-assistant/internal/assistant"
	"code-assistant/internal/bootstrap"
	"code-assistant/internal/llm"
	"code-assistant/internal/llmapi"
	"code-assistant/internal/sessions"
	"code-assistant/internal/shared/config"
	"code-assistant/internal/shared/telemetry"
)

var (
	providerFlag string
	modelFlag    string
	apiKeyFlag   string
	baseURLFlag  string
	serverFlag   string
	formatFlag   string
	timeoutFlag  time.Duration
	verboseFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "AI-assisted code review from the command line",
	Long: `assistant analyzes source files with the configured LLM provider and falls
back to heuristic demo suggestions when no provider is configured or reachable.

By default the LLM calls are made in-process using the same environment
variables as the API server. With --server the CLI talks to a running API
server instead.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			telemetry.SetOutput(os.Stderr)
		} else {
			telemetry.SetOutput(io.Discard)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&providerFlag, "provider", "", "LLM provider (openai, anthropic, azure, ollama, custom); default LLM_PROVIDER")
	flags.StringVar(&modelFlag, "model", "", "Model name; default LLM_MODEL or the provider default")
	flags.StringVar(&apiKeyFlag, "api-key", "", "API key; default the provider's environment variable")
	flags.StringVar(&baseURLFlag, "base-url", "", "Provider base URL override")
	flags.StringVar(&serverFlag, "server", "", "API server URL, e.g. http://localhost:5000 (default: call providers directly)")
	flags.StringVar(&formatFlag, "format", "human", "Output format (human, json)")
	flags.DurationVar(&timeoutFlag, "timeout", 2*time.Minute, "Timeout for one model call")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Write structured logs to stderr")
}

// settingsFromFlags layers the provider flags over the environment defaults.
func settingsFromFlags(cfg config.Config) assistant.Settings {
	s := bootstrap.DefaultSettings(cfg)
	if providerFlag != "" {
		s.Provider = providerFlag
		// A different provider must not inherit the default provider's model.
		s.Model = ""
		s.BaseURL = ""
	}
	if modelFlag != "" {
		s.Model = modelFlag
	}
	if apiKeyFlag != "" {
		s.APIKey = apiKeyFlag
	}
	if baseURLFlag != "" {
		s.BaseURL = baseURLFlag
	}
	return s
}

// newAssistant wires an assistant service for one CLI run.
func newAssistant() (*assistant.Service, error) {
	cfg := config.Load()
	if timeoutFlag > 0 {
		cfg.LLMTimeout = timeoutFlag
	}
	catalog, err := llm.LoadCatalog(cfg.ProvidersFile)
	if err != nil {
		return nil, err
	}

	var backend assistant.Backend
	if serverFlag != "" {
		remote := assistant.NewRemoteBackend(serverFlag, cfg.LLMTimeout)
		remote.ClientID = "assistant-cli"
		backend = remote
	} else {
		backend = llmapi.NewService(catalog, bootstrap.NewLLMFactory(cfg, catalog), sessions.NewMemoryRepo())
	}

	svc := assistant.NewService(backend, catalog, assistant.StaticSettings(settingsFromFlags(cfg)), bootstrap.NewAssistantCache(cfg))
	return svc, nil
}
