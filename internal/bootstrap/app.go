package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"code-assistant/internal/analysiscache"
	"code-assistant/internal/assistant"
	"code-assistant/internal/github"
	"code-assistant/internal/llm"
	openai "code-assistant/internal/llm/openai"
	"code-assistant/internal/llmapi"
	"code-assistant/internal/services/health"
	"code-assistant/internal/sessions"
	"code-assistant/internal/shared/config"
	"code-assistant/internal/shared/metrics"
	"code-assistant/internal/shared/server"
	"code-assistant/internal/shared/storage/db"
)

// Version is reported by the health endpoint.
var Version = "dev"

// localGap spaces consecutive requests to a local model server.
const localGap = 100 * time.Millisecond

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Dialect          db.Dialect
	Catalog          *llm.Catalog
	LLM              llm.Factory
	SessionsRepo     sessions.Repo
	LLMService       *llmapi.Service
	Assistant        *assistant.Service
	LLMHandler       *llmapi.Handler
	AssistantHandler *assistant.Handler
	GitHubHandler    *github.Handler
	Health           *health.Service
}

// Build prepares every dependency and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	catalog, err := llm.LoadCatalog(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}

	sqlDB, dialect, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Dialect: dialect,
		Catalog: catalog,
	}
	buildServices(app)

	var pinger health.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	app.Health = health.NewService(pinger, catalog.IDs(), Version)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		Health:           app.Health,
		LLMHandler:       app.LLMHandler,
		AssistantHandler: app.AssistantHandler,
		GitHubHandler:    app.GitHubHandler,
	})
	return app, nil
}

// buildDB connects and migrates the session store. Dev-like environments fall
// back to memory when the database is missing or unreachable.
func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, db.Dialect, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("bootstrap: DATABASE_URL empty; chat sessions kept in memory")
		return nil, "", nil
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, dialect, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB, dialect)
		if err != nil {
			sqlDB.Close()
			err = fmt.Errorf("run migrations: %w", err)
		}
	}
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: session store unavailable; using memory: %v", err)
			return nil, "", nil
		}
		return nil, "", err
	}
	return sqlDB, dialect, nil
}

// NewLLMFactory is the provider pipeline shared by the server and the CLI.
func NewLLMFactory(cfg config.Config, catalog *llm.Catalog) llm.Factory {
	return &llm.Pipeline{
		Factory:  openai.Factory{Timeout: cfg.LLMTimeout},
		Catalog:  catalog,
		LocalGap: localGap,
	}
}

// DefaultSettings are the assistant settings used when a request carries
// none.
func DefaultSettings(cfg config.Config) assistant.Settings {
	return assistant.Settings{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
	}
}

// NewAssistantCache builds the analysis cache sized from cfg and exposes its
// size as a gauge.
func NewAssistantCache(cfg config.Config) *analysiscache.Cache[any] {
	cache := assistant.NewCache(
		analysiscache.WithCapacity(cfg.CacheCapacity),
		analysiscache.WithTTL(cfg.CacheTTL),
	)
	metrics.RegisterGauge("assist_cache_entries", "Entries in the assist analysis cache", func() float64 {
		return float64(cache.Len())
	})
	return cache
}

func buildServices(app *App) {
	cfg := app.Config

	var repo sessions.Repo
	if app.DB != nil {
		repo = sessions.NewSQLRepo(app.DB, app.Dialect)
	} else {
		repo = sessions.NewMemoryRepo()
	}

	app.LLM = NewLLMFactory(cfg, app.Catalog)
	app.SessionsRepo = repo
	app.LLMService = llmapi.NewService(app.Catalog, app.LLM, repo)
	app.Assistant = assistant.NewService(
		app.LLMService,
		app.Catalog,
		assistant.StaticSettings(DefaultSettings(cfg)),
		NewAssistantCache(cfg),
	)

	app.LLMHandler = llmapi.NewHandler(app.LLMService)
	app.AssistantHandler = assistant.NewHandler(app.Assistant)
	app.GitHubHandler = github.NewHandler(cfg.GitHubAPIURL, cfg.GitHubConcurrency)
}
