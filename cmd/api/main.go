package main

import (
	"log"

	"code-assistant/internal/bootstrap"
	"code-assistant/internal/shared/config"
	"code-assistant/internal/shared/server"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s (env=%s, default provider=%s)", addr, cfg.Env, cfg.LLMProvider)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
