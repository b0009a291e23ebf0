// cvwizard runs the résumé wizard orchestrator: a session-scoped wizard
// FSM that turns an uploaded document and a job posting into a tailored,
// two-page PDF résumé through a sequence of stage-gated LLM calls.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/api"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cleanup"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/config"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/notify"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/render"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/store"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/wizard"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "./config/cvwizard.yaml"), "Path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("cvwizard: load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionStore, err := store.Open(ctx, store.Config{
		Host:         cfg.Store.Host,
		Port:         cfg.Store.Port,
		User:         cfg.Store.User,
		Password:     cfg.Store.Password,
		Database:     cfg.Store.Database,
		SSLMode:      cfg.Store.SSLMode,
		MaxOpenConns: cfg.Store.MaxOpenConns,
	})
	if err != nil {
		log.Fatalf("cvwizard: open session store: %v", err)
	}
	defer sessionStore.Close()
	slog.Info("cvwizard: connected to primary session store", "host", cfg.Store.Host, "database", cfg.Store.Database)

	llmClient, err := llm.NewClient(ctx, cfg.LLM.APIKey)
	if err != nil {
		log.Fatalf("cvwizard: create llm client: %v", err)
	}

	dispatcher := wizard.New(sessionStore, llmClient)

	notifier := notify.NewSlackNotifier(cfg.Slack.Enabled, os.Getenv(cfg.Slack.TokenEnv), cfg.Slack.Channel)
	renderPath := render.NewPath(sessionStore)
	if notifier != nil {
		renderPath.Notify = func(ctx context.Context, sessionID string, kind render.Kind) {
			notifier.NotifyRendered(ctx, sessionID, string(kind))
		}
		slog.Info("cvwizard: slack render notifications enabled", "channel", cfg.Slack.Channel)
	}

	cleanupSvc := cleanup.NewService(cleanup.DefaultConfig(), sessionStore)
	cleanupSvc.Start(ctx)
	defer cleanupSvc.Stop()

	server := api.NewServer(cfg, sessionStore, dispatcher, renderPath, cleanupSvc)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("cvwizard: http server listening", "addr", cfg.Server.Addr)
		if err := server.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("cvwizard: shutdown signal received")
	case err := <-errCh:
		slog.Error("cvwizard: http server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("cvwizard: graceful shutdown failed", "error", err)
	}
}
