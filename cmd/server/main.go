package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garnizeh/bidwright/api"
	"github.com/garnizeh/bidwright/internal/bidgen"
	"github.com/garnizeh/bidwright/internal/config"
	"github.com/garnizeh/bidwright/internal/store"
	"github.com/garnizeh/bidwright/pkg/llm"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	api.SetLogger(logger)
	llm.SetLogger(logger)
	bidgen.SetLogger(logger)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatal(logger, "failed to load config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(logger, "invalid config", err)
	}

	logger.Info("starting bid server", slog.String("version", version), slog.String("build_time", buildTime))

	ctx := context.Background()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "failed to open store", err)
	}

	client, err := llm.New(cfg.Completion)
	if err != nil {
		fatal(logger, "failed to build completion client", err)
	}

	engine, err := bidgen.NewEngine(client, bidgen.Config{
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
		MaxExcerpt:  cfg.Upload.MaxExcerpt,
	})
	if err != nil {
		fatal(logger, "failed to build bid engine", err)
	}

	handler := api.SetupRoutes(cfg, version, buildTime, api.Deps{Store: st, Generator: engine})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr), slog.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server failed to start", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("err", err))
	}
	if err := client.Close(); err != nil {
		logger.Error("error closing completion client", slog.Any("err", err))
	}
	if err := st.Close(); err != nil {
		logger.Error("error closing store", slog.Any("err", err))
	}

	logger.Info("server exited")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("err", err))
	os.Exit(1)
}
