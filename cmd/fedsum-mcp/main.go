package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cohortware/fedsum/internal/config"
	"github.com/cohortware/fedsum/pkg/mcpsrv"
	"github.com/cohortware/fedsum/pkg/opal"
)

func main() {
	// Set up context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Cohort servers are configured via environment variables:
	// - FEDSUM_COHORTS: comma-separated name=baseURL pairs
	// - FEDSUM_TOKEN_<NAME>: per-cohort access token
	// - FEDSUM_LOG_LEVEL, FEDSUM_LOG_FILE, etc. (see internal/config)
	cfg := config.Load()
	if len(cfg.Cohorts) == 0 {
		slog.Error("no cohorts configured, set FEDSUM_COHORTS")
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	cohorts := make([]*opal.Client, 0, len(cfg.Cohorts))
	for _, c := range cfg.Cohorts {
		opts := []opal.Option{opal.WithHTTPClient(httpClient)}
		if c.Token != "" {
			opts = append(opts, opal.WithToken(c.Token))
		}
		cohorts = append(cohorts, opal.New(c.Name, c.BaseURL, opts...))
	}

	server, err := mcpsrv.NewServer(cohorts)
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}
	defer server.Close()

	slog.Info("starting fedsum MCP server on stdio", "cohorts", len(cohorts))
	if err := server.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
