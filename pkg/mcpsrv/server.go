package mcpsrv

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cohortware/fedsum/internal/bandspec"
	"github.com/cohortware/fedsum/internal/cache"
	"github.com/cohortware/fedsum/internal/catalogue"
	"github.com/cohortware/fedsum/internal/config"
	"github.com/cohortware/fedsum/internal/logging"
	"github.com/cohortware/fedsum/internal/mcp"
	"github.com/cohortware/fedsum/internal/mcp/tools"
	"github.com/cohortware/fedsum/internal/query"
	"github.com/cohortware/fedsum/internal/summarize"
	"github.com/cohortware/fedsum/pkg/opal"
)

// Server is the fedsum MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with builtin fedsum tools.
//
// The cohorts parameter lists the cohort servers the tools operate on; at
// least one is required. Use functional options to configure logging, add
// custom tools, etc.
func NewServer(cohorts []*opal.Client, opts ...Option) (*Server, error) {
	if len(cohorts) == 0 {
		return nil, fmt.Errorf("at least one cohort is required")
	}

	cfg := &serverConfig{
		config: config.Load(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logCfg := logging.Config{
		Level:      cfg.config.LogLevel,
		FilePath:   cfg.config.LogFile,
		MaxSizeMB:  cfg.config.LogMaxSizeMB,
		MaxBackups: cfg.config.LogMaxBackups,
		MaxAgeDays: cfg.config.LogMaxAgeDays,
		Compress:   cfg.config.LogCompress,
	}
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	dictCache, err := cache.NewDictionaryCache(cfg.config.DictCacheMaxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create dictionary cache: %w", err)
	}

	cat := catalogue.New(cohorts, dictCache, cfg.config)
	engine := summarize.New(cat, cfg.config)
	queryEngine := query.NewEngine()

	bandValidator, err := bandspec.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to compile band-spec schema: %w", err)
	}

	toolDeps := &tools.Deps{
		Catalogue: cat,
		Engine:    engine,
		Query:     queryEngine,
		BandSpec:  bandValidator,
		Config:    cfg.config,
	}

	// Public deps mirror the internal ones for custom tools.
	deps := &Deps{
		Cohorts:   cohorts,
		Cache:     dictCache,
		Catalogue: cat,
		Engine:    engine,
		Query:     queryEngine,
		BandSpec:  bandValidator,
		Config:    cfg.config,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}

	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}
