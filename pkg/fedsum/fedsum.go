// Package fedsum is the public entry point for federated cohort summaries:
// summary tables and disclosure-checked band subsets over DataSHIELD/Opal
// cohort servers, plus catalogue search and disclosure-settings reports.
//
// A Service owns the dictionary catalogue and the remote-call orchestration
// for a fixed set of cohort servers:
//
//	alspac := opal.New("alspac", "https://opal.alspac.example.org",
//	    opal.WithToken(token))
//	svc, err := fedsum.New([]*opal.Client{alspac, ninfea})
//	if err != nil {
//	    return err
//	}
//	report, err := svc.SummaryStats(ctx, &types.SummaryRequest{
//	    Project:   "lifecycle",
//	    Table:     "core",
//	    Variables: []string{"sex", "bmi"},
//	})
package fedsum

import (
	"context"
	"fmt"
	"time"

	"github.com/cohortware/fedsum/internal/cache"
	"github.com/cohortware/fedsum/internal/catalogue"
	"github.com/cohortware/fedsum/internal/config"
	"github.com/cohortware/fedsum/internal/summarize"
	"github.com/cohortware/fedsum/pkg/opal"
	"github.com/cohortware/fedsum/pkg/types"
)

// Service runs federated summary routines over a fixed set of cohorts.
type Service struct {
	catalogue *catalogue.Catalogue
	engine    *summarize.Engine
	config    *config.Config
}

// Option is a functional option for configuring the Service.
type Option func(*config.Config)

// WithFetchWorkers bounds the concurrent dictionary fetches.
func WithFetchWorkers(n int) Option {
	return func(cfg *config.Config) {
		cfg.FetchWorkers = n
	}
}

// WithDictCacheSize sets the maximum number of cached dictionaries.
func WithDictCacheSize(n int) Option {
	return func(cfg *config.Config) {
		cfg.DictCacheMaxItems = n
	}
}

// WithCatalogueStaleAge sets how long cached dictionaries stay fresh.
func WithCatalogueStaleAge(d time.Duration) Option {
	return func(cfg *config.Config) {
		cfg.CatalogueStaleAge = d
	}
}

// New creates a Service over the given cohort servers. Defaults come from
// the environment (FEDSUM_* variables); options override them.
func New(cohorts []*opal.Client, opts ...Option) (*Service, error) {
	if len(cohorts) == 0 {
		return nil, fmt.Errorf("at least one cohort is required")
	}

	cfg := config.Load()
	for _, opt := range opts {
		opt(cfg)
	}

	dictCache, err := cache.NewDictionaryCache(cfg.DictCacheMaxItems)
	if err != nil {
		return nil, fmt.Errorf("creating dictionary cache: %w", err)
	}

	cat := catalogue.New(cohorts, dictCache, cfg)
	return &Service{
		catalogue: cat,
		engine:    summarize.New(cat, cfg),
		config:    cfg,
	}, nil
}

// SummaryStats produces categorical and continuous summary tables for the
// requested variables, one row set per cohort plus pooled "combined" rows.
func (s *Service) SummaryStats(ctx context.Context, req *types.SummaryRequest) (*types.SummaryReport, error) {
	return s.engine.SummaryStats(ctx, req)
}

// BandSubsets creates disclosure-checked remote subsets, one per band of a
// numeric variable, and reports their sizes.
func (s *Service) BandSubsets(ctx context.Context, req *types.BandRequest) (*types.BandReport, error) {
	return s.engine.BandSubsets(ctx, req)
}

// DisclosureReport returns every cohort's disclosure-control settings.
func (s *Service) DisclosureReport(ctx context.Context, cohorts []string) ([]types.CohortSettings, error) {
	return s.engine.DisclosureReport(ctx, cohorts)
}

// SearchCatalogue searches the cohorts' data dictionaries for a table by
// variable name or label tokens.
func (s *Service) SearchCatalogue(ctx context.Context, project, table, query string, limit int) ([]catalogue.SearchHit, error) {
	cohorts, err := s.catalogue.Cohorts(nil)
	if err != nil {
		return nil, err
	}
	if err := s.catalogue.Sync(ctx, cohorts, project, table); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.config.DefaultSearchLimit
	}
	return s.catalogue.Search(query, limit), nil
}
