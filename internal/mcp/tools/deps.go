package tools

import (
	"github.com/cohortware/fedsum/internal/bandspec"
	"github.com/cohortware/fedsum/internal/catalogue"
	"github.com/cohortware/fedsum/internal/config"
	"github.com/cohortware/fedsum/internal/query"
	"github.com/cohortware/fedsum/internal/summarize"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Catalogue *catalogue.Catalogue
	Engine    *summarize.Engine
	Query     *query.Engine
	BandSpec  *bandspec.Validator
	Config    *config.Config
}
