package mcpsrv

import (
	"github.com/cohortware/fedsum/internal/bandspec"
	"github.com/cohortware/fedsum/internal/cache"
	"github.com/cohortware/fedsum/internal/catalogue"
	"github.com/cohortware/fedsum/internal/config"
	"github.com/cohortware/fedsum/internal/query"
	"github.com/cohortware/fedsum/internal/summarize"
	"github.com/cohortware/fedsum/pkg/opal"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Cohorts   []*opal.Client
	Cache     *cache.DictionaryCache
	Catalogue *catalogue.Catalogue
	Engine    *summarize.Engine
	Query     *query.Engine
	BandSpec  *bandspec.Validator
	Config    *config.Config
}
