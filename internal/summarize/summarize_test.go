package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortware/fedsum/internal/cache"
	"github.com/cohortware/fedsum/internal/catalogue"
	"github.com/cohortware/fedsum/internal/config"
	"github.com/cohortware/fedsum/internal/expr"
	"github.com/cohortware/fedsum/pkg/opal"
	"github.com/cohortware/fedsum/pkg/types"
)

// fakeCohort emulates one cohort server: data dictionary, session and symbol
// lifecycle, canned aggregate responses keyed by expression, and disclosure
// options. It records symbol removals so tests can assert cleanup.
type fakeCohort struct {
	name     string
	dict     []opal.VariableMeta
	settings opal.DisclosureSettings
	// aggregates maps an aggregate expression to its JSON response.
	aggregates map[string]any
	// refuse maps an aggregate expression to a 403 disclosure refusal.
	refuse map[string]string

	mu       sync.Mutex
	symbols  map[string]string
	removed  []string
	sessions int
}

func (f *fakeCohort) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /datasources/{project}/tables/{table}/variables", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.dict)
	})
	mux.HandleFunc("GET /datashield/options", func(w http.ResponseWriter, r *http.Request) {
		settings := f.settings
		if settings == nil {
			settings = opal.DisclosureSettings{}
		}
		json.NewEncoder(w).Encode(settings)
	})
	mux.HandleFunc("POST /datashield/sessions", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.sessions++
		f.symbols = map[string]string{}
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"id": "sess-" + f.name})
	})
	mux.HandleFunc("DELETE /datashield/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.sessions--
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /datashield/sessions/{id}/symbols/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Expression string `json:"expression"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.symbols[r.PathValue("symbol")] = req.Expression
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("DELETE /datashield/sessions/{id}/symbols/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		delete(f.symbols, r.PathValue("symbol"))
		f.removed = append(f.removed, r.PathValue("symbol"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /datashield/sessions/{id}/aggregate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Expression string `json:"expression"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if msg, ok := f.refuse[req.Expression]; ok {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": msg})
			return
		}
		resp, ok := f.aggregates[req.Expression]
		if !ok {
			t.Errorf("cohort %s: unexpected aggregate %q", f.name, req.Expression)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "unknown aggregate function"})
			return
		}
		json.NewEncoder(w).Encode(resp)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeCohort) client(t *testing.T) *opal.Client {
	t.Helper()
	return opal.New(f.name, f.server(t).URL)
}

func (f *fakeCohort) removedSymbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func (f *fakeCohort) openSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions
}

var (
	sexVar = opal.VariableMeta{
		Name: "sex", ValueType: "integer", Label: "Sex of child",
		Categories: []opal.Category{{Name: "1", Label: "male"}, {Name: "2", Label: "female"}},
	}
	bmiVar = opal.VariableMeta{Name: "bmi", ValueType: "decimal", Label: "Body mass index"}
)

func newTestEngine(t *testing.T, clients ...*opal.Client) *Engine {
	t.Helper()
	dc, err := cache.NewDictionaryCache(16)
	require.NoError(t, err)
	cfg := &config.Config{
		FetchWorkers:      4,
		DictCacheMaxItems: 16,
		CatalogueStaleAge: time.Minute,
	}
	return New(catalogue.New(clients, dc, cfg), cfg)
}

func TestSummaryStatsCategorical(t *testing.T) {
	a := &fakeCohort{
		name: "alspac",
		dict: []opal.VariableMeta{sexVar},
		aggregates: map[string]any{
			expr.FreqTable(workFrame, "sex"):    opal.FreqTable{Levels: []string{"1", "2"}, Counts: []int64{40, 60}},
			expr.MissingCount(workFrame, "sex"): opal.MissingCount{NMissing: 5, NTotal: 105},
		},
	}
	b := &fakeCohort{
		name: "ninfea",
		dict: []opal.VariableMeta{sexVar},
		aggregates: map[string]any{
			expr.FreqTable(workFrame, "sex"):    opal.FreqTable{Levels: []string{"1", "2"}, Counts: []int64{30, 20}},
			expr.MissingCount(workFrame, "sex"): opal.MissingCount{NMissing: 0, NTotal: 50},
		},
	}
	eng := newTestEngine(t, a.client(t), b.client(t))

	report, err := eng.SummaryStats(context.Background(), &types.SummaryRequest{
		Project: "lifecycle", Table: "core", Variables: []string{"sex"},
	})
	require.NoError(t, err)
	require.Len(t, report.Categorical, 6, "two cohorts x two levels plus two combined rows")
	assert.Empty(t, report.Continuous)

	first := report.Categorical[0]
	assert.Equal(t, "alspac", first.Cohort)
	assert.Equal(t, "1", first.Level)
	assert.EqualValues(t, 40, first.Count)
	assert.EqualValues(t, 100, first.ValidN)
	assert.EqualValues(t, 105, first.CohortN)
	assert.InDelta(t, 40.0, first.PercValid, 1e-9)

	combined := report.Categorical[4]
	assert.Equal(t, types.CombinedCohort, combined.Cohort)
	assert.Equal(t, "1", combined.Level)
	assert.EqualValues(t, 70, combined.Count)
	assert.EqualValues(t, 150, combined.ValidN)
	assert.EqualValues(t, 155, combined.CohortN)
	assert.EqualValues(t, 5, combined.MissingN)
	assert.InDelta(t, 100.0*70/150, combined.PercValid, 1e-9)
	assert.InDelta(t, 100.0*70/155, combined.PercTotal, 1e-9)

	// Temporary frames are removed and the run-opened sessions closed.
	for _, f := range []*fakeCohort{a, b} {
		assert.Contains(t, f.removedSymbols(), workFrame)
		assert.Equal(t, 0, f.openSessions())
	}
}

func TestSummaryStatsContinuous(t *testing.T) {
	a := &fakeCohort{
		name: "alspac",
		dict: []opal.VariableMeta{bmiVar},
		aggregates: map[string]any{
			expr.Descriptive(workFrame, "bmi"):  opal.Descriptive{Mean: 25, Variance: 4, NValid: 100, NMissing: 5, NTotal: 105},
			expr.QuantileMean(workFrame, "bmi"): opal.QuantileMean{Mean: 25, Quantiles: map[string]float64{"50%": 24}},
		},
	}
	b := &fakeCohort{
		name: "ninfea",
		dict: []opal.VariableMeta{bmiVar},
		aggregates: map[string]any{
			expr.Descriptive(workFrame, "bmi"):  opal.Descriptive{Mean: 27, Variance: 9, NValid: 50, NMissing: 0, NTotal: 50},
			expr.QuantileMean(workFrame, "bmi"): opal.QuantileMean{Mean: 27, Quantiles: map[string]float64{"50%": 28}},
		},
	}
	eng := newTestEngine(t, a.client(t), b.client(t))

	report, err := eng.SummaryStats(context.Background(), &types.SummaryRequest{
		Project: "lifecycle", Table: "core", Variables: []string{"bmi"},
	})
	require.NoError(t, err)
	require.Len(t, report.Continuous, 3, "one row per cohort plus one combined row")
	assert.Empty(t, report.Categorical)

	assert.Equal(t, "alspac", report.Continuous[0].Cohort)
	assert.InDelta(t, 2.0, report.Continuous[0].StdDev, 1e-9)

	combined := report.Continuous[2]
	assert.Equal(t, types.CombinedCohort, combined.Cohort)
	assert.EqualValues(t, 150, combined.ValidN)
	assert.EqualValues(t, 155, combined.CohortN)
	assert.EqualValues(t, 5, combined.MissingN)
	assert.InDelta(t, 3850.0/150, combined.Mean, 1e-9)
	// (99*4 + 49*9 + 100*(25-x̄)² + 50*(27-x̄)²) / 149 with x̄ = 3850/150.
	assert.InDelta(t, 2.5519, combined.StdDev, 1e-4)
	assert.InDelta(t, (24.0*100+28.0*50)/150, combined.Quantiles.P50, 1e-9)
}

func TestSummaryStatsDisclosureRefusalPropagates(t *testing.T) {
	a := &fakeCohort{
		name:   "alspac",
		dict:   []opal.VariableMeta{bmiVar},
		refuse: map[string]string{expr.Descriptive(workFrame, "bmi"): "disclosure risk: too few observations"},
	}
	eng := newTestEngine(t, a.client(t))

	_, err := eng.SummaryStats(context.Background(), &types.SummaryRequest{
		Project: "lifecycle", Table: "core", Variables: []string{"bmi"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alspac")
	assert.Contains(t, err.Error(), "disclosure risk")

	var apiErr *opal.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	// Cleanup runs on the error path too.
	assert.Contains(t, a.removedSymbols(), workFrame)
	assert.Equal(t, 0, a.openSessions())
}

func TestSummaryStatsVariableMissingInOneCohort(t *testing.T) {
	a := &fakeCohort{
		name: "alspac",
		dict: []opal.VariableMeta{sexVar},
		aggregates: map[string]any{
			expr.FreqTable(workFrame, "sex"):    opal.FreqTable{Levels: []string{"1"}, Counts: []int64{10}},
			expr.MissingCount(workFrame, "sex"): opal.MissingCount{NMissing: 0, NTotal: 10},
		},
	}
	b := &fakeCohort{name: "ninfea", dict: []opal.VariableMeta{bmiVar}}
	eng := newTestEngine(t, a.client(t), b.client(t))

	report, err := eng.SummaryStats(context.Background(), &types.SummaryRequest{
		Project: "lifecycle", Table: "core", Variables: []string{"sex"},
	})
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "ninfea")

	// Only the providing cohort contributes rows, so no combined row appears.
	require.Len(t, report.Categorical, 1)
	assert.Equal(t, "alspac", report.Categorical[0].Cohort)
}

func TestBandSubsets(t *testing.T) {
	a := &fakeCohort{
		name:     "alspac",
		dict:     []opal.VariableMeta{bmiVar},
		settings: opal.DisclosureSettings{"nfilter.subset": "5"},
		aggregates: map[string]any{
			expr.Length("subset_1"): opal.Length{Length: 40},
			expr.Length("subset_2"): opal.Length{Length: 3},
		},
	}
	client := a.client(t)
	require.NoError(t, client.OpenSession(context.Background()))
	eng := newTestEngine(t, client)

	report, err := eng.BandSubsets(context.Background(), &types.BandRequest{
		Project: "lifecycle", Table: "core",
		Spec: types.BandSpec{
			Variable: "bmi",
			Bands:    []types.Band{{Lower: 20, Upper: 25}, {Lower: 25, Upper: 30}},
		},
		KeepSymbols: true,
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)

	first := report.Rows[0]
	assert.Equal(t, "[20,25)", first.Band)
	assert.EqualValues(t, 40, first.Count)
	assert.Equal(t, "subset_1", first.Symbol)
	assert.False(t, first.DisclosureViolation)

	second := report.Rows[1]
	assert.Equal(t, "[25,30)", second.Band)
	assert.EqualValues(t, 3, second.Count)
	assert.Empty(t, second.Symbol, "violating subsets carry no symbol")
	assert.True(t, second.DisclosureViolation)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "disclosure threshold 5")

	removed := a.removedSymbols()
	assert.Contains(t, removed, "fedsum_filter_1")
	assert.Contains(t, removed, "fedsum_filter_2")
	assert.Contains(t, removed, "subset_2", "violating subset is removed")
	assert.NotContains(t, removed, "subset_1", "kept subset stays on the server")
	assert.Contains(t, removed, workFrame)

	// The session predates the run, so it stays open for follow-up analysis.
	assert.Equal(t, 1, a.openSessions())
}

func TestBandSubsetsWithoutKeepRemovesAll(t *testing.T) {
	a := &fakeCohort{
		name: "alspac",
		dict: []opal.VariableMeta{bmiVar},
		aggregates: map[string]any{
			expr.Length("agegrp_1"): opal.Length{Length: 12},
		},
	}
	eng := newTestEngine(t, a.client(t))

	report, err := eng.BandSubsets(context.Background(), &types.BandRequest{
		Project: "lifecycle", Table: "core",
		Spec:         types.BandSpec{Variable: "bmi", Bands: []types.Band{{Lower: 20, Upper: 30}}},
		SymbolPrefix: "agegrp",
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Empty(t, report.Rows[0].Symbol)
	assert.EqualValues(t, 12, report.Rows[0].Count)

	removed := a.removedSymbols()
	assert.Contains(t, removed, "agegrp_1")
	assert.Contains(t, removed, "fedsum_filter_1")
	assert.Equal(t, 0, a.openSessions())
}

func TestBandSubsetsValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     types.BandRequest
		wantErr string
	}{
		{
			name:    "missing variable",
			req:     types.BandRequest{Spec: types.BandSpec{Bands: []types.Band{{Lower: 1, Upper: 2}}}},
			wantErr: "band variable is required",
		},
		{
			name:    "no bands",
			req:     types.BandRequest{Spec: types.BandSpec{Variable: "bmi"}},
			wantErr: "at least one band",
		},
		{
			name: "inverted band",
			req: types.BandRequest{Spec: types.BandSpec{
				Variable: "bmi", Bands: []types.Band{{Lower: 30, Upper: 20}},
			}},
			wantErr: "lower bound 30 must be less than upper bound 20",
		},
		{
			name: "bad operator",
			req: types.BandRequest{Spec: types.BandSpec{
				Variable:  "bmi",
				Bands:     []types.Band{{Lower: 20, Upper: 30}},
				Operators: &types.BandOperators{Lower: "=>", Upper: "<"},
			}},
			wantErr: "invalid comparison operator",
		},
		{
			name: "bad prefix",
			req: types.BandRequest{
				Spec:         types.BandSpec{Variable: "bmi", Bands: []types.Band{{Lower: 20, Upper: 30}}},
				SymbolPrefix: "1bad;rm",
			},
			wantErr: "symbol prefix",
		},
	}

	a := &fakeCohort{name: "alspac", dict: []opal.VariableMeta{bmiVar}}
	eng := newTestEngine(t, a.client(t))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.Project, req.Table = "lifecycle", "core"
			_, err := eng.BandSubsets(context.Background(), &req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBandSubsetsRejectsCategoricalVariable(t *testing.T) {
	a := &fakeCohort{name: "alspac", dict: []opal.VariableMeta{sexVar}}
	eng := newTestEngine(t, a.client(t))

	_, err := eng.BandSubsets(context.Background(), &types.BandRequest{
		Project: "lifecycle", Table: "core",
		Spec: types.BandSpec{Variable: "sex", Bands: []types.Band{{Lower: 0, Upper: 1}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "continuous")
}

func TestDisclosureReport(t *testing.T) {
	a := &fakeCohort{
		name:     "alspac",
		dict:     []opal.VariableMeta{bmiVar},
		settings: opal.DisclosureSettings{"nfilter.tab": "5", "nfilter.subset": "10"},
	}
	b := &fakeCohort{name: "ninfea", dict: []opal.VariableMeta{bmiVar}}
	eng := newTestEngine(t, a.client(t), b.client(t))

	settings, err := eng.DisclosureReport(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, settings, 2)

	assert.Equal(t, "alspac", settings[0].Cohort)
	assert.Equal(t, 5, settings[0].TabThreshold)
	assert.Equal(t, 10, settings[0].SubsetThreshold)

	assert.Equal(t, "ninfea", settings[1].Cohort)
	assert.Equal(t, 3, settings[1].TabThreshold, "defaults apply when the server sets no options")
	assert.Equal(t, 3, settings[1].SubsetThreshold)
}

func TestSummaryStatsUnknownCohort(t *testing.T) {
	a := &fakeCohort{name: "alspac", dict: []opal.VariableMeta{bmiVar}}
	eng := newTestEngine(t, a.client(t))

	_, err := eng.SummaryStats(context.Background(), &types.SummaryRequest{
		Project: "lifecycle", Table: "core",
		Variables: []string{"bmi"}, Cohorts: []string{"nope"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown cohort "nope"`)
}
