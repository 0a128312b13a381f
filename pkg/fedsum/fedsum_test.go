package fedsum

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortware/fedsum/pkg/opal"
	"github.com/cohortware/fedsum/pkg/types"
)

// cohortServer emulates enough of a cohort server for one categorical
// summary run.
func cohortServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /datasources/lifecycle/tables/core/variables", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]opal.VariableMeta{{
			Name: "sex", ValueType: "integer", Label: "Sex of child",
			Categories: []opal.Category{{Name: "1"}, {Name: "2"}},
		}})
	})
	mux.HandleFunc("POST /datashield/sessions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "s1"})
	})
	mux.HandleFunc("DELETE /datashield/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /datashield/sessions/{id}/symbols/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("DELETE /datashield/sessions/{id}/symbols/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /datashield/sessions/{id}/aggregate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Expression string `json:"expression"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Expression {
		case "table1dDS(fedsum_frame$sex)":
			json.NewEncoder(w).Encode(opal.FreqTable{Levels: []string{"1", "2"}, Counts: []int64{40, 60}})
		case "numNaDS(fedsum_frame$sex)":
			json.NewEncoder(w).Encode(opal.MissingCount{NMissing: 0, NTotal: 100})
		default:
			t.Errorf("unexpected aggregate %q", req.Expression)
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRequiresCohorts(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one cohort")
}

func TestSummaryStats(t *testing.T) {
	client := opal.New("alspac", cohortServer(t).URL)
	svc, err := New([]*opal.Client{client}, WithFetchWorkers(2), WithDictCacheSize(8))
	require.NoError(t, err)

	report, err := svc.SummaryStats(context.Background(), &types.SummaryRequest{
		Project: "lifecycle", Table: "core", Variables: []string{"sex"},
	})
	require.NoError(t, err)
	require.Len(t, report.Categorical, 2)
	assert.Equal(t, "alspac", report.Categorical[0].Cohort)
	assert.EqualValues(t, 40, report.Categorical[0].Count)
}

func TestSearchCatalogue(t *testing.T) {
	client := opal.New("alspac", cohortServer(t).URL)
	svc, err := New([]*opal.Client{client})
	require.NoError(t, err)

	hits, err := svc.SearchCatalogue(context.Background(), "lifecycle", "core", "sex", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "sex", hits[0].Variable)
	assert.Equal(t, []string{"alspac"}, hits[0].Cohorts)
}
