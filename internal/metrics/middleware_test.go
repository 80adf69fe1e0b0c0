package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestEndpoint(t *testing.T) {
	t.Parallel()

	require.Equal(t, EndpointAnalyze, Endpoint("/v1/analyze"))
	require.Equal(t, EndpointSanitize, Endpoint("/v1/sanitize"))
	require.Equal(t, EndpointHealth, Endpoint("/readyz"))
	require.Equal(t, EndpointOther, Endpoint("/v1/unknown/*"))
	require.Equal(t, EndpointOther, Endpoint(""))
}

func TestMiddlewareRecordsEndpointAndCode(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Post("/v1/analyze", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"could not fetch page"}`))
	})
	r.Post("/v1/sanitize", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	analyze := apiRequestsTotal.WithLabelValues(EndpointAnalyze, "POST", "502")
	sanitize := apiRequestsTotal.WithLabelValues(EndpointSanitize, "POST", "200")
	other := apiRequestsTotal.WithLabelValues(EndpointOther, "GET", "404")
	beforeAnalyze := testutil.ToFloat64(analyze)
	beforeSanitize := testutil.ToFloat64(sanitize)
	beforeOther := testutil.ToFloat64(other)

	ts := httptest.NewServer(r)
	defer ts.Close()

	for _, path := range []string{"/v1/analyze", "/v1/sanitize"} {
		resp, err := http.Post(ts.URL+path, "application/json", nil)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}
	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, beforeAnalyze+1, testutil.ToFloat64(analyze))
	require.Equal(t, beforeSanitize+1, testutil.ToFloat64(sanitize))
	require.Equal(t, beforeOther+1, testutil.ToFloat64(other))
	require.Positive(t, testutil.CollectAndCount(apiRequestDurationSeconds))
	require.Positive(t, testutil.CollectAndCount(apiResponseBytes))
}
