package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/v1/search/filters", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(CacheHeader, "HIT")
		_, _ = w.Write([]byte("{}"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/filters?include=types", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/search/filters", "200", "hit"))
	if v < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", v)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_StatusAndCacheLabels(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/miss", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(CacheHeader, "MISS")
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/bad", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Get("/error", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.WriteHeader(http.StatusOK) // ignored
	})

	tests := []struct {
		path, status, cache string
	}{
		{"/miss", "200", "miss"},
		{"/bad", "400", "none"},
		{"/error", "500", "none"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, http.NoBody))

			v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.status, tc.cache))
			if v < 1 {
				t.Errorf("expected requests_total{%s,%s,%s} >= 1, got %f", tc.path, tc.status, tc.cache, v)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath(""); got != "unknown" {
		t.Errorf("normalizePath(\"\") = %q", got)
	}
	if got := normalizePath("/api/v1/schools"); got != "/api/v1/schools" {
		t.Errorf("normalizePath = %q", got)
	}
}

func TestCacheLabel(t *testing.T) {
	for in, want := range map[string]string{"HIT": "hit", "miss": "miss", "": "none", "STALE": "none"} {
		if got := cacheLabel(in); got != want {
			t.Errorf("cacheLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRegisterSearchMetrics_Exposed(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()

	CacheRequestsTotal.WithLabelValues("facets", "hit").Inc()
	if v := testutil.ToFloat64(CacheRequestsTotal.WithLabelValues("facets", "hit")); v < 1 {
		t.Errorf("expected cache_requests_total >= 1, got %f", v)
	}

	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if !strings.Contains(rr.Body.String(), "schooldex_cache_requests_total") {
		t.Error("expected cache metric in /metrics output")
	}
}
