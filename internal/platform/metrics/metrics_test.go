package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Fatal("DefaultRegistry() should return the same instance")
	}
}

func TestRecordSolve(t *testing.T) {
	r := NewRegistry()
	r.RecordSolve("fam", "optimal", 20*time.Millisecond)
	r.RecordSolve("fam", "optimal", 30*time.Millisecond)
	r.RecordSolve("fam", "infeasible", 5*time.Millisecond)

	if got := testutil.ToFloat64(r.SolvesTotal.WithLabelValues("fam", "optimal")); got != 2 {
		t.Fatalf("optimal solves = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.SolvesTotal.WithLabelValues("fam", "infeasible")); got != 1 {
		t.Fatalf("infeasible solves = %v, want 1", got)
	}
}

func TestRecordRoutingAndModelSize(t *testing.T) {
	r := NewRegistry()
	r.RecordRouting(4, 3, 2)
	r.SetModelSize("ifam", 40, 12)

	if got := testutil.ToFloat64(r.RoutingCombinations.WithLabelValues("accepted")); got != 1 {
		t.Fatalf("accepted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.RoutingCombinations.WithLabelValues("rejected")); got != 3 {
		t.Fatalf("rejected = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.ModelSize.WithLabelValues("ifam", "constraints")); got != 12 {
		t.Fatalf("constraints = %v, want 12", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("GET", "/health", "200", time.Millisecond)

	rr := httptest.NewRecorder()
	r.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "fleet_http_requests_total") {
		t.Fatalf("body missing fleet_http_requests_total")
	}
}
