package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/dashkit/pkg/features/provider"
	"github.com/vango-dev/dashkit/pkg/features/resource"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/"},
		{"/zones", "/zones"},
		{"/wallet/u123", "/wallet/:id"},
		{"/bookings/b-9/status", "/bookings/:id/status"},
		{"/payout/add-beneficiary", "/payout/add-beneficiary"},
		{"/providers/abcdefghijklmnopqrstuvwxyz", "/providers/:id"},
	}
	for _, tt := range tests {
		if got := NormalizeRoute(tt.in); got != tt.want {
			t.Errorf("NormalizeRoute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTransportRecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: m.Transport()(http.DefaultTransport)}
	for _, path := range []string{"/wallet/u1", "/wallet/u2", "/fail"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
	}

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/wallet/:id", "200")); got != 2 {
		t.Errorf("wallet requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/fail", "502")); got != 1 {
		t.Errorf("fail requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if n := testutil.CollectAndCount(m.requestDuration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestTransportRecordsErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	boom := errors.New("connection reset")
	rt := m.Transport()(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	}))
	req := httptest.NewRequest(http.MethodPost, "http://backend/gallery", nil)
	if _, err := rt.RoundTrip(req); !errors.Is(err, boom) {
		t.Fatalf("RoundTrip() error = %v", err)
	}

	if got := testutil.ToFloat64(m.requestErrors.WithLabelValues("POST", "/gallery")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "/gallery", "error")); got != 1 {
		t.Errorf("requests{status=error} = %v, want 1", got)
	}
}

func TestWatchSlices(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	scope := provider.NewScope(context.Background())
	defer scope.Close()
	r := resource.New(scope, "zones", func(context.Context) ([]string, error) {
		return []string{"north"}, nil
	})

	stop := m.WatchSlices(r)
	r.Fetch(context.Background())
	stop()
	r.Fetch(context.Background())

	if got := testutil.ToFloat64(m.sliceTransitions.WithLabelValues("zones", "loading")); got != 1 {
		t.Errorf("loading transitions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.sliceTransitions.WithLabelValues("zones", "ready")); got != 1 {
		t.Errorf("ready transitions = %v, want 1", got)
	}
}
