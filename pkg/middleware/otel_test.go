package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecorder() (*tracetest.SpanRecorder, trace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, tp
}

func TestOpenTelemetrySpan(t *testing.T) {
	sr, tp := newRecorder()

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: OpenTelemetry(
		WithTracerProvider(tp),
		WithPropagator(propagation.TraceContext{}),
	)(http.DefaultTransport)}

	resp, err := client.Get(srv.URL + "/wallet/u42")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "HTTP GET /wallet/:id" {
		t.Errorf("span name = %q", span.Name())
	}
	if span.SpanKind() != trace.SpanKindClient {
		t.Errorf("span kind = %v", span.SpanKind())
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", span.Status().Code)
	}
	if traceparent == "" {
		t.Error("traceparent header not injected")
	}
}

func TestOpenTelemetryErrorStatus(t *testing.T) {
	sr, tp := newRecorder()

	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}))
		defer srv.Close()

		client := &http.Client{Transport: OpenTelemetry(WithTracerProvider(tp))(http.DefaultTransport)}
		resp, err := client.Post(srv.URL+"/upload", "image/png", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	})

	t.Run("transport error", func(t *testing.T) {
		rt := OpenTelemetry(WithTracerProvider(tp))(roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: refused")
		}))
		req := httptest.NewRequest(http.MethodGet, "http://backend/zones", nil)
		if _, err := rt.RoundTrip(req); err == nil {
			t.Fatal("expected error")
		}
	})

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	for _, s := range spans {
		if s.Status().Code != codes.Error {
			t.Errorf("%s status = %v, want Error", s.Name(), s.Status().Code)
		}
	}
	if len(spans[1].Events()) == 0 {
		t.Error("transport error should be recorded as a span event")
	}
}
