package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestGetJSONDecodesEnvelopeData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "a,b" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"ok","data":{"a":10,"b":0}}`))
	}))
	defer srv.Close()

	c := NewClient(noop.NewTracerProvider().Tracer("test"))
	var out map[string]int
	if err := c.GetJSON(context.Background(), srv.URL+"/boosts", url.Values{"ids": {"a,b"}}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["a"] != 10 || out["b"] != 0 {
		t.Fatalf("unexpected data %+v", out)
	}
}

func TestNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(noop.NewTracerProvider().Tracer("test"))
	err := c.PostJSON(context.Background(), srv.URL, map[string]string{"k": "v"}, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 status error, got %v", err)
	}
}

type stubDiscoverer struct {
	ip   string
	port int
	err  error
}

func (s stubDiscoverer) DiscoverServiceInstance(string) (string, int, error) {
	return s.ip, s.port, s.err
}

func TestResolver(t *testing.T) {
	r := NewResolver(stubDiscoverer{ip: "10.0.0.5", port: 8087}, "promotion-service", "http://localhost:8087/")
	if got, _ := r.BaseURL(); got != "http://10.0.0.5:8087" {
		t.Fatalf("expected discovered address, got %s", got)
	}

	r = NewResolver(stubDiscoverer{err: errors.New("down")}, "promotion-service", "http://localhost:8087/")
	if got, _ := r.BaseURL(); got != "http://localhost:8087" {
		t.Fatalf("expected fallback address, got %s", got)
	}

	r = NewResolver(nil, "promotion-service", "")
	if _, err := r.BaseURL(); err == nil {
		t.Fatal("expected error with nothing configured")
	}
}
