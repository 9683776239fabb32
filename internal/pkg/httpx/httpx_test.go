package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"sportshub/internal/pkg/apperr"
)

func TestFailMapsKindToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		kind apperr.Kind
	}{
		{"not found", apperr.NotFound("slot not found"), http.StatusNotFound, apperr.KindNotFound},
		{"wrapped conflict", errors.Wrap(apperr.Conflict("slot taken"), "request slot"), http.StatusConflict, apperr.KindConflict},
		{"forbidden", apperr.Forbidden("not owner"), http.StatusForbidden, apperr.KindForbidden},
		{"plain error", errors.New("db down"), http.StatusInternalServerError, apperr.KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			Fail(req.Context(), rec, tc.err)

			if rec.Code != tc.code {
				t.Fatalf("expected status %d, got %d", tc.code, rec.Code)
			}
			var body struct {
				Success bool      `json:"success"`
				Message string    `json:"message"`
				Error   ErrorBody `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success {
				t.Fatal("expected success=false")
			}
			if body.Error.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, body.Error.Kind)
			}
			if tc.code == http.StatusInternalServerError && body.Message != "internal server error" {
				t.Fatalf("internal errors must not leak details, got %q", body.Message)
			}
		})
	}
}

func TestOKEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, "created", map[string]string{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestDecodeJSONRejectsEmptyAndUnknown(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(req, &v); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for empty body, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nope":1}`))
	if err := DecodeJSON(req, &v); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"court"}`))
	if err := DecodeJSON(req, &v); err != nil || v.Name != "court" {
		t.Fatalf("expected decode to succeed, got %v (%q)", err, v.Name)
	}
}

func TestClientLimiter(t *testing.T) {
	l, err := NewClientLimiter(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()

	if !l.allow("1.2.3.4", now) || !l.allow("1.2.3.4", now) {
		t.Fatal("burst of 2 should be allowed")
	}
	if l.allow("1.2.3.4", now) {
		t.Fatal("third request in the same instant should be limited")
	}
	if !l.allow("5.6.7.8", now) {
		t.Fatal("other clients have their own bucket")
	}
	if !l.allow("1.2.3.4", now.Add(1500*time.Millisecond)) {
		t.Fatal("bucket should refill over time")
	}
}

func TestClientLimiterSweepsIdleVisitors(t *testing.T) {
	l, _ := NewClientLimiter(1, 1)
	now := time.Now()
	l.allow("1.2.3.4", now)
	l.allow("5.6.7.8", now.Add(9*time.Minute))

	if n := l.sweep(now.Add(11 * time.Minute)); n != 1 {
		t.Fatalf("expected one idle visitor swept, got %d", n)
	}
	if _, ok := l.visitors["5.6.7.8"]; !ok {
		t.Fatal("recent visitor must be kept")
	}
}

func TestClientKeyIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	direct, _ := NewClientLimiter(1, 1)
	req := httptest.NewRequest(http.MethodGet, "/turfs", nil)
	req.RemoteAddr = "203.0.113.9:51000"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := direct.clientKey(req); got != "203.0.113.9" {
		t.Fatalf("spoofed header must be ignored, got %s", got)
	}

	proxied, err := NewClientLimiter(1, 1, "10.0.0.0/8", "192.168.1.10")
	if err != nil {
		t.Fatal(err)
	}
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.9, 192.168.1.10")
	if got := proxied.clientKey(req); got != "203.0.113.9" {
		t.Fatalf("expected rightmost untrusted hop, got %s", got)
	}

	req.Header.Del("X-Forwarded-For")
	if got := proxied.clientKey(req); got != "10.1.2.3" {
		t.Fatalf("no header falls back to the peer, got %s", got)
	}

	if _, err := NewClientLimiter(1, 1, "not-an-ip"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRotatingForwardedForStillLimited(t *testing.T) {
	l, _ := NewClientLimiter(0.001, 1)
	h := l.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := []int{}
	for _, fwd := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodGet, "/turfs", nil)
		req.RemoteAddr = "203.0.113.9:51000"
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %v", codes)
	}
}
