package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "testsecret"

func signTestToken(t *testing.T, secret, sub string, role Role) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRequire(t *testing.T) {
	v := NewVerifier(testSecret)

	var got Actor
	h := v.Require()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// 没有令牌
	req := httptest.NewRequest(http.MethodGet, "/slots", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// 错误的密钥
	req = httptest.NewRequest(http.MethodGet, "/slots", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "other", "u-1", RoleUser))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with foreign signature, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/slots", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, testSecret, "supplier-9", RoleSupplier))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rec.Code)
	}
	if got.ID != "supplier-9" || got.Role != RoleSupplier {
		t.Fatalf("unexpected actor %+v", got)
	}
}

func TestParseDefaultsRoleToUser(t *testing.T) {
	v := NewVerifier(testSecret)
	actor, err := v.Parse(signTestToken(t, testSecret, "u-2", ""))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if actor.Role != RoleUser {
		t.Fatalf("expected default role user, got %q", actor.Role)
	}
}
