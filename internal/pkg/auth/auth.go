// internal/pkg/auth/auth.go
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/httpx"
)

// Role 是调用方的角色
type Role string

const (
	RoleUser     Role = "user"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

// Claims 是网关签发的访问令牌内容。签发不在本仓库内，这里只做校验。
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Actor 是经过认证的调用方
type Actor struct {
	ID   string
	Role Role
}

type ctxKey struct{}

// WithActor 把调用方放入上下文，测试和内部调用也会用到。
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFrom 取出调用方，未认证时 ok=false。
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}

// Verifier 使用 HS256 共享密钥校验 Bearer 令牌。
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse 校验令牌并返回调用方。
func (v *Verifier) Parse(tokenString string) (Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Actor{}, apperr.Wrap(apperr.KindUnauthorized, "invalid token", err)
	}
	if claims.Subject == "" {
		return Actor{}, apperr.New(apperr.KindUnauthorized, "token has no subject")
	}
	role := claims.Role
	if role == "" {
		role = RoleUser
	}
	return Actor{ID: claims.Subject, Role: role}, nil
}

// Require 是必须登录的中间件。
func (v *Verifier) Require() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				httpx.Fail(r.Context(), w, apperr.New(apperr.KindUnauthorized, "missing bearer token"))
				return
			}
			actor, err := v.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				httpx.Fail(r.Context(), w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
