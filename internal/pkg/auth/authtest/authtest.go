// Package authtest 为其他包的 HTTP 测试签发令牌。
package authtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sportshub/internal/pkg/auth"
)

const Secret = "test-secret"

// Bearer 返回可直接放进 Authorization 头的值
func Bearer(t testing.TB, sub string, role auth.Role) string {
	t.Helper()
	claims := auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

// Verifier 返回与 Bearer 配对的校验器
func Verifier() *auth.Verifier {
	return auth.NewVerifier(Secret)
}
