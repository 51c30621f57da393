// Package auth verifies bearer tokens issued by the identity layer and
// places the authenticated user id on the request context. Token issuance
// lives outside this service; we only consume the contract.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/renatodap/fitness-backend/internal/apierr"
	"github.com/renatodap/fitness-backend/internal/config"
	"github.com/renatodap/fitness-backend/internal/userctx"
)

var ErrInvalidToken = errors.New("invalid token")

type Middleware struct {
	config *config.Config
}

func NewMiddleware(cfg *config.Config) *Middleware {
	return &Middleware{config: cfg}
}

// RequireAuth protects endpoints. With AUTH_REQUIRED off (local dev) the
// user id is taken from the X-User-ID header so handlers stay testable.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if !m.config.AuthRequired {
			userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if userID == "" {
				userID = "default"
			}
			next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
			return
		}

		userID, err := m.verifyHeader(r.Header.Get("Authorization"))
		if err != nil {
			apierr.Write(w, apierr.New(apierr.Unauthenticated, "Unauthorized"))
			return
		}

		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
	})
}

func (m *Middleware) verifyHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidToken
	}

	return m.VerifyJWT(parts[1])
}

// VerifyJWT validates an HS256 token and returns its subject.
func (m *Middleware) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.config.JWTSecret), nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return "", ErrInvalidToken
		}
		return sub, nil
	}

	return "", ErrInvalidToken
}

func isPublicPath(path string) bool {
	return path == "/healthz"
}
