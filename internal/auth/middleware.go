// Package auth extracts the acting user's identity from requests. Full
// authentication (signup, sessions, token issuance) is out of scope for
// this service; the middleware only decodes identity so handlers and the
// permission evaluator know who is acting.
package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ravenhq/raven/internal/models"
)

type Claims struct {
	Sub       string `json:"sub"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	CommsCode string `json:"comms_code"`
	jwt.RegisteredClaims
}

// IdentityMiddleware resolves the acting user from a bearer token. When no
// secret is configured it falls back to a fixed development identity, the
// same stand-in the product uses while real accounts do not exist.
type IdentityMiddleware struct {
	secret []byte
}

func NewIdentityMiddleware(secret string) *IdentityMiddleware {
	return &IdentityMiddleware{secret: []byte(secret)}
}

// DevUser is the fallback identity used when JWT_SECRET is unset.
var DevUser = models.User{
	ID:        "u1",
	Username:  "Night_Raven",
	Avatar:    "https://picsum.photos/seed/raven/50",
	JoinedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	CommsCode: "RVN-0001",
}

func (m *IdentityMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.secret) == 0 {
			u := DevUser
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &u)))
			return
		}

		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		}

		user := &models.User{
			ID:        claims.Sub,
			Username:  claims.Username,
			Avatar:    claims.Avatar,
			CommsCode: claims.CommsCode,
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
