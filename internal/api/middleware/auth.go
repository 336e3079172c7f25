package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/kiranshivaraju/pitchlens/internal/api/response"
)

// Auth checks Bearer tokens against a fixed set of bcrypt hashes from API_KEY_HASHES.
// With no hashes configured every request is let through.
type Auth struct {
	hashes [][]byte
}

// NewAuth creates a new Auth middleware.
func NewAuth(hashes []string) *Auth {
	a := &Auth{}
	for _, h := range hashes {
		a.hashes = append(a.hashes, []byte(h))
	}
	return a
}

func (a *Auth) Enabled() bool { return len(a.hashes) > 0 }

// Authenticate validates the Bearer token and sets the client id in the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		rawKey := extractBearerToken(r)
		if rawKey == "" {
			response.Error(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}

		for i, h := range a.hashes {
			if bcrypt.CompareHashAndPassword(h, []byte(rawKey)) == nil {
				ctx := SetClientID(r.Context(), fmt.Sprintf("key-%d", i))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}
		response.Error(w, http.StatusUnauthorized, "Invalid API key")
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
