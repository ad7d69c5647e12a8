package middleware

import (
	"net/http"
	"strings"

	"telematics/internal/api/util"
)

type AuthMiddleware struct {
	tokens *util.TokenManager
}

func NewAuthMiddleware(tokens *util.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate requires a valid "Authorization: Bearer <jwt>" header and stores
// the token subject in the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			util.RespondError(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			util.RespondError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		claims, err := m.tokens.Validate(parts[1])
		if err != nil {
			util.RespondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(util.WithSubject(r.Context(), claims.Subject)))
	})
}
