package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/jwt"
)

// AuthRequired rejects requests without a verified access token carrying a tenant.
// It must run after jwtauth.Verifier.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := jwt.ClaimsFromContext(r.Context()); err != nil {
			response.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
