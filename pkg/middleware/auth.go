package middleware

import (
	"errors"
	"net/http"
	"strings"

	"transit-booking/pkg/identity"
	"transit-booking/pkg/utils"

	"go.uber.org/zap"
)

// Auth validates the bearer token against the identity provider and puts the
// resulting user id and role on the request context.
func Auth(verifier identity.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			principal, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				if errors.Is(err, identity.ErrInvalidToken) {
					utils.ResponseUnauthorized(w, "Invalid or expired token")
					return
				}
				logger.Error("Failed to verify token with identity provider", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			ctx := utils.SetUserContext(r.Context(), principal.UserID, principal.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin requires the role claim returned by the identity provider to be
// "admin". Must run after Auth.
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := utils.GetRoleFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if role != "admin" {
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("role", role),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WebhookSecret authenticates payment-provider callbacks with a shared
// secret header.
func WebhookSecret(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" || r.Header.Get("X-Webhook-Secret") != secret {
				logger.Warn("Webhook rejected: bad secret", zap.String("ip", r.RemoteAddr))
				utils.ResponseUnauthorized(w, "Invalid webhook secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
