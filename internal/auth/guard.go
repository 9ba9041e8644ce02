// ABOUTME: Route-scoped role guard over an already authenticated principal
// ABOUTME: Denies with 403 missing_permissions, including when no principal is present

package auth

import (
	"log/slog"
	"net/http"
)

// RoleGuard creates an HTTP middleware that only lets principals whose kind is
// in audience through. Must be used after HTTPAuthMiddleware.
func RoleGuard(audience Audience, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFrom(r.Context())
			if !Allowed(principal, audience) {
				attrs := []any{"required", audience.String()}
				if principal != nil {
					attrs = append(attrs, "kind", string(principal.Kind), "subject", principal.Subject)
				}
				logAuthFailure(logger, r, "missing_permissions", attrs...)
				WriteError(w, ErrMissingPermissions)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
