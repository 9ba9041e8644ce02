// ABOUTME: HTTP middleware authenticating bearer tokens against the principal registry
// ABOUTME: Walks token -> claims -> kind -> principal and publishes the principal in the context

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/teamup/internal/metrics"
)

// errLookupFailed marks a store failure while resolving the principal. It is
// a server error, not an authentication failure.
var errLookupFailed = errors.New("principal lookup failed")

// failure is a rejected request: err goes to the client, reason and cause to the log.
type failure struct {
	err    error
	reason string
	cause  error
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and a failure reason (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "no_header"
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid_scheme"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "empty_token"
	}
	return token, ""
}

// authenticate runs the state machine. On success the principal's kind is
// registered, its account exists and the audience allows it.
func authenticate(r *http.Request, verifier TokenVerifier, registry *Registry, audience Audience) (*Principal, *failure) {
	token, reason := extractBearerToken(r.Header.Get("Authorization"))
	switch reason {
	case "":
	case "no_header":
		return nil, &failure{err: ErrNoAuthorizationHeader, reason: reason}
	default:
		return nil, &failure{err: ErrInvalidCredentials, reason: reason}
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		reason := "invalid_token"
		switch {
		case errors.Is(err, ErrExpiredToken):
			reason = "expired_token"
		case errors.Is(err, ErrFutureToken):
			reason = "future_token"
		}
		return nil, &failure{err: ErrInvalidCredentials, reason: reason, cause: err}
	}

	if claims.Kind == "" {
		return nil, &failure{err: ErrInvalidCredentials, reason: "missing_kind"}
	}

	principal, err := registry.Lookup(r.Context(), claims.Kind, claims.Subject)
	switch {
	case errors.Is(err, ErrUnknownKind):
		return nil, &failure{err: ErrInvalidCredentials, reason: "unknown_kind", cause: err}
	case err != nil:
		return nil, &failure{err: errLookupFailed, reason: "lookup_failed", cause: err}
	case principal == nil:
		return nil, &failure{err: ErrInvalidCredentials, reason: "principal_not_found"}
	}

	if !audience.Allows(principal.Kind) {
		return nil, &failure{err: ErrInvalidCredentials, reason: "kind_not_allowed"}
	}
	return principal, nil
}

// logAuthFailure logs an authentication failure with structured context.
func logAuthFailure(logger *slog.Logger, r *http.Request, reason string, attrs ...any) {
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	if logger == nil {
		return
	}
	baseAttrs := []any{"reason", reason, "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr}
	baseAttrs = append(baseAttrs, attrs...)
	logger.Warn("auth failure", baseAttrs...)
}

// HTTPAuthMiddleware creates an HTTP middleware that authenticates the bearer
// token, resolves the principal through the registry and rejects kinds outside
// audience with 401. A store failure during lookup is answered with 500.
func HTTPAuthMiddleware(verifier TokenVerifier, registry *Registry, audience Audience, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, f := authenticate(r, verifier, registry, audience)
			if f != nil {
				if errors.Is(f.err, errLookupFailed) {
					if logger != nil {
						logger.Error("principal lookup failed", "path", r.URL.Path, "error", f.cause)
					}
				} else {
					var attrs []any
					if f.cause != nil {
						attrs = append(attrs, "error", f.cause.Error())
					}
					logAuthFailure(logger, r, f.reason, attrs...)
				}
				WriteError(w, f.err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
