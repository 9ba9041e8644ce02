// Package auth provides authentication and authorization for teamup.
//
// # Tokens
//
// Sessions are HS256 JWTs signed with the configured jwt_secret (at least
// 32 bytes). The claims carry the principal kind next to sub, iat and exp, so
// the kind is covered by the signature. Tokens live for three days and are
// never refreshed.
//
// # Principals
//
// A Principal is a kind plus the resolved account record. The Registry maps
// each kind to a Resolver. teamup keeps all accounts in the user table with
// a role tag and registers one FilteredResolver per role; a layout with one
// table per kind registers one NodeResolver per table instead.
//
// # HTTP Middleware
//
//	HTTPAuthMiddleware(verifier, registry, audience, logger)
//	RoleGuard(audience, logger)
//
// HTTPAuthMiddleware answers 401 for a missing header (missing_authorization_header)
// and for every other authentication failure (invalid_credentials), including
// a kind outside the route's audience. RoleGuard runs after it and answers 403
// (missing_permissions). Both consult the same Audience value.
//
// Handlers read the caller with PrincipalFrom or MustPrincipal.
package auth
