// ABOUTME: Package api serves the teamup JSON HTTP API
// ABOUTME: Routes accounts, profiles, technologies, specializations, teams and reviews onto a ServeMux

// Package api exposes the teamup domain over HTTP.
//
// Routes are registered on a standard [http.ServeMux] with method patterns.
// Every route except registration and login sits behind
// [auth.HTTPAuthMiddleware]; organizator and mentor only routes add an
// [auth.RoleGuard] or narrow the middleware audience.
//
// Privileged actions (deleting users and teams, creating technologies or
// specializations, handing over a team lead, reviewing) append an entry to
// the audit log, which organizators read through GET /api/audit.
//
// Errors are answered as {"error": "<code>", "description": "<text>"}:
//
//	400 invalid_input         malformed body, bad id or failed validation
//	401 invalid_credentials   wrong email or password on login
//	403 forbidden             the caller may not touch this record
//	404 not_found             the record does not exist
//	409 already_exists        a duplicate account, name or edge
//	500 internal_error        anything else; details are only logged
package api
