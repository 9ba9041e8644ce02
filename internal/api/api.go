// ABOUTME: API wiring: dependencies, route table and shared JSON helpers
// ABOUTME: Maps account and store errors onto HTTP status codes

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/2389/teamup/internal/account"
	"github.com/2389/teamup/internal/auth"
	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/repository"
	"github.com/2389/teamup/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// API errors
var (
	errNotFound      = errors.New("not found")
	errForbidden     = errors.New("forbidden")
	errInvalidInput  = errors.New("invalid input")
	errAlreadyExists = errors.New("already exists")
)

// Config holds the API dependencies.
type Config struct {
	Accounts *account.Service
	Repos    *repository.Repositories
	Verifier auth.TokenVerifier
	Registry *auth.Registry
	Logger   *slog.Logger
}

// API serves the HTTP routes.
type API struct {
	accounts *account.Service
	repos    *repository.Repositories
	verifier auth.TokenVerifier
	registry *auth.Registry
	logger   *slog.Logger
}

func New(cfg Config) *API {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		accounts: cfg.Accounts,
		repos:    cfg.Repos,
		verifier: cfg.Verifier,
		registry: cfg.Registry,
		logger:   logger.With("component", "api"),
	}
}

// authenticated wraps h so that only principals in audience reach it.
func (a *API) authenticated(audience auth.Audience, h http.HandlerFunc) http.Handler {
	return auth.HTTPAuthMiddleware(a.verifier, a.registry, audience, a.logger)(h)
}

// guarded authenticates any kind, then checks the role guard.
func (a *API) guarded(guard auth.Audience, h http.HandlerFunc) http.Handler {
	return a.authenticated(auth.AnyKind, auth.RoleGuard(guard, a.logger)(h).ServeHTTP)
}

// Register adds every API route to mux.
func (a *API) Register(mux *http.ServeMux) {
	organizator := auth.Kinds(account.Kind(entity.RoleOrganizator))
	participant := auth.Kinds(account.Kind(entity.RoleParticipant))
	reviewers := auth.Kinds(account.Kind(entity.RoleMentor), account.Kind(entity.RoleOrganizator))
	anyone := auth.AnyKind

	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)

	mux.Handle("GET /api/users/me", a.authenticated(anyone, a.handleGetMe))
	mux.Handle("PATCH /api/users/me", a.authenticated(anyone, a.handleUpdateMe))
	mux.Handle("DELETE /api/users/me", a.authenticated(anyone, a.handleDeleteMe))
	mux.Handle("POST /api/users/me/password", a.authenticated(anyone, a.handleChangePassword))
	mux.Handle("GET /api/users/{id}", a.authenticated(anyone, a.handleGetUser))
	mux.Handle("DELETE /api/users/{id}", a.authenticated(organizator, a.handleDeleteUser))

	mux.Handle("PUT /api/users/me/profile", a.authenticated(anyone, a.handleUpsertProfile))
	mux.Handle("GET /api/users/me/profile", a.authenticated(anyone, a.handleGetMyProfile))
	mux.Handle("DELETE /api/users/me/profile", a.authenticated(anyone, a.handleDeleteProfile))
	mux.Handle("GET /api/users/{id}/profile", a.authenticated(anyone, a.handleGetProfile))

	mux.Handle("PUT /api/users/me/technologies/{tech}", a.authenticated(anyone, a.handleUpsertKnows))
	mux.Handle("DELETE /api/users/me/technologies/{tech}", a.authenticated(anyone, a.handleDeleteKnows))
	mux.Handle("GET /api/users/{id}/technologies", a.authenticated(anyone, a.handleListKnows))

	mux.Handle("POST /api/technologies", a.guarded(organizator, a.handleCreateTechnology))
	mux.Handle("GET /api/technologies/{id}", a.authenticated(anyone, a.handleGetTechnology))

	mux.Handle("POST /api/specializations", a.guarded(organizator, a.handleCreateSpecialization))
	mux.Handle("GET /api/specializations/{id}", a.authenticated(anyone, a.handleGetSpecialization))
	mux.Handle("PUT /api/users/me/specializations/{spec}", a.authenticated(anyone, a.handleUpsertExperience))
	mux.Handle("DELETE /api/users/me/specializations/{spec}", a.authenticated(anyone, a.handleDeleteExperience))
	mux.Handle("GET /api/users/{id}/specializations", a.authenticated(anyone, a.handleListExperience))

	mux.Handle("POST /api/teams", a.authenticated(participant, a.handleCreateTeam))
	mux.Handle("GET /api/teams/{id}", a.authenticated(anyone, a.handleGetTeam))
	mux.Handle("PATCH /api/teams/{id}", a.authenticated(participant, a.handleUpdateTeam))
	mux.Handle("DELETE /api/teams/{id}", a.authenticated(participant, a.handleDeleteTeam))
	mux.Handle("GET /api/teams/{id}/members", a.authenticated(anyone, a.handleListMembers))
	mux.Handle("POST /api/teams/{id}/members", a.authenticated(participant, a.handleApply))
	mux.Handle("PATCH /api/teams/{id}/members/{user}", a.authenticated(participant, a.handleAcceptMember))
	mux.Handle("DELETE /api/teams/{id}/members/{user}", a.authenticated(participant, a.handleRemoveMember))

	mux.Handle("POST /api/users/{id}/reviews", a.guarded(reviewers, a.handleCreateReview))
	mux.Handle("GET /api/users/{id}/reviews", a.authenticated(anyone, a.handleListReviews))

	mux.Handle("GET /api/audit", a.guarded(organizator, a.handleListAudit))
}

// currentUser returns the account the middleware resolved for this request.
func currentUser(r *http.Request) *entity.User {
	u, ok := auth.AccountAs[entity.User](auth.MustPrincipal(r.Context()))
	if !ok {
		panic("api: principal account is not a user")
	}
	return u
}

// pathID parses the {name} path value as an id of T.
func pathID[T entity.Record](r *http.Request, name string) (entity.ID[T], error) {
	id, err := entity.ParseID[T](r.PathValue(name))
	if err != nil {
		return id, fmt.Errorf("%w: %s: %v", errInvalidInput, name, err)
	}
	return id, nil
}

// pageFrom reads ?limit= and ?offset=. Missing values fall back to the
// repository defaults.
func pageFrom(r *http.Request) (repository.Page, error) {
	var page repository.Page
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &page.Limit}, {"offset", &page.Offset}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, fmt.Errorf("%w: %s must be an integer", errInvalidInput, p.name)
		}
		*p.dst = n
	}
	return page.Normalize(), nil
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail answers with the status and code for err. Unexpected errors are
// logged and reported without details.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, errInvalidInput), errors.Is(err, account.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, account.ErrInvalidPassword):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, errForbidden), errors.Is(err, account.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, errNotFound), errors.Is(err, account.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, errAlreadyExists), errors.Is(err, account.ErrAlreadyExists),
		errors.Is(err, store.ErrConstraintViolation):
		status, code = http.StatusConflict, "already_exists"
	}

	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		auth.WriteJSONError(w, status, code, "internal server error")
		return
	}
	auth.WriteJSONError(w, status, code, err.Error())
}
