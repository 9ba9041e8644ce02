// ABOUTME: Tests for the HTTP authentication middleware and role guard
// ABOUTME: Covers header parsing, every rejection path and the 401/403 split

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/repository"
	"github.com/2389/teamup/internal/store"
)

// countingClient counts Get calls and can fail them.
type countingClient struct {
	store.Client
	gets atomic.Int32
	err  error
}

func (c *countingClient) Get(ctx context.Context, id entity.RecordID) (*store.Document, error) {
	c.gets.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.Client.Get(ctx, id)
}

type harness struct {
	verifier *JWTVerifier
	registry *Registry
	users    *repository.UserRepository
	client   *countingClient
}

// newHarness wires the single-table layout: one user table, one resolver per role.
func newHarness(t *testing.T) *harness {
	t.Helper()
	verifier, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)

	client := &countingClient{Client: store.NewMemoryStore()}
	users := repository.NewUserRepository(client, nil)

	registry := NewRegistry()
	for _, role := range entity.Roles {
		registry.Register(Kind(role), FilteredResolver[entity.User](users, func(u *entity.User) bool {
			return u.Role == role
		}))
	}
	return &harness{verifier: verifier, registry: registry, users: users, client: client}
}

func (h *harness) user(t *testing.T, role entity.Role) (entity.User, string) {
	t.Helper()
	u, err := h.users.Save(context.Background(), entity.CreateUser{
		Email:    string(role) + "@example.com",
		Username: string(role),
		Role:     role,
	})
	require.NoError(t, err)
	token, err := h.verifier.Issue(Kind(role), u.ID.Key())
	require.NoError(t, err)
	return u, token
}

func (h *harness) serve(audience Audience, guard *Audience, header string) (*httptest.ResponseRecorder, *Principal) {
	var got *Principal
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	if guard != nil {
		handler = RoleGuard(*guard, slog.Default())(handler)
	}
	handler = HTTPAuthMiddleware(h.verifier, h.registry, audience, slog.Default())(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, got
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header     string
		wantToken  string
		wantReason string
	}{
		{"", "", "no_header"},
		{"Basic dXNlcjpwYXNz", "", "invalid_scheme"},
		{"Bearer", "", "invalid_scheme"},
		{"Bearer ", "", "empty_token"},
		{"Bearer abc", "abc", ""},
		{"bearer abc", "abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, reason := extractBearerToken(tt.header)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestHTTPAuthMiddleware_ValidToken(t *testing.T) {
	h := newHarness(t)
	u, token := h.user(t, entity.RoleMentor)

	rec, got := h.serve(AnyKind, nil, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, Kind("mentor"), got.Kind)
	assert.Equal(t, u.ID.Key(), got.Subject)
	account, ok := AccountAs[entity.User](got)
	require.True(t, ok)
	assert.Equal(t, u.Username, account.Username)
	assert.Equal(t, int32(1), h.client.gets.Load(), "lookup must take exactly one store round trip")
}

func TestHTTPAuthMiddleware_Rejections(t *testing.T) {
	h := newHarness(t)
	mentor, mentorToken := h.user(t, entity.RoleMentor)

	issue := func(kind Kind, subject string, opts ...Option) string {
		v, err := NewJWTVerifier(testSecret, opts...)
		require.NoError(t, err)
		token, err := v.Issue(kind, subject)
		require.NoError(t, err)
		return token
	}
	wrongSecret := func() string {
		v, err := NewJWTVerifier([]byte("another-secret-that-is-32-bytes!"))
		require.NoError(t, err)
		token, err := v.Issue("mentor", mentor.ID.Key())
		require.NoError(t, err)
		return token
	}()

	tests := []struct {
		name     string
		header   string
		audience Audience
		wantCode string
	}{
		{"no header", "", AnyKind, "missing_authorization_header"},
		{"basic scheme", "Basic dXNlcjpwYXNz", AnyKind, "invalid_credentials"},
		{"garbage token", "Bearer garbage", AnyKind, "invalid_credentials"},
		{"wrong secret", "Bearer " + wrongSecret, AnyKind, "invalid_credentials"},
		{"expired", "Bearer " + issue("mentor", mentor.ID.Key(), WithClock(fixedClock(time.Now().Add(-4*24*time.Hour)))), AnyKind, "invalid_credentials"},
		{"future iat", "Bearer " + issue("mentor", mentor.ID.Key(), WithClock(fixedClock(time.Now().Add(time.Hour)))), AnyKind, "invalid_credentials"},
		{"missing kind", "Bearer " + issue("", mentor.ID.Key()), AnyKind, "invalid_credentials"},
		{"unknown kind", "Bearer " + issue("admin", mentor.ID.Key()), AnyKind, "invalid_credentials"},
		{"unknown subject", "Bearer " + issue("mentor", entity.NewID[entity.User]().Key()), AnyKind, "invalid_credentials"},
		{"malformed subject", "Bearer " + issue("mentor", "not-a-key"), AnyKind, "invalid_credentials"},
		{"kind does not match account role", "Bearer " + issue("organizator", mentor.ID.Key()), AnyKind, "invalid_credentials"},
		{"kind outside audience", "Bearer " + mentorToken, Kinds("organizator"), "invalid_credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, got := h.serve(tt.audience, nil, tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, got, "handler must not run")
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Error)
		})
	}
}

func TestHTTPAuthMiddleware_StoreFailureIs500(t *testing.T) {
	h := newHarness(t)
	_, token := h.user(t, entity.RoleParticipant)
	h.client.err = errors.New("connection refused")

	rec, got := h.serve(AnyKind, nil, "Bearer "+token)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Nil(t, got)
	body := decodeError(t, rec)
	assert.Equal(t, "internal_error", body.Error)
	assert.NotContains(t, body.Description, "connection refused")
}

func TestRoleGuard(t *testing.T) {
	h := newHarness(t)
	_, mentorToken := h.user(t, entity.RoleMentor)
	_, organizatorToken := h.user(t, entity.RoleOrganizator)
	guard := Kinds("organizator")

	rec, got := h.serve(AnyKind, &guard, "Bearer "+mentorToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, got)
	assert.Equal(t, "missing_permissions", decodeError(t, rec).Error)

	rec, got = h.serve(AnyKind, &guard, "Bearer "+organizatorToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, Kind("organizator"), got.Kind)
}

func TestRoleGuard_NoPrincipalIs403(t *testing.T) {
	handler := RoleGuard(AnyKind, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "missing_permissions", decodeError(t, rec).Error)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{ErrNoAuthorizationHeader, http.StatusUnauthorized, "missing_authorization_header"},
		{ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{ErrMissingPermissions, http.StatusForbidden, "missing_permissions"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Error)
		})
	}
}
