// ABOUTME: End-to-end tests of the HTTP API over the memory store
// ABOUTME: Drives the routes through a real ServeMux with issued tokens

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/teamup/internal/account"
	"github.com/2389/teamup/internal/auth"
	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/repository"
	"github.com/2389/teamup/internal/store"
)

var testSecret = []byte("api-handler-tests-secret-32bytes")

type testServer struct {
	mux      *http.ServeMux
	client   *faultyClient
	accounts *account.Service
	repos    *repository.Repositories
}

// faultyClient fails writes to chosen tables until the fault is cleared.
type faultyClient struct {
	store.Client
	failCreate string
	failMerge  string
}

var errStoreDown = errors.New("store down")

func (c *faultyClient) Create(ctx context.Context, doc store.Document) (*store.Document, error) {
	if c.failCreate != "" && doc.ID.Table == c.failCreate {
		return nil, errStoreDown
	}
	return c.Client.Create(ctx, doc)
}

func (c *faultyClient) Merge(ctx context.Context, id entity.RecordID, fn store.MergeFunc) (*store.Document, error) {
	if c.failMerge != "" && id.Table == c.failMerge {
		return nil, errStoreDown
	}
	return c.Client.Merge(ctx, id, fn)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	verifier, err := auth.NewJWTVerifier(testSecret)
	require.NoError(t, err)
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	client := &faultyClient{Client: store.NewMemoryStore()}
	repos := repository.New(client, nil)
	accounts := account.NewService(repos.Users, hasher, verifier, nil)
	api := New(Config{
		Accounts: accounts,
		Repos:    repos,
		Verifier: verifier,
		Registry: account.Principals(repos.Users),
	})
	mux := http.NewServeMux()
	api.Register(mux)
	return &testServer{mux: mux, client: client, accounts: accounts, repos: repos}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

// client is a registered user with its token.
type client struct {
	user  UserResponse
	token string
}

func (s *testServer) register(t *testing.T, name string, role entity.Role) client {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", account.RegisterRequest{
		Email:    name + "@example.com",
		Username: name,
		Password: "password-" + name,
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode[SessionResponse](t, rec)
	return client{user: session.User, token: session.Token}
}

// organizator bootstraps an organizator and logs it in.
func (s *testServer) organizator(t *testing.T) client {
	t.Helper()
	_, err := s.accounts.Bootstrap(context.Background(), "root@example.com", "root", "password-root")
	require.NoError(t, err)
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "root@example.com", Password: "password-root"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := decode[SessionResponse](t, rec)
	return client{user: session.User, token: session.Token}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	assert.Equal(t, code, decode[auth.ErrorResponse](t, rec).Error)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice", entity.RoleParticipant)
	assert.Equal(t, entity.RoleParticipant, alice.user.Role)

	rec := s.do(t, http.MethodGet, "/api/users/me", alice.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Equal(t, "alice", decode[UserResponse](t, rec).Username)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "alice@example.com", Password: "password-alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice.user.ID, decode[SessionResponse](t, rec).User.ID)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "alice@example.com", Password: "nope-nope"})
	assertError(t, rec, http.StatusUnauthorized, "invalid_credentials")

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ghost@example.com", Password: "password-alice"})
	assertError(t, rec, http.StatusUnauthorized, "invalid_credentials")

	rec = s.do(t, http.MethodGet, "/api/users/me", "", nil)
	assertError(t, rec, http.StatusUnauthorized, "missing_authorization_header")
}

func TestRegister_Rejections(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "bob", entity.RoleMentor)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"duplicate", account.RegisterRequest{Email: "bob@example.com", Username: "bob2", Password: "long-enough", Role: entity.RoleMentor}, http.StatusConflict, "already_exists"},
		{"organizator", account.RegisterRequest{Email: "o@example.com", Username: "o", Password: "long-enough", Role: entity.RoleOrganizator}, http.StatusForbidden, "forbidden"},
		{"short password", account.RegisterRequest{Email: "c@example.com", Username: "c", Password: "short", Role: entity.RoleMentor}, http.StatusBadRequest, "invalid_input"},
		{"unknown field", map[string]string{"email": "d@example.com", "admin": "yes"}, http.StatusBadRequest, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assertError(t, rec, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestUpdateMe(t *testing.T) {
	s := newTestServer(t)
	carol := s.register(t, "carol", entity.RoleParticipant)
	s.register(t, "dan", entity.RoleParticipant)

	rec := s.do(t, http.MethodPatch, "/api/users/me", carol.token, map[string]string{"username": "dan"})
	assertError(t, rec, http.StatusConflict, "already_exists")

	rec = s.do(t, http.MethodPatch, "/api/users/me", carol.token, map[string]string{"role": "organizator"})
	assertError(t, rec, http.StatusBadRequest, "invalid_input")

	rec = s.do(t, http.MethodPatch, "/api/users/me", carol.token, map[string]string{"email": " carol@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "carol@example.com", decode[UserResponse](t, rec).Email)

	rec = s.do(t, http.MethodPatch, "/api/users/me", carol.token, map[string]string{"username": "caroline"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "caroline", decode[UserResponse](t, rec).Username)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	erin := s.register(t, "erin", entity.RoleMentor)

	rec := s.do(t, http.MethodPost, "/api/users/me/password", erin.token, ChangePasswordRequest{CurrentPassword: "wrong-one", NewPassword: "brand-new-pass"})
	assertError(t, rec, http.StatusUnauthorized, "invalid_credentials")

	rec = s.do(t, http.MethodPost, "/api/users/me/password", erin.token, ChangePasswordRequest{CurrentPassword: "password-erin", NewPassword: "brand-new-pass"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[SessionResponse](t, rec).Token)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "erin@example.com", Password: "password-erin"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "erin@example.com", Password: "brand-new-pass"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteUser(t *testing.T) {
	s := newTestServer(t)
	root := s.organizator(t)
	fred := s.register(t, "fred", entity.RoleParticipant)
	gina := s.register(t, "gina", entity.RoleParticipant)

	rec := s.do(t, http.MethodDelete, "/api/users/"+gina.user.ID.Key(), fred.token, nil)
	assertError(t, rec, http.StatusUnauthorized, "invalid_credentials")

	rec = s.do(t, http.MethodDelete, "/api/users/"+gina.user.ID.Key(), root.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/"+gina.user.ID.Key(), fred.token, nil)
	assertError(t, rec, http.StatusNotFound, "not_found")

	rec = s.do(t, http.MethodGet, "/api/users/me", gina.token, nil)
	assertError(t, rec, http.StatusUnauthorized, "invalid_credentials")

	rec = s.do(t, http.MethodDelete, "/api/users/me", root.token, nil)
	assertError(t, rec, http.StatusForbidden, "forbidden")

	rec = s.do(t, http.MethodGet, "/api/users/not-an-id", fred.token, nil)
	assertError(t, rec, http.StatusBadRequest, "invalid_input")
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	hank := s.register(t, "hank", entity.RoleParticipant)
	other := s.register(t, "ivy", entity.RoleMentor)

	rec := s.do(t, http.MethodGet, "/api/users/me/profile", hank.token, nil)
	assertError(t, rec, http.StatusNotFound, "not_found")

	bad := entity.UpsertProfile{Name: "H", Surname: "Hill", City: "Oslo"}
	rec = s.do(t, http.MethodPut, "/api/users/me/profile", hank.token, bad)
	assertError(t, rec, http.StatusBadRequest, "invalid_input")

	good := entity.UpsertProfile{Name: "Hank", Surname: "Hill", City: "Oslo", PortfolioURLs: []string{"https://example.com/hank"}}
	rec = s.do(t, http.MethodPut, "/api/users/me/profile", hank.token, good)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[entity.Profile](t, rec)

	good.City = "Bergen"
	rec = s.do(t, http.MethodPut, "/api/users/me/profile", hank.token, good)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[entity.Profile](t, rec)
	assert.Equal(t, first.ID, second.ID, "upsert keeps the linked profile")

	rec = s.do(t, http.MethodGet, "/api/users/"+hank.user.ID.Key()+"/profile", other.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bergen", decode[entity.Profile](t, rec).City)

	rec = s.do(t, http.MethodDelete, "/api/users/me/profile", hank.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/users/me/profile", hank.token, nil)
	assertError(t, rec, http.StatusNotFound, "not_found")
}

func TestTechnologiesAndKnows(t *testing.T) {
	s := newTestServer(t)
	root := s.organizator(t)
	jack := s.register(t, "jack", entity.RoleParticipant)

	rec := s.do(t, http.MethodPost, "/api/technologies", jack.token, CreateTechnologyRequest{Name: "Go"})
	assertError(t, rec, http.StatusForbidden, "missing_permissions")

	rec = s.do(t, http.MethodPost, "/api/technologies", root.token, CreateTechnologyRequest{Name: "Go"})
	require.Equal(t, http.StatusCreated, rec.Code)
	tech := decode[entity.Technology](t, rec)

	rec = s.do(t, http.MethodPost, "/api/technologies", root.token, CreateTechnologyRequest{Name: "Go"})
	assertError(t, rec, http.StatusConflict, "already_exists")

	rec = s.do(t, http.MethodGet, "/api/technologies/"+tech.ID.Key(), jack.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	path := "/api/users/me/technologies/" + tech.ID.Key()
	rec = s.do(t, http.MethodPut, path, jack.token, entity.UpsertKnows{Level: 11})
	assertError(t, rec, http.StatusBadRequest, "invalid_input")

	rec = s.do(t, http.MethodPut, path, jack.token, entity.UpsertKnows{Level: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPut, path, jack.token, entity.UpsertKnows{Level: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/"+jack.user.ID.Key()+"/technologies", root.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ListResponse[entity.Knows]](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 5, list.Items[0].Level)
	assert.Equal(t, repository.DefaultLimit, list.Limit)

	rec = s.do(t, http.MethodPut, "/api/users/me/technologies/"+entity.NewID[entity.Technology]().Key(), jack.token, entity.UpsertKnows{Level: 1})
	assertError(t, rec, http.StatusNotFound, "not_found")

	rec = s.do(t, http.MethodDelete, path, jack.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, path, jack.token, nil)
	assertError(t, rec, http.StatusNotFound, "not_found")

	rec = s.do(t, http.MethodGet, "/api/users/"+jack.user.ID.Key()+"/technologies?limit=x", root.token, nil)
	assertError(t, rec, http.StatusBadRequest, "invalid_input")
}

func TestTeams(t *testing.T) {
	s := newTestServer(t)
	lead := s.register(t, "kim", entity.RoleParticipant)
	applicant := s.register(t, "lou", entity.RoleParticipant)
	bystander := s.register(t, "max", entity.RoleParticipant)
	mentor := s.register(t, "ned", entity.RoleMentor)

	rec := s.do(t, http.MethodPost, "/api/teams", mentor.token, CreateTeamRequest{Name: "Gophers"})
	assertError(t, rec, http.StatusUnauthorized, "invalid_credentials")

	rec = s.do(t, http.MethodPost, "/api/teams", lead.token, CreateTeamRequest{Name: "Go"})
	assertError(t, rec, http.StatusBadRequest, "invalid_input")

	rec = s.do(t, http.MethodPost, "/api/teams", lead.token, CreateTeamRequest{Name: "Gophers"})
	require.Equal(t, http.StatusCreated, rec.Code)
	team := decode[entity.Team](t, rec)
	assert.Equal(t, lead.user.ID, team.Lead)
	teamPath := "/api/teams/" + team.ID.Key()

	rec = s.do(t, http.MethodPost, "/api/teams", bystander.token, CreateTeamRequest{Name: "Gophers"})
	assertError(t, rec, http.StatusConflict, "already_exists")

	rec = s.do(t, http.MethodPost, teamPath+"/members", applicant.token, ApplyRequest{Application: "let me in"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, decode[entity.MemberOf](t, rec).Accepted)

	rec = s.do(t, http.MethodPost, teamPath+"/members", applicant.token, ApplyRequest{Application: "again"})
	assertError(t, rec, http.StatusConflict, "already_exists")

	rec = s.do(t, http.MethodGet, teamPath+"/members", mentor.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ListResponse[entity.MemberOf]](t, rec).Items, 2)

	memberPath := teamPath + "/members/" + applicant.user.ID.Key()
	rec = s.do(t, http.MethodPatch, memberPath, applicant.token, AcceptRequest{Accepted: true})
	assertError(t, rec, http.StatusForbidden, "forbidden")

	rec = s.do(t, http.MethodPatch, memberPath, lead.token, AcceptRequest{Accepted: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[entity.MemberOf](t, rec).Accepted)

	rec = s.do(t, http.MethodPatch, teamPath, lead.token, map[string]string{"lead": bystander.user.ID.String()})
	assertError(t, rec, http.StatusBadRequest, "invalid_input")

	rec = s.do(t, http.MethodPatch, teamPath, lead.token, map[string]any{"lead": applicant.user.ID.String(), "description": "we write Go"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[entity.Team](t, rec)
	assert.Equal(t, applicant.user.ID, updated.Lead)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "we write Go", *updated.Description)

	rec = s.do(t, http.MethodDelete, teamPath+"/members/"+lead.user.ID.Key(), bystander.token, nil)
	assertError(t, rec, http.StatusForbidden, "forbidden")

	rec = s.do(t, http.MethodDelete, teamPath+"/members/"+lead.user.ID.Key(), lead.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, memberPath, applicant.token, nil)
	assertError(t, rec, http.StatusForbidden, "forbidden")

	rec = s.do(t, http.MethodDelete, teamPath, lead.token, nil)
	assertError(t, rec, http.StatusForbidden, "forbidden")

	rec = s.do(t, http.MethodDelete, teamPath, applicant.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, teamPath, mentor.token, nil)
	assertError(t, rec, http.StatusNotFound, "not_found")

	exists, err := s.repos.MemberOf.ExistsByOut(context.Background(), team.ID)
	require.NoError(t, err)
	assert.False(t, exists, "memberships are removed with the team")
}

func TestReviews(t *testing.T) {
	s := newTestServer(t)
	mentor := s.register(t, "olga", entity.RoleMentor)
	participant := s.register(t, "pete", entity.RoleParticipant)
	reviewsPath := "/api/users/" + participant.user.ID.Key() + "/reviews"

	rec := s.do(t, http.MethodPost, "/api/users/"+mentor.user.ID.Key()+"/reviews", participant.token, ReviewRequest{Score: 5})
	assertError(t, rec, http.StatusForbidden, "missing_permissions")

	rec = s.do(t, http.MethodPost, reviewsPath, mentor.token, ReviewRequest{Score: 11})
	assertError(t, rec, http.StatusBadRequest, "invalid_input")

	rec = s.do(t, http.MethodPost, reviewsPath, mentor.token, ReviewRequest{Score: 8, Review: "solid work"})
	require.Equal(t, http.StatusCreated, rec.Code)
	review := decode[entity.Reviewed](t, rec)
	assert.Equal(t, mentor.user.ID, review.In)
	assert.Equal(t, participant.user.ID, review.Out)

	rec = s.do(t, http.MethodPost, reviewsPath, mentor.token, ReviewRequest{Score: 9})
	assertError(t, rec, http.StatusConflict, "already_exists")

	rec = s.do(t, http.MethodPost, "/api/users/"+mentor.user.ID.Key()+"/reviews", mentor.token, ReviewRequest{Score: 9})
	assertError(t, rec, http.StatusBadRequest, "invalid_input")

	rec = s.do(t, http.MethodPost, "/api/users/"+entity.NewID[entity.User]().Key()+"/reviews", mentor.token, ReviewRequest{Score: 9})
	assertError(t, rec, http.StatusNotFound, "not_found")

	rec = s.do(t, http.MethodGet, reviewsPath, participant.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ListResponse[entity.Reviewed]](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 8, list.Items[0].Score)

	rec = s.do(t, http.MethodGet, "/api/users/"+mentor.user.ID.Key()+"/reviews", participant.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[ListResponse[entity.Reviewed]](t, rec).Items)
}

func TestAudit(t *testing.T) {
	s := newTestServer(t)
	root := s.organizator(t)
	mentor := s.register(t, "mona", entity.RoleMentor)
	gina := s.register(t, "gina", entity.RoleParticipant)

	rec := s.do(t, http.MethodPost, "/api/technologies", root.token, CreateTechnologyRequest{Name: "Go"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/users/"+gina.user.ID.Key()+"/reviews", mentor.token, ReviewRequest{Score: 8, Review: "solid"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodDelete, "/api/users/"+gina.user.ID.Key(), root.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/audit", root.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	all := decode[ListResponse[entity.AuditEntry]](t, rec)
	require.Len(t, all.Items, 3)
	assert.Equal(t, entity.AuditCreateTechnology, all.Items[0].Action)
	assert.Equal(t, entity.AuditCreateReview, all.Items[1].Action)
	assert.Equal(t, mentor.user.ID, all.Items[1].Actor)
	assert.Equal(t, entity.AuditDeleteUser, all.Items[2].Action)
	assert.Equal(t, gina.user.ID.String(), all.Items[2].Target)
	assert.Equal(t, "gina", all.Items[2].Detail["username"])

	rec = s.do(t, http.MethodGet, "/api/audit?action=create_review", root.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ListResponse[entity.AuditEntry]](t, rec).Items, 1)

	rec = s.do(t, http.MethodGet, "/api/audit?actor="+root.user.ID.Key()+"&limit=1&offset=1", root.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[ListResponse[entity.AuditEntry]](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, entity.AuditDeleteUser, page.Items[0].Action)

	assertError(t, s.do(t, http.MethodGet, "/api/audit?action=drop_tables", root.token, nil), http.StatusBadRequest, "invalid_input")
	assertError(t, s.do(t, http.MethodGet, "/api/audit", mentor.token, nil), http.StatusForbidden, "missing_permissions")
}

func TestCreateTeam_MembershipFailureLeavesNoTeam(t *testing.T) {
	s := newTestServer(t)
	pam := s.register(t, "pam", entity.RoleParticipant)

	s.client.failCreate = "member_of"
	rec := s.do(t, http.MethodPost, "/api/teams", pam.token, CreateTeamRequest{Name: "rockets"})
	assertError(t, rec, http.StatusInternalServerError, "internal_error")

	orphan, err := s.repos.Teams.FindByName(context.Background(), "rockets")
	require.NoError(t, err)
	assert.Nil(t, orphan, "the team must be removed when its lead membership cannot be saved")

	s.client.failCreate = ""
	rec = s.do(t, http.MethodPost, "/api/teams", pam.token, CreateTeamRequest{Name: "rockets"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestUpsertProfile_LinkFailureLeavesNoProfile(t *testing.T) {
	s := newTestServer(t)
	pat := s.register(t, "pat", entity.RoleParticipant)
	body := entity.UpsertProfile{Name: "Pat", Surname: "Doe", City: "Oslo"}

	s.client.failMerge = "user"
	rec := s.do(t, http.MethodPut, "/api/users/me/profile", pat.token, body)
	assertError(t, rec, http.StatusInternalServerError, "internal_error")

	docs, err := s.client.Query(context.Background(), store.Query{Table: "profile"})
	require.NoError(t, err)
	assert.Empty(t, docs, "an unlinked profile must not be left behind")

	s.client.failMerge = ""
	rec = s.do(t, http.MethodPut, "/api/users/me/profile", pat.token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	docs, err = s.client.Query(context.Background(), store.Query{Table: "profile"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSpecializationsAndExperience(t *testing.T) {
	s := newTestServer(t)
	root := s.organizator(t)
	kim := s.register(t, "kim", entity.RoleParticipant)

	rec := s.do(t, http.MethodPost, "/api/specializations", kim.token, CreateSpecializationRequest{Name: "backend"})
	assertError(t, rec, http.StatusForbidden, "missing_permissions")

	rec = s.do(t, http.MethodPost, "/api/specializations", root.token, CreateSpecializationRequest{Name: " backend "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	spec := decode[entity.Specialization](t, rec)
	assert.Equal(t, "backend", spec.Name)

	rec = s.do(t, http.MethodPost, "/api/specializations", root.token, CreateSpecializationRequest{Name: "backend"})
	assertError(t, rec, http.StatusConflict, "already_exists")

	rec = s.do(t, http.MethodGet, "/api/specializations/"+spec.ID.Key(), kim.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	path := "/api/users/me/specializations/" + spec.ID.Key()
	rec = s.do(t, http.MethodPut, path, kim.token, entity.UpsertHasExperienceAs{Level: 0})
	assertError(t, rec, http.StatusBadRequest, "invalid_input")

	rec = s.do(t, http.MethodPut, path, kim.token, entity.UpsertHasExperienceAs{Level: 4})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPut, path, kim.token, entity.UpsertHasExperienceAs{Level: 4})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPut, path, kim.token, entity.UpsertHasExperienceAs{Level: 6})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/"+kim.user.ID.Key()+"/specializations", root.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ListResponse[entity.HasExperienceAs]](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 6, list.Items[0].Level)
	assert.Equal(t, spec.ID, list.Items[0].Out)

	rec = s.do(t, http.MethodPut, "/api/users/me/specializations/"+entity.NewID[entity.Specialization]().Key(), kim.token, entity.UpsertHasExperienceAs{Level: 2})
	assertError(t, rec, http.StatusNotFound, "not_found")

	rec = s.do(t, http.MethodDelete, path, kim.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, path, kim.token, nil)
	assertError(t, rec, http.StatusNotFound, "not_found")

	rec = s.do(t, http.MethodGet, "/api/audit?action=create_specialization", root.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ListResponse[entity.AuditEntry]](t, rec).Items, 1)
}
