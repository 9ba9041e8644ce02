// ABOUTME: Tests for the metrics registry and the users-by-role collector
// ABOUTME: Uses prometheus testutil against a stub counter

package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/teamup/internal/entity"
)

type stubCounter struct {
	counts map[entity.Role]int
	err    error
}

func (s stubCounter) CountByRole(context.Context) (map[entity.Role]int, error) {
	return s.counts, s.err
}

func TestUsersCollector(t *testing.T) {
	c := NewUsersCollector(stubCounter{counts: map[entity.Role]int{
		entity.RoleOrganizator: 1,
		entity.RoleParticipant: 4,
	}}, nil)

	expected := `
# HELP teamup_users Number of registered users by role
# TYPE teamup_users gauge
teamup_users{role="mentor"} 0
teamup_users{role="organizator"} 1
teamup_users{role="participant"} 4
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "teamup_users"))
}

func TestUsersCollector_StoreErrorReportsNothing(t *testing.T) {
	c := NewUsersCollector(stubCounter{err: errors.New("down")}, nil)
	assert.Equal(t, 0, testutil.CollectAndCount(c, "teamup_users"))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := NewRegistry(stubCounter{counts: map[entity.Role]int{entity.RoleMentor: 2}}, nil)
	AuthFailures.WithLabelValues("test_reason").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `teamup_users{role="mentor"} 2`)
	assert.Contains(t, body, `teamup_auth_failures_total{reason="test_reason"}`)
	assert.Contains(t, body, "go_goroutines")
}
