// ABOUTME: Prometheus metrics: auth failure counter and per-role user gauge
// ABOUTME: The user gauge is computed on scrape, there is no background poller

package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/teamup/internal/entity"
)

var (
	// AuthFailures counts rejected requests by reason
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamup_auth_failures_total",
			Help: "Total number of rejected authentication or authorization attempts",
		},
		[]string{"reason"},
	)
)

// UserCounter is implemented by the user repository.
type UserCounter interface {
	CountByRole(ctx context.Context) (map[entity.Role]int, error)
}

// UsersCollector reports the number of users per role at scrape time.
type UsersCollector struct {
	users   UserCounter
	timeout time.Duration
	logger  *slog.Logger
	desc    *prometheus.Desc
}

func NewUsersCollector(users UserCounter, logger *slog.Logger) *UsersCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsersCollector{
		users:   users,
		timeout: 5 * time.Second,
		logger:  logger.With("component", "metrics"),
		desc: prometheus.NewDesc(
			"teamup_users",
			"Number of registered users by role",
			[]string{"role"}, nil,
		),
	}
}

func (c *UsersCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect queries the store. On failure it reports nothing rather than stale values.
func (c *UsersCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	counts, err := c.users.CountByRole(ctx)
	if err != nil {
		c.logger.Warn("counting users failed", "error", err)
		return
	}
	for _, role := range entity.Roles {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(counts[role]), string(role))
	}
}

// NewRegistry returns a registry with the process, Go runtime, auth and user metrics.
func NewRegistry(users UserCounter, logger *slog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		AuthFailures,
		NewUsersCollector(users, logger),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
