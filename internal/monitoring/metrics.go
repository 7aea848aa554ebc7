package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for GuildForge provisioning
var (
	// Outbound Discord API call metrics
	DiscordCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildforge_discord_calls_total",
			Help: "Total outbound Discord API calls by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	DiscordRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildforge_discord_retries_total",
			Help: "Total retried Discord API calls by cause",
		},
		[]string{"cause"},
	)

	DiscordPacingWaits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "guildforge_discord_pacing_wait_seconds",
			Help:    "Time spent waiting in the client's pacing gate",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	// Provisioning run metrics
	RunsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guildforge_runs_started_total",
			Help: "Total provisioning runs started",
		},
	)

	RunsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildforge_runs_finished_total",
			Help: "Total provisioning runs finished by status",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "guildforge_run_duration_seconds",
			Help:    "Wall-clock duration of provisioning runs",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)

	ResourcesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildforge_resources_created_total",
			Help: "Total remote resources created by kind",
		},
		[]string{"kind"},
	)

	ActiveRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guildforge_active_runs",
			Help: "Number of provisioning runs currently in flight",
		},
	)

	// Inbound API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildforge_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guildforge_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)
