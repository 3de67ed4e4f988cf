package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for authentication operations.
type Metrics struct {
	SignIns                     *prometheus.CounterVec
	UsersCreated                prometheus.Counter
	LockoutsTriggered           prometheus.Counter
	TokensIssued                *prometheus.CounterVec
	TokenVerifications          *prometheus.CounterVec
	PasswordHashDurationSeconds prometheus.Histogram
	SignInDurationMs            prometheus.Histogram
	AttemptRecordsPurged        prometheus.Counter
	CleanupRunsTotal            *prometheus.CounterVec
	CleanupDurationSeconds      prometheus.Histogram
}

// New registers and returns auth metrics collectors.
func New() *Metrics {
	return &Metrics{
		SignIns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signet_sign_ins_total",
			Help: "Total number of sign-in attempts by outcome",
		}, []string{"result"}),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_users_created_total",
			Help: "Total number of users created",
		}),
		LockoutsTriggered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_lockouts_triggered_total",
			Help: "Total number of accounts transitioned to locked",
		}),
		TokensIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signet_tokens_issued_total",
			Help: "Total number of tokens issued by kind",
		}, []string{"kind"}),
		TokenVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signet_token_verifications_total",
			Help: "Total number of token verifications by kind and outcome",
		}, []string{"kind", "result"}),
		PasswordHashDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signet_password_hash_duration_seconds",
			Help:    "Duration of password hash derivations in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		SignInDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signet_sign_in_duration_ms",
			Help:    "Duration of sign-in requests in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		AttemptRecordsPurged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_attempt_records_purged_total",
			Help: "Total number of expired attempt records removed by the cleanup worker",
		}),
		CleanupRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signet_cleanup_runs_total",
			Help: "Total number of cleanup runs",
		}, []string{"status"}),
		CleanupDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "signet_cleanup_duration_seconds",
			Help: "Duration of cleanup runs in seconds",
		}),
	}
}

func (m *Metrics) IncrementSignIns(result string) {
	m.SignIns.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

func (m *Metrics) IncrementLockoutsTriggered() {
	m.LockoutsTriggered.Inc()
}

func (m *Metrics) IncrementTokensIssued(kind string) {
	m.TokensIssued.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementTokenVerifications(kind, result string) {
	m.TokenVerifications.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObservePasswordHashDuration(durationSeconds float64) {
	m.PasswordHashDurationSeconds.Observe(durationSeconds)
}

func (m *Metrics) ObserveSignInDuration(durationMs float64) {
	m.SignInDurationMs.Observe(durationMs)
}

func (m *Metrics) IncrementAttemptRecordsPurged(count int) {
	m.AttemptRecordsPurged.Add(float64(count))
}

func (m *Metrics) IncrementCleanupRuns(status string) {
	m.CleanupRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveCleanupDuration(durationSeconds float64) {
	m.CleanupDurationSeconds.Observe(durationSeconds)
}
