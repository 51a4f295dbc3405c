package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "promptshare_collab"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	SessionJoins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "session_joins_total", Help: "Join calls by outcome (created|reused)."},
		[]string{"session"},
	)
	Evictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "evictions_total", Help: "Rows marked inactive during status reads, by kind (participant|lock)."},
		[]string{"kind"},
	)
	LocksAcquired = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "locks_acquired_total", Help: "Advisory locks created."},
	)
	VersionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "versions_created_total", Help: "Versions written, by kind (save|revert-backup)."},
		[]string{"kind"},
	)
	VersionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "version_number_conflicts_total", Help: "Version inserts retried after a duplicate version number."},
	)
	Reverts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "reverts_total", Help: "Completed reverts."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(SessionJoins)
	reg.MustRegister(Evictions)
	reg.MustRegister(LocksAcquired)
	reg.MustRegister(VersionsCreated)
	reg.MustRegister(VersionConflicts)
	reg.MustRegister(Reverts)
}
