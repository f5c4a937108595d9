package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "notes", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "notes", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// NoteOps counts successful note mutations by operation (create|update|delete|export).
	NoteOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "notes", Name: "note_operations_total", Help: "Number of successful note mutations by operation."},
		[]string{"op"},
	)
	SlugConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "notes", Name: "slug_conflicts_total", Help: "Number of saves rejected because the slug was taken."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(NoteOps)
	reg.MustRegister(SlugConflicts)
}
