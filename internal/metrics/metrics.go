package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Logins counts authentication attempts by role and outcome.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onduty_logins_total",
		Help: "Authentication attempts partitioned by role and outcome.",
	}, []string{"role", "outcome"})

	// RequestsSubmitted counts student request submissions.
	RequestsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onduty_requests_submitted_total",
		Help: "On-duty requests submitted by students.",
	})

	// RequestDecisions counts administrative status decisions.
	RequestDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onduty_request_decisions_total",
		Help: "Administrative request decisions partitioned by resulting status.",
	}, []string{"status"})

	// UserMutations counts roster create/update/delete operations.
	UserMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onduty_user_mutations_total",
		Help: "Roster mutations partitioned by operation.",
	}, []string{"op"})
)
