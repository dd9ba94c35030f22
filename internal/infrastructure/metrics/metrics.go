package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoanTransitions counts lifecycle transitions by the state entered.
	LoanTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peerfund",
		Subsystem: "loan",
		Name:      "transitions_total",
		Help:      "Loan state transitions, labelled by resulting state.",
	}, []string{"state"})

	// NotifyEvents counts fully-funded notification outcomes.
	NotifyEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peerfund",
		Subsystem: "notify",
		Name:      "events_total",
		Help:      "Fully-funded notification events by outcome.",
	}, []string{"outcome"})
)

const (
	OutcomeQueued    = "queued"
	OutcomeDropped   = "dropped"
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
)
