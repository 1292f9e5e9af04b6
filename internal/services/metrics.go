package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var recordsAdded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tracker",
		Subsystem: "session",
		Name:      "records_added_total",
		Help:      "Records appended to the session, by kind.",
	},
	[]string{"kind"},
)

var loadFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tracker",
		Subsystem: "session",
		Name:      "load_failures_total",
		Help:      "Saved sequences that could not be read at startup, by kind.",
	},
	[]string{"kind"},
)

var publishFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tracker",
		Subsystem: "session",
		Name:      "publish_failures_total",
		Help:      "Record events that failed or were dropped, by kind.",
	},
	[]string{"kind"},
)
