package shutdown

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var histogramSaveTime = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "tracker",
		Subsystem: "shutdown",
		Name:      "save_duration_seconds",
		Help:      "Time spent waiting for the session save, by outcome.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	},
	[]string{"outcome"},
)

func observeSave(elapsed time.Duration, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrSaveTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	histogramSaveTime.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
