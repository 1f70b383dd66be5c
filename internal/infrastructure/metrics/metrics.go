package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

var (
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalbroker_quotes_total",
			Help: "Quotes requested per provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ConfirmationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalbroker_confirmations_total",
			Help: "Quote confirmations per provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	CancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalbroker_cancellations_total",
			Help: "Reservation cancellations per provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	CompensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalbroker_compensations_total",
			Help: "Reservations cancelled while rolling back a failed confirmation",
		},
		[]string{"outcome"},
	)

	SagaDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentalbroker_confirm_duration_seconds",
			Help:    "Duration of a session confirmation including any rollback",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	ReservationsCurrent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rentalbroker_reservations",
			Help: "Reservations currently held per provider, refreshed by the stats job",
		},
		[]string{"provider"},
	)

	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rentalbroker_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentalbroker_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

func Outcome(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeOK
}

func ObserveSaga(startedAt time.Time, err error) {
	SagaDurationSeconds.WithLabelValues(Outcome(err)).Observe(time.Since(startedAt).Seconds())
}

func UpdateJobMetrics(job string, err error) {
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}
