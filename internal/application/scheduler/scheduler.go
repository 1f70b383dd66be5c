package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/example/rental-broker/internal/application/session"
	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/infrastructure/metrics"
)

const statsJob = "reservation_stats"

// StatsJob publishes per-provider reservation counts and logs the most
// popular provider.
type StatsJob struct {
	Manager *session.ManagerSession
	Log     *zap.Logger
}

func (j StatsJob) Run(ctx context.Context) (err error) {
	defer func() { metrics.UpdateJobMetrics(statsJob, err) }()

	totals, err := j.Manager.Totals(ctx)
	if err != nil {
		return err
	}
	metrics.ReservationsCurrent.Reset()
	for _, t := range totals {
		metrics.ReservationsCurrent.WithLabelValues(t.Provider).Set(float64(t.Reservations))
	}

	popular, err := j.Manager.MostPopularProvider(ctx)
	if errors.Is(err, rental.ErrNoProviders) {
		return nil
	}
	if err != nil {
		return err
	}
	j.log().Info("reservation stats",
		zap.Int("providers", len(totals)),
		zap.String("most_popular", popular))
	return nil
}

func (j StatsJob) log() *zap.Logger {
	if j.Log == nil {
		return zap.NewNop()
	}
	return j.Log
}

// Start runs job on the cron schedule spec until ctx is done. The returned
// channel is closed once the last run has finished.
func Start(ctx context.Context, spec string, job StatsJob) (<-chan struct{}, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("stats schedule %q: %w", spec, err)
	}

	c := cron.New()
	c.Schedule(sched, cron.FuncJob(func() {
		if err := job.Run(ctx); err != nil {
			job.log().Warn("stats job failed", zap.Error(err))
		}
	}))
	c.Start()

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		close(done)
	}()
	return done, nil
}
