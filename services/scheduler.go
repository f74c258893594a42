package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const DefaultSchedulerInterval = 30 * time.Second

// AutoStarter is the part of TournamentService the scheduler drives.
type AutoStarter interface {
	AutoStartScheduled(ctx context.Context, now time.Time) (int, error)
}

// StartScheduler runs AutoStartScheduled right away and then every interval.
// The returned function stops the scheduler and waits for a running job.
func StartScheduler(ctx context.Context, starter AutoStarter, interval time.Duration, logger *slog.Logger) (func() error, error) {
	if interval <= 0 {
		interval = DefaultSchedulerInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			started, err := starter.AutoStartScheduled(ctx, time.Now())
			if err != nil {
				logger.ErrorContext(ctx, "scheduled start run failed", "error", err)
				return
			}
			if started > 0 {
				logger.InfoContext(ctx, "scheduled tournaments started", "count", started)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule auto start job: %w", err)
	}
	sched.Start()
	logger.Info("scheduler started", "interval", interval.String())
	return sched.Shutdown, nil
}
