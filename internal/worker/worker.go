// Package worker bootstraps the River job queue and the periodic plan-week
// rollover job.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rjirving6-commits/rampright/internal/model"
	"github.com/rjirving6-commits/rampright/internal/progress"
	"gorm.io/gorm"
)

// PlanRolloverArgs schedules a sweep that advances every active onboarding
// plan to the calendar week implied by its start date.
type PlanRolloverArgs struct{}

// Kind returns the unique job type identifier for plan rollover jobs.
func (PlanRolloverArgs) Kind() string { return "plan_rollover" }

type planRolloverWorker struct {
	river.WorkerDefaults[PlanRolloverArgs]
	db  *gorm.DB
	log *slog.Logger
}

func (w *planRolloverWorker) Work(ctx context.Context, _ *river.Job[PlanRolloverArgs]) error {
	return RolloverPlans(ctx, w.db, w.log)
}

// RolloverPlans starts plans whose start date has arrived and advances the
// current week of every in-progress plan. Weeks only move forward; paused and
// completed plans are left alone.
func RolloverPlans(ctx context.Context, db *gorm.DB, log *slog.Logger) error {
	now := time.Now().UTC()

	started := db.WithContext(ctx).Model(&model.OnboardingPlan{}).
		Where("status = ? AND start_date <= ?", model.PlanNotStarted, now).
		Update("status", model.PlanInProgress)
	if started.Error != nil {
		return fmt.Errorf("start due plans: %w", started.Error)
	}

	var plans []model.OnboardingPlan
	if err := db.WithContext(ctx).
		Where("status = ?", model.PlanInProgress).
		Find(&plans).Error; err != nil {
		return fmt.Errorf("load active plans: %w", err)
	}

	var advanced int64
	for _, p := range plans {
		week := progress.CurrentWeek(p.StartDate, now)
		if week <= p.CurrentWeek {
			continue
		}
		err := db.WithContext(ctx).Model(&model.OnboardingPlan{}).
			Where("id = ? AND current_week < ?", p.ID, week).
			Update("current_week", week).Error
		if err != nil {
			return fmt.Errorf("advance plan %s: %w", p.ID, err)
		}
		advanced++
	}

	if started.RowsAffected > 0 || advanced > 0 {
		log.Info("plan rollover", "started", started.RowsAffected, "advanced", advanced)
	}
	return nil
}

// Queue is the interface exposed by both the real River client and noopQueue.
type Queue interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Client wraps river.Client and exposes a Start/Stop lifecycle.
type Client struct {
	client *river.Client[pgx.Tx]
	log    *slog.Logger
}

// Start begins processing queued jobs.
func (c *Client) Start(ctx context.Context) error { return c.client.Start(ctx) }

// Stop gracefully shuts down the worker client.
func (c *Client) Stop(ctx context.Context) error { return c.client.Stop(ctx) }

// noopQueue is used when River is unavailable (e.g. DB_DRIVER=sqlite).
type noopQueue struct{ log *slog.Logger }

func (n *noopQueue) Start(_ context.Context) error {
	n.log.Info("worker queue disabled (sqlite driver; River requires postgres)")
	return nil
}
func (n *noopQueue) Stop(_ context.Context) error { return nil }

// New creates a queue implementation appropriate for the given driver.
//   - "postgres": returns a River client backed by pool that runs the plan
//     rollover sweep every interval.
//   - anything else: returns a no-op queue that logs a startup notice.
//
// pool may be nil when driver != "postgres".
func New(ctx context.Context, pool *pgxpool.Pool, db *gorm.DB, driver string, concurrency int, interval time.Duration, log *slog.Logger) (Queue, error) {
	if driver != "postgres" {
		return &noopQueue{log: log}, nil
	}
	workers := river.NewWorkers()
	river.AddWorker(workers, &planRolloverWorker{db: db, log: log})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: concurrency},
		},
		Workers: workers,
		Logger:  log,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(interval),
				func() (river.JobArgs, *river.InsertOpts) {
					return PlanRolloverArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}
	return &Client{client: client, log: log}, nil
}

// MigrateRiver runs River's built-in schema migrations against the given pool.
// Only call this when DB_DRIVER=postgres.
func MigrateRiver(ctx context.Context, db *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(db), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("run river migrations: %w", err)
	}
	return nil
}
