package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// IdleSweeper abandons recordings that stopped receiving chunks.
type IdleSweeper interface {
	SweepIdle(ctx context.Context, maxIdle time.Duration) int
}

// RecordingSweeperJob periodically fails recordings whose client went away
// without stopping them, so their temp files do not pile up.
type RecordingSweeperJob struct {
	sweeper  IdleSweeper
	schedule string
	maxIdle  time.Duration
	logger   *zap.Logger
	cron     *cron.Cron

	mu      sync.Mutex
	started bool
}

func NewRecordingSweeperJob(sweeper IdleSweeper, schedule string, maxIdle time.Duration, logger *zap.Logger) *RecordingSweeperJob {
	return &RecordingSweeperJob{
		sweeper:  sweeper,
		schedule: schedule,
		maxIdle:  maxIdle,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start schedules the sweep. An empty schedule disables it.
func (j *RecordingSweeperJob) Start() error {
	if j.schedule == "" {
		j.logger.Info("recording sweeper disabled")
		return nil
	}
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule recording sweeper: %w", err)
	}

	j.mu.Lock()
	j.started = true
	j.mu.Unlock()
	j.cron.Start()
	j.logger.Info("recording sweeper started",
		zap.String("schedule", j.schedule),
		zap.Duration("max_idle", j.maxIdle))
	return nil
}

// Stop waits for a running sweep to finish.
func (j *RecordingSweeperJob) Stop() {
	j.mu.Lock()
	started := j.started
	j.started = false
	j.mu.Unlock()
	if !started {
		return
	}
	<-j.cron.Stop().Done()
	j.logger.Info("recording sweeper stopped")
}

// RunOnce performs a single sweep and returns how many recordings were abandoned.
func (j *RecordingSweeperJob) RunOnce(ctx context.Context) int {
	n := j.sweeper.SweepIdle(ctx, j.maxIdle)
	if n > 0 {
		j.logger.Warn("abandoned idle recordings", zap.Int("count", n))
	}
	return n
}
