package sync

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"erp-sync-service/internal/config"
	"erp-sync-service/internal/logger"
	"erp-sync-service/internal/metrics"
)

// BatchRunner sweeps all due schedules once per invocation, sequentially.
// One schedule failing never aborts the rest of the batch.
type BatchRunner struct {
	schedules *ScheduleRegistry
	executor  *SyncExecutor
}

func NewBatchRunner(schedules *ScheduleRegistry, executor *SyncExecutor) *BatchRunner {
	return &BatchRunner{
		schedules: schedules,
		executor:  executor,
	}
}

// ProcessDue executes every due schedule in the order the registry returns
// them and collects the execution logs.
func (b *BatchRunner) ProcessDue(ctx context.Context) ([]*ExecutionLog, error) {
	due, err := b.schedules.Due(ctx)
	if err != nil {
		return nil, err
	}
	metrics.DueBacklog.Set(float64(len(due)))

	logs := make([]*ExecutionLog, 0, len(due))
	for _, s := range due {
		log, err := b.executor.Execute(ctx, s.ID)
		if err != nil {
			logger.Log.Error("Failed to process due schedule",
				zap.String("scheduleId", s.ID), zap.Error(err))
			continue
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// SweepScheduler runs ProcessDue on the configured cron cadence.
type SweepScheduler struct {
	cfg     config.SchedulerConfig
	runner  *BatchRunner
	cron    *cron.Cron
	entryID cron.EntryID
}

func NewSweepScheduler(cfg config.SchedulerConfig, runner *BatchRunner) *SweepScheduler {
	return &SweepScheduler{
		cfg:    cfg,
		runner: runner,
		cron:   cron.New(),
	}
}

func (s *SweepScheduler) Start() {
	if !s.cfg.Enabled {
		logger.Log.Info("Sweep scheduler is disabled")
		return
	}

	logger.Log.Info("Starting sweep scheduler", zap.String("cadence", s.cfg.Cadence))

	id, err := s.cron.AddFunc(s.cfg.Cadence, func() {
		s.sweep()
	})
	if err != nil {
		logger.Log.Error("Failed to schedule sweep", zap.Error(err))
		return
	}

	s.entryID = id
	s.cron.Start()
}

func (s *SweepScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	logger.Log.Info("Stopped sweep scheduler")
}

func (s *SweepScheduler) sweep() {
	logs, err := s.runner.ProcessDue(context.Background())
	if err != nil {
		logger.Log.Error("Due-schedule sweep failed", zap.Error(err))
		return
	}
	if len(logs) > 0 {
		logger.Log.Info("Due-schedule sweep completed", zap.Int("executed", len(logs)))
	}
}
