package sync

import (
	"erp-sync-service/internal/config"
	"erp-sync-service/internal/store"
)

// Service wires the sync core together over one state store.
type Service struct {
	Connections *ConnectionManager
	Schedules   *ScheduleRegistry
	Executor    *SyncExecutor
	Runner      *BatchRunner

	sweeper *SweepScheduler
}

func NewService(cfg *config.Config, st store.Store) *Service {
	connections := NewConnectionManager(st)
	schedules := NewScheduleRegistry(st)
	executor := NewSyncExecutor(st, connections, schedules)
	runner := NewBatchRunner(schedules, executor)

	return &Service{
		Connections: connections,
		Schedules:   schedules,
		Executor:    executor,
		Runner:      runner,
		sweeper:     NewSweepScheduler(cfg.Scheduler, runner),
	}
}

func (s *Service) Start() {
	s.sweeper.Start()
}

func (s *Service) Stop() {
	s.sweeper.Stop()
}
