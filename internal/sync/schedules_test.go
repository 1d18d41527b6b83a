package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"erp-sync-service/internal/store"
)

func newTestRegistry(now time.Time) *ScheduleRegistry {
	r := NewScheduleRegistry(store.NewMemoryStore())
	r.now = func() time.Time { return now }
	return r
}

func intervalSchedule(minutes int) Schedule {
	return Schedule{
		ConnectionID: "conn-1",
		SyncType:     SyncProducts,
		Enabled:      true,
		Spec:         ScheduleSpec{Type: ScheduleInterval, Minutes: minutes},
	}
}

func TestNextIntervalRun(t *testing.T) {
	t.Parallel()
	lastRun := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	got := NextIntervalRun(60, &lastRun, now)
	if !got.Equal(lastRun.Add(60 * time.Minute)) {
		t.Fatalf("NextIntervalRun = %v, want %v", got, lastRun.Add(time.Hour))
	}

	// No prior run anchors on now.
	got = NextIntervalRun(30, nil, now)
	if !got.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("NextIntervalRun = %v, want %v", got, now.Add(30*time.Minute))
	}
}

func TestCreateIntervalScheduleComputesNextRun(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	r := newTestRegistry(now)

	s, err := r.Create(context.Background(), intervalSchedule(360))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if s.NextRun == nil {
		t.Fatal("NextRun is nil")
	}
	if !s.NextRun.Equal(now.Add(360 * time.Minute)) {
		t.Fatalf("NextRun = %v, want %v", s.NextRun, now.Add(360*time.Minute))
	}
	if s.RunCount != 0 || s.Version != 1 {
		t.Fatalf("RunCount = %d, Version = %d", s.RunCount, s.Version)
	}
}

func TestCreateScheduleValidation(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(time.Now())
	tests := []struct {
		name string
		s    Schedule
	}{
		{name: "no connection", s: Schedule{SyncType: SyncProducts, Spec: ScheduleSpec{Type: ScheduleInterval, Minutes: 5}}},
		{name: "bad sync type", s: Schedule{ConnectionID: "c", SyncType: "orders", Spec: ScheduleSpec{Type: ScheduleInterval, Minutes: 5}}},
		{name: "no spec", s: Schedule{ConnectionID: "c", SyncType: SyncBoth}},
		{name: "zero interval", s: Schedule{ConnectionID: "c", SyncType: SyncBoth, Spec: ScheduleSpec{Type: ScheduleInterval}}},
		{name: "bad cron", s: Schedule{ConnectionID: "c", SyncType: SyncBoth, Spec: ScheduleSpec{Type: ScheduleCron, Expression: "61 * * * *"}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Create(context.Background(), tt.s); !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCreateDisabledScheduleHasNilNextRun(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(time.Now())

	s := intervalSchedule(60)
	s.Enabled = false
	created, err := r.Create(context.Background(), s)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.NextRun != nil {
		t.Fatalf("NextRun = %v, want nil for disabled schedule", created.NextRun)
	}
}

func TestUpdateSpecRecomputesNextRun(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	r := newTestRegistry(now)

	created, err := r.Create(context.Background(), intervalSchedule(60))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	newSpec := ScheduleSpec{Type: ScheduleInterval, Minutes: 15}
	updated, err := r.Update(context.Background(), created.ID, SchedulePatch{Spec: &newSpec})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if !updated.NextRun.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("NextRun = %v, want %v", updated.NextRun, now.Add(15*time.Minute))
	}
	if updated.Version != created.Version+1 {
		t.Fatalf("Version = %d, want %d", updated.Version, created.Version+1)
	}
}

func TestUpdateDisableClearsNextRun(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(time.Now())

	created, err := r.Create(context.Background(), intervalSchedule(60))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	disabled := false
	updated, err := r.Update(context.Background(), created.ID, SchedulePatch{Enabled: &disabled})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.NextRun != nil {
		t.Fatalf("NextRun = %v, want nil after disable", updated.NextRun)
	}
}

func TestUpdateUnknownScheduleReturnsNil(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(time.Now())
	s, err := r.Update(context.Background(), "nope", SchedulePatch{})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil for unknown schedule, got %+v", s)
	}
}

func TestDeleteScheduleIdempotent(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(time.Now())

	created, err := r.Create(context.Background(), intervalSchedule(60))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	deleted, err := r.Delete(context.Background(), created.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	deleted, err = r.Delete(context.Background(), created.ID)
	if err != nil || deleted {
		t.Fatalf("second Delete = %v, %v, want no-op", deleted, err)
	}
}

func TestDueFiltersDisabledAndFuture(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	r := newTestRegistry(now.Add(-2 * time.Hour))

	elapsed, err := r.Create(context.Background(), intervalSchedule(60))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	disabledSpec := intervalSchedule(60)
	disabledElapsed, err := r.Create(context.Background(), disabledSpec)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	off := false
	if _, err := r.Update(context.Background(), disabledElapsed.ID, SchedulePatch{Enabled: &off}); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	// Created relative to now, so its next run is still in the future.
	r.now = func() time.Time { return now }
	if _, err := r.Create(context.Background(), intervalSchedule(600)); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	due, err := r.Due(context.Background())
	if err != nil {
		t.Fatalf("Due error: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("len(due) = %d, want 1", len(due))
	}
	if due[0].ID != elapsed.ID {
		t.Fatalf("due[0] = %s, want %s", due[0].ID, elapsed.ID)
	}
}

func TestConcurrentRunsAndUpdatesLoseNoWrites(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	r := newTestRegistry(now)

	created, err := r.Create(context.Background(), intervalSchedule(30))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Overlapping trigger invocations race completeRun against Update on
	// the same schedule; every read-modify-write must survive.
	const runs, updates = 10, 10
	var wg gosync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			completedAt := now.Add(time.Duration(i) * time.Minute)
			if err := r.completeRun(context.Background(), created.ID, completedAt); err != nil {
				t.Errorf("completeRun error: %v", err)
			}
		}(i)
	}
	for i := 0; i < updates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			notify := NotifySettings{OnFailure: true}
			if _, err := r.Update(context.Background(), created.ID, SchedulePatch{Notify: &notify}); err != nil {
				t.Errorf("Update error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := r.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.RunCount != runs {
		t.Fatalf("RunCount = %d, want %d (a run update was lost)", got.RunCount, runs)
	}
	if got.Version != created.Version+runs+updates {
		t.Fatalf("Version = %d, want %d (a write was lost)", got.Version, created.Version+runs+updates)
	}
	if got.LastRun == nil || got.NextRun == nil {
		t.Fatal("LastRun/NextRun missing after concurrent runs")
	}
}

func TestCompleteRunAdvancesSchedule(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	r := newTestRegistry(now)

	created, err := r.Create(context.Background(), intervalSchedule(30))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	completedAt := now.Add(5 * time.Minute)
	if err := r.completeRun(context.Background(), created.ID, completedAt); err != nil {
		t.Fatalf("completeRun error: %v", err)
	}

	got, err := r.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.LastRun == nil || !got.LastRun.Equal(completedAt) {
		t.Fatalf("LastRun = %v, want %v", got.LastRun, completedAt)
	}
	// Interval recompute anchors on completion time.
	if got.NextRun == nil || !got.NextRun.Equal(completedAt.Add(30 * time.Minute)) {
		t.Fatalf("NextRun = %v, want %v", got.NextRun, completedAt.Add(30*time.Minute))
	}
	if got.RunCount != 1 {
		t.Fatalf("RunCount = %d, want 1", got.RunCount)
	}
	if got.Version != created.Version+1 {
		t.Fatalf("Version = %d, want %d", got.Version, created.Version+1)
	}
}
