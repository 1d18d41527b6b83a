package sync

import (
	"context"
	"encoding/json"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"erp-sync-service/internal/store"
)

// ScheduleRegistry handles CRUD over schedule definitions and owns next-run
// recomputation. All read-modify-write paths for one schedule go through a
// per-schedule lock so overlapping trigger invocations cannot lose an
// update; Version increments on every write for visibility.
type ScheduleRegistry struct {
	store store.Store
	now   func() time.Time

	mu    gosync.Mutex
	locks map[string]*gosync.Mutex
}

func NewScheduleRegistry(st store.Store) *ScheduleRegistry {
	return &ScheduleRegistry{
		store: st,
		now:   time.Now,
		locks: make(map[string]*gosync.Mutex),
	}
}

func (r *ScheduleRegistry) lock(id string) *gosync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &gosync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// SchedulePatch carries a partial update; nil fields are left unchanged.
type SchedulePatch struct {
	ConnectionID *string         `json:"connectionId,omitempty"`
	SyncType     *SyncType       `json:"syncType,omitempty"`
	Spec         *ScheduleSpec   `json:"schedule,omitempty"`
	Enabled      *bool           `json:"enabled,omitempty"`
	Notify       *NotifySettings `json:"notify,omitempty"`
}

func (r *ScheduleRegistry) Create(ctx context.Context, s Schedule) (*Schedule, error) {
	if s.ConnectionID == "" {
		return nil, &ValidationError{Field: "connectionId", Message: "connection id is required"}
	}
	switch s.SyncType {
	case SyncProducts, SyncInventory, SyncBoth:
	default:
		return nil, &ValidationError{Field: "syncType", Message: "sync type must be products, inventory or both"}
	}
	if err := s.Spec.Validate(); err != nil {
		return nil, err
	}

	now := r.now()
	s.ID = uuid.New().String()
	s.RunCount = 0
	s.Version = 1
	s.LastRun = nil
	s.CreatedAt = now
	s.UpdatedAt = now

	if s.Enabled {
		next, err := nextRunForSpec(s.Spec, nil, now)
		if err != nil {
			return nil, err
		}
		s.NextRun = next
	} else {
		s.NextRun = nil
	}

	if err := r.put(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRegistry) List(ctx context.Context) ([]*Schedule, error) {
	values, err := r.store.ScanByPrefix(ctx, scheduleKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedules: %w", err)
	}

	schedules := make([]*Schedule, 0, len(values))
	for _, v := range values {
		var s Schedule
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("failed to decode schedule record: %w", err)
		}
		schedules = append(schedules, &s)
	}
	return schedules, nil
}

func (r *ScheduleRegistry) Get(ctx context.Context, id string) (*Schedule, error) {
	v, err := r.store.Get(ctx, scheduleKeyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}
	if v == nil {
		return nil, nil
	}

	var s Schedule
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, fmt.Errorf("failed to decode schedule record: %w", err)
	}
	return &s, nil
}

// Update merges the patch under the schedule's lock. A new spec, or an
// enable/disable flip, recomputes NextRun; interval recomputation anchors on
// LastRun.
func (r *ScheduleRegistry) Update(ctx context.Context, id string, patch SchedulePatch) (*Schedule, error) {
	l := r.lock(id)
	l.Lock()
	defer l.Unlock()

	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}

	if patch.ConnectionID != nil {
		s.ConnectionID = *patch.ConnectionID
	}
	if patch.SyncType != nil {
		s.SyncType = *patch.SyncType
	}
	if patch.Notify != nil {
		s.Notify = *patch.Notify
	}

	specChanged := false
	if patch.Spec != nil {
		if err := patch.Spec.Validate(); err != nil {
			return nil, err
		}
		s.Spec = *patch.Spec
		specChanged = true
	}
	if patch.Enabled != nil {
		s.Enabled = *patch.Enabled
		specChanged = true
	}

	if specChanged {
		if s.Enabled {
			next, err := nextRunForSpec(s.Spec, s.LastRun, r.now())
			if err != nil {
				return nil, err
			}
			s.NextRun = next
		} else {
			s.NextRun = nil
		}
	}

	s.Version++
	s.UpdatedAt = r.now()

	if err := r.put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete removes the record. Deleting an unknown id is a no-op.
func (r *ScheduleRegistry) Delete(ctx context.Context, id string) (bool, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, nil
	}
	if err := r.store.Delete(ctx, scheduleKeyPrefix+id); err != nil {
		return false, fmt.Errorf("failed to delete schedule: %w", err)
	}
	return true, nil
}

// Due returns enabled schedules whose next run has elapsed. Pure read.
func (r *ScheduleRegistry) Due(ctx context.Context) ([]*Schedule, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	var due []*Schedule
	for _, s := range all {
		if s.Enabled && s.NextRun != nil && !s.NextRun.After(now) {
			due = append(due, s)
		}
	}
	return due, nil
}

// completeRun records one finished run under the schedule's lock: LastRun,
// a freshly computed NextRun (anchored on completedAt for interval specs),
// RunCount+1 and a Version bump.
func (r *ScheduleRegistry) completeRun(ctx context.Context, id string, completedAt time.Time) error {
	l := r.lock(id)
	l.Lock()
	defer l.Unlock()

	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if s == nil {
		return &NotFoundError{Resource: "schedule", ID: id}
	}

	s.LastRun = &completedAt
	if s.Enabled {
		next, err := nextRunForSpec(s.Spec, &completedAt, completedAt)
		if err != nil {
			s.NextRun = nil
		} else {
			s.NextRun = next
		}
	} else {
		s.NextRun = nil
	}
	s.RunCount++
	s.Version++
	s.UpdatedAt = r.now()

	return r.put(ctx, s)
}

func (r *ScheduleRegistry) put(ctx context.Context, s *Schedule) error {
	v, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}
	if err := r.store.Set(ctx, scheduleKeyPrefix+s.ID, v); err != nil {
		return fmt.Errorf("failed to store schedule: %w", err)
	}
	return nil
}
