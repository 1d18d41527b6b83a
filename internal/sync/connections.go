package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"erp-sync-service/internal/store"
)

const (
	connectionKeyPrefix = "connection:"
	scheduleKeyPrefix   = "schedule:"
	execLogKeyPrefix    = "execlog:"
)

const testTimeout = 10 * time.Second

// ConnectionManager handles CRUD over external-system connection profiles
// and the connectivity test.
type ConnectionManager struct {
	store  store.Store
	client *http.Client
	now    func() time.Time
}

func NewConnectionManager(st store.Store) *ConnectionManager {
	return &ConnectionManager{
		store:  st,
		client: &http.Client{},
		now:    time.Now,
	}
}

// ConnectionPatch carries a partial update; nil fields are left unchanged.
type ConnectionPatch struct {
	Name     *string           `json:"name,omitempty"`
	Kind     *SystemKind       `json:"kind,omitempty"`
	Status   *ConnectionStatus `json:"status,omitempty"`
	Auth     *AuthConfig       `json:"auth,omitempty"`
	Sync     *SyncSettings     `json:"sync,omitempty"`
	Mappings *FieldMappings    `json:"mappings,omitempty"`
}

func (m *ConnectionManager) Create(ctx context.Context, conn Connection) (*Connection, error) {
	if conn.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "connection name is required"}
	}
	if err := conn.Auth.Validate(); err != nil {
		return nil, err
	}
	if conn.Kind == "" {
		conn.Kind = SystemCustom
	}
	if !conn.Kind.Valid() {
		return nil, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown system kind %q", conn.Kind)}
	}

	now := m.now()
	conn.ID = uuid.New().String()
	if conn.Status == "" {
		conn.Status = ConnectionActive
	}
	if !conn.Status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", conn.Status)}
	}
	conn.CreatedAt = now
	conn.UpdatedAt = now

	if err := m.put(ctx, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

func (m *ConnectionManager) List(ctx context.Context) ([]*Connection, error) {
	values, err := m.store.ScanByPrefix(ctx, connectionKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to scan connections: %w", err)
	}

	conns := make([]*Connection, 0, len(values))
	for _, v := range values {
		var c Connection
		if err := json.Unmarshal(v, &c); err != nil {
			return nil, fmt.Errorf("failed to decode connection record: %w", err)
		}
		conns = append(conns, &c)
	}
	return conns, nil
}

func (m *ConnectionManager) Get(ctx context.Context, id string) (*Connection, error) {
	v, err := m.store.Get(ctx, connectionKeyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("failed to read connection: %w", err)
	}
	if v == nil {
		return nil, nil
	}

	var c Connection
	if err := json.Unmarshal(v, &c); err != nil {
		return nil, fmt.Errorf("failed to decode connection record: %w", err)
	}
	return &c, nil
}

// Update merges the patch into the stored record. ID and CreatedAt are
// preserved.
func (m *ConnectionManager) Update(ctx context.Context, id string, patch ConnectionPatch) (*Connection, error) {
	conn, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, nil
	}

	if patch.Name != nil {
		conn.Name = *patch.Name
	}
	if patch.Kind != nil {
		if !patch.Kind.Valid() {
			return nil, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown system kind %q", *patch.Kind)}
		}
		conn.Kind = *patch.Kind
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *patch.Status)}
		}
		conn.Status = *patch.Status
	}
	if patch.Auth != nil {
		if err := patch.Auth.Validate(); err != nil {
			return nil, err
		}
		conn.Auth = *patch.Auth
	}
	if patch.Sync != nil {
		conn.Sync = *patch.Sync
	}
	if patch.Mappings != nil {
		conn.Mappings = *patch.Mappings
	}
	conn.UpdatedAt = m.now()

	if err := m.put(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Delete removes a connection. It is rejected with ErrConnectionInUse while
// any schedule still references the connection, so schedules cannot be
// orphaned. Deleting an unknown id is a no-op.
func (m *ConnectionManager) Delete(ctx context.Context, id string) (bool, error) {
	conn, err := m.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if conn == nil {
		return false, nil
	}

	values, err := m.store.ScanByPrefix(ctx, scheduleKeyPrefix)
	if err != nil {
		return false, fmt.Errorf("failed to scan schedules: %w", err)
	}
	for _, v := range values {
		var s Schedule
		if err := json.Unmarshal(v, &s); err != nil {
			return false, fmt.Errorf("failed to decode schedule record: %w", err)
		}
		if s.ConnectionID == id {
			return false, ErrConnectionInUse
		}
	}

	if err := m.store.Delete(ctx, connectionKeyPrefix+id); err != nil {
		return false, fmt.Errorf("failed to delete connection: %w", err)
	}
	return true, nil
}

// Test issues a GET against the connection's API URL with the connection's
// auth headers, bounded to 10 seconds. The connection record itself is not
// mutated; the caller decides whether to persist a status change.
func (m *ConnectionManager) Test(ctx context.Context, conn *Connection) TestResult {
	ctx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()

	start := m.now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, conn.Auth.APIURL, nil)
	if err != nil {
		return TestResult{Success: false, Message: err.Error()}
	}
	for k, v := range BuildAuthHeaders(conn.Auth) {
		req.Header.Set(k, v)
	}

	resp, err := m.client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return TestResult{Success: false, Message: err.Error(), ResponseTimeMs: elapsed}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TestResult{
			Success:        false,
			Message:        fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status),
			ResponseTimeMs: elapsed,
		}
	}

	return TestResult{Success: true, Message: "Connection successful", ResponseTimeMs: elapsed}
}

func (m *ConnectionManager) put(ctx context.Context, conn *Connection) error {
	v, err := json.Marshal(conn)
	if err != nil {
		return fmt.Errorf("failed to encode connection: %w", err)
	}
	if err := m.store.Set(ctx, connectionKeyPrefix+conn.ID, v); err != nil {
		return fmt.Errorf("failed to store connection: %w", err)
	}
	return nil
}
