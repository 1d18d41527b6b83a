package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"erp-sync-service/internal/logger"
	"erp-sync-service/internal/metrics"
	"erp-sync-service/internal/store"
)

const (
	orderSyncTimeout = 30 * time.Second
	dataSyncTimeout  = 60 * time.Second
)

// SyncExecutor runs the sync(s) for one schedule and is the error boundary
// for execution: every outcome ends in exactly one ExecutionLog and a
// schedule update, never in an error escaping to the trigger caller.
type SyncExecutor struct {
	store       store.Store
	connections *ConnectionManager
	schedules   *ScheduleRegistry
	client      *http.Client
	now         func() time.Time
}

func NewSyncExecutor(st store.Store, connections *ConnectionManager, schedules *ScheduleRegistry) *SyncExecutor {
	return &SyncExecutor{
		store:       st,
		connections: connections,
		schedules:   schedules,
		client:      &http.Client{},
		now:         time.Now,
	}
}

// Execute runs one schedule now. The only error it returns is NotFound for
// an unknown schedule id; sync failures surface through the log's status
// and error text instead.
func (e *SyncExecutor) Execute(ctx context.Context, scheduleID string) (*ExecutionLog, error) {
	sched, err := e.schedules.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, &NotFoundError{Resource: "schedule", ID: scheduleID}
	}

	startedAt := e.now()
	log := &ExecutionLog{
		ID:           uuid.New().String(),
		ScheduleID:   sched.ID,
		ConnectionID: sched.ConnectionID,
		SyncType:     sched.SyncType,
		Status:       RunSuccess,
		StartedAt:    startedAt,
		Details:      make(map[string]SyncDetail),
	}

	e.runSyncs(ctx, sched, log)

	if log.RecordsProcessed == 0 && log.Error == "" {
		log.Status = RunFailed
		log.Error = "No records processed"
	}

	completedAt := e.now()
	log.CompletedAt = completedAt

	if err := e.writeLog(ctx, log); err != nil {
		logger.Log.Error("Failed to persist execution log",
			zap.String("scheduleId", sched.ID), zap.Error(err))
	}
	if err := e.schedules.completeRun(ctx, sched.ID, completedAt); err != nil {
		logger.Log.Error("Failed to update schedule after run",
			zap.String("scheduleId", sched.ID), zap.Error(err))
	}

	metrics.SyncRuns.WithLabelValues(string(log.Status)).Inc()
	metrics.RecordsProcessed.Add(float64(log.RecordsProcessed))
	metrics.RecordsFailed.Add(float64(log.RecordsFailed))
	metrics.RunDuration.Observe(completedAt.Sub(startedAt).Seconds())

	logger.Log.Info("Schedule executed",
		zap.String("scheduleId", sched.ID),
		zap.String("status", string(log.Status)),
		zap.Int("recordsProcessed", log.RecordsProcessed),
	)

	return log, nil
}

// runSyncs performs the per-subtype syncs and aggregates the outcome. It
// never lets an error escape; a bad connection ends in status=failed.
func (e *SyncExecutor) runSyncs(ctx context.Context, sched *Schedule, log *ExecutionLog) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Status = RunFailed
			log.Error = fmt.Sprintf("panic during sync: %v", rec)
		}
	}()

	conn, err := e.connections.Get(ctx, sched.ConnectionID)
	if err == nil && conn == nil {
		err = fmt.Errorf("connection %s not found", sched.ConnectionID)
	}
	if err != nil {
		log.Status = RunFailed
		log.Error = err.Error()
		return
	}

	if sched.SyncType == SyncProducts || sched.SyncType == SyncBoth {
		count, err := e.syncProducts(ctx, conn)
		if err != nil {
			log.Status = RunPartial
			log.Error = appendError(log.Error, fmt.Sprintf("products: %v", err))
			log.Details["products"] = SyncDetail{Error: err.Error()}
		} else {
			log.RecordsProcessed += count
			log.Details["products"] = SyncDetail{Records: count}
		}
	}

	if sched.SyncType == SyncInventory || sched.SyncType == SyncBoth {
		count, err := e.syncInventory(ctx, conn)
		if err != nil {
			if log.Status == RunPartial {
				log.Status = RunFailed
			} else {
				log.Status = RunPartial
			}
			log.Error = appendError(log.Error, fmt.Sprintf("inventory: %v", err))
			log.Details["inventory"] = SyncDetail{Error: err.Error()}
		} else {
			log.RecordsProcessed += count
			log.Details["inventory"] = SyncDetail{Records: count}
		}
	}
}

// syncProducts fetches the external product feed and normalizes every record
// through the connection's product mapping. Returns the record count.
func (e *SyncExecutor) syncProducts(ctx context.Context, conn *Connection) (int, error) {
	records, err := e.fetchRecords(ctx, conn, "/products")
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		records[i] = ReverseMapFields(rec, conn.Mappings.Products)
	}
	return len(records), nil
}

func (e *SyncExecutor) syncInventory(ctx context.Context, conn *Connection) (int, error) {
	records, err := e.fetchRecords(ctx, conn, "/inventory")
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		records[i] = ReverseMapFields(rec, conn.Mappings.Inventory)
	}
	return len(records), nil
}

// fetchRecords GETs an external endpoint with the connection's auth headers
// and a 60s deadline, accepting either a bare JSON array or an object
// wrapping one under "items", "products" or "inventory".
func (e *SyncExecutor) fetchRecords(ctx context.Context, conn *Connection, path string) ([]map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, dataSyncTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, conn.Auth.APIURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range BuildAuthHeaders(conn.Auth) {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("unexpected response shape")
	}
	for _, field := range []string{"items", "products", "inventory"} {
		if inner, ok := wrapper[field]; ok {
			if err := json.Unmarshal(inner, &records); err != nil {
				return nil, fmt.Errorf("unexpected %s shape", field)
			}
			return records, nil
		}
	}
	return nil, fmt.Errorf("unexpected response shape")
}

// PushOrder maps a canonical order through the connection's order mapping
// and POSTs it to the external system, bounded to 30 seconds.
func (e *SyncExecutor) PushOrder(ctx context.Context, connectionID string, order OrderSyncPayload) error {
	conn, err := e.connections.Get(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn == nil {
		return &NotFoundError{Resource: "connection", ID: connectionID}
	}

	canonical, err := toMap(order)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}
	payload := canonical
	if len(conn.Mappings.Orders) > 0 {
		payload = MapFields(canonical, conn.Mappings.Orders)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode order payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, orderSyncTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, conn.Auth.APIURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range BuildAuthHeaders(conn.Auth) {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("order sync failed: HTTP %d: %s", resp.StatusCode, string(text))
	}
	return nil
}

// ListExecutionLogs returns a schedule's logs, newest first, up to limit.
func (e *SyncExecutor) ListExecutionLogs(ctx context.Context, scheduleID string, limit int) ([]*ExecutionLog, error) {
	values, err := e.store.ScanByPrefix(ctx, execLogKeyPrefix+scheduleID+":")
	if err != nil {
		return nil, fmt.Errorf("failed to scan execution logs: %w", err)
	}

	logs := make([]*ExecutionLog, 0, len(values))
	for _, v := range values {
		var l ExecutionLog
		if err := json.Unmarshal(v, &l); err != nil {
			return nil, fmt.Errorf("failed to decode execution log: %w", err)
		}
		logs = append(logs, &l)
	}

	// Newest first.
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (e *SyncExecutor) writeLog(ctx context.Context, log *ExecutionLog) error {
	v, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to encode execution log: %w", err)
	}
	// StartedAt in the key keeps prefix scans in chronological order.
	key := fmt.Sprintf("%s%s:%s:%s", execLogKeyPrefix, log.ScheduleID,
		log.StartedAt.UTC().Format("20060102T150405.000000000"), log.ID)
	return e.store.Set(ctx, key, v)
}

func appendError(existing, msg string) string {
	if existing == "" {
		return msg
	}
	return existing + "; " + msg
}

func toMap(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
