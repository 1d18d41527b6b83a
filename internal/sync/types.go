package sync

import (
	"fmt"
	"time"
)

type AuthType string

const (
	AuthAPIKey AuthType = "api_key"
	AuthOAuth  AuthType = "oauth"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
)

type SystemKind string

const (
	SystemShopify     SystemKind = "shopify"
	SystemWooCommerce SystemKind = "woocommerce"
	SystemNetSuite    SystemKind = "netsuite"
	SystemSAP         SystemKind = "sap"
	SystemCustom      SystemKind = "custom"
)

func (k SystemKind) Valid() bool {
	switch k {
	case SystemShopify, SystemWooCommerce, SystemNetSuite, SystemSAP, SystemCustom:
		return true
	}
	return false
}

type ConnectionStatus string

const (
	ConnectionActive   ConnectionStatus = "active"
	ConnectionInactive ConnectionStatus = "inactive"
	ConnectionError    ConnectionStatus = "error"
)

func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionActive, ConnectionInactive, ConnectionError:
		return true
	}
	return false
}

// AuthConfig carries the auth scheme for an external system. Which
// credential fields are required depends on Type.
type AuthConfig struct {
	APIURL        string            `json:"apiUrl"`
	Type          AuthType          `json:"authType"`
	APIKey        string            `json:"apiKey,omitempty"`
	Username      string            `json:"username,omitempty"`
	AccessToken   string            `json:"accessToken,omitempty"`
	ClientID      string            `json:"clientId,omitempty"`
	ClientSecret  string            `json:"clientSecret,omitempty"`
	CustomHeaders map[string]string `json:"customHeaders,omitempty"`
}

func (a AuthConfig) Validate() error {
	if a.APIURL == "" {
		return &ValidationError{Field: "apiUrl", Message: "API URL is required"}
	}
	switch a.Type {
	case AuthAPIKey, AuthBearer:
		if a.APIKey == "" {
			return &ValidationError{Field: "apiKey", Message: fmt.Sprintf("API key is required for %s auth", a.Type)}
		}
	case AuthBasic:
		if a.Username == "" || a.APIKey == "" {
			return &ValidationError{Field: "username", Message: "username and secret are required for basic auth"}
		}
	case AuthOAuth:
		if a.AccessToken == "" {
			return &ValidationError{Field: "accessToken", Message: "access token is required for oauth"}
		}
	default:
		return &ValidationError{Field: "authType", Message: fmt.Sprintf("unknown auth type %q", a.Type)}
	}
	return nil
}

type SyncSettings struct {
	AutoSyncProducts  bool       `json:"autoSyncProducts"`
	AutoSyncInventory bool       `json:"autoSyncInventory"`
	AutoSyncOrders    bool       `json:"autoSyncOrders"`
	IntervalMinutes   int        `json:"intervalMinutes,omitempty"`
	LastSync          *time.Time `json:"lastSync,omitempty"`
}

// FieldMappings translate canonical field names to the external system's
// field names, one table per payload family. Values are dotted paths.
type FieldMappings struct {
	Orders    map[string]string `json:"orders,omitempty"`
	Products  map[string]string `json:"products,omitempty"`
	Inventory map[string]string `json:"inventory,omitempty"`
}

type Connection struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Kind      SystemKind       `json:"kind"`
	Status    ConnectionStatus `json:"status"`
	Auth      AuthConfig       `json:"auth"`
	Sync      SyncSettings     `json:"sync"`
	Mappings  FieldMappings    `json:"mappings"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type ScheduleType string

const (
	ScheduleCron     ScheduleType = "cron"
	ScheduleInterval ScheduleType = "interval"
)

type SyncType string

const (
	SyncProducts  SyncType = "products"
	SyncInventory SyncType = "inventory"
	SyncBoth      SyncType = "both"
)

// ScheduleSpec is the time spec of a schedule: a 5-field cron expression
// with an optional IANA timezone, or a fixed interval in minutes.
type ScheduleSpec struct {
	Type       ScheduleType `json:"type"`
	Expression string       `json:"expression,omitempty"`
	Timezone   string       `json:"timezone,omitempty"`
	Minutes    int          `json:"minutes,omitempty"`
}

func (s ScheduleSpec) Validate() error {
	switch s.Type {
	case ScheduleCron:
		if s.Expression == "" {
			return &ValidationError{Field: "expression", Message: "cron expression is required"}
		}
		if err := ValidateCronExpression(s.Expression); err != nil {
			return err
		}
		if s.Timezone != "" {
			if _, err := time.LoadLocation(s.Timezone); err != nil {
				return &ValidationError{Field: "timezone", Message: fmt.Sprintf("unknown timezone %q", s.Timezone)}
			}
		}
	case ScheduleInterval:
		if s.Minutes <= 0 {
			return &ValidationError{Field: "minutes", Message: "interval minutes must be a positive integer"}
		}
	default:
		return &ValidationError{Field: "schedule.type", Message: "schedule must be either cron or interval"}
	}
	return nil
}

type NotifySettings struct {
	OnFailure bool   `json:"onFailure"`
	OnSuccess bool   `json:"onSuccess"`
	Email     string `json:"email,omitempty"`
}

type Schedule struct {
	ID           string         `json:"id"`
	ConnectionID string         `json:"connectionId"`
	SyncType     SyncType       `json:"syncType"`
	Spec         ScheduleSpec   `json:"schedule"`
	Enabled      bool           `json:"enabled"`
	LastRun      *time.Time     `json:"lastRun,omitempty"`
	NextRun      *time.Time     `json:"nextRun,omitempty"`
	RunCount     int64          `json:"runCount"`
	Version      int64          `json:"version"`
	Notify       NotifySettings `json:"notify"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

type SyncDetail struct {
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

// ExecutionLog records the outcome of one schedule run. Append-only.
type ExecutionLog struct {
	ID               string                `json:"id"`
	ScheduleID       string                `json:"scheduleId"`
	ConnectionID     string                `json:"connectionId"`
	SyncType         SyncType              `json:"syncType"`
	Status           RunStatus             `json:"status"`
	RecordsProcessed int                   `json:"recordsProcessed"`
	RecordsFailed    int                   `json:"recordsFailed"`
	StartedAt        time.Time             `json:"startedAt"`
	CompletedAt      time.Time             `json:"completedAt"`
	Error            string                `json:"error,omitempty"`
	Details          map[string]SyncDetail `json:"details,omitempty"`
}

type OrderLineItem struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type OrderSyncPayload struct {
	OrderID       string          `json:"orderId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Items         []OrderLineItem `json:"items"`
	Subtotal      float64         `json:"subtotal"`
	Total         float64         `json:"total"`
	Currency      string          `json:"currency"`
	PlacedAt      time.Time       `json:"placedAt"`
}

type ProductSyncPayload struct {
	SKU        string                 `json:"sku"`
	Name       string                 `json:"name"`
	Price      float64                `json:"price"`
	Stock      int                    `json:"stock"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

type InventoryUpdate struct {
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type TestResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
}
