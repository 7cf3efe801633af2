package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced      = "OrderPlaced"
	EventOrderDispatched  = "OrderDispatched"
	EventOrderCompleted   = "OrderCompleted"
	EventSLAWarning       = "SLAWarning"
	EventSLABreached      = "SLABreached"
	EventScenarioRecorded = "ScenarioRecorded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id, or scenario run id
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID   string    `json:"order_id"`
	Customer  string    `json:"customer"`
	Drinks    []string  `json:"drinks"`
	Loyal     bool      `json:"loyal"`
	ArrivedAt time.Time `json:"arrived_at"`
}

type OrderDispatchedPayload struct {
	OrderID   string           `json:"order_id"`
	BaristaID int              `json:"barista_id"`
	StartedAt time.Time        `json:"started_at"`
	BusyUntil time.Time        `json:"busy_until"`
	Priority  PrioritySnapshot `json:"priority"`
}

type OrderCompletedPayload struct {
	OrderID     string           `json:"order_id"`
	Customer    string           `json:"customer"`
	Drinks      []string         `json:"drinks"`
	Loyal       bool             `json:"loyal"`
	BaristaID   int              `json:"barista_id"`
	ArrivedAt   time.Time        `json:"arrived_at"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	WaitSeconds float64          `json:"wait_seconds"`
	PriceRupees int              `json:"price_rupees"`
	Priority    PrioritySnapshot `json:"priority"`
}

type SLAAlertPayload struct {
	OrderID     string  `json:"order_id"`
	Customer    string  `json:"customer"`
	Level       string  `json:"level"` // WARNING | BREACHED
	WaitSeconds float64 `json:"wait_seconds"`
}

type ScenarioRecordedPayload struct {
	RunID          string  `json:"run_id"`
	TestNumber     int     `json:"test_number"`
	TotalOrders    int     `json:"total_orders"`
	AvgWaitMinutes float64 `json:"avg_wait_minutes"`
	MaxWaitMinutes float64 `json:"max_wait_minutes"`
	SLAViolations  int     `json:"sla_violations"`
	BaristaCounts  []int   `json:"barista_counts"`
}
