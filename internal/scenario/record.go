package scenario

import (
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/dispatch"
	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
)

// ServedOrder is one completed order inside a scenario record.
type ServedOrder struct {
	ID             string    `json:"id"`
	Customer       string    `json:"customer"`
	Drinks         []string  `json:"drinks"`
	Loyal          bool      `json:"loyal"`
	ArrivedAt      time.Time `json:"arrived_at"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
	BaristaID      int       `json:"barista_id"`
	WaitMinutes    float64   `json:"wait_minutes"`
	PriorityScore  float64   `json:"priority_score"`
	PriorityReason string    `json:"priority_reason"`
	PriceRupees    int       `json:"price_rupees"`
}

// Record is the frozen outcome of one scenario run. Orders are in completion order.
type Record struct {
	RunID             string        `json:"run_id"`
	TestNumber        int           `json:"test_number"`
	Name              string        `json:"name"`
	DefinitionVersion int           `json:"definition_version"`
	TotalOrders       int           `json:"total_orders"`
	RanAt             time.Time     `json:"ran_at"`
	AvgWaitMinutes    float64       `json:"avg_wait_minutes"`
	MaxWaitMinutes    float64       `json:"max_wait_minutes"`
	SLAViolations     int           `json:"sla_violations"`
	BaristaCounts     []int         `json:"barista_counts"`
	UrgentDispatches  int           `json:"urgent_dispatches"`
	Orders            []ServedOrder `json:"orders"`
}

func servedFrom(ev dispatch.Event) ServedOrder {
	o := ev.Order
	return ServedOrder{
		ID:             o.ID,
		Customer:       o.Customer,
		Drinks:         orders.DrinkNames(o.Drinks),
		Loyal:          o.Loyal,
		ArrivedAt:      o.ArrivedAt,
		StartedAt:      o.StartedAt,
		CompletedAt:    o.CompletedAt,
		BaristaID:      ev.BaristaID,
		WaitMinutes:    o.CompletedAt.Sub(o.ArrivedAt).Minutes(),
		PriorityScore:  o.Priority.Score,
		PriorityReason: o.Priority.Reason,
		PriceRupees:    o.TotalPrice(),
	}
}
