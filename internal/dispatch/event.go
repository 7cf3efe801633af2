package dispatch

import (
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/ariefcatur/go-barista-dispatch/internal/priority"
)

type EventType string

const (
	EventPlaced      EventType = "order.placed"
	EventDispatched  EventType = "order.dispatched"
	EventCompleted   EventType = "order.completed"
	EventSLAWarning  EventType = "sla.warning"
	EventSLABreached EventType = "sla.breached"
)

// Event is emitted synchronously from the goroutine that owns the Engine. Order is a
// copy, listeners may keep it.
type Event struct {
	Type      EventType
	At        time.Time
	Order     orders.Order
	BaristaID int
	BusyUntil time.Time
	Score     priority.Score
	Wait      time.Duration
}

// Listener must not call back into the Engine.
type Listener func(Event)
