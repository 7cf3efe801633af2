package stats

import (
	"sync"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/dispatch"
	"github.com/ariefcatur/go-barista-dispatch/internal/priority"
)

// DefaultSLA is the turnaround (arrival to completion) above which an order
// counts as an SLA violation.
const DefaultSLA = 10 * time.Minute

type Snapshot struct {
	OrdersServed     int
	TotalWait        time.Duration
	AvgWait          time.Duration
	MaxWait          time.Duration
	SLAViolations    int
	PerBarista       []int // completed orders, index = barista id - 1
	Dispatched       int
	UrgentDispatches int
}

func (s Snapshot) AvgWaitMinutes() float64 { return s.AvgWait.Minutes() }

func (s Snapshot) MaxWaitMinutes() float64 { return s.MaxWait.Minutes() }

// Aggregator keeps running totals. The lock only covers a single increment or copy.
type Aggregator struct {
	mu     sync.Mutex
	sla    time.Duration
	served int
	sum    time.Duration
	max    time.Duration
	over   int
	per    []int
	disp   int
	urgent int
}

func New(baristas int, sla time.Duration) *Aggregator {
	if sla <= 0 {
		sla = DefaultSLA
	}
	if baristas < 0 {
		baristas = 0
	}
	return &Aggregator{sla: sla, per: make([]int, baristas)}
}

// Observe is a dispatch.Listener.
func (a *Aggregator) Observe(ev dispatch.Event) {
	switch ev.Type {
	case dispatch.EventDispatched:
		a.mu.Lock()
		a.disp++
		if ev.Score.Reason == priority.ReasonUrgent {
			a.urgent++
		}
		a.mu.Unlock()
	case dispatch.EventCompleted:
		a.Record(ev.BaristaID, ev.Order.CompletedAt.Sub(ev.Order.ArrivedAt))
	}
}

// Record adds one completed order served by barista id with the given turnaround.
func (a *Aggregator) Record(id int, wait time.Duration) {
	if wait < 0 {
		wait = 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.served++
	a.sum += wait
	if wait > a.max {
		a.max = wait
	}
	if wait > a.sla {
		a.over++
	}
	if id >= 1 {
		for len(a.per) < id {
			a.per = append(a.per, 0)
		}
		a.per[id-1]++
	}
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Snapshot{
		OrdersServed:     a.served,
		TotalWait:        a.sum,
		MaxWait:          a.max,
		SLAViolations:    a.over,
		PerBarista:       append([]int(nil), a.per...),
		Dispatched:       a.disp,
		UrgentDispatches: a.urgent,
	}
	if a.served > 0 {
		s.AvgWait = a.sum / time.Duration(a.served)
	}
	return s
}
