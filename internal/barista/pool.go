package barista

import (
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
)

type barista struct {
	id        int
	busy      bool
	current   *orders.Order
	busyUntil time.Time
	served    int
}

// Status is a detached copy of one barista.
type Status struct {
	ID           int
	Name         string
	Busy         bool
	BusyUntil    time.Time
	CurrentOrder *orders.Order
	Served       int
}

// Pool is a fixed roster. Ids run from 1 to Size and never change.
type Pool struct {
	mu       sync.RWMutex
	baristas []*barista
	unit     time.Duration
}

// New builds n idle baristas. unit is the wall duration of one prep minute.
func New(n int, unit time.Duration) *Pool {
	if n <= 0 {
		n = 1
	}
	if unit <= 0 {
		unit = time.Minute
	}
	p := &Pool{unit: unit}
	for i := 1; i <= n; i++ {
		p.baristas = append(p.baristas, &barista{id: i})
	}
	return p
}

func Name(id int) string { return fmt.Sprintf("Barista %d", id) }

func (p *Pool) Size() int { return len(p.baristas) }

// PrepDuration converts an order's prep minutes into the pool's time unit.
func (p *Pool) PrepDuration(o *orders.Order) time.Duration {
	return time.Duration(o.TotalPrep()) * p.unit
}

// FindIdle returns the lowest idle id.
func (p *Pool) FindIdle() (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, b := range p.baristas {
		if !b.busy {
			return b.id, true
		}
	}
	return 0, false
}

func (p *Pool) get(op string, id int) (*barista, error) {
	if id < 1 || id > len(p.baristas) {
		return nil, &orders.ContractViolation{Op: op, Detail: fmt.Sprintf("no barista %d", id)}
	}
	return p.baristas[id-1], nil
}

// Assign hands o to an idle barista and starts it. The barista stays busy until
// now plus the sum of the drinks' prep times.
func (p *Pool) Assign(id int, o *orders.Order, now time.Time) (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, err := p.get("barista.assign", id)
	if err != nil {
		return time.Time{}, err
	}
	if b.busy {
		return time.Time{}, &orders.ContractViolation{
			Op:     "barista.assign",
			Detail: fmt.Sprintf("%s is busy with order %s", Name(id), b.current.ID),
		}
	}
	for _, other := range p.baristas {
		if other.current == o {
			return time.Time{}, &orders.ContractViolation{
				Op:     "barista.assign",
				Detail: fmt.Sprintf("order %s already held by %s", o.ID, Name(other.id)),
			}
		}
	}
	if err := o.Begin(now); err != nil {
		return time.Time{}, err
	}
	b.busy = true
	b.current = o
	b.busyUntil = now.Add(p.PrepDuration(o))
	return b.busyUntil, nil
}

// Complete releases the barista's order once busyUntil has passed. The order is
// stamped as completed at busyUntil, not at the (possibly later) now.
func (p *Pool) Complete(id int, now time.Time) (*orders.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, err := p.get("barista.complete", id)
	if err != nil {
		return nil, err
	}
	if !b.busy {
		return nil, &orders.ContractViolation{Op: "barista.complete", Detail: Name(id) + " is idle"}
	}
	if now.Before(b.busyUntil) {
		return nil, &orders.ContractViolation{
			Op:     "barista.complete",
			Detail: fmt.Sprintf("%s is busy until %s, now is %s", Name(id), b.busyUntil.Format(time.RFC3339), now.Format(time.RFC3339)),
		}
	}
	o := b.current
	if err := o.Finish(b.busyUntil); err != nil {
		return nil, err
	}
	b.busy = false
	b.current = nil
	b.busyUntil = time.Time{}
	b.served++
	return o, nil
}

// NextCompletion reports the earliest busyUntil; ties go to the lowest id.
func (p *Pool) NextCompletion() (id int, at time.Time, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, b := range p.baristas {
		if !b.busy {
			continue
		}
		if !ok || b.busyUntil.Before(at) {
			id, at, ok = b.id, b.busyUntil, true
		}
	}
	return id, at, ok
}

// FreeTimes lists when each barista can start a new order, never earlier than now.
func (p *Pool) FreeTimes(now time.Time) []time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]time.Time, len(p.baristas))
	for i, b := range p.baristas {
		out[i] = now
		if b.busy && b.busyUntil.After(now) {
			out[i] = b.busyUntil
		}
	}
	return out
}

func (p *Pool) Snapshot() []Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Status, 0, len(p.baristas))
	for _, b := range p.baristas {
		s := Status{ID: b.id, Name: Name(b.id), Busy: b.busy, Served: b.served}
		if b.busy {
			c := b.current.Copy()
			s.CurrentOrder = &c
			s.BusyUntil = b.busyUntil
		}
		out = append(out, s)
	}
	return out
}
