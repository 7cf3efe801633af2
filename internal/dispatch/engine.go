// Package dispatch binds waiting orders to idle baristas.
//
// Engine is synchronous and has a single owner: either the live Loop goroutine or a
// scenario replay. Every arrival and every completion is followed by a dispatch
// attempt, so newly freed capacity and urgent arrivals are served without a tick.
// The snapshot methods only take the queue and pool read locks and may be called
// from any goroutine.
package dispatch

import (
	"sort"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/barista"
	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/ariefcatur/go-barista-dispatch/internal/priority"
	"github.com/ariefcatur/go-barista-dispatch/internal/queue"
	"github.com/rs/zerolog"
)

// SLA thresholds for waiting orders. A zero WarnAfter or BreachAfter disables that alert.
type SLA struct {
	WarnAfter   time.Duration
	BreachAfter time.Duration
}

func DefaultSLA() SLA {
	return SLA{WarnAfter: 9 * time.Minute, BreachAfter: 10 * time.Minute}
}

type alertState struct {
	order    *orders.Order
	warned   bool
	breached bool
}

type Engine struct {
	queue     *queue.Queue
	pool      *barista.Pool
	sla       SLA
	log       zerolog.Logger
	listeners []Listener
	waiting   map[string]*alertState
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithSLA(s SLA) Option { return func(e *Engine) { e.sla = s } }

func WithListener(l Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

func New(q *queue.Queue, p *barista.Pool, opts ...Option) *Engine {
	e := &Engine{
		queue:   q,
		pool:    p,
		sla:     DefaultSLA(),
		log:     zerolog.Nop(),
		waiting: make(map[string]*alertState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe must be called before the engine starts receiving events.
func (e *Engine) Subscribe(l Listener) { e.listeners = append(e.listeners, l) }

func (e *Engine) emit(ev Event) {
	for _, l := range e.listeners {
		l(ev)
	}
}

// Arrive enqueues a batch of orders that arrived at now, then dispatches once, so
// simultaneous arrivals compete on priority rather than on submission order.
func (e *Engine) Arrive(now time.Time, batch ...*orders.Order) {
	for _, o := range batch {
		e.queue.Enqueue(o)
		e.waiting[o.ID] = &alertState{order: o}
		e.emit(Event{Type: EventPlaced, At: o.ArrivedAt, Order: o.Copy()})
	}
	e.dispatch(now)
}

// Advance completes every barista whose busyUntil is at or before now, earliest
// first, dispatching at each completion instant. Orders started that way may
// themselves finish before now and are completed in the same call. Then it raises
// due SLA alerts.
//
// Every queued order arrived no later than any pending completion, because each
// arrival is preceded by an Advance to its arrival time.
func (e *Engine) Advance(now time.Time) {
	for {
		id, at, ok := e.pool.NextCompletion()
		if !ok || at.After(now) {
			break
		}
		o, err := e.pool.Complete(id, at)
		if err != nil {
			e.log.Error().Err(err).Int("barista", id).Msg("completion aborted")
			break
		}
		wait := o.Wait(at)
		e.log.Info().
			Str("order", o.ID).
			Str("customer", o.Customer).
			Int("barista", id).
			Dur("wait", wait).
			Msg("order completed")
		e.emit(Event{Type: EventCompleted, At: o.CompletedAt, Order: o.Copy(), BaristaID: id, Wait: wait})
		e.dispatch(at)
	}
	e.checkSLA(now)
}

func (e *Engine) dispatch(now time.Time) {
	for {
		id, ok := e.pool.FindIdle()
		if !ok {
			return
		}
		entry, ok := e.queue.RemoveHighest(now)
		if !ok {
			return
		}
		o := entry.Order
		o.Priority = entry.Score.Snapshot()
		until, err := e.pool.Assign(id, o, now)
		if err != nil {
			e.log.Error().Err(err).Str("order", o.ID).Int("barista", id).Msg("assignment aborted, order requeued")
			e.queue.Requeue(entry)
			return
		}
		delete(e.waiting, o.ID)

		ev := e.log.Info()
		msg := "order assigned"
		if entry.Score.Reason == priority.ReasonUrgent {
			ev = e.log.Warn()
			msg = "emergency assignment"
		}
		ev.Str("order", o.ID).
			Int("barista", id).
			Float64("score", entry.Score.Value).
			Str("reason", string(entry.Score.Reason)).
			Time("busy_until", until).
			Msg(msg)

		e.emit(Event{
			Type:      EventDispatched,
			At:        now,
			Order:     o.Copy(),
			BaristaID: id,
			BusyUntil: until,
			Score:     entry.Score,
			Wait:      o.Wait(now),
		})
	}
}

// checkSLA raises each alert at most once per order, in arrival order.
func (e *Engine) checkSLA(now time.Time) {
	if len(e.waiting) == 0 || (e.sla.WarnAfter <= 0 && e.sla.BreachAfter <= 0) {
		return
	}
	states := make([]*alertState, 0, len(e.waiting))
	for _, s := range e.waiting {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool {
		a, b := states[i].order, states[j].order
		if !a.ArrivedAt.Equal(b.ArrivedAt) {
			return a.ArrivedAt.Before(b.ArrivedAt)
		}
		return a.ID < b.ID
	})
	for _, s := range states {
		wait := s.order.Wait(now)
		if e.sla.WarnAfter > 0 && !s.warned && wait >= e.sla.WarnAfter {
			s.warned = true
			e.log.Warn().Str("order", s.order.ID).Str("customer", s.order.Customer).Dur("wait", wait).Msg("order nearing SLA limit")
			e.emit(Event{Type: EventSLAWarning, At: now, Order: s.order.Copy(), Wait: wait})
		}
		if e.sla.BreachAfter > 0 && !s.breached && wait >= e.sla.BreachAfter {
			s.breached = true
			e.log.Error().Str("order", s.order.ID).Str("customer", s.order.Customer).Dur("wait", wait).Msg("SLA breached")
			e.emit(Event{Type: EventSLABreached, At: now, Order: s.order.Copy(), Wait: wait})
		}
	}
}

// NextWakeup is the earliest instant at which Advance has work to do.
func (e *Engine) NextWakeup() (time.Time, bool) {
	_, next, ok := e.pool.NextCompletion()
	consider := func(t time.Time) {
		if !ok || t.Before(next) {
			next, ok = t, true
		}
	}
	for _, s := range e.waiting {
		if e.sla.WarnAfter > 0 && !s.warned {
			consider(s.order.ArrivedAt.Add(e.sla.WarnAfter))
		}
		if e.sla.BreachAfter > 0 && !s.breached {
			consider(s.order.ArrivedAt.Add(e.sla.BreachAfter))
		}
	}
	return next, ok
}

// Idle reports whether nothing is waiting and no barista is busy.
func (e *Engine) Idle() bool {
	_, _, busy := e.pool.NextCompletion()
	return !busy && e.queue.Len() == 0
}

// QueueItem is a read-only view of a waiting order. It only carries fields that
// never change after creation, so it can be built while the owner keeps mutating.
type QueueItem struct {
	Position  int
	ID        string
	Customer  string
	Drinks    []orders.DrinkType
	Loyal     bool
	ArrivedAt time.Time
	Score     priority.Score
	ETA       time.Duration
}

// SnapshotQueue ranks the waiting orders at now and estimates when each will start.
// The estimate hands every order, in rank order, to whichever barista frees up
// first and pushes that barista's free time back by the order's prep time.
func (e *Engine) SnapshotQueue(now time.Time) []QueueItem {
	entries := e.queue.PeekOrdered(now)
	free := e.pool.FreeTimes(now)
	out := make([]QueueItem, 0, len(entries))
	for i, en := range entries {
		k := 0
		for j := range free {
			if free[j].Before(free[k]) {
				k = j
			}
		}
		eta := free[k].Sub(now)
		free[k] = free[k].Add(e.pool.PrepDuration(en.Order))
		out = append(out, QueueItem{
			Position:  i + 1,
			ID:        en.Order.ID,
			Customer:  en.Order.Customer,
			Drinks:    append([]orders.DrinkType(nil), en.Order.Drinks...),
			Loyal:     en.Order.Loyal,
			ArrivedAt: en.Order.ArrivedAt,
			Score:     en.Score,
			ETA:       eta,
		})
	}
	return out
}

func (e *Engine) SnapshotBaristas() []barista.Status { return e.pool.Snapshot() }
