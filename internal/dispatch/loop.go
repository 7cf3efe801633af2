package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/barista"
	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/rs/zerolog"
)

var ErrLoopStopped = errors.New("dispatch loop stopped")

// Submission is a new order as received from a customer.
type Submission struct {
	ID       string
	Customer string
	Drinks   []orders.DrinkType
	Loyal    bool
}

type request struct {
	sub   *Submission // nil: only advance the clock
	reply chan error
}

// Loop serializes every mutation of one Engine onto a single goroutine: new
// orders come in through a channel, completions and SLA alerts are driven by a
// timer set to the engine's next wakeup.
type Loop struct {
	engine *Engine
	clock  Clock
	inbox  chan request
	done   chan struct{}
	log    zerolog.Logger
}

func NewLoop(engine *Engine, clock Clock, log zerolog.Logger) *Loop {
	return &Loop{
		engine: engine,
		clock:  clock,
		inbox:  make(chan request),
		done:   make(chan struct{}),
		log:    log,
	}
}

func (l *Loop) Clock() Clock { return l.clock }

// Run owns the engine until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	l.log.Info().Msg("dispatch loop started")
	for {
		l.engine.Advance(l.clock.Now())

		var (
			timer  *time.Timer
			wakeup <-chan time.Time
		)
		if next, ok := l.engine.NextWakeup(); ok {
			d := l.clock.Until(next)
			if d < 0 {
				d = 0
			}
			timer = time.NewTimer(d)
			wakeup = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			l.log.Info().Msg("dispatch loop stopped")
			return nil
		case req := <-l.inbox:
			req.reply <- l.handle(req)
		case <-wakeup:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (l *Loop) handle(req request) error {
	now := l.clock.Now()
	l.engine.Advance(now)
	if req.sub == nil {
		return nil
	}
	o, err := orders.New(req.sub.ID, req.sub.Customer, req.sub.Drinks, req.sub.Loyal, now)
	if err != nil {
		return err
	}
	l.engine.Arrive(now, o)
	return nil
}

func (l *Loop) send(ctx context.Context, sub *Submission) error {
	req := request{sub: sub, reply: make(chan error, 1)}
	select {
	case l.inbox <- req:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit places an order. The arrival time is taken inside the loop.
func (l *Loop) Submit(ctx context.Context, sub Submission) error {
	return l.send(ctx, &sub)
}

// Sync makes the loop catch up with its clock before returning.
func (l *Loop) Sync(ctx context.Context) error {
	return l.send(ctx, nil)
}

func (l *Loop) SnapshotQueue() []QueueItem {
	return l.engine.SnapshotQueue(l.clock.Now())
}

func (l *Loop) SnapshotBaristas() []barista.Status {
	return l.engine.SnapshotBaristas()
}
