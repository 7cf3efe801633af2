package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/barista"
	"github.com/ariefcatur/go-barista-dispatch/internal/dispatch"
	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/ariefcatur/go-barista-dispatch/internal/priority"
	"github.com/ariefcatur/go-barista-dispatch/internal/queue"
	"github.com/ariefcatur/go-barista-dispatch/internal/stats"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Runner replays scenarios. Each run builds its own queue, pool and engine, so runs
// may proceed concurrently and never touch the live system.
type Runner struct {
	catalog  *Catalog
	model    priority.Model
	baristas int
	day      time.Time
	log      zerolog.Logger
	now      func() time.Time
}

type RunnerOption func(*Runner)

func WithBaristas(n int) RunnerOption { return func(r *Runner) { r.baristas = n } }

func WithModel(m priority.Model) RunnerOption { return func(r *Runner) { r.model = m } }

func WithLogger(l zerolog.Logger) RunnerOption { return func(r *Runner) { r.log = l } }

// WithDay sets the calendar day the synthetic orders arrive on.
func WithDay(day time.Time) RunnerOption { return func(r *Runner) { r.day = day } }

func NewRunner(c *Catalog, opts ...RunnerOption) *Runner {
	r := &Runner{
		catalog:  c,
		model:    priority.DefaultModel(),
		baristas: 3,
		day:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		log:      zerolog.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.baristas <= 0 {
		r.baristas = 1
	}
	return r
}

func (r *Runner) Catalog() *Catalog { return r.catalog }

// Run replays one scenario to completion with a discrete-event clock: time jumps to
// the earlier of the next arrival and the next completion. Completions due at an
// instant are processed before the arrivals of that instant.
func (r *Runner) Run(ctx context.Context, testNumber int) (Record, error) {
	def, err := r.catalog.Get(testNumber)
	if err != nil {
		return Record{}, err
	}
	pending, err := r.catalog.Expand(def, r.day)
	if err != nil {
		return Record{}, err
	}

	log := r.log.With().Int("test", testNumber).Logger()
	pool := barista.New(r.baristas, time.Minute)
	agg := stats.New(pool.Size(), stats.DefaultSLA)
	served := make([]ServedOrder, 0, len(pending))
	eng := dispatch.New(
		queue.New(r.model),
		pool,
		dispatch.WithSLA(dispatch.SLA{}),
		dispatch.WithLogger(log.Level(zerolog.WarnLevel)),
		dispatch.WithListener(agg.Observe),
		dispatch.WithListener(func(ev dispatch.Event) {
			if ev.Type == dispatch.EventCompleted {
				served = append(served, servedFrom(ev))
			}
		}),
	)

	log.Info().Str("name", def.Name).Int("orders", len(pending)).Msg("scenario started")
	next := 0
	for next < len(pending) || !eng.Idle() {
		if err := ctx.Err(); err != nil {
			return Record{}, err
		}
		wake, ok := eng.NextWakeup()
		var now time.Time
		switch {
		case next < len(pending) && (!ok || pending[next].ArrivedAt.Before(wake)):
			now = pending[next].ArrivedAt
		case ok:
			now = wake
		default:
			return Record{}, &orders.ContractViolation{Op: "scenario.run", Detail: "engine stalled with orders outstanding"}
		}

		eng.Advance(now)
		end := next
		for end < len(pending) && !pending[end].ArrivedAt.After(now) {
			end++
		}
		if end > next {
			eng.Arrive(now, pending[next:end]...)
			next = end
		}
	}
	if len(served) != len(pending) {
		return Record{}, &orders.ContractViolation{
			Op:     "scenario.run",
			Detail: fmt.Sprintf("served %d of %d orders", len(served), len(pending)),
		}
	}

	snap := agg.Snapshot()
	rec := Record{
		RunID:             uuid.NewString(),
		TestNumber:        def.TestNumber,
		Name:              def.Name,
		DefinitionVersion: r.catalog.Version,
		TotalOrders:       len(pending),
		RanAt:             r.now(),
		AvgWaitMinutes:    snap.AvgWaitMinutes(),
		MaxWaitMinutes:    snap.MaxWaitMinutes(),
		SLAViolations:     snap.SLAViolations,
		BaristaCounts:     snap.PerBarista,
		UrgentDispatches:  snap.UrgentDispatches,
		Orders:            served,
	}
	log.Info().
		Str("run_id", rec.RunID).
		Float64("avg_wait_min", rec.AvgWaitMinutes).
		Float64("max_wait_min", rec.MaxWaitMinutes).
		Int("sla_violations", rec.SLAViolations).
		Ints("barista_counts", rec.BaristaCounts).
		Msg("scenario finished")
	return rec, nil
}

// RunAll runs the given scenarios with at most parallelism runs in flight (zero or
// less means unbounded). Records come back in the order of numbers.
func (r *Runner) RunAll(ctx context.Context, numbers []int, parallelism int) ([]Record, error) {
	out := make([]Record, len(numbers))
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, n := range numbers {
		i, n := i, n
		g.Go(func() error {
			rec, err := r.Run(ctx, n)
			if err != nil {
				return err
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
