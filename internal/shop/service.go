// Package shop is the facade the transports talk to: live ordering, snapshots,
// statistics and scenario runs.
package shop

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/dispatch"
	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/ariefcatur/go-barista-dispatch/internal/scenario"
	"github.com/ariefcatur/go-barista-dispatch/internal/stats"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (orderID string, ok bool, err error)
	Remember(ctx context.Context, key, orderID string) error
}

type ScenarioSink interface {
	ScenarioRecorded(rec scenario.Record)
}

type Service struct {
	loop    *dispatch.Loop
	stats   *stats.Aggregator
	runner  *scenario.Runner
	history scenario.Store
	idem    IdempotencyStore
	sink    ScenarioSink
	sla     time.Duration
	log     zerolog.Logger
	newID   func() string
}

type Option func(*Service)

func WithIdempotency(s IdempotencyStore) Option { return func(svc *Service) { svc.idem = s } }

func WithScenarioSink(s ScenarioSink) Option { return func(svc *Service) { svc.sink = s } }

func WithLogger(l zerolog.Logger) Option { return func(svc *Service) { svc.log = l } }

func WithIDGenerator(f func() string) Option { return func(svc *Service) { svc.newID = f } }

// New wires the facade. agg must already be subscribed to the loop's engine.
func New(loop *dispatch.Loop, agg *stats.Aggregator, runner *scenario.Runner, history scenario.Store, opts ...Option) *Service {
	s := &Service{
		loop:    loop,
		stats:   agg,
		runner:  runner,
		history: history,
		sla:     stats.DefaultSLA,
		log:     zerolog.Nop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SubmitRequest struct {
	Customer string
	Drinks   []string
	Loyal    bool
	// IdempotencyKey makes retries of the same submission return the first order id.
	IdempotencyKey string
}

// SubmitOrder validates the request and hands it to the dispatch loop. The returned
// id identifies the order in queue and barista snapshots.
func (s *Service) SubmitOrder(ctx context.Context, req SubmitRequest) (string, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if s.idem != nil && key != "" {
		id, ok, err := s.idem.Lookup(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Msg("idempotency lookup failed")
		} else if ok {
			return id, nil
		}
	}

	drinks, err := orders.ParseDrinks(req.Drinks)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Customer) == "" {
		return "", &orders.ValidationError{Field: "customer_name", Reason: "must not be empty"}
	}

	id := s.newID()
	err = s.loop.Submit(ctx, dispatch.Submission{ID: id, Customer: req.Customer, Drinks: drinks, Loyal: req.Loyal})
	if err != nil {
		return "", err
	}
	if s.idem != nil && key != "" {
		if err := s.idem.Remember(ctx, key, id); err != nil {
			s.log.Warn().Err(err).Str("order", id).Msg("idempotency store failed")
		}
	}
	return id, nil
}

type QueueView struct {
	Position       int       `json:"position"`
	ID             string    `json:"id"`
	Customer       string    `json:"customer_name"`
	Drinks         []string  `json:"drinks"`
	Loyal          bool      `json:"is_loyal"`
	ArrivedAt      time.Time `json:"arrival_time"`
	WaitSeconds    float64   `json:"wait_seconds"`
	ETASeconds     float64   `json:"eta_seconds"`
	PriorityScore  float64   `json:"priority_score"`
	PriorityReason string    `json:"priority_reason"`
}

func (s *Service) SnapshotQueue() []QueueView {
	now := s.loop.Clock().Now()
	items := s.loop.SnapshotQueue()
	out := make([]QueueView, 0, len(items))
	for _, it := range items {
		wait := now.Sub(it.ArrivedAt)
		if wait < 0 {
			wait = 0
		}
		out = append(out, QueueView{
			Position:       it.Position,
			ID:             it.ID,
			Customer:       it.Customer,
			Drinks:         orders.DrinkNames(it.Drinks),
			Loyal:          it.Loyal,
			ArrivedAt:      it.ArrivedAt,
			WaitSeconds:    wait.Seconds(),
			ETASeconds:     it.ETA.Seconds(),
			PriorityScore:  it.Score.Value,
			PriorityReason: string(it.Score.Reason),
		})
	}
	return out
}

type CurrentOrderView struct {
	ID             string   `json:"id"`
	Customer       string   `json:"customer_name"`
	Drinks         []string `json:"drinks"`
	Loyal          bool     `json:"is_loyal"`
	PriorityScore  float64  `json:"priority_score"`
	PriorityReason string   `json:"priority_reason"`
}

type BaristaView struct {
	ID               int               `json:"id"`
	Name             string            `json:"name"`
	Busy             bool              `json:"busy"`
	BusyUntil        *time.Time        `json:"busy_until,omitempty"`
	RemainingSeconds float64           `json:"remaining_seconds"`
	CurrentOrder     *CurrentOrderView `json:"current_order,omitempty"`
	Served           int               `json:"orders_served"`
}

func (s *Service) SnapshotBaristas() []BaristaView {
	now := s.loop.Clock().Now()
	list := s.loop.SnapshotBaristas()
	out := make([]BaristaView, 0, len(list))
	for _, b := range list {
		v := BaristaView{ID: b.ID, Name: b.Name, Busy: b.Busy, Served: b.Served}
		if b.Busy {
			until := b.BusyUntil
			v.BusyUntil = &until
			if rem := until.Sub(now); rem > 0 {
				v.RemainingSeconds = rem.Seconds()
			}
		}
		if o := b.CurrentOrder; o != nil {
			v.CurrentOrder = &CurrentOrderView{
				ID:             o.ID,
				Customer:       o.Customer,
				Drinks:         orders.DrinkNames(o.Drinks),
				Loyal:          o.Loyal,
				PriorityScore:  o.Priority.Score,
				PriorityReason: o.Priority.Reason,
			}
		}
		out = append(out, v)
	}
	return out
}

type StatsView struct {
	OrdersServed     int     `json:"orders_served"`
	AvgWaitMinutes   float64 `json:"avg_wait_minutes"`
	MaxWaitMinutes   float64 `json:"max_wait_minutes"`
	SLAViolations    int     `json:"sla_violations"`
	PerBarista       []int   `json:"per_barista"`
	Dispatched       int     `json:"dispatched"`
	UrgentDispatches int     `json:"urgent_dispatches"`

	Waiting               int     `json:"waiting"`
	WaitingMaxWaitMinutes float64 `json:"waiting_max_wait_minutes"`
	WaitingOverSLA        int     `json:"waiting_over_sla"`
}

// SnapshotStats reports completed-order statistics plus the state of the lobby:
// how many orders wait, the longest current wait and how many are already past the SLA.
func (s *Service) SnapshotStats() StatsView {
	snap := s.stats.Snapshot()
	v := StatsView{
		OrdersServed:     snap.OrdersServed,
		AvgWaitMinutes:   snap.AvgWaitMinutes(),
		MaxWaitMinutes:   snap.MaxWaitMinutes(),
		SLAViolations:    snap.SLAViolations,
		PerBarista:       snap.PerBarista,
		Dispatched:       snap.Dispatched,
		UrgentDispatches: snap.UrgentDispatches,
	}
	now := s.loop.Clock().Now()
	for _, it := range s.loop.SnapshotQueue() {
		v.Waiting++
		wait := now.Sub(it.ArrivedAt)
		if m := wait.Minutes(); m > v.WaitingMaxWaitMinutes {
			v.WaitingMaxWaitMinutes = m
		}
		if wait > s.sla {
			v.WaitingOverSLA++
		}
	}
	return v
}

// RunScenario replays one predefined scenario and replaces its previous record.
func (s *Service) RunScenario(ctx context.Context, testNumber int) (scenario.Record, error) {
	rec, err := s.runner.Run(ctx, testNumber)
	if err != nil {
		return scenario.Record{}, err
	}
	if err := s.history.Save(ctx, rec); err != nil {
		return scenario.Record{}, err
	}
	if s.sink != nil {
		s.sink.ScenarioRecorded(rec)
	}
	s.log.Info().
		Int("test", rec.TestNumber).
		Str("run_id", rec.RunID).
		Float64("avg_wait_min", rec.AvgWaitMinutes).
		Int("sla_violations", rec.SLAViolations).
		Msg("scenario recorded")
	return rec, nil
}

func (s *Service) ScenarioHistory(ctx context.Context) ([]scenario.Record, error) {
	return s.history.List(ctx)
}

func (s *Service) Scenarios() []scenario.Definition {
	return s.runner.Catalog().List()
}

// ExportCSV writes the latest record of a scenario. Unknown scenarios fail with
// scenario.ErrUnknownScenario, known ones that never ran with scenario.ErrNoRecord.
func (s *Service) ExportCSV(ctx context.Context, testNumber int, w io.Writer) error {
	if _, err := s.runner.Catalog().Get(testNumber); err != nil {
		return err
	}
	rec, err := s.history.Get(ctx, testNumber)
	if err != nil {
		return err
	}
	return scenario.WriteCSV(w, rec)
}

// IsNotFound reports errors that mean the requested scenario or record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, scenario.ErrUnknownScenario) || errors.Is(err, scenario.ErrNoRecord)
}
