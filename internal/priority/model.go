// Package priority scores waiting orders. Scores depend on the caller's "now" and
// are never cached: they are recomputed every time the queue is read.
package priority

import (
	"math"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
)

type Reason string

const (
	ReasonUrgent   Reason = "Urgent"
	ReasonLoyalty  Reason = "Loyalty"
	ReasonQuick    Reason = "Quick"
	ReasonLongWait Reason = "Long Wait"
	ReasonStandard Reason = "Standard"
)

// Parts holds the individual contributors of a score.
type Parts struct {
	Wait    float64 `json:"wait"`
	Quick   float64 `json:"quick"`
	Loyalty float64 `json:"loyalty"`
	Urgent  float64 `json:"urgent"`
}

type Score struct {
	Value  float64 `json:"value"`
	Reason Reason  `json:"reason"`
	Parts  Parts   `json:"parts"`
}

func (s Score) Snapshot() orders.PrioritySnapshot {
	return orders.PrioritySnapshot{Score: s.Value, Reason: string(s.Reason)}
}

type Model struct {
	// Wait part: WaitWeight points per WaitHorizon waited, plus a ramp of RampWeight
	// points that fills up over UrgentAfter.
	WaitWeight  float64
	WaitHorizon time.Duration
	RampWeight  float64

	// Quick part: QuickWeight scaled by how far the order's prep time is below QuickCeiling minutes.
	QuickWeight  float64
	QuickCeiling int

	LoyaltyBonus float64

	// Urgent part: a jump of UrgentBonus once the wait exceeds UrgentAfter, then
	// UrgentPerMinute for every further minute.
	UrgentAfter     time.Duration
	UrgentBonus     float64
	UrgentPerMinute float64
}

func DefaultModel() Model {
	return Model{
		WaitWeight:      40,
		WaitHorizon:     10 * time.Minute,
		RampWeight:      25,
		QuickWeight:     25,
		QuickCeiling:    10,
		LoyaltyBonus:    15,
		UrgentAfter:     8 * time.Minute,
		UrgentBonus:     60,
		UrgentPerMinute: 10,
	}
}

// Score is pure: the same order and now always give the same result.
func (m Model) Score(o *orders.Order, now time.Time) Score {
	wait := now.Sub(o.ArrivedAt)
	if wait < 0 {
		wait = 0
	}

	var p Parts
	p.Wait = m.WaitWeight * wait.Seconds() / m.WaitHorizon.Seconds()
	ramp := wait
	if ramp > m.UrgentAfter {
		ramp = m.UrgentAfter
	}
	p.Wait += m.RampWeight * ramp.Seconds() / m.UrgentAfter.Seconds()

	if prep := o.TotalPrep(); prep < m.QuickCeiling {
		p.Quick = m.QuickWeight * float64(m.QuickCeiling-prep) / float64(m.QuickCeiling)
	}
	if o.Loyal {
		p.Loyalty = m.LoyaltyBonus
	}
	if wait > m.UrgentAfter {
		p.Urgent = m.UrgentBonus + m.UrgentPerMinute*(wait-m.UrgentAfter).Minutes()
	}

	return Score{
		Value:  p.Wait + p.Quick + p.Loyalty + p.Urgent,
		Reason: dominant(p),
		Parts:  p,
	}
}

// dominant picks the largest contributor; earlier entries win ties.
func dominant(p Parts) Reason {
	ranked := []struct {
		v float64
		r Reason
	}{
		{p.Urgent, ReasonUrgent},
		{p.Loyalty, ReasonLoyalty},
		{p.Quick, ReasonQuick},
		{p.Wait, ReasonLongWait},
	}
	best, reason := 0.0, ReasonStandard
	for _, c := range ranked {
		if c.v > best && !almostEqual(c.v, best) {
			best, reason = c.v, c.r
		}
	}
	return reason
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
