package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/dispatch"
	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/ariefcatur/go-barista-dispatch/internal/priority"
	"github.com/stretchr/testify/assert"
)

func TestSnapshot_EmptyIsZeroSafe(t *testing.T) {
	s := New(3, 0).Snapshot()
	assert.Equal(t, 0, s.OrdersServed)
	assert.Zero(t, s.AvgWait)
	assert.Equal(t, []int{0, 0, 0}, s.PerBarista)
}

func TestRecord_Totals(t *testing.T) {
	a := New(3, 10*time.Minute)
	a.Record(1, time.Minute)
	a.Record(2, 3*time.Minute)
	a.Record(1, 11*time.Minute)
	a.Record(3, 10*time.Minute) // exactly at the SLA is not a violation

	s := a.Snapshot()
	assert.Equal(t, 4, s.OrdersServed)
	assert.Equal(t, 25*time.Minute, s.TotalWait)
	assert.Equal(t, 6*time.Minute+15*time.Second, s.AvgWait)
	assert.Equal(t, 11*time.Minute, s.MaxWait)
	assert.Equal(t, 1, s.SLAViolations)
	assert.Equal(t, []int{2, 1, 1}, s.PerBarista)
	assert.InDelta(t, 6.25, s.AvgWaitMinutes(), 1e-9)
}

func TestObserve_UsesEventStream(t *testing.T) {
	a := New(2, 0)
	arrived := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	o := orders.Order{ID: "1", ArrivedAt: arrived, CompletedAt: arrived.Add(2 * time.Minute)}

	a.Observe(dispatch.Event{Type: dispatch.EventPlaced, Order: o})
	a.Observe(dispatch.Event{Type: dispatch.EventDispatched, BaristaID: 2, Score: priority.Score{Reason: priority.ReasonUrgent}})
	a.Observe(dispatch.Event{Type: dispatch.EventCompleted, BaristaID: 2, Order: o})

	s := a.Snapshot()
	assert.Equal(t, 1, s.OrdersServed)
	assert.Equal(t, 1, s.Dispatched)
	assert.Equal(t, 1, s.UrgentDispatches)
	assert.Equal(t, []int{0, 1}, s.PerBarista)
	assert.Equal(t, 2*time.Minute, s.MaxWait)
}

func TestSnapshot_IsACopy(t *testing.T) {
	a := New(1, 0)
	a.Record(1, time.Minute)
	s := a.Snapshot()
	s.PerBarista[0] = 99
	assert.Equal(t, []int{1}, a.Snapshot().PerBarista)
}

func TestRecord_ConcurrentReaders(t *testing.T) {
	a := New(3, 0)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				a.Record(id%3+1, time.Second)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				_ = a.Snapshot()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, a.Snapshot().OrdersServed)
}
