package queue

import (
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/ariefcatur/go-barista-dispatch/internal/priority"
)

type Scorer interface {
	Score(o *orders.Order, now time.Time) priority.Score
}

// Entry is a waiting order together with its score at the time of the read.
type Entry struct {
	Order *orders.Order
	Seq   uint64
	Score priority.Score
}

// Queue holds WAITING orders. It never stores scores; every read ranks afresh.
type Queue struct {
	mu      sync.RWMutex
	scorer  Scorer
	items   []Entry
	nextSeq uint64
}

func New(scorer Scorer) *Queue {
	return &Queue{scorer: scorer}
}

func (q *Queue) Enqueue(o *orders.Order) {
	q.mu.Lock()
	q.items = append(q.items, Entry{Order: o, Seq: q.nextSeq})
	q.nextSeq++
	q.mu.Unlock()
}

// Requeue puts back an entry taken by RemoveHighest, keeping its original sequence.
func (q *Queue) Requeue(e Entry) {
	q.mu.Lock()
	e.Score = priority.Score{}
	q.items = append(q.items, e)
	q.mu.Unlock()
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

// PeekOrdered ranks all waiting orders at now: score desc, arrival asc, sequence asc.
func (q *Queue) PeekOrdered(now time.Time) []Entry {
	q.mu.RLock()
	out := make([]Entry, len(q.items))
	copy(out, q.items)
	q.mu.RUnlock()

	for i := range out {
		out[i].Score = q.scorer.Score(out[i].Order, now)
	}
	sort.Slice(out, func(i, j int) bool { return before(out[i], out[j]) })
	return out
}

// RemoveHighest takes out the order PeekOrdered(now) would list first.
func (q *Queue) RemoveHighest(now time.Time) (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Entry{}, false
	}
	best := -1
	var bestEntry Entry
	for i, e := range q.items {
		e.Score = q.scorer.Score(e.Order, now)
		if best < 0 || before(e, bestEntry) {
			best, bestEntry = i, e
		}
	}
	q.items = append(q.items[:best], q.items[best+1:]...)
	return bestEntry, true
}

func before(a, b Entry) bool {
	if a.Score.Value != b.Score.Value {
		return a.Score.Value > b.Score.Value
	}
	if !a.Order.ArrivedAt.Equal(b.Order.ArrivedAt) {
		return a.Order.ArrivedAt.Before(b.Order.ArrivedAt)
	}
	return a.Seq < b.Seq
}
