package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrNoRecord = errors.New("scenario has not been run")

//go:generate mockgen -source=history.go -destination=mocks/mock_store.go -package=mocks

// Store keeps at most one record per test number; saving a rerun replaces the
// previous record.
type Store interface {
	Save(ctx context.Context, rec Record) error
	// List returns every record sorted by test number.
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, testNumber int) (Record, error)
}

type MemoryStore struct {
	mu     sync.RWMutex
	byTest map[int]Record
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byTest: make(map[int]Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	s.byTest[rec.TestNumber] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	out := make([]Record, 0, len(s.byTest))
	for _, rec := range s.byTest {
		out = append(out, rec)
	}
	s.mu.RUnlock()
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, testNumber int) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byTest[testNumber]
	if !ok {
		return Record{}, fmt.Errorf("%w: %d", ErrNoRecord, testNumber)
	}
	return rec, nil
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].TestNumber < recs[j].TestNumber })
}
