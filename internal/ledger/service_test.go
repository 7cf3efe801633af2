package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkax "github.com/ariefcatur/go-barista-dispatch/internal/kafka"
	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	calls []orders.OrderCompletedPayload
	seen  map[string]bool
	err   error
}

func (r *fakeRepo) RecordServed(_ context.Context, p orders.OrderCompletedPayload) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	r.calls = append(r.calls, p)
	if r.seen == nil {
		r.seen = map[string]bool{}
	}
	fresh := !r.seen[p.OrderID]
	r.seen[p.OrderID] = true
	return fresh, nil
}

type fakeDedup struct {
	marked  map[string]bool
	seenErr error
}

func (d *fakeDedup) Seen(_ context.Context, id string) (bool, error) {
	if d.seenErr != nil {
		return false, d.seenErr
	}
	return d.marked[id], nil
}

func (d *fakeDedup) Mark(_ context.Context, id string) error {
	if d.marked == nil {
		d.marked = map[string]bool{}
	}
	d.marked[id] = true
	return nil
}

func completedMessage(orderID string) (kafkago.Message, orders.Envelope) {
	env := kafkax.Wrap(orders.EventOrderCompleted, "test", orderID, time.Now(), orders.OrderCompletedPayload{
		OrderID: orderID, Customer: "Alice", Drinks: []string{"COLD_BREW"}, BaristaID: 1, WaitSeconds: 60,
	})
	return kafkago.Message{Value: kafkax.MustMarshal(env)}, env
}

func TestHandleOrderCompleted_RecordsOnce(t *testing.T) {
	repo, dd := &fakeRepo{}, &fakeDedup{}
	s := &Service{Repo: repo, Dedup: dd, Log: zerolog.Nop()}
	m, env := completedMessage("o-1")

	require.NoError(t, s.HandleOrderCompleted(context.Background(), m))
	require.NoError(t, s.HandleOrderCompleted(context.Background(), m))

	require.Len(t, repo.calls, 1)
	assert.Equal(t, "o-1", repo.calls[0].OrderID)
	assert.True(t, dd.marked[env.EventID])
}

func TestHandleOrderCompleted_DedupOutageFallsBackToRepo(t *testing.T) {
	repo := &fakeRepo{}
	s := &Service{Repo: repo, Dedup: &fakeDedup{seenErr: errors.New("redis down")}, Log: zerolog.Nop()}
	m, _ := completedMessage("o-2")

	require.NoError(t, s.HandleOrderCompleted(context.Background(), m))
	assert.Len(t, repo.calls, 1)
}

func TestHandleOrderCompleted_RepoErrorIsRetried(t *testing.T) {
	dd := &fakeDedup{}
	s := &Service{Repo: &fakeRepo{err: errors.New("db down")}, Dedup: dd, Log: zerolog.Nop()}
	m, env := completedMessage("o-3")

	assert.Error(t, s.HandleOrderCompleted(context.Background(), m))
	assert.False(t, dd.marked[env.EventID])
}

func TestHandleOrderCompleted_IgnoresOtherMessages(t *testing.T) {
	repo := &fakeRepo{}
	s := &Service{Repo: repo, Dedup: &fakeDedup{}, Log: zerolog.Nop()}

	other := kafkax.Wrap(orders.EventOrderPlaced, "test", "o-4", time.Now(), orders.OrderPlacedPayload{OrderID: "o-4"})
	require.NoError(t, s.HandleOrderCompleted(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(other)}))
	require.NoError(t, s.HandleOrderCompleted(context.Background(), kafkago.Message{Value: []byte("{not json")}))
	require.NoError(t, s.HandleOrderCompleted(context.Background(), kafkago.Message{Value: []byte(`{"event_type":"OrderCompleted","payload":{"order_id":"o-5"}}`)}))
	assert.Empty(t, repo.calls)
}
