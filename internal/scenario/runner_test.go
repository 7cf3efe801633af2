package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ServesEveryOrder(t *testing.T) {
	r := NewRunner(builtin(t))
	rec, err := r.Run(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.TestNumber)
	assert.Equal(t, "Baseline morning", rec.Name)
	assert.Equal(t, 1, rec.DefinitionVersion)
	assert.NotEmpty(t, rec.RunID)
	assert.Equal(t, 210, rec.TotalOrders)
	require.Len(t, rec.Orders, 210)
	require.Len(t, rec.BaristaCounts, 3)

	sum := 0
	for _, n := range rec.BaristaCounts {
		sum += n
	}
	assert.Equal(t, 210, sum)

	seen := map[string]bool{}
	over, total, max := 0, 0.0, 0.0
	for i, o := range rec.Orders {
		assert.False(t, seen[o.ID], "order %s served twice", o.ID)
		seen[o.ID] = true
		assert.False(t, o.StartedAt.Before(o.ArrivedAt))
		assert.True(t, o.CompletedAt.After(o.StartedAt))
		assert.NotEmpty(t, o.PriorityReason)
		assert.Positive(t, o.PriceRupees)
		if i > 0 {
			assert.False(t, o.CompletedAt.Before(rec.Orders[i-1].CompletedAt))
		}
		total += o.WaitMinutes
		if o.WaitMinutes > max {
			max = o.WaitMinutes
		}
		if o.WaitMinutes > 10 {
			over++
		}
	}
	assert.Equal(t, over, rec.SLAViolations)
	assert.InDelta(t, total/210, rec.AvgWaitMinutes, 1e-9)
	assert.InDelta(t, max, rec.MaxWaitMinutes, 1e-9)
}

func TestRun_Reproducible(t *testing.T) {
	r := NewRunner(builtin(t))
	a, err := r.Run(context.Background(), 5)
	require.NoError(t, err)
	b, err := r.Run(context.Background(), 5)
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Orders, b.Orders)
	assert.Equal(t, a.BaristaCounts, b.BaristaCounts)
	assert.Equal(t, a.AvgWaitMinutes, b.AvgWaitMinutes)
	assert.Equal(t, a.SLAViolations, b.SLAViolations)
	assert.Equal(t, a.UrgentDispatches, b.UrgentDispatches)
}

func TestRun_HighLoadIsWorseThanBaseline(t *testing.T) {
	r := NewRunner(builtin(t))
	base, err := r.Run(context.Background(), 1)
	require.NoError(t, err)
	high, err := r.Run(context.Background(), 5)
	require.NoError(t, err)
	assert.Greater(t, high.AvgWaitMinutes, base.AvgWaitMinutes)
}

func TestRun_UnknownScenario(t *testing.T) {
	_, err := NewRunner(builtin(t)).Run(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(builtin(t)).Run(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_MoreBaristasShorterWaits(t *testing.T) {
	c := builtin(t)
	three, err := NewRunner(c).Run(context.Background(), 10)
	require.NoError(t, err)
	five, err := NewRunner(c, WithBaristas(5)).Run(context.Background(), 10)
	require.NoError(t, err)

	assert.Len(t, five.BaristaCounts, 5)
	assert.LessOrEqual(t, five.AvgWaitMinutes, three.AvgWaitMinutes)
}

func TestRunAll_IsolatedAndOrdered(t *testing.T) {
	r := NewRunner(builtin(t))
	numbers := []int{3, 1, 2}
	recs, err := r.RunAll(context.Background(), numbers, 2)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, n := range numbers {
		assert.Equal(t, n, recs[i].TestNumber)
	}

	solo, err := r.Run(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, solo.Orders, recs[2].Orders)
}

func TestRunAll_StopsOnUnknown(t *testing.T) {
	_, err := NewRunner(builtin(t)).RunAll(context.Background(), []int{1, 99}, 0)
	assert.ErrorIs(t, err, ErrUnknownScenario)
}
