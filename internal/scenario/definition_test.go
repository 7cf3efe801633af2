package scenario

import (
	"testing"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func builtin(t *testing.T) *Catalog {
	t.Helper()
	c, err := Builtin()
	require.NoError(t, err)
	return c
}

func TestBuiltin_TenScenarios(t *testing.T) {
	c := builtin(t)
	assert.Equal(t, 1, c.Version)
	assert.Equal(t, 7*time.Hour, c.Opening)
	assert.Equal(t, 3*time.Hour, c.Window)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, c.Numbers())

	for _, d := range c.List() {
		want := 200 + 10*d.TestNumber
		if d.TestNumber == 2 {
			want = 300
		}
		assert.Equal(t, want, d.Orders, "scenario %d", d.TestNumber)
		assert.NotEmpty(t, d.Name)
	}
}

func TestBuiltin_ProfilesOverrideDefaults(t *testing.T) {
	c := builtin(t)

	base, err := c.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 1.4, base.Profile.ArrivalsPerMinute)
	assert.Equal(t, 0.15, base.Profile.LoyaltyShare)
	assert.Equal(t, 25.0, base.Profile.DrinkWeights["COLD_BREW"])

	loyal, err := c.Get(4)
	require.NoError(t, err)
	assert.Equal(t, 0.6, loyal.Profile.LoyaltyShare)
	assert.Equal(t, base.Profile.DrinkWeights, loyal.Profile.DrinkWeights)
	assert.Equal(t, 0.08, loyal.Profile.LullChance)

	rush, err := c.Get(2)
	require.NoError(t, err)
	assert.Equal(t, 80.0, rush.Profile.DrinkWeights["ESPRESSO"])
	assert.Equal(t, 0.15, rush.Profile.LoyaltyShare)

	steady, err := c.Get(9)
	require.NoError(t, err)
	assert.Zero(t, steady.Profile.LullChance)
	assert.Equal(t, 1.4, steady.Profile.ArrivalsPerMinute)
}

func TestGet_Unknown(t *testing.T) {
	_, err := builtin(t).Get(11)
	assert.ErrorIs(t, err, ErrUnknownScenario)
	assert.Contains(t, err.Error(), "11")
}

func TestParse_Rejects(t *testing.T) {
	const head = "version: 1\nopening: \"07:00\"\nwindow_minutes: 180\ndefaults:\n  arrivals_per_minute: 1\n  rush_factor: 1\n  max_drinks: 1\n  drink_weights: {LATTE: 1}\n"
	cases := []struct {
		name string
		doc  string
		msg  string
	}{
		{"version", "version: 2\nopening: \"07:00\"\nwindow_minutes: 10\n", "unsupported scenarios version"},
		{"opening", "version: 1\nopening: seven\nwindow_minutes: 10\n", "opening"},
		{"unknown drink", head + "scenarios:\n  - {test_number: 1, name: a, orders: 5, seed: 1, profile: {drink_weights: {TEA: 1}}}\n", "unknown drink"},
		{"duplicate", head + "scenarios:\n  - {test_number: 1, name: a, orders: 5, seed: 1}\n  - {test_number: 1, name: b, orders: 5, seed: 2}\n", "defined twice"},
		{"no orders", head + "scenarios:\n  - {test_number: 1, name: a, orders: 0, seed: 1}\n", "orders must be positive"},
		{"zero weights", head + "scenarios:\n  - {test_number: 1, name: a, orders: 5, seed: 1, profile: {drink_weights: {LATTE: 0}}}\n", "all be zero"},
		{"loyalty share", head + "scenarios:\n  - {test_number: 1, name: a, orders: 5, seed: 1, profile: {loyalty_share: 1.5}}\n", "loyalty_share"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestExpand_Deterministic(t *testing.T) {
	c := builtin(t)
	d, err := c.Get(3)
	require.NoError(t, err)

	a, err := c.Expand(d, day)
	require.NoError(t, err)
	b, err := c.Expand(d, day)
	require.NoError(t, err)
	require.Len(t, a, d.Orders)
	assert.Equal(t, a, b)

	assert.Equal(t, "3001", a[0].ID)
	assert.Equal(t, "Test3-Cust1", a[0].Customer)
	assert.Equal(t, "3230", a[len(a)-1].ID)
}

func TestExpand_ArrivalsWithinWindow(t *testing.T) {
	c := builtin(t)
	open := day.Add(7 * time.Hour)
	closing := day.Add(10 * time.Hour)
	for _, d := range c.List() {
		list, err := c.Expand(d, day)
		require.NoError(t, err)
		for i, o := range list {
			assert.False(t, o.ArrivedAt.Before(open))
			assert.False(t, o.ArrivedAt.After(closing))
			assert.Equal(t, orders.StatusWaiting, o.Status)
			if i > 0 {
				assert.False(t, o.ArrivedAt.Before(list[i-1].ArrivedAt), "scenario %d order %d", d.TestNumber, i)
			}
		}
	}
}

func TestExpand_ProfilesShapeTheLoad(t *testing.T) {
	c := builtin(t)
	expand := func(n int) []*orders.Order {
		d, err := c.Get(n)
		require.NoError(t, err)
		list, err := c.Expand(d, day)
		require.NoError(t, err)
		return list
	}
	share := func(list []*orders.Order, match func(*orders.Order) bool) float64 {
		n := 0
		for _, o := range list {
			if match(o) {
				n++
			}
		}
		return float64(n) / float64(len(list))
	}
	loyal := func(o *orders.Order) bool { return o.Loyal }
	espresso := func(o *orders.Order) bool { return o.Drinks[0] == orders.Espresso }

	assert.Greater(t, share(expand(4), loyal), share(expand(1), loyal))
	assert.Greater(t, share(expand(2), espresso), 0.5)

	multi := 0
	for _, o := range expand(6) {
		assert.LessOrEqual(t, len(o.Drinks), 3)
		if len(o.Drinks) > 1 {
			multi++
		}
	}
	assert.Positive(t, multi)
	for _, o := range expand(1) {
		assert.Len(t, o.Drinks, 1)
	}
}
