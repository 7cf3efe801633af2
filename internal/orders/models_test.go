package orders

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsInvalidSubmissions(t *testing.T) {
	now := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		customer string
		drinks   []DrinkType
		field    string
	}{
		{name: "empty customer", customer: "   ", drinks: []DrinkType{Latte}, field: "customer_name"},
		{name: "no drinks", customer: "Alice", drinks: nil, field: "drinks"},
		{name: "unknown drink", customer: "Alice", drinks: []DrinkType{"FRAPPE"}, field: "drinks"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := New("x", tc.customer, tc.drinks, false, now)
			require.Nil(t, o)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestParseDrinks(t *testing.T) {
	drinks, err := ParseDrinks([]string{"cold_brew", " Latte "})
	require.NoError(t, err)
	assert.Equal(t, []DrinkType{ColdBrew, Latte}, drinks)

	_, err = ParseDrinks([]string{"LATTE", "TEA"})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = ParseDrinks(nil)
	assert.True(t, errors.As(err, &verr))
}

func TestOrder_TotalPrepIsSumOfDrinks(t *testing.T) {
	o, err := New("1", "Bob", []DrinkType{Espresso, Latte, SpecialtyMocha}, false, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 12, o.TotalPrep())
	assert.Equal(t, 600, o.TotalPrice())
}

func TestOrder_TransitionsAreMonotonic(t *testing.T) {
	arrived := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	o, err := New("1", "Carol", []DrinkType{Americano}, true, arrived)
	require.NoError(t, err)

	var cv *ContractViolation
	require.True(t, errors.As(o.Finish(arrived), &cv), "cannot finish a waiting order")

	require.NoError(t, o.Begin(arrived.Add(time.Minute)))
	require.True(t, errors.As(o.Begin(arrived.Add(2*time.Minute)), &cv), "cannot begin twice")

	require.NoError(t, o.Finish(arrived.Add(3*time.Minute)))
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Equal(t, 3*time.Minute, o.Wait(arrived.Add(time.Hour)))
	assert.True(t, errors.As(o.Finish(arrived.Add(4*time.Minute)), &cv), "COMPLETED is terminal")
	assert.False(t, CanTransition(StatusCompleted, StatusWaiting))
}

func TestOrder_CopyDetachesDrinks(t *testing.T) {
	o, err := New("1", "Dan", []DrinkType{Latte}, false, time.Now())
	require.NoError(t, err)
	c := o.Copy()
	c.Drinks[0] = Espresso
	assert.Equal(t, Latte, o.Drinks[0])
}
