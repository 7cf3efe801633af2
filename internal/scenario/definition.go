// Package scenario replays generated morning rushes through a private dispatch
// engine and keeps the resulting records.
package scenario

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"gopkg.in/yaml.v3"
)

//go:embed scenarios.yaml
var builtinDefinitions []byte

var ErrUnknownScenario = errors.New("unknown scenario")

// Profile shapes the synthetic load of one scenario.
type Profile struct {
	ArrivalsPerMinute float64            `yaml:"arrivals_per_minute" json:"arrivals_per_minute"`
	RushFactor        float64            `yaml:"rush_factor" json:"rush_factor"`
	LullChance        float64            `yaml:"lull_chance" json:"lull_chance"`
	LullMinSeconds    int                `yaml:"lull_min_seconds" json:"lull_min_seconds"`
	LullSpreadSeconds int                `yaml:"lull_spread_seconds" json:"lull_spread_seconds"`
	LoyaltyShare      float64            `yaml:"loyalty_share" json:"loyalty_share"`
	MaxDrinks         int                `yaml:"max_drinks" json:"max_drinks"`
	DrinkWeights      map[string]float64 `yaml:"drink_weights" json:"drink_weights"`

	weights []float64 // aligned with orders.Menu
}

type Definition struct {
	TestNumber  int     `json:"test_number"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Orders      int     `json:"orders"`
	Seed        uint64  `json:"seed"`
	Profile     Profile `json:"profile"`
}

type rawScenario struct {
	TestNumber  int       `yaml:"test_number"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Orders      int       `yaml:"orders"`
	Seed        uint64    `yaml:"seed"`
	Profile     yaml.Node `yaml:"profile"`
}

type rawFile struct {
	Version       int           `yaml:"version"`
	Opening       string        `yaml:"opening"`
	WindowMinutes int           `yaml:"window_minutes"`
	Defaults      Profile       `yaml:"defaults"`
	Scenarios     []rawScenario `yaml:"scenarios"`
}

// Catalog is an immutable, validated set of definitions.
type Catalog struct {
	Version int
	Opening time.Duration // offset from midnight
	Window  time.Duration // arrivals never land later than Opening+Window
	defs    []Definition
	byNum   map[int]Definition
}

func Builtin() (*Catalog, error) { return Parse(builtinDefinitions) }

func Parse(data []byte) (*Catalog, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if raw.Version != 1 {
		return nil, fmt.Errorf("unsupported scenarios version %d", raw.Version)
	}
	opening, err := time.Parse("15:04", raw.Opening)
	if err != nil {
		return nil, fmt.Errorf("scenarios opening %q: %w", raw.Opening, err)
	}
	if raw.WindowMinutes <= 0 {
		return nil, fmt.Errorf("scenarios window_minutes must be positive")
	}
	c := &Catalog{
		Version: raw.Version,
		Opening: time.Duration(opening.Hour())*time.Hour + time.Duration(opening.Minute())*time.Minute,
		Window:  time.Duration(raw.WindowMinutes) * time.Minute,
		byNum:   make(map[int]Definition, len(raw.Scenarios)),
	}
	for _, rs := range raw.Scenarios {
		p := raw.Defaults
		p.DrinkWeights = nil
		if !rs.Profile.IsZero() {
			if err := rs.Profile.Decode(&p); err != nil {
				return nil, fmt.Errorf("scenario %d profile: %w", rs.TestNumber, err)
			}
		}
		if p.DrinkWeights == nil {
			p.DrinkWeights = raw.Defaults.DrinkWeights
		}
		d := Definition{
			TestNumber:  rs.TestNumber,
			Name:        rs.Name,
			Description: rs.Description,
			Orders:      rs.Orders,
			Seed:        rs.Seed,
			Profile:     p,
		}
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byNum[d.TestNumber]; dup {
			return nil, fmt.Errorf("scenario %d defined twice", d.TestNumber)
		}
		c.byNum[d.TestNumber] = d
		c.defs = append(c.defs, d)
	}
	sort.Slice(c.defs, func(i, j int) bool { return c.defs[i].TestNumber < c.defs[j].TestNumber })
	return c, nil
}

func (d *Definition) validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("scenario %d: %s", d.TestNumber, fmt.Sprintf(format, args...))
	}
	p := &d.Profile
	switch {
	case d.TestNumber <= 0:
		return fail("test_number must be positive")
	case strings.TrimSpace(d.Name) == "":
		return fail("name is required")
	case d.Orders <= 0:
		return fail("orders must be positive")
	case p.ArrivalsPerMinute <= 0:
		return fail("arrivals_per_minute must be positive")
	case p.RushFactor <= 0:
		return fail("rush_factor must be positive")
	case p.LullChance < 0 || p.LullChance > 1:
		return fail("lull_chance must be within [0,1]")
	case p.LoyaltyShare < 0 || p.LoyaltyShare > 1:
		return fail("loyalty_share must be within [0,1]")
	case p.MaxDrinks < 1:
		return fail("max_drinks must be at least 1")
	case p.LullMinSeconds < 0 || p.LullSpreadSeconds < 0:
		return fail("lull bounds must not be negative")
	}
	for name := range p.DrinkWeights {
		if !orders.DrinkType(name).Valid() {
			return fail("unknown drink %q", name)
		}
	}
	p.weights = make([]float64, len(orders.Menu))
	total := 0.0
	for i, dt := range orders.Menu {
		w := p.DrinkWeights[string(dt)]
		if w < 0 {
			return fail("negative weight for %s", dt)
		}
		p.weights[i] = w
		total += w
	}
	if total <= 0 {
		return fail("drink weights must not all be zero")
	}
	return nil
}

func (c *Catalog) List() []Definition {
	return append([]Definition(nil), c.defs...)
}

func (c *Catalog) Get(testNumber int) (Definition, error) {
	d, ok := c.byNum[testNumber]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %d", ErrUnknownScenario, testNumber)
	}
	return d, nil
}

func (c *Catalog) Numbers() []int {
	out := make([]int, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.TestNumber
	}
	return out
}

// OrderID is the deterministic id of the i-th (zero based) order of a scenario.
func OrderID(testNumber, i int) string { return fmt.Sprint(1000*testNumber + i + 1) }

// Expand generates the scenario's orders for the given day, sorted by arrival. The
// result only depends on the definition, so every call yields the same orders.
func (c *Catalog) Expand(d Definition, day time.Time) ([]*orders.Order, error) {
	y, m, dd := day.Date()
	start := time.Date(y, m, dd, 0, 0, 0, 0, day.Location()).Add(c.Opening)
	limit := int64(c.Window / time.Second)

	p := d.Profile
	rng := rand.New(rand.NewPCG(d.Seed, uint64(d.TestNumber)))
	lambda := p.ArrivalsPerMinute / 60

	out := make([]*orders.Order, 0, d.Orders)
	var offset int64
	for i := 0; i < d.Orders; i++ {
		n := 1
		if p.MaxDrinks > 1 {
			n += rng.IntN(p.MaxDrinks)
		}
		drinks := make([]orders.DrinkType, n)
		for k := range drinks {
			drinks[k] = pickDrink(rng, p.weights)
		}
		loyal := rng.Float64() < p.LoyaltyShare

		gap := int64(-math.Log(1-rng.Float64()) / lambda * p.RushFactor)
		if rng.Float64() < p.LullChance {
			gap += int64(p.LullMinSeconds)
			if p.LullSpreadSeconds > 0 {
				gap += int64(rng.IntN(p.LullSpreadSeconds))
			}
		}
		offset = min(offset+gap, limit)

		customer := fmt.Sprintf("Test%d-Cust%d", d.TestNumber, i+1)
		o, err := orders.New(OrderID(d.TestNumber, i), customer, drinks, loyal, start.Add(time.Duration(offset)*time.Second))
		if err != nil {
			return nil, fmt.Errorf("scenario %d order %d: %w", d.TestNumber, i+1, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func pickDrink(rng *rand.Rand, weights []float64) orders.DrinkType {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return orders.Menu[i]
		}
		r -= w
	}
	// rounding left r at the very top of the range
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return orders.Menu[i]
		}
	}
	return orders.Menu[0]
}
