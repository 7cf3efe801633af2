package orders

import (
	"fmt"
	"strings"
	"time"
)

type DrinkType string

const (
	ColdBrew       DrinkType = "COLD_BREW"
	Espresso       DrinkType = "ESPRESSO"
	Americano      DrinkType = "AMERICANO"
	Cappuccino     DrinkType = "CAPPUCCINO"
	Latte          DrinkType = "LATTE"
	SpecialtyMocha DrinkType = "SPECIALTY_MOCHA"
)

type MenuItem struct {
	PrepMinutes int
	PriceRupees int
}

var menu = map[DrinkType]MenuItem{
	ColdBrew:       {PrepMinutes: 1, PriceRupees: 120},
	Espresso:       {PrepMinutes: 2, PriceRupees: 150},
	Americano:      {PrepMinutes: 2, PriceRupees: 140},
	Cappuccino:     {PrepMinutes: 4, PriceRupees: 180},
	Latte:          {PrepMinutes: 4, PriceRupees: 200},
	SpecialtyMocha: {PrepMinutes: 6, PriceRupees: 250},
}

// Menu lists the drinks in the order they are shown to customers.
var Menu = []DrinkType{ColdBrew, Espresso, Americano, Cappuccino, Latte, SpecialtyMocha}

func (d DrinkType) Valid() bool {
	_, ok := menu[d]
	return ok
}

func (d DrinkType) PrepMinutes() int { return menu[d].PrepMinutes }

func (d DrinkType) PriceRupees() int { return menu[d].PriceRupees }

// ParseDrinks maps drink names (case-insensitive) onto the menu.
func ParseDrinks(names []string) ([]DrinkType, error) {
	if len(names) == 0 {
		return nil, &ValidationError{Field: "drinks", Reason: "at least one drink is required"}
	}
	out := make([]DrinkType, 0, len(names))
	for _, n := range names {
		d := DrinkType(strings.ToUpper(strings.TrimSpace(n)))
		if !d.Valid() {
			return nil, &ValidationError{Field: "drinks", Reason: fmt.Sprintf("unknown drink type %q", n)}
		}
		out = append(out, d)
	}
	return out, nil
}

// PrioritySnapshot is the score an order had when it left the queue.
type PrioritySnapshot struct {
	Score  float64 `json:"priority_score"`
	Reason string  `json:"priority_reason"`
}

type Order struct {
	ID          string
	Customer    string
	Drinks      []DrinkType
	Loyal       bool
	ArrivedAt   time.Time
	Status      Status
	StartedAt   time.Time
	CompletedAt time.Time
	Priority    PrioritySnapshot
}

// New validates the submission and returns a WAITING order stamped with arrivedAt.
func New(id, customer string, drinks []DrinkType, loyal bool, arrivedAt time.Time) (*Order, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, &ValidationError{Field: "customer_name", Reason: "must not be empty"}
	}
	if len(drinks) == 0 {
		return nil, &ValidationError{Field: "drinks", Reason: "at least one drink is required"}
	}
	for _, d := range drinks {
		if !d.Valid() {
			return nil, &ValidationError{Field: "drinks", Reason: fmt.Sprintf("unknown drink type %q", d)}
		}
	}
	return &Order{
		ID:        id,
		Customer:  customer,
		Drinks:    append([]DrinkType(nil), drinks...),
		Loyal:     loyal,
		ArrivedAt: arrivedAt,
		Status:    StatusWaiting,
	}, nil
}

// TotalPrep sums the drinks: one barista prepares them one after another.
func (o *Order) TotalPrep() int {
	total := 0
	for _, d := range o.Drinks {
		total += d.PrepMinutes()
	}
	return total
}

func (o *Order) TotalPrice() int {
	total := 0
	for _, d := range o.Drinks {
		total += d.PriceRupees()
	}
	return total
}

// Begin moves the order into service.
func (o *Order) Begin(at time.Time) error {
	if !CanTransition(o.Status, StatusInService) {
		return &ContractViolation{Op: "order.begin", Detail: fmt.Sprintf("order %s is %s", o.ID, o.Status)}
	}
	o.Status = StatusInService
	o.StartedAt = at
	return nil
}

// Finish completes the order. at is clamped so completion never precedes arrival.
func (o *Order) Finish(at time.Time) error {
	if !CanTransition(o.Status, StatusCompleted) {
		return &ContractViolation{Op: "order.finish", Detail: fmt.Sprintf("order %s is %s", o.ID, o.Status)}
	}
	if at.Before(o.ArrivedAt) {
		at = o.ArrivedAt
	}
	o.Status = StatusCompleted
	o.CompletedAt = at
	return nil
}

// Wait is the turnaround from arrival to completion, or to now for unfinished orders.
func (o *Order) Wait(now time.Time) time.Duration {
	end := now
	if o.Status == StatusCompleted {
		end = o.CompletedAt
	}
	if end.Before(o.ArrivedAt) {
		return 0
	}
	return end.Sub(o.ArrivedAt)
}

// Copy returns a detached value safe to hand to other goroutines.
func (o *Order) Copy() Order {
	c := *o
	c.Drinks = append([]DrinkType(nil), o.Drinks...)
	return c
}

func DrinkNames(drinks []DrinkType) []string {
	out := make([]string, len(drinks))
	for i, d := range drinks {
		out[i] = string(d)
	}
	return out
}
