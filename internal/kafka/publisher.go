package kafka

import (
	"github.com/ariefcatur/go-barista-dispatch/internal/dispatch"
	"github.com/ariefcatur/go-barista-dispatch/internal/orders"
	"github.com/ariefcatur/go-barista-dispatch/internal/scenario"
	"github.com/segmentio/kafka-go"
)

// Sink accepts encoded messages. *Producer is the production Sink.
type Sink interface {
	Publish(topic string, key, value []byte, headers ...kafka.Header) bool
}

// Publisher turns dispatch events and scenario records into v1 envelopes.
type Publisher struct {
	sink    Sink
	service string
}

func NewPublisher(sink Sink, service string) *Publisher {
	return &Publisher{sink: sink, service: service}
}

// Observe is a dispatch.Listener. It runs on the dispatch goroutine, so it only
// encodes and hands off.
func (p *Publisher) Observe(ev dispatch.Event) {
	o := ev.Order
	var (
		topic, eventType string
		payload          any
	)
	switch ev.Type {
	case dispatch.EventPlaced:
		topic, eventType = orders.TopicOrderPlaced, orders.EventOrderPlaced
		payload = orders.OrderPlacedPayload{
			OrderID:   o.ID,
			Customer:  o.Customer,
			Drinks:    orders.DrinkNames(o.Drinks),
			Loyal:     o.Loyal,
			ArrivedAt: o.ArrivedAt,
		}
	case dispatch.EventDispatched:
		topic, eventType = orders.TopicOrderDispatched, orders.EventOrderDispatched
		payload = orders.OrderDispatchedPayload{
			OrderID:   o.ID,
			BaristaID: ev.BaristaID,
			StartedAt: o.StartedAt,
			BusyUntil: ev.BusyUntil,
			Priority:  o.Priority,
		}
	case dispatch.EventCompleted:
		topic, eventType = orders.TopicOrderCompleted, orders.EventOrderCompleted
		payload = orders.OrderCompletedPayload{
			OrderID:     o.ID,
			Customer:    o.Customer,
			Drinks:      orders.DrinkNames(o.Drinks),
			Loyal:       o.Loyal,
			BaristaID:   ev.BaristaID,
			ArrivedAt:   o.ArrivedAt,
			StartedAt:   o.StartedAt,
			CompletedAt: o.CompletedAt,
			WaitSeconds: ev.Wait.Seconds(),
			PriceRupees: o.TotalPrice(),
			Priority:    o.Priority,
		}
	case dispatch.EventSLAWarning, dispatch.EventSLABreached:
		topic, eventType = orders.TopicSLAAlert, orders.EventSLAWarning
		level := "WARNING"
		if ev.Type == dispatch.EventSLABreached {
			eventType, level = orders.EventSLABreached, "BREACHED"
		}
		payload = orders.SLAAlertPayload{
			OrderID:     o.ID,
			Customer:    o.Customer,
			Level:       level,
			WaitSeconds: ev.Wait.Seconds(),
		}
	default:
		return
	}
	env := Wrap(eventType, p.service, o.ID, ev.At, payload)
	p.sink.Publish(topic, orders.PartitionKey(o.ID), MustMarshal(env), Headers(eventType)...)
}

func (p *Publisher) ScenarioRecorded(rec scenario.Record) {
	env := Wrap(orders.EventScenarioRecorded, p.service, rec.RunID, rec.RanAt, orders.ScenarioRecordedPayload{
		RunID:          rec.RunID,
		TestNumber:     rec.TestNumber,
		TotalOrders:    rec.TotalOrders,
		AvgWaitMinutes: rec.AvgWaitMinutes,
		MaxWaitMinutes: rec.MaxWaitMinutes,
		SLAViolations:  rec.SLAViolations,
		BaristaCounts:  rec.BaristaCounts,
	})
	p.sink.Publish(orders.TopicScenarioRecorded, []byte(rec.RunID), MustMarshal(env), Headers(orders.EventScenarioRecorded)...)
}
