package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer funnels messages for any topic through one background writer. Publish
// never blocks the caller: when the buffer is full the message is dropped.
type Producer struct {
	w        MessageWriter
	inbox    chan kafka.Message
	stop     chan struct{}
	closeCh  chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex // guards closed against concurrent Publish
	closed   bool
	started  atomic.Bool
	dropped  atomic.Int64
	log      zerolog.Logger
}

func NewProducer(brokers []string, buf int, log zerolog.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, buf, log)
}

func newProducer(w MessageWriter, buf int, log zerolog.Logger) *Producer {
	if buf <= 0 {
		buf = 1024
	}
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		stop:    make(chan struct{}),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

func (p *Producer) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.shutdown()
				return
			case <-p.stop:
				p.shutdown()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.Error().Err(err).Str("topic", m.Topic).Str("key", string(m.Key)).Msg("kafka write failed")
	}
}

// shutdown stops Publish from accepting messages, then drains what it already took.
func (p *Producer) shutdown() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.drain()
}

// drain flushes whatever is already buffered, then closes the writer.
func (p *Producer) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			if err := p.w.Close(); err != nil {
				p.log.Error().Err(err).Msg("kafka writer close")
			}
			return
		}
	}
}

// Publish enqueues a message and reports whether it was accepted.
func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) bool {
	m := kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed || p.stopping() {
		n := p.dropped.Add(1)
		p.log.Warn().Str("topic", topic).Str("key", string(key)).Int64("dropped_total", n).Msg("kafka producer closed, event dropped")
		return false
	}
	select {
	case p.inbox <- m:
		return true
	default:
		n := p.dropped.Add(1)
		p.log.Warn().Str("topic", topic).Str("key", string(key)).Int64("dropped_total", n).Msg("kafka buffer full, event dropped")
		return false
	}
}

func (p *Producer) stopping() bool {
	select {
	case <-p.stop:
		return true
	default:
		return false
	}
}

func (p *Producer) Dropped() int64 { return p.dropped.Load() }

// Close asks the background writer to flush and exit. Safe to call more than once.
func (p *Producer) Close() { p.stopOnce.Do(func() { close(p.stop) }) }

// WaitClosed blocks until the writer has flushed. It returns at once if Start was never called.
func (p *Producer) WaitClosed() {
	if !p.started.Load() {
		return
	}
	<-p.closeCh
}
