package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const sendTimeout = 3 * time.Second

// Sink delivers events to an external broker.
type Sink interface {
	Name() string
	Send(ctx context.Context, e Event) error
	Close() error
}

// Forwarder is a Publisher that hands events to a Sink on its own goroutine
// so a slow broker never blocks a request. Events are dropped when the
// buffer is full.
type Forwarder struct {
	sink Sink
	ch   chan Event
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewForwarder(sink Sink, buffer int) *Forwarder {
	if buffer <= 0 {
		buffer = 64
	}
	f := &Forwarder{
		sink: sink,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	go f.loop()
	return f
}

func (f *Forwarder) Publish(e Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	select {
	case f.ch <- e:
	default:
		log.Warn().Str("sink", f.sink.Name()).Str("type", e.Type).Msg("feed: forwarder buffer full, event dropped")
	}
}

// Close drains pending events and closes the sink.
func (f *Forwarder) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	close(f.ch)
	f.mu.Unlock()

	<-f.done
	return f.sink.Close()
}

func (f *Forwarder) loop() {
	defer close(f.done)
	for e := range f.ch {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := f.sink.Send(ctx, e); err != nil {
			log.Warn().Err(err).Str("sink", f.sink.Name()).Str("type", e.Type).Msg("feed: forward failed")
		}
		cancel()
	}
}
