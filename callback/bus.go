package callback

import (
	"sync"
	"sync/atomic"

	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
)

// Observer receives events from a Bus.
type Observer interface {
	Notify(e Event) error
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(e Event)

// Notify implements Observer.
func (f ObserverFunc) Notify(e Event) error {
	f(e)
	return nil
}

// Publisher is what training code depends on to emit events.
type Publisher interface {
	Publish(e Event)
}

// PublisherFunc adapts a plain function to Publisher.
type PublisherFunc func(e Event)

// Publish implements Publisher.
func (f PublisherFunc) Publish(e Event) { f(e) }

// Bus dispatches events synchronously to observers in registration order.
// It is safe for concurrent Subscribe and Publish.
type Bus struct {
	mu        sync.RWMutex
	observers []Observer
	logger    log.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report failing observers.
func WithLogger(l log.Logger) Option {
	return func(b *Bus) {
		b.logger = l
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.GetLoggerWithName("callback")
	}
	return b
}

// Subscribe registers an observer.
func (b *Bus) Subscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// SubscribeFunc registers a function observer.
func (b *Bus) SubscribeFunc(fn func(Event)) {
	b.Subscribe(ObserverFunc(fn))
}

// Len returns the number of registered observers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers)
}

// Publish delivers e to every observer. Errors and panics raised by an
// observer are logged and do not prevent delivery to the rest.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	observers := make([]Observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.RUnlock()

	for i, o := range observers {
		o := o
		err := errors.SafeExecute("callback.Notify", func() error {
			return o.Notify(e)
		})
		if err != nil {
			b.logger.Warn("observer failed",
				log.ErrAttrKey, err,
				log.EventKey, string(e.Type),
				log.ErrorCodeKey, log.ErrorObserver,
				"observer.index", i,
			)
		}
	}
}

// RunPublisher stamps a run id and a sequence number on every event before
// forwarding it. One RunPublisher is used per training run.
type RunPublisher struct {
	next  Publisher
	runID string
	seq   atomic.Uint64
}

// NewRunPublisher wraps next for the run identified by runID.
// A nil next yields a publisher that discards events.
func NewRunPublisher(next Publisher, runID string) *RunPublisher {
	return &RunPublisher{next: next, runID: runID}
}

// RunID returns the run identifier.
func (p *RunPublisher) RunID() string { return p.runID }

// Publish implements Publisher.
func (p *RunPublisher) Publish(e Event) {
	e.RunID = p.runID
	e.Seq = p.seq.Add(1)
	if p.next != nil {
		p.next.Publish(e)
	}
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}
