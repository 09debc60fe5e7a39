package callback

import "sync"

// ChannelObserver forwards events to a channel without blocking the
// publisher. Events are queued and delivered in the order received, so the
// training goroutine never waits on a slow consumer.
type ChannelObserver struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
	out    chan Event
	stop   chan struct{}
	once   sync.Once
}

// NewChannelObserver starts the forwarding goroutine.
func NewChannelObserver() *ChannelObserver {
	c := &ChannelObserver{out: make(chan Event), stop: make(chan struct{})}
	c.cond = sync.NewCond(&c.mu)
	go c.pump()
	return c
}

// Notify implements Observer. Events published after Close are dropped.
func (c *ChannelObserver) Notify(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.queue = append(c.queue, e)
	c.cond.Signal()
	return nil
}

// Events returns the receive side. It is closed after Close once every
// queued event has been delivered.
func (c *ChannelObserver) Events() <-chan Event {
	return c.out
}

// Close stops accepting events.
func (c *ChannelObserver) Close() {
	c.mu.Lock()
	c.closed = true
	c.cond.Signal()
	c.mu.Unlock()
}

// Discard stops accepting events and drops the ones not yet received.
// Events is closed promptly even if nobody is reading it.
func (c *ChannelObserver) Discard() {
	c.mu.Lock()
	c.closed = true
	c.queue = nil
	c.cond.Signal()
	c.mu.Unlock()
	c.once.Do(func() { close(c.stop) })
}

func (c *ChannelObserver) pump() {
	defer close(c.out)
	for {
		c.mu.Lock()
		for len(c.queue) == 0 && !c.closed {
			c.cond.Wait()
		}
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}
		e := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		select {
		case c.out <- e:
		case <-c.stop:
			return
		}
	}
}
