package sweep

import "sync"

// Channel is a bounded FIFO hand-off between one producer and one consumer.
//
// Close is the end-of-stream marker: it is queued behind every pushed item,
// can be issued only once and never blocks, even on a full buffer. Pop
// reports ok == false only after the buffer has drained and Close was called.
type Channel[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	buf       []T
	head      int
	count     int
	highWater int
	closed    bool
}

// NewChannel creates a channel holding at most capacity items.
func NewChannel[T any](capacity int) (*Channel[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	c := &Channel[T]{buf: make([]T, capacity)}
	c.notEmpty = sync.NewCond(&c.mu)
	c.notFull = sync.NewCond(&c.mu)
	return c, nil
}

// Push appends v, blocking while the channel is full. It returns
// ErrChannelClosed if the channel has been closed.
func (c *Channel[T]) Push(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.count == len(c.buf) && !c.closed {
		c.notFull.Wait()
	}
	if c.closed {
		return ErrChannelClosed
	}

	c.buf[(c.head+c.count)%len(c.buf)] = v
	c.count++
	if c.count > c.highWater {
		c.highWater = c.count
	}
	c.notEmpty.Signal()
	return nil
}

// Pop removes and returns the oldest item, blocking while the channel is
// empty and open. ok is false once the channel is closed and drained.
func (c *Channel[T]) Pop() (v T, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.count == 0 && !c.closed {
		c.notEmpty.Wait()
	}
	if c.count == 0 {
		return v, false
	}

	var zero T
	v = c.buf[c.head]
	c.buf[c.head] = zero
	c.head = (c.head + 1) % len(c.buf)
	c.count--
	c.notFull.Signal()
	return v, true
}

// Close marks the end of the stream. It returns false if the channel was
// already closed.
func (c *Channel[T]) Close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.closed = true
	c.notEmpty.Broadcast()
	c.notFull.Broadcast()
	return true
}

// Len returns the number of queued items.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Cap returns the capacity the channel was created with.
func (c *Channel[T]) Cap() int {
	return len(c.buf)
}

// HighWater returns the largest number of items queued at once.
func (c *Channel[T]) HighWater() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highWater
}

// Closed reports whether Close has been called.
func (c *Channel[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
