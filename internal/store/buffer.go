package store

import (
	"sync"
	"time"

	"github.com/rcliao/memstore/internal/model"
)

// coalescer batches raw events so several appends share one locked write.
// add reports when the batch is due: at maxItems buffered, or maxAge after
// the FIRST insert of the current batch. The age window is anchored to the
// first insert; a steady trickle cannot postpone the flush indefinitely.
type coalescer struct {
	mu        sync.Mutex
	items     []model.RawEvent
	maxItems  int
	maxAge    time.Duration
	firstItem time.Time

	now func() time.Time // test hook
}

func newCoalescer(maxItems int, maxAge time.Duration) *coalescer {
	return &coalescer{
		maxItems: maxItems,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// add buffers one event and reports whether the batch should be flushed.
func (c *coalescer) add(ev model.RawEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 {
		c.firstItem = c.now()
	}
	c.items = append(c.items, ev)
	return len(c.items) >= c.maxItems || c.now().Sub(c.firstItem) >= c.maxAge
}

// drain returns the buffered events and resets the batch.
func (c *coalescer) drain() []model.RawEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.items
	c.items = nil
	return items
}

// pending reports whether any events are buffered.
func (c *coalescer) pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) > 0
}
