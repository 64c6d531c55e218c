package testutil

import (
	"sync"

	"github.com/roach88/asyncpool/internal/model"
)

// SlotClock yields consecutive slots for tests: threads advance first, then
// the period.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SlotClock struct {
	mu      sync.Mutex
	threads uint8
	next    model.Slot
}

// NewSlotClock creates a clock whose first slot is start.
// threads must be positive.
func NewSlotClock(threads uint8, start model.Slot) *SlotClock {
	if threads == 0 {
		panic("SlotClock: threads must be positive")
	}
	return &SlotClock{threads: threads, next: start}
}

// Next returns the current slot and advances the clock.
func (c *SlotClock) Next() model.Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.next
	if c.next.Thread+1 >= c.threads {
		c.next = model.NewSlot(c.next.Period+1, 0)
	} else {
		c.next = model.NewSlot(c.next.Period, c.next.Thread+1)
	}
	return s
}

// Peek returns the slot the next call to Next will return.
func (c *SlotClock) Peek() model.Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}
