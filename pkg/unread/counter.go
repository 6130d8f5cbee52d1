// Package unread keeps the admin's per-guest inbox badge. This is a
// separate notion of "unread" from Message.IsRead: the badge clears when
// the admin opens a conversation (an explicit viewing action), regardless
// of whether any per-message read-marking write succeeds. The two must not
// be conflated.
package unread

import "sync"

// Counter maps guest username to the number of guest-sent messages that
// arrived while that conversation was not open. It lives in admin-session
// memory; at session start it is seeded from a watermark query and live
// insert events keep it current.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Bootstrap seeds the counter from the session-start historical query.
func (c *Counter) Bootstrap(counts map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for guest, n := range counts {
		if n > 0 {
			c.counts[guest] = n
		}
	}
}

// Bump records one new guest-sent message for a conversation that is not
// currently open.
func (c *Counter) Bump(guest string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[guest]++
}

// Clear zeroes the badge for a guest. Called unconditionally when the
// conversation is opened, before and independent of any read-marking
// store write.
func (c *Counter) Clear(guest string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, guest)
}

// Toggle flips the badge by hand: a non-zero count clears, a zero count
// becomes one. Returns true when the guest is now marked unread.
func (c *Counter) Toggle(guest string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[guest] > 0 {
		delete(c.counts, guest)
		return false
	}
	c.counts[guest] = 1
	return true
}

func (c *Counter) Count(guest string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[guest]
}

func (c *Counter) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for guest, n := range c.counts {
		out[guest] = n
	}
	return out
}
