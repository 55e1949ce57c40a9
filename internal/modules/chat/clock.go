package chat

import (
	"sync"
	"time"
)

// msClock hands out millisecond timestamps that strictly increase across
// calls, so a reply always sorts after the message it answers.
type msClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newMsClock() *msClock { return &msClock{now: time.Now} }

func (c *msClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return time.UnixMilli(ms)
}

var messageClock = newMsClock()
