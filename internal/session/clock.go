package session

import (
	"strconv"
	"time"
)

// Session identifies one bounded window of eligibility tracking.
type Session struct {
	ID        string    `json:"sessionId"`
	StartedAt time.Time `json:"startedAt"`
}

// Clock tracks the single live session. Not safe for concurrent use;
// the owning service serializes access.
type Clock struct {
	current Session
	lastID  int64
}

// NewClock starts the first session immediately.
func NewClock() *Clock {
	c := &Clock{}
	c.current = c.next()
	return c
}

// next issues a session with a strictly increasing id. The id is a
// nanosecond timestamp token; collisions only matter for display, but
// resets must still be distinguishable even within one clock tick.
func (c *Clock) next() Session {
	now := time.Now()
	id := now.UnixNano()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id

	return Session{
		ID:        strconv.FormatInt(id, 10),
		StartedAt: now,
	}
}

// Current returns the live session.
func (c *Clock) Current() Session {
	return c.current
}

// Reset replaces the live session and returns the new one.
func (c *Clock) Reset() Session {
	c.current = c.next()
	return c.current
}
