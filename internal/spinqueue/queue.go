package spinqueue

import (
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Reason explains an enqueue rejection caused by queue membership rules.
type Reason string

const (
	ReasonAlreadyQueued Reason = "already-queued"
	ReasonAlreadyActive Reason = "already-active"
)

// Item is one admitted spin request.
type Item struct {
	ID         string    `json:"id"`
	UserName   string    `json:"userName"`
	MessageID  string    `json:"messageId,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// State is a point-in-time view of the queue.
type State struct {
	Active  *Item  `json:"activeItem"`
	Waiting []Item `json:"waiting"`
}

// Queue is a single-active-item FIFO admission queue. It enforces
// membership and ordering only; eligibility checks belong to the caller.
// Not safe for concurrent use; the owning service serializes access.
type Queue struct {
	active  *Item
	waiting []Item
}

func NewQueue() *Queue {
	return &Queue{}
}

func userKey(userName string) string {
	return strings.ToLower(strings.TrimSpace(userName))
}

// Membership reports whether userName already holds an outstanding item,
// and where. The zero Reason means no outstanding item.
func (q *Queue) Membership(userName string) Reason {
	key := userKey(userName)
	if q.active != nil && userKey(q.active.UserName) == key {
		return ReasonAlreadyActive
	}
	for _, item := range q.waiting {
		if userKey(item.UserName) == key {
			return ReasonAlreadyQueued
		}
	}
	return ""
}

// Append admits userName to the tail of the waiting sequence and returns
// the new item with its 1-based position. The caller must have checked
// Membership and eligibility beforehand.
func (q *Queue) Append(userName, messageID string) (Item, int) {
	id, err := gonanoid.New()
	if err != nil {
		// gonanoid only fails when the OS entropy source does; fall back
		// to a time-derived id rather than refusing the request.
		id = time.Now().UTC().Format("20060102150405.000000000")
	}

	item := Item{
		ID:         id,
		UserName:   strings.TrimSpace(userName),
		MessageID:  messageID,
		EnqueuedAt: time.Now(),
	}
	q.waiting = append(q.waiting, item)
	return item, len(q.waiting)
}

// PromoteNext moves the head of the waiting sequence into the active slot.
// If an item is already active it is returned unchanged, so repeated calls
// while the display is busy are harmless. Returns nil when there is
// nothing to promote.
func (q *Queue) PromoteNext() *Item {
	if q.active != nil {
		return q.active
	}
	if len(q.waiting) == 0 {
		return nil
	}

	item := q.waiting[0]
	q.waiting = q.waiting[1:]
	q.active = &item
	return q.active
}

// Complete clears the active slot when id matches the active item.
// A stale or duplicate id is ignored. Reports whether state changed.
func (q *Queue) Complete(id string) bool {
	if q.active == nil || q.active.ID != id {
		return false
	}
	q.active = nil
	return true
}

// State returns a copy of the current queue contents.
func (q *Queue) State() State {
	state := State{Waiting: make([]Item, len(q.waiting))}
	copy(state.Waiting, q.waiting)
	if q.active != nil {
		active := *q.active
		state.Active = &active
	}
	return state
}
