package spinqueue

import "testing"

func TestAppend_PreservesArrivalOrder(t *testing.T) {
	q := NewQueue()

	_, pos1 := q.Append("alice", "m1")
	_, pos2 := q.Append("bob", "m2")
	_, pos3 := q.Append("carol", "")

	if pos1 != 1 || pos2 != 2 || pos3 != 3 {
		t.Fatalf("unexpected positions: got=%d,%d,%d", pos1, pos2, pos3)
	}

	state := q.State()
	if state.Active != nil {
		t.Fatalf("nothing should be active before promotion")
	}
	if len(state.Waiting) != 3 {
		t.Fatalf("unexpected waiting length: got=%d want=3", len(state.Waiting))
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if state.Waiting[i].UserName != want {
			t.Fatalf("FIFO order broken at %d: got=%q want=%q", i, state.Waiting[i].UserName, want)
		}
	}
}

func TestMembership_AcrossWaitingAndActive(t *testing.T) {
	q := NewQueue()

	q.Append("Alice", "")

	if reason := q.Membership("alice"); reason != ReasonAlreadyQueued {
		t.Fatalf("unexpected membership: got=%q want=%q", reason, ReasonAlreadyQueued)
	}

	q.PromoteNext()

	if reason := q.Membership("ALICE"); reason != ReasonAlreadyActive {
		t.Fatalf("unexpected membership: got=%q want=%q", reason, ReasonAlreadyActive)
	}
	if reason := q.Membership("bob"); reason != "" {
		t.Fatalf("bob should have no outstanding item: got=%q", reason)
	}
}

func TestPromoteNext_SingleActiveItem(t *testing.T) {
	q := NewQueue()

	first, _ := q.Append("alice", "")
	q.Append("bob", "")

	active := q.PromoteNext()
	if active == nil || active.ID != first.ID {
		t.Fatalf("head of queue should be promoted: got=%+v", active)
	}

	// A second promotion while one item is active is a no-op.
	again := q.PromoteNext()
	if again == nil || again.ID != first.ID {
		t.Fatalf("promotion should be idempotent while active: got=%+v", again)
	}

	state := q.State()
	if len(state.Waiting) != 1 || state.Waiting[0].UserName != "bob" {
		t.Fatalf("waiting should still hold bob: got=%+v", state.Waiting)
	}
}

func TestPromoteNext_EmptyQueue(t *testing.T) {
	q := NewQueue()

	if item := q.PromoteNext(); item != nil {
		t.Fatalf("empty queue should promote nothing: got=%+v", item)
	}
}

func TestComplete_IgnoresStaleID(t *testing.T) {
	q := NewQueue()

	item, _ := q.Append("alice", "")
	q.PromoteNext()

	if q.Complete("no-such-id") {
		t.Fatalf("stale completion id should be ignored")
	}
	if q.State().Active == nil {
		t.Fatalf("active item should survive a stale completion")
	}

	if !q.Complete(item.ID) {
		t.Fatalf("matching completion id should clear the active item")
	}
	if q.State().Active != nil {
		t.Fatalf("active slot should be empty after completion")
	}

	// Duplicate completion signal from a lagging display.
	if q.Complete(item.ID) {
		t.Fatalf("duplicate completion should be a no-op")
	}
}

func TestComplete_AllowsReenqueue(t *testing.T) {
	q := NewQueue()

	item, _ := q.Append("alice", "")
	q.PromoteNext()
	q.Complete(item.ID)

	if reason := q.Membership("alice"); reason != "" {
		t.Fatalf("completed user should be free to enqueue again: got=%q", reason)
	}

	next := q.PromoteNext()
	if next != nil {
		t.Fatalf("no waiting items should mean no new active item: got=%+v", next)
	}
}
