package show

import (
	"sync"
	"testing"

	"github.com/nantokaworks/spinwheel/internal/winnerhub"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(winnerhub.NewHub(), true)
}

func TestAttempt_FullLifecycle(t *testing.T) {
	m := newTestManager(t)

	steps := []struct {
		action  string
		allowed bool
		reason  string
	}{
		{"attempt", true, "first-spin"},
		{"attempt", false, "follow-required"},
		{"follow", false, ""},
		{"attempt", true, "follow-bonus"},
		{"attempt", false, "limit-reached"},
	}

	for i, step := range steps {
		if step.action == "follow" {
			m.RegisterFollow("alice")
			continue
		}
		result := m.Attempt("alice")
		if result.Allowed != step.allowed || result.Reason != step.reason {
			t.Fatalf("step %d mismatch: got=%+v want allowed=%v reason=%q",
				i, result, step.allowed, step.reason)
		}
	}
}

func TestAttempt_FeatureDisabled(t *testing.T) {
	m := newTestManager(t)
	m.SetSpinEnabled(false)

	result := m.Attempt("alice")
	if result.Allowed {
		t.Fatalf("attempt should fail while the feature is off")
	}
	if result.Reason != ReasonFeatureDisabled {
		t.Fatalf("unexpected reason: got=%q want=%q", result.Reason, ReasonFeatureDisabled)
	}

	// The denial must not consume anything.
	m.SetSpinEnabled(true)
	again := m.Attempt("alice")
	if !again.Allowed || again.Reason != "first-spin" {
		t.Fatalf("first spin should survive a disabled-phase denial: got=%+v", again)
	}
}

func TestEnqueue_ConsumesOnAdmission(t *testing.T) {
	m := newTestManager(t)

	first := m.Enqueue("alice", "m1")
	if !first.Queued || first.Reason != "first-spin" || first.QueuePosition != 1 {
		t.Fatalf("first enqueue mismatch: got=%+v", first)
	}

	// Duplicate while waiting.
	dup := m.Enqueue("Alice", "m2")
	if dup.Queued || dup.Reason != "already-queued" {
		t.Fatalf("duplicate enqueue mismatch: got=%+v", dup)
	}

	state := m.PromoteNext()
	if state.Active == nil || state.Active.UserName != "alice" {
		t.Fatalf("promotion mismatch: got=%+v", state.Active)
	}

	// Duplicate while active.
	dupActive := m.Enqueue("alice", "m3")
	if dupActive.Queued || dupActive.Reason != "already-active" {
		t.Fatalf("active duplicate mismatch: got=%+v", dupActive)
	}

	if !m.Complete(state.Active.ID) {
		t.Fatalf("completion of the active item should succeed")
	}

	// Admission consumed the first spin, so re-enqueue needs the bonus.
	denied := m.Enqueue("alice", "m4")
	if denied.Queued || denied.Reason != "follow-required" {
		t.Fatalf("re-enqueue should hit eligibility: got=%+v", denied)
	}

	m.RegisterFollow("alice")
	bonus := m.Enqueue("alice", "m5")
	if !bonus.Queued || bonus.Reason != "follow-bonus" {
		t.Fatalf("bonus enqueue mismatch: got=%+v", bonus)
	}
}

func TestEnqueue_FeatureDisabled(t *testing.T) {
	m := newTestManager(t)
	m.SetSpinEnabled(false)

	result := m.Enqueue("alice", "")
	if result.Queued || result.Reason != ReasonFeatureDisabled {
		t.Fatalf("unexpected result: got=%+v", result)
	}
}

func TestPromoteNext_NeverTwoActiveItems(t *testing.T) {
	m := newTestManager(t)

	m.Enqueue("alice", "")
	m.Enqueue("bob", "")

	first := m.PromoteNext()
	second := m.PromoteNext()

	if first.Active == nil || second.Active == nil {
		t.Fatalf("active item should exist after promotion")
	}
	if first.Active.ID != second.Active.ID {
		t.Fatalf("two distinct active items without completion: %q vs %q",
			first.Active.ID, second.Active.ID)
	}

	m.Complete(first.Active.ID)

	third := m.PromoteNext()
	if third.Active == nil || third.Active.UserName != "bob" {
		t.Fatalf("next item should be promoted after completion: got=%+v", third.Active)
	}
}

func TestComplete_StaleIDLeavesStateUnchanged(t *testing.T) {
	m := newTestManager(t)

	m.Enqueue("alice", "")
	state := m.PromoteNext()

	if m.Complete("bogus") {
		t.Fatalf("stale id should be ignored")
	}

	after := m.QueueState()
	if after.Active == nil || after.Active.ID != state.Active.ID {
		t.Fatalf("active item should be untouched: got=%+v", after.Active)
	}
}

func TestResetSession_RestartsEligibility(t *testing.T) {
	m := newTestManager(t)

	m.Attempt("alice")
	m.Attempt("bob")

	before := m.StreamState()
	if before.TrackedUserCount != 2 {
		t.Fatalf("unexpected tracked count: got=%d want=2", before.TrackedUserCount)
	}

	next := m.ResetSession()
	if next.ID == before.SessionID {
		t.Fatalf("reset should issue a new session id")
	}

	after := m.StreamState()
	if after.TrackedUserCount != 0 {
		t.Fatalf("reset should wipe the ledger: got=%d", after.TrackedUserCount)
	}

	result := m.Attempt("alice")
	if !result.Allowed || result.Reason != "first-spin" {
		t.Fatalf("post-reset attempt mismatch: got=%+v", result)
	}
}

func TestReportWinner_PublishesToHub(t *testing.T) {
	hub := winnerhub.NewHub()
	m := NewManager(hub, true)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	record := m.ReportWinner(" IRON MAN ", " alice ")
	if record.Hero != "IRON MAN" || record.UserName != "alice" {
		t.Fatalf("fields should be trimmed: got=%+v", record)
	}

	got := <-sub.C
	if got.Hero != "IRON MAN" {
		t.Fatalf("hub should receive the published record: got=%+v", got)
	}

	latest := m.LatestWinner()
	if latest == nil || latest.Hero != "IRON MAN" {
		t.Fatalf("latest winner mismatch: got=%+v", latest)
	}
}

func TestManager_ConcurrentMutations(t *testing.T) {
	m := newTestManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Enqueue("alice", "")
			m.PromoteNext()
			m.QueueState()
			m.StreamState()
		}()
	}
	wg.Wait()

	// Exactly one admission can have succeeded before promotion.
	state := m.QueueState()
	outstanding := len(state.Waiting)
	if state.Active != nil {
		outstanding++
	}
	if outstanding != 1 {
		t.Fatalf("alice should hold exactly one outstanding item: got=%d", outstanding)
	}
}
