// Package show owns the live show state: eligibility ledger, spin queue,
// session clock, feature flag and latest winner. Every operation runs
// under one mutex, so callers never observe a torn intermediate state.
package show

import (
	"strings"
	"sync"
	"time"

	"github.com/nantokaworks/spinwheel/internal/eligibility"
	"github.com/nantokaworks/spinwheel/internal/session"
	"github.com/nantokaworks/spinwheel/internal/shared/logger"
	"github.com/nantokaworks/spinwheel/internal/spinqueue"
	"github.com/nantokaworks/spinwheel/internal/types"
	"github.com/nantokaworks/spinwheel/internal/winnerhub"
	"go.uber.org/zap"
)

// ReasonFeatureDisabled rejects requests while the spin feature is off.
const ReasonFeatureDisabled = "feature-disabled"

// AttemptResult is the outcome of a spin attempt.
type AttemptResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// EnqueueResult is the outcome of a queue admission request.
type EnqueueResult struct {
	Queued        bool   `json:"queued"`
	Reason        string `json:"reason"`
	QueuePosition int    `json:"queuePosition,omitempty"`
}

// StreamState summarizes the live session for the dashboard.
type StreamState struct {
	SessionID        string    `json:"sessionId"`
	StartedAt        time.Time `json:"startedAt"`
	TrackedUserCount int       `json:"trackedUserCount"`
	SpinEnabled      bool      `json:"spinEnabled"`
}

// Manager serializes all show state transitions. Winner fan-out goes
// through the hub after the state change is committed, in commit order;
// hub publishes never block, so holding the lock across them is safe.
type Manager struct {
	mu     sync.Mutex
	ledger *eligibility.Ledger
	queue  *spinqueue.Queue
	clock  *session.Clock
	hub    *winnerhub.Hub

	spinEnabled bool
}

func NewManager(hub *winnerhub.Hub, spinEnabled bool) *Manager {
	return &Manager{
		ledger:      eligibility.NewLedger(),
		queue:       spinqueue.NewQueue(),
		clock:       session.NewClock(),
		hub:         hub,
		spinEnabled: spinEnabled,
	}
}

// ReportWinner records and publishes a new winner.
func (m *Manager) ReportWinner(hero, userName string) types.WinnerRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := types.WinnerRecord{
		Hero:       strings.TrimSpace(hero),
		UserName:   strings.TrimSpace(userName),
		ReceivedAt: time.Now(),
	}
	m.hub.Publish(record)

	logger.Info("Winner recorded",
		zap.String("hero", record.Hero),
		zap.String("user_name", record.UserName))

	return record
}

// LatestWinner returns the most recent winner, or nil.
func (m *Manager) LatestWinner() *types.WinnerRecord {
	return m.hub.Latest()
}

// SpinEnabled reports the feature flag.
func (m *Manager) SpinEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spinEnabled
}

// SetSpinEnabled flips the feature flag. An already-active queue item is
// unaffected; only new admissions are gated.
func (m *Manager) SetSpinEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.spinEnabled != enabled {
		logger.Info("Spin feature flag changed", zap.Bool("enabled", enabled))
	}
	m.spinEnabled = enabled
}

// Eligibility evaluates userName without consuming anything.
func (m *Manager) Eligibility(userName string) (eligibility.Result, session.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Evaluate(userName), m.clock.Current()
}

// Attempt evaluates userName and consumes the grant when allowed.
func (m *Manager) Attempt(userName string) AttemptResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.spinEnabled {
		return AttemptResult{Allowed: false, Reason: ReasonFeatureDisabled}
	}

	result := m.ledger.Evaluate(userName)
	if !result.Allowed {
		return AttemptResult{Allowed: false, Reason: string(result.Reason)}
	}

	m.ledger.Consume(userName, result.Reason)

	logger.Info("Spin attempt granted",
		zap.String("user_name", userName),
		zap.String("reason", string(result.Reason)))

	return AttemptResult{Allowed: true, Reason: string(result.Reason)}
}

// RegisterFollow records a follow event for userName.
func (m *Manager) RegisterFollow(userName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ledger.RegisterFollow(userName)
	logger.Debug("Follow registered", zap.String("user_name", userName))
}

// Enqueue admits a spin request to the queue. Admission consumes the
// user's eligibility immediately, so duplicate requests cannot
// re-qualify while the first one waits.
func (m *Manager) Enqueue(userName, messageID string) EnqueueResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.spinEnabled {
		return EnqueueResult{Queued: false, Reason: ReasonFeatureDisabled}
	}

	if reason := m.queue.Membership(userName); reason != "" {
		return EnqueueResult{Queued: false, Reason: string(reason)}
	}

	result := m.ledger.Evaluate(userName)
	if !result.Allowed {
		return EnqueueResult{Queued: false, Reason: string(result.Reason)}
	}
	m.ledger.Consume(userName, result.Reason)

	item, position := m.queue.Append(userName, messageID)

	logger.Info("Spin request queued",
		zap.String("user_name", item.UserName),
		zap.String("item_id", item.ID),
		zap.Int("position", position))

	return EnqueueResult{Queued: true, Reason: string(result.Reason), QueuePosition: position}
}

// PromoteNext advances the queue and returns the resulting state.
func (m *Manager) PromoteNext() spinqueue.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := m.queue.PromoteNext()
	if item != nil {
		logger.Debug("Queue item active",
			zap.String("item_id", item.ID),
			zap.String("user_name", item.UserName))
	}
	return m.queue.State()
}

// Complete clears the active item when id matches; stale ids are ignored.
func (m *Manager) Complete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleared := m.queue.Complete(id)
	if cleared {
		logger.Debug("Queue item completed", zap.String("item_id", id))
	}
	return cleared
}

// QueueState returns the current queue contents.
func (m *Manager) QueueState() spinqueue.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.State()
}

// StreamState summarizes the live session.
func (m *Manager) StreamState() StreamState {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.clock.Current()
	return StreamState{
		SessionID:        current.ID,
		StartedAt:        current.StartedAt,
		TrackedUserCount: m.ledger.TrackedUserCount(),
		SpinEnabled:      m.spinEnabled,
	}
}

// CurrentSession returns the live session.
func (m *Manager) CurrentSession() session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock.Current()
}

// ResetSession atomically starts a new session and wipes the ledger, so
// no caller can observe a new session id paired with stale records.
func (m *Manager) ResetSession() session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.clock.Reset()
	m.ledger.Reset()

	logger.Info("Session reset", zap.String("session_id", next.ID))
	return next
}
