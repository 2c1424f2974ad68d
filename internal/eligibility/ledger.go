package eligibility

import "strings"

// Reason explains why an eligibility evaluation allowed or denied a spin.
type Reason string

const (
	ReasonMissingUser    Reason = "missing-user"
	ReasonFirstSpin      Reason = "first-spin"
	ReasonFollowBonus    Reason = "follow-bonus"
	ReasonLimitReached   Reason = "limit-reached"
	ReasonFollowRequired Reason = "follow-required"
)

// Result is the outcome of an eligibility evaluation. Denials are normal
// results the caller branches on, not errors.
type Result struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
}

// Record tracks one user's spin usage within the current session.
type Record struct {
	// DisplayName preserves the casing the user first appeared with.
	DisplayName         string `json:"displayName"`
	SpinsUsed           uint   `json:"spinsUsed"`
	BonusUnlocked       bool   `json:"bonusUnlocked"`
	BonusUsed           bool   `json:"bonusUsed"`
	FollowedThisSession bool   `json:"followedThisSession"`
}

// Ledger tracks per-user spin eligibility for the current session.
// It is not safe for concurrent use; the owning service serializes access.
type Ledger struct {
	records map[string]*Record
}

func NewLedger() *Ledger {
	return &Ledger{records: make(map[string]*Record)}
}

// normalizeKey maps a username to its case-insensitive lookup key.
func normalizeKey(userName string) string {
	return strings.ToLower(strings.TrimSpace(userName))
}

// lookup returns the record for userName, lazily creating it.
func (l *Ledger) lookup(userName string) *Record {
	key := normalizeKey(userName)
	rec, ok := l.records[key]
	if !ok {
		rec = &Record{DisplayName: strings.TrimSpace(userName)}
		l.records[key] = rec
	}
	return rec
}

// Evaluate reports whether userName may spin right now, without consuming
// anything. Rules are checked in precedence order.
func (l *Ledger) Evaluate(userName string) Result {
	if normalizeKey(userName) == "" {
		return Result{Allowed: false, Reason: ReasonMissingUser}
	}

	rec := l.lookup(userName)

	switch {
	case rec.SpinsUsed == 0:
		return Result{Allowed: true, Reason: ReasonFirstSpin}
	case rec.SpinsUsed == 1 && rec.BonusUnlocked && !rec.BonusUsed:
		return Result{Allowed: true, Reason: ReasonFollowBonus}
	case rec.SpinsUsed >= 2 || rec.BonusUsed:
		return Result{Allowed: false, Reason: ReasonLimitReached}
	default:
		return Result{Allowed: false, Reason: ReasonFollowRequired}
	}
}

// Consume records that the grant identified by reason has been spent.
// It must be called with the reason a matching Evaluate just returned,
// within the same critical section.
func (l *Ledger) Consume(userName string, reason Reason) {
	if normalizeKey(userName) == "" {
		return
	}

	rec := l.lookup(userName)
	rec.SpinsUsed++
	if reason == ReasonFollowBonus {
		rec.BonusUsed = true
	}
}

// RegisterFollow records a follow event. The bonus unlocks only when the
// user has already spent at least one spin and has not used the bonus;
// an earlier follow is still remembered via FollowedThisSession.
func (l *Ledger) RegisterFollow(userName string) {
	if normalizeKey(userName) == "" {
		return
	}

	rec := l.lookup(userName)
	rec.FollowedThisSession = true
	if rec.SpinsUsed >= 1 && !rec.BonusUsed {
		rec.BonusUnlocked = true
	}
}

// Reset discards every record.
func (l *Ledger) Reset() {
	l.records = make(map[string]*Record)
}

// TrackedUserCount returns how many users have records this session.
func (l *Ledger) TrackedUserCount() int {
	return len(l.records)
}

// Snapshot returns the record for userName, or nil if none exists yet.
func (l *Ledger) Snapshot(userName string) *Record {
	rec, ok := l.records[normalizeKey(userName)]
	if !ok {
		return nil
	}
	copied := *rec
	return &copied
}
