// Package quota implements the per-user daily request limit for AI tools.
//
// DESIGN: The tracker is a process-local, in-memory counter keyed by user id.
// Entries carry the calendar date they were written on; an entry from an
// earlier date is treated as absent (lazy reset, no sweeper). The counter is
// best-effort by contract: it does not survive restarts and is not shared
// across instances. Check and Increment are separate calls, so two
// near-simultaneous requests from one user can both pass the check — the
// caller increments only once it has decided to proceed.
//
// Tracker is an interface so a horizontally scaled deployment can swap in a
// shared atomically-incrementable counter without changing the contract.
package quota

import (
	"sync"
	"time"
)

// Result is the outcome of a quota check. Remaining is the count left
// after the request being checked (LIMIT - count - 1 when allowed).
type Result struct {
	Allowed   bool
	Remaining int
}

// Tracker limits a user to N requests per calendar day.
type Tracker interface {
	// Check reports whether the user may make one more request today.
	Check(userID string) Result
	// Increment records one request. Called only after the caller has
	// decided to proceed, right before the upstream call opens.
	Increment(userID string)
}

type entry struct {
	count     int
	resetDate string // YYYY-MM-DD, server-local
}

// DailyTracker is the in-memory Tracker implementation.
type DailyTracker struct {
	limit   int
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*entry
}

// Option configures a DailyTracker.
type Option func(*DailyTracker)

// WithClock overrides the time source. Used by tests to cross day boundaries.
func WithClock(now func() time.Time) Option {
	return func(t *DailyTracker) {
		t.now = now
	}
}

// NewDailyTracker creates a tracker allowing limit requests per user per day.
func NewDailyTracker(limit int, opts ...Option) *DailyTracker {
	t := &DailyTracker{
		limit:   limit,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *DailyTracker) today() string {
	return t.now().Format("2006-01-02")
}

// Check implements Tracker.
func (t *DailyTracker) Check(userID string) Result {
	today := t.today()

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[userID]
	if !ok || e.resetDate != today {
		// Fresh day: stale entries count as absent.
		return Result{Allowed: true, Remaining: t.limit - 1}
	}
	if e.count >= t.limit {
		return Result{Allowed: false, Remaining: 0}
	}
	return Result{Allowed: true, Remaining: t.limit - e.count - 1}
}

// Increment implements Tracker.
func (t *DailyTracker) Increment(userID string) {
	today := t.today()

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[userID]
	if !ok || e.resetDate != today {
		t.entries[userID] = &entry{count: 1, resetDate: today}
		return
	}
	e.count++
}
