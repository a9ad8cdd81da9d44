// Package state holds the daemon's single shared mutable resource: the latest health
// snapshot and the alert bookkeeping derived from it.
//
// Snapshots are swapped atomically, so readers never observe a partially written one.
// Alert and summary bookkeeping sit behind a mutex that is never held across I/O.
package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/minerlab/miner-syncd/pkg/syshealth"
)

// AlertKind identifies an alert condition
type AlertKind int

const (
	AlertNone AlertKind = iota
	AlertProcessDown
	AlertHashrateZero
)

func (k AlertKind) String() string {
	switch k {
	case AlertProcessDown:
		return "process_down"
	case AlertHashrateZero:
		return "hashrate_zero"
	default:
		return "none"
	}
}

// AlertState is a copy of the alert bookkeeping at a point in time
type AlertState struct {
	// LastAlertKind is the most recent alert that fired and whose condition still holds.
	LastAlertKind AlertKind
	LastAlertAt   time.Time
	LastSummaryAt time.Time
}

// State is the shared health state. The zero value is not usable; use New.
type State struct {
	snapshot atomic.Pointer[syshealth.Snapshot]

	mu        sync.Mutex
	firedAt   map[AlertKind]time.Time
	active    map[AlertKind]bool
	pending   map[AlertKind]bool
	lastKind  AlertKind
	lastAt    time.Time
	summaryAt time.Time

	now func() time.Time
}

// New returns a State holding the not-yet-sampled placeholder
func New() *State {
	return NewWithClock(time.Now)
}

// NewWithClock is New with an explicit time source for cooldown and summary bookkeeping
func NewWithClock(now func() time.Time) *State {
	s := &State{
		firedAt: make(map[AlertKind]time.Time),
		active:  make(map[AlertKind]bool),
		pending: make(map[AlertKind]bool),
		now:     now,
	}
	p := syshealth.Placeholder()
	s.snapshot.Store(&p)
	return s
}

// Publish replaces the current snapshot wholesale
func (s *State) Publish(snap syshealth.Snapshot) {
	s.snapshot.Store(&snap)
}

// Read returns the most recently published snapshot, or the placeholder
func (s *State) Read() syshealth.Snapshot {
	return *s.snapshot.Load()
}

// TryFireAlert returns true and records (kind, now) iff no alert of kind fired
// within cooldown of now. It is the only place that decides whether a notification
// for kind may be sent.
func (s *State) TryFireAlert(kind AlertKind, cooldown time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if last, ok := s.firedAt[kind]; ok && now.Sub(last) < cooldown {
		return false
	}
	s.firedAt[kind] = now
	s.pending[kind] = false
	s.lastKind = kind
	s.lastAt = now
	return true
}

// TrackCondition records whether kind currently holds and reports whether the current
// occurrence still awaits its notification. An occurrence starts on the transition into
// the condition and is settled by the next successful TryFireAlert for kind.
func (s *State) TrackCondition(kind AlertKind, holds bool) (pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !holds {
		s.active[kind] = false
		s.pending[kind] = false
		if s.lastKind == kind {
			s.lastKind = AlertNone
		}
		return false
	}

	if !s.active[kind] {
		s.active[kind] = true
		s.pending[kind] = true
	}
	return s.pending[kind]
}

// TryClaimSummary returns true and records now as the last summary time iff more than
// interval has passed since the previous summary (or none was sent yet).
func (s *State) TryClaimSummary(interval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.summaryAt.IsZero() && now.Sub(s.summaryAt) <= interval {
		return false
	}
	s.summaryAt = now
	return true
}

// Alerts returns a copy of the alert bookkeeping
func (s *State) Alerts() AlertState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AlertState{
		LastAlertKind: s.lastKind,
		LastAlertAt:   s.lastAt,
		LastSummaryAt: s.summaryAt,
	}
}
