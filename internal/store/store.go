package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"ac_simulator/internal/model"
)

// Entry is a stored report.
type Entry struct {
	ID         string
	Report     model.SimulationReport
	ComputedAt time.Time
}

// Store holds the most recently computed simulation report in memory.
// It implements simulator.Callback so it can be attached to an engine.
type Store struct {
	mu     sync.RWMutex
	latest Entry
	ok     bool
	now    func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// Add replaces the held report with r under a fresh ID and returns the entry.
func (s *Store) Add(r model.SimulationReport) Entry {
	e := Entry{
		ID:         uuid.NewString(),
		Report:     r,
		ComputedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest, s.ok = e, true
	return e
}

// Latest returns the held entry, if any report has been computed.
func (s *Store) Latest() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.ok
}

func (s *Store) OnReport(r model.SimulationReport) { s.Add(r) }

// OnFailure is a no-op: failed runs leave the store untouched.
func (s *Store) OnFailure(error) {}
