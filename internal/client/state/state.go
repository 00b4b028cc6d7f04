// Package state holds the client's in-memory view of the backing
// repository: loaded events, per-event RSVP lists, and the signed-in user.
// A periodic autosave snapshots it to disk so an interrupted session can
// resume without refetching everything.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/filex"
	"github.com/eventcall-app/eventcall/internal/logging"
)

const snapshotVersion = 1

// Snapshot is the serialized form of the state written by autosave.
type Snapshot struct {
	Version int                       `json:"version"`
	SavedAt time.Time                 `json:"savedAt"`
	User    *models.PublicUser        `json:"user,omitempty"`
	Events  []*models.Event           `json:"events"`
	RSVPs   map[string][]*models.RSVP `json:"rsvps"`
}

// State is safe for concurrent use.
type State struct {
	mu     sync.RWMutex
	user   *models.PublicUser
	events map[string]*models.Event
	rsvps  map[string][]*models.RSVP
	dirty  bool
}

func New() *State {
	return &State{
		events: make(map[string]*models.Event),
		rsvps:  make(map[string][]*models.RSVP),
	}
}

func (s *State) SetUser(u *models.PublicUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	s.dirty = true
}

func (s *State) User() *models.PublicUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// PutEvent inserts or replaces an event in the cache.
func (s *State) PutEvent(e *models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	s.dirty = true
}

func (s *State) RemoveEvent(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, eventID)
	delete(s.rsvps, eventID)
	s.dirty = true
}

func (s *State) Event(eventID string) (*models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	return e, ok
}

// Events returns the cached events sorted by date, newest first.
func (s *State) Events() []*models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SetRSVPs replaces the cached RSVP list for an event.
func (s *State) SetRSVPs(eventID string, list []*models.RSVP) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rsvps[eventID] = list
	s.dirty = true
}

func (s *State) RSVPs(eventID string) []*models.RSVP {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rsvps[eventID]
}

// Headcount sums attendees plus guests over an event's cached RSVPs.
func (s *State) Headcount(eventID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, r := range s.rsvps[eventID] {
		total += r.Headcount()
	}
	return total
}

func (s *State) snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &Snapshot{
		Version: snapshotVersion,
		SavedAt: time.Now().UTC(),
		User:    s.user,
		RSVPs:   make(map[string][]*models.RSVP, len(s.rsvps)),
	}
	for _, e := range s.events {
		snap.Events = append(snap.Events, e)
	}
	for id, list := range s.rsvps {
		snap.RSVPs[id] = list
	}
	return snap
}

// Save writes the current state to path. A clean state is skipped.
func (s *State) Save(path string) error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	s.dirty = false
	s.mu.Unlock()

	data, err := json.MarshalIndent(s.snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o770); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return filex.WriteFileAtomic(path, data)
}

// Load restores state from a previous snapshot. A missing file is not an
// error; the state simply starts empty.
func (s *State) Load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = snap.User
	s.events = make(map[string]*models.Event, len(snap.Events))
	for _, e := range snap.Events {
		s.events[e.ID] = e
	}
	s.rsvps = snap.RSVPs
	if s.rsvps == nil {
		s.rsvps = make(map[string][]*models.RSVP)
	}
	s.dirty = false
	return nil
}

// Autosave persists the state every interval until the context ends, then
// writes one final snapshot.
func (s *State) Autosave(ctx context.Context, path string, interval time.Duration, logger logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Save(path); err != nil {
				logger.Error(context.Background(), "final autosave failed", "error", err)
			}
			return
		case <-ticker.C:
			if err := s.Save(path); err != nil {
				logger.Error(ctx, "autosave failed", "error", err)
			}
		}
	}
}
