// Package payload owns the authoritative ConsoleState for one dev
// session. The store is the only writer; everything handed out is a
// deep copy, and every mutation notifies subscribers with the patch
// that produced it so the broadcast layer can relay the same bytes.
package payload

import (
	"sync"

	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/logging"
	"github.com/grovetools/extdev/protocol"
	"github.com/sirupsen/logrus"
)

// Store holds the canonical session snapshot.
type Store struct {
	mu          sync.RWMutex
	state       *core.ConsoleState
	logger      *logrus.Entry
	subscribers map[int]func(core.UpdatePatch)
	nextID      int
}

// NewStore builds a store seeded with the session's app, store FQDN
// and initial extension payloads.
func NewStore(app *core.App, storeFqdn string, extensions []core.Extension) *Store {
	state := core.NewConsoleState()
	state.Replace(app, storeFqdn, extensions)
	return &Store{
		state:       state,
		logger:      logging.NewLogger("payload-store"),
		subscribers: make(map[int]func(core.UpdatePatch)),
	}
}

// ConnectedPayload returns the full snapshot a newly attached client
// starts from. Any client, regardless of join time, gets a consistent
// baseline.
func (s *Store) ConnectedPayload() protocol.ConnectedPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return protocol.ConnectedPayload{
		App:        s.state.App.Clone(),
		Store:      s.state.Store,
		Extensions: core.CloneExtensions(s.state.Extensions),
	}
}

// Extensions returns a deep copy of the current payload list.
func (s *Store) Extensions() []core.Extension {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.CloneExtensions(s.state.Extensions)
}

// FindExtension returns a copy of the payload for uuid.
func (s *Store) FindExtension(uuid string) (core.Extension, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ext := s.state.FindExtension(uuid)
	if ext == nil {
		return core.Extension{}, false
	}
	return ext.Clone(), true
}

// AppAPIKey returns the api key of the session's app, or "" when no
// app is known yet.
func (s *Store) AppAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.App == nil {
		return ""
	}
	return s.state.App.APIKey
}

// StoreFqdn returns the session's store domain.
func (s *Store) StoreFqdn() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Store
}

// ApplyUpdate merges a patch into the canonical state and notifies
// subscribers with the same patch, not the recomputed state: clients
// apply identical merge logic, so relaying the delta is enough.
// Deltas for unknown uuids are dropped and logged; callers serialize
// overlapping calls.
func (s *Store) ApplyUpdate(patch core.UpdatePatch) {
	if patch.IsEmpty() {
		return
	}

	s.mu.Lock()
	dropped := s.state.ApplyPatch(patch)
	subscribers := make([]func(core.UpdatePatch), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, uuid := range dropped {
		s.logger.WithField("uuid", uuid).Debug("dropped update for unknown extension")
	}

	for _, fn := range subscribers {
		fn(patch)
	}
}

// Subscribe registers a callback invoked with every applied patch and
// returns an unsubscriber removing exactly that callback.
func (s *Store) Subscribe(fn func(core.UpdatePatch)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}
