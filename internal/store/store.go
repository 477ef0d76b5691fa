// Package store holds the in-memory, ordered, deduplicated message collection
// for one conversation session. Nothing is ever removed: deletes are overlays
// and the whole store is released when the conversation is left.
package store

import (
	"sync"

	"whychat/internal/chat"
)

// Store is an ordered message collection with O(1) lookup by id.
// Mutation is driven by the reconciliation/send/delete pipelines; readers get
// copies via Snapshot. The lock exists for memory-model safety of concurrent
// readers, not to arbitrate between mutators.
type Store struct {
	mu      sync.RWMutex
	entries []chat.Message
	byID    map[string]int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byID: make(map[string]int),
	}
}

// Append adds a message at the end. Returns false without mutating if the id
// is already present.
func (s *Store) Append(m chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[m.ID]; ok {
		return false
	}
	s.byID[m.ID] = len(s.entries)
	s.entries = append(s.entries, m)
	return true
}

// ReplaceAt swaps the entry at index i for m, keeping its position. Returns
// false if the index is out of range or m.ID already names another entry.
func (s *Store) ReplaceAt(i int, m chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.entries) {
		return false
	}
	if j, ok := s.byID[m.ID]; ok && j != i {
		return false
	}
	delete(s.byID, s.entries[i].ID)
	s.byID[m.ID] = i
	s.entries[i] = m
	return true
}

// IndexByID returns the position of the message with the given id.
func (s *Store) IndexByID(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	return i, ok
}

// FirstPendingPlaceholder returns the position of the first placeholder entry
// from the given sender, in current order. First-match only: with several
// outstanding sends from one sender the earliest placeholder wins, regardless
// of content.
func (s *Store) FirstPendingPlaceholder(senderID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, m := range s.entries {
		if m.IsPlaceholder() && m.SenderID == senderID {
			return i, true
		}
	}
	return 0, false
}

// MarkDeleted sets the deleted overlay on the message with the given id.
// Deletion is monotonic: marking an already-deleted message again is a no-op.
// Returns false only if the id is unknown.
func (s *Store) MarkDeleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	s.entries[i].Deleted = true
	return true
}

// Snapshot returns a copy of the entries in current order.
func (s *Store) Snapshot() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chat.Message, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
