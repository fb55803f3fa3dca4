package memory

// Package memory provides a simple in-memory card store used for development
// and tests. It keeps code paths easy to follow while allowing a real DB to
// be plugged in behind the same interface.

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cardops/cardtrack/internal/card"
	"github.com/cardops/cardtrack/internal/errs"
)

// Store is an in-memory implementation of the card store contract. It is
// guarded by an RWMutex; the write lock serializes appends so concurrent
// updates to the same card can never lose an event or leave CurrentStatus
// stale.
type Store struct {
	mu    sync.RWMutex
	cards map[string]*card.Card
	// order keeps card ids in insertion order; reads iterate it in reverse
	// for newest-first results.
	order []string
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{cards: make(map[string]*card.Card)}
}

// SeedCard inserts a card bypassing validation, for local dev/tests.
func (s *Store) SeedCard(c card.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := c.Clone()
	if _, ok := s.cards[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	s.cards[c.ID] = &cp
}

// Reset clears all state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cards = make(map[string]*card.Card)
	s.order = nil
	s.mu.Unlock()
}

// Ready implements the readiness probe; the memory store is always ready.
func (s *Store) Ready(_ context.Context) error { return nil }

// GetCard returns a card by id.
func (s *Store) GetCard(_ context.Context, id string) (card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[id]
	if !ok {
		return card.Card{}, errs.ErrNotFound
	}
	return c.Clone(), nil
}

// FindByIdentifier resolves an exact match on id, PAN last four, or mobile
// number. An id match wins over the other fields; among PAN/mobile matches
// the most recently created card wins.
func (s *Store) FindByIdentifier(_ context.Context, identifier string) (card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.cards[identifier]; ok {
		return c.Clone(), nil
	}
	for i := len(s.order) - 1; i >= 0; i-- {
		c := s.cards[s.order[i]]
		if c.PANLastFour == identifier || c.MobileNumber == identifier {
			return c.Clone(), nil
		}
	}
	return card.Card{}, errs.ErrNotFound
}

// ListCards returns cards newest-first, optionally filtered by current status.
// An empty status lists everything.
func (s *Store) ListCards(_ context.Context, status card.Status) ([]card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]card.Card, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		c := s.cards[s.order[i]]
		if status != "" && c.CurrentStatus != status {
			continue
		}
		out = append(out, c.Clone())
	}
	return out, nil
}

// SearchCards returns cards matching the free-text query, newest-first. The
// customer name is matched case-insensitively as a substring; id, PAN last
// four, and mobile number are matched as substrings of their exact values.
func (s *Store) SearchCards(_ context.Context, query string) ([]card.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lower := strings.ToLower(query)
	out := make([]card.Card, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		c := s.cards[s.order[i]]
		if strings.Contains(strings.ToLower(c.CustomerName), lower) ||
			strings.Contains(strings.ToLower(c.ID), lower) ||
			strings.Contains(c.PANLastFour, query) ||
			strings.Contains(c.MobileNumber, query) {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

// InsertCard persists a new card. Duplicate ids are rejected.
func (s *Store) InsertCard(_ context.Context, c card.Card) (card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[c.ID]; ok {
		return card.Card{}, errs.ErrConflict
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := c.Clone()
	s.cards[c.ID] = &cp
	s.order = append(s.order, c.ID)
	return cp.Clone(), nil
}

// AppendEvent atomically appends evt to the card's history and sets
// CurrentStatus to the event's status, returning the updated card.
func (s *Store) AppendEvent(_ context.Context, cardID string, evt card.StatusEvent) (card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[cardID]
	if !ok {
		return card.Card{}, errs.ErrNotFound
	}
	c.StatusHistory = append(c.StatusHistory, evt)
	c.CurrentStatus = evt.Status
	return c.Clone(), nil
}
