package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cardops/cardtrack/internal/card"
	"github.com/cardops/cardtrack/internal/errs"
)

func seedPair(s *Store) {
	s.SeedCard(card.Card{
		ID: "card-001", PANLastFour: "1234", MobileNumber: "9876543210",
		CustomerName: "John Smith", CurrentStatus: card.StatusDispatched,
		CreatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	s.SeedCard(card.Card{
		ID: "card-002", PANLastFour: "5678", MobileNumber: "8765432109",
		CustomerName: "Priya Sharma", CurrentStatus: card.StatusQualityCheckFailed,
		CreatedAt: time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC),
	})
}

func TestGetCard(t *testing.T) {
	s := New()
	seedPair(s)

	c, err := s.GetCard(context.Background(), "card-001")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if c.CustomerName != "John Smith" {
		t.Fatalf("unexpected card: %+v", c)
	}

	if _, err := s.GetCard(context.Background(), "card-404"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCard_ReturnsCopy(t *testing.T) {
	s := New()
	s.SeedCard(card.Card{
		ID:            "card-001",
		StatusHistory: []card.StatusEvent{{ID: "evt-1", Notes: "original"}},
	})

	c, _ := s.GetCard(context.Background(), "card-001")
	c.StatusHistory[0].Notes = "mutated"

	again, _ := s.GetCard(context.Background(), "card-001")
	if again.StatusHistory[0].Notes != "original" {
		t.Fatalf("caller mutation leaked into the store")
	}
}

func TestFindByIdentifier(t *testing.T) {
	s := New()
	seedPair(s)

	cases := []struct {
		identifier string
		wantID     string
	}{
		{"card-001", "card-001"},
		{"1234", "card-001"},
		{"8765432109", "card-002"},
	}
	for _, tc := range cases {
		c, err := s.FindByIdentifier(context.Background(), tc.identifier)
		if err != nil {
			t.Fatalf("FindByIdentifier(%q): %v", tc.identifier, err)
		}
		if c.ID != tc.wantID {
			t.Fatalf("FindByIdentifier(%q) = %s, want %s", tc.identifier, c.ID, tc.wantID)
		}
	}

	if _, err := s.FindByIdentifier(context.Background(), "0000"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByIdentifier_IDMatchWins(t *testing.T) {
	s := New()
	// a card whose id collides with another card's PAN last four
	s.SeedCard(card.Card{ID: "1234", CustomerName: "Collider"})
	s.SeedCard(card.Card{ID: "card-001", PANLastFour: "1234", CustomerName: "John Smith"})

	c, err := s.FindByIdentifier(context.Background(), "1234")
	if err != nil {
		t.Fatalf("FindByIdentifier: %v", err)
	}
	if c.ID != "1234" {
		t.Fatalf("expected id match to win, got %s", c.ID)
	}
}

func TestFindByIdentifier_NewestWinsAmongDuplicates(t *testing.T) {
	s := New()
	s.SeedCard(card.Card{ID: "card-old", PANLastFour: "1234"})
	s.SeedCard(card.Card{ID: "card-new", PANLastFour: "1234"})

	c, err := s.FindByIdentifier(context.Background(), "1234")
	if err != nil {
		t.Fatalf("FindByIdentifier: %v", err)
	}
	if c.ID != "card-new" {
		t.Fatalf("expected most recent card, got %s", c.ID)
	}
}

func TestListCards(t *testing.T) {
	s := New()
	seedPair(s)

	all, err := s.ListCards(context.Background(), "")
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(all) != 2 || all[0].ID != "card-002" || all[1].ID != "card-001" {
		t.Fatalf("expected newest-first [card-002 card-001], got %+v", all)
	}

	filtered, err := s.ListCards(context.Background(), card.StatusDispatched)
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "card-001" {
		t.Fatalf("unexpected filtered result: %+v", filtered)
	}

	none, err := s.ListCards(context.Background(), card.StatusDestroyed)
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %d", len(none))
	}
}

func TestSearchCards(t *testing.T) {
	s := New()
	seedPair(s)

	cases := []struct {
		query string
		want  []string
	}{
		{"john", []string{"card-001"}},
		{"JOHN", []string{"card-001"}},
		{"card-", []string{"card-002", "card-001"}},
		{"5678", []string{"card-002"}},
		{"987", []string{"card-001"}},
		{"zzz", nil},
	}
	for _, tc := range cases {
		got, err := s.SearchCards(context.Background(), tc.query)
		if err != nil {
			t.Fatalf("SearchCards(%q): %v", tc.query, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("SearchCards(%q) returned %d cards, want %d", tc.query, len(got), len(tc.want))
		}
		for i := range tc.want {
			if got[i].ID != tc.want[i] {
				t.Fatalf("SearchCards(%q)[%d] = %s, want %s", tc.query, i, got[i].ID, tc.want[i])
			}
		}
	}
}

func TestInsertCard(t *testing.T) {
	s := New()

	created, err := s.InsertCard(context.Background(), card.Card{ID: "card-001"})
	if err != nil {
		t.Fatalf("InsertCard: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be set")
	}

	if _, err := s.InsertCard(context.Background(), card.Card{ID: "card-001"}); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate id, got %v", err)
	}
}

func TestAppendEvent(t *testing.T) {
	s := New()
	seedPair(s)

	evt := card.StatusEvent{ID: "evt-x", Status: card.StatusDelivered, StatusType: card.StatusTypeSuccess}
	updated, err := s.AppendEvent(context.Background(), "card-001", evt)
	if err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if updated.CurrentStatus != card.StatusDelivered {
		t.Fatalf("expected current status delivered, got %s", updated.CurrentStatus)
	}
	if n := len(updated.StatusHistory); n != 1 || updated.StatusHistory[n-1].ID != "evt-x" {
		t.Fatalf("unexpected history: %+v", updated.StatusHistory)
	}

	if _, err := s.AppendEvent(context.Background(), "card-404", evt); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendEvent_ConcurrentSameCard(t *testing.T) {
	s := New()
	s.SeedCard(card.Card{ID: "card-001", CurrentStatus: card.StatusCreated})

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			evt := card.StatusEvent{ID: "evt-" + string(rune('a'+i%26)), Status: card.StatusInTransit}
			if _, err := s.AppendEvent(context.Background(), "card-001", evt); err != nil {
				t.Errorf("AppendEvent: %v", err)
			}
		}(i)
	}
	wg.Wait()

	c, err := s.GetCard(context.Background(), "card-001")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if len(c.StatusHistory) != n {
		t.Fatalf("lost events under concurrency: got %d, want %d", len(c.StatusHistory), n)
	}
	if c.CurrentStatus != card.StatusInTransit {
		t.Fatalf("unexpected current status %s", c.CurrentStatus)
	}
}
