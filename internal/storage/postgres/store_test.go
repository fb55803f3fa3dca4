package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/cardops/cardtrack/internal/card"
	"github.com/cardops/cardtrack/internal/errs"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func applyInitSQL(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Resolve init SQL path relative to this test file so CWD doesn't matter
	_, thisFile, _, _ := runtime.Caller(0)
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../"))
	path := filepath.Join(repoRoot, "db", "migrations", "0001_init.sql")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, string(b)); err != nil {
		t.Fatalf("apply init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `truncate table status_events, cards cascade`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func sampleCard(id, lastFour, mobile string) card.Card {
	return card.Card{
		ID:            id,
		CardNumber:    "****-****-****-" + lastFour,
		PANLastFour:   lastFour,
		CustomerName:  "John Smith",
		MobileNumber:  mobile,
		CardType:      "Platinum Credit",
		CurrentStatus: card.StatusCreated,
		StatusHistory: []card.StatusEvent{{
			ID:         "evt-" + id + "-1",
			Status:     card.StatusCreated,
			Timestamp:  time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
			StatusType: card.StatusTypeInfo,
		}},
		ExpiryDate: "2030-05-31",
		Address: card.Address{
			Line1: "123 Main Street", City: "Mumbai", State: "Maharashtra",
			PostalCode: "400001", Country: "India",
		},
	}
}

func TestStore_CardLifecycle(t *testing.T) {
	dsn := getTestDSN(t)
	s := mustOpen(t, dsn)
	defer s.Close()
	applyInitSQL(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}

	created, err := s.InsertCard(ctx, sampleCard("card-001", "1234", "9876543210"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt from the database")
	}

	if _, err := s.InsertCard(ctx, sampleCard("card-001", "1234", "9876543210")); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate, got %v", err)
	}

	got, err := s.GetCard(ctx, "card-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.StatusHistory) != 1 || got.StatusHistory[0].Status != card.StatusCreated {
		t.Fatalf("unexpected history: %+v", got.StatusHistory)
	}

	if _, err := s.GetCard(ctx, "card-404"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// append moves the current status
	evt := card.StatusEvent{
		ID: "evt-card-001-2", Status: card.StatusDispatched,
		Timestamp: time.Date(2025, 5, 4, 16, 20, 0, 0, time.UTC),
		Location:  "Distribution Center East", StatusType: card.StatusTypeSuccess,
	}
	updated, err := s.AppendEvent(ctx, "card-001", evt)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if updated.CurrentStatus != card.StatusDispatched || len(updated.StatusHistory) != 2 {
		t.Fatalf("unexpected updated card: %+v", updated)
	}

	if _, err := s.AppendEvent(ctx, "card-404", evt); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_LookupAndSearch(t *testing.T) {
	dsn := getTestDSN(t)
	s := mustOpen(t, dsn)
	defer s.Close()
	applyInitSQL(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.InsertCard(ctx, sampleCard("card-001", "1234", "9876543210")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	second := sampleCard("card-002", "5678", "8765432109")
	second.CustomerName = "Priya Sharma"
	second.CurrentStatus = card.StatusInTransit
	second.StatusHistory[0].Status = card.StatusInTransit
	if _, err := s.InsertCard(ctx, second); err != nil {
		t.Fatalf("insert: %v", err)
	}

	for identifier, wantID := range map[string]string{
		"card-001":   "card-001",
		"1234":       "card-001",
		"8765432109": "card-002",
	} {
		c, err := s.FindByIdentifier(ctx, identifier)
		if err != nil {
			t.Fatalf("find %q: %v", identifier, err)
		}
		if c.ID != wantID {
			t.Fatalf("find %q = %s, want %s", identifier, c.ID, wantID)
		}
	}

	all, err := s.ListCards(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(all))
	}

	transit, err := s.ListCards(ctx, card.StatusInTransit)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(transit) != 1 || transit[0].ID != "card-002" {
		t.Fatalf("unexpected filter result: %+v", transit)
	}

	found, err := s.SearchCards(ctx, "priya")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != "card-002" {
		t.Fatalf("unexpected search result: %+v", found)
	}
}
