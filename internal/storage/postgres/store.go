package postgres

// Package postgres provides a pgx-backed card store that satisfies the
// repository interfaces used by the HTTP layer and services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. This package focuses on mapping between
// the domain entities and SQL rows and running the necessary transactions.

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardops/cardtrack/internal/card"
	"github.com/cardops/cardtrack/internal/errs"
)

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

const cardColumns = `id, card_number, pan_last_four, customer_name, mobile_number, card_type,
    current_status, issue_date, expiry_date,
    address_line1, address_line2, city, state, postal_code, country, created_at`

func scanCard(row pgx.Row) (card.Card, error) {
	var c card.Card
	err := row.Scan(&c.ID, &c.CardNumber, &c.PANLastFour, &c.CustomerName, &c.MobileNumber,
		&c.CardType, &c.CurrentStatus, &c.IssueDate, &c.ExpiryDate,
		&c.Address.Line1, &c.Address.Line2, &c.Address.City, &c.Address.State,
		&c.Address.PostalCode, &c.Address.Country, &c.CreatedAt)
	return c, err
}

// GetCard returns a card with its full status history.
func (s *Store) GetCard(ctx context.Context, id string) (card.Card, error) {
	c, err := scanCard(s.pool.QueryRow(ctx, `
        select `+cardColumns+`
        from cards
        where id = $1
    `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return card.Card{}, errs.ErrNotFound
	}
	if err != nil {
		return card.Card{}, storageErr(err)
	}
	if err := s.loadHistory(ctx, &c); err != nil {
		return card.Card{}, storageErr(err)
	}
	return c, nil
}

// FindByIdentifier resolves an exact match on id, PAN last four, or mobile
// number. An id match wins; otherwise the most recently created match wins.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (card.Card, error) {
	c, err := scanCard(s.pool.QueryRow(ctx, `
        select `+cardColumns+`
        from cards
        where id = $1 or pan_last_four = $1 or mobile_number = $1
        order by (id = $1) desc, created_at desc
        limit 1
    `, identifier))
	if errors.Is(err, pgx.ErrNoRows) {
		return card.Card{}, errs.ErrNotFound
	}
	if err != nil {
		return card.Card{}, storageErr(err)
	}
	if err := s.loadHistory(ctx, &c); err != nil {
		return card.Card{}, storageErr(err)
	}
	return c, nil
}

// ListCards returns cards newest-first, optionally filtered by current status.
func (s *Store) ListCards(ctx context.Context, status card.Status) ([]card.Card, error) {
	rows, err := s.pool.Query(ctx, `
        select `+cardColumns+`
        from cards
        where $1 = '' or current_status = $1
        order by created_at desc, id desc
    `, string(status))
	if err != nil {
		return nil, storageErr(err)
	}
	return s.collectCards(ctx, rows)
}

// SearchCards matches the free-text query against customer name (case
// insensitive), id, PAN last four, and mobile number, newest-first.
func (s *Store) SearchCards(ctx context.Context, query string) ([]card.Card, error) {
	pattern := "%" + query + "%"
	rows, err := s.pool.Query(ctx, `
        select `+cardColumns+`
        from cards
        where customer_name ilike $1
           or id ilike $1
           or pan_last_four like $1
           or mobile_number like $1
        order by created_at desc, id desc
    `, pattern)
	if err != nil {
		return nil, storageErr(err)
	}
	return s.collectCards(ctx, rows)
}

// InsertCard persists a new card and its initial history events.
func (s *Store) InsertCard(ctx context.Context, c card.Card) (card.Card, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return card.Card{}, storageErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
        insert into cards (id, card_number, pan_last_four, customer_name, mobile_number,
            card_type, current_status, issue_date, expiry_date,
            address_line1, address_line2, city, state, postal_code, country)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        returning created_at
    `, c.ID, c.CardNumber, c.PANLastFour, c.CustomerName, c.MobileNumber,
		c.CardType, c.CurrentStatus, c.IssueDate, c.ExpiryDate,
		c.Address.Line1, c.Address.Line2, c.Address.City, c.Address.State,
		c.Address.PostalCode, c.Address.Country).Scan(&c.CreatedAt)
	if isUniqueViolation(err) {
		return card.Card{}, errs.ErrConflict
	}
	if err != nil {
		return card.Card{}, storageErr(err)
	}
	for _, evt := range c.StatusHistory {
		if err := insertEvent(ctx, tx, c.ID, evt); err != nil {
			return card.Card{}, storageErr(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return card.Card{}, storageErr(err)
	}
	return c, nil
}

// AppendEvent appends evt to the card's history and sets current_status, in a
// single transaction. The card row is locked for update so concurrent appends
// to the same card serialize instead of losing events.
func (s *Store) AppendEvent(ctx context.Context, cardID string, evt card.StatusEvent) (card.Card, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return card.Card{}, storageErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing string
	err = tx.QueryRow(ctx, `select id from cards where id = $1 for update`, cardID).Scan(&existing)
	if errors.Is(err, pgx.ErrNoRows) {
		return card.Card{}, errs.ErrNotFound
	}
	if err != nil {
		return card.Card{}, storageErr(err)
	}
	if err := insertEvent(ctx, tx, cardID, evt); err != nil {
		return card.Card{}, storageErr(err)
	}
	if _, err := tx.Exec(ctx, `update cards set current_status = $1 where id = $2`, evt.Status, cardID); err != nil {
		return card.Card{}, storageErr(err)
	}
	c, err := scanCard(tx.QueryRow(ctx, `select `+cardColumns+` from cards where id = $1`, cardID))
	if err != nil {
		return card.Card{}, storageErr(err)
	}
	c.StatusHistory, err = loadHistoryTx(ctx, tx, cardID)
	if err != nil {
		return card.Card{}, storageErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return card.Card{}, storageErr(err)
	}
	return c, nil
}

func insertEvent(ctx context.Context, tx pgx.Tx, cardID string, evt card.StatusEvent) error {
	_, err := tx.Exec(ctx, `
        insert into status_events (id, card_id, status, ts, location, notes, failure_reason, agent_id, status_type)
        values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, evt.ID, cardID, evt.Status, evt.Timestamp, evt.Location, evt.Notes,
		evt.FailureReason, evt.AgentID, evt.StatusType)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

const eventColumns = `id, status, ts, location, notes, failure_reason, agent_id, status_type`

func scanEvents(rows pgx.Rows) ([]card.StatusEvent, error) {
	defer rows.Close()
	out := make([]card.StatusEvent, 0)
	for rows.Next() {
		var e card.StatusEvent
		if err := rows.Scan(&e.ID, &e.Status, &e.Timestamp, &e.Location, &e.Notes,
			&e.FailureReason, &e.AgentID, &e.StatusType); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) loadHistory(ctx context.Context, c *card.Card) error {
	rows, err := s.pool.Query(ctx, `
        select `+eventColumns+`
        from status_events
        where card_id = $1
        order by seq asc
    `, c.ID)
	if err != nil {
		return err
	}
	c.StatusHistory, err = scanEvents(rows)
	return err
}

func loadHistoryTx(ctx context.Context, tx pgx.Tx, cardID string) ([]card.StatusEvent, error) {
	rows, err := tx.Query(ctx, `
        select `+eventColumns+`
        from status_events
        where card_id = $1
        order by seq asc
    `, cardID)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// collectCards scans card rows then batch-loads their histories.
func (s *Store) collectCards(ctx context.Context, rows pgx.Rows) ([]card.Card, error) {
	defer rows.Close()
	cards := make([]card.Card, 0)
	ids := make([]string, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		c.StatusHistory = []card.StatusEvent{}
		cards = append(cards, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	if len(cards) == 0 {
		return cards, nil
	}
	evtRows, err := s.pool.Query(ctx, `
        select card_id, `+eventColumns+`
        from status_events
        where card_id = any($1)
        order by seq asc
    `, ids)
	if err != nil {
		return nil, storageErr(err)
	}
	defer evtRows.Close()
	idx := make(map[string]*card.Card, len(cards))
	for i := range cards {
		idx[cards[i].ID] = &cards[i]
	}
	for evtRows.Next() {
		var cardID string
		var e card.StatusEvent
		if err := evtRows.Scan(&cardID, &e.ID, &e.Status, &e.Timestamp, &e.Location, &e.Notes,
			&e.FailureReason, &e.AgentID, &e.StatusType); err != nil {
			return nil, storageErr(err)
		}
		if c := idx[cardID]; c != nil {
			c.StatusHistory = append(c.StatusHistory, e)
		}
	}
	return cards, evtRows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", errs.ErrStorage, err)
}
