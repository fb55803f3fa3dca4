// Package lookup resolves cards by alternate identifier and serves free-text
// search over the card store.
package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/cardops/cardtrack/internal/card"
	"github.com/cardops/cardtrack/internal/errs"
)

// MinQueryLen is the shortest trimmed query that reaches storage. Shorter
// queries return an empty result without a store round trip; this is a cost
// guard, not a validation failure.
const MinQueryLen = 3

// Repo defines the read operations needed by the service.
type Repo interface {
	FindByIdentifier(ctx context.Context, identifier string) (card.Card, error)
	SearchCards(ctx context.Context, query string) ([]card.Card, error)
}

// Service exposes identifier lookup and free-text search.
type Service interface {
	ByIdentifier(ctx context.Context, identifier string) (card.Card, error)
	Search(ctx context.Context, query string) ([]card.Card, error)
}

type service struct {
	repo Repo
}

// New constructs the lookup service.
func New(repo Repo) Service { return &service{repo: repo} }

// ByIdentifier resolves an exact match on card id, PAN last four digits, or
// mobile number. Tie-breaking between colliding matches is the store's
// responsibility (id match first, then newest card).
func (s *service) ByIdentifier(ctx context.Context, identifier string) (card.Card, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return card.Card{}, fmt.Errorf("%w: identifier is required", errs.ErrInvalid)
	}
	return s.repo.FindByIdentifier(ctx, identifier)
}

// Search returns cards matching the trimmed free-text query. No matches is a
// normal empty result, never an error.
func (s *service) Search(ctx context.Context, query string) ([]card.Card, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLen {
		return []card.Card{}, nil
	}
	return s.repo.SearchCards(ctx, query)
}
