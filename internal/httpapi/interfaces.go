package httpapi

import (
	"context"

	"github.com/cardops/cardtrack/internal/card"
)

// Repository abstracts the read-side store operations needed by the API.
type Repository interface {
	// GetCard returns a card by id with its full status history.
	GetCard(ctx context.Context, id string) (card.Card, error)
	// ListCards returns cards newest-first, optionally filtered by status.
	ListCards(ctx context.Context, status card.Status) ([]card.Card, error)
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
