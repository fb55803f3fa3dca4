// Package tracking implements the status update engine: validating a
// status-change request, appending the event to the card's history, keeping
// the denormalized current status in sync, and notifying subscribers.
package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cardops/cardtrack/internal/card"
	"github.com/cardops/cardtrack/internal/errs"
	"github.com/cardops/cardtrack/internal/metrics"
)

// Writer defines the store operations needed by the service. The store is
// responsible for making AppendEvent atomic with respect to concurrent
// appends on the same card; the service holds no locks of its own.
type Writer interface {
	InsertCard(ctx context.Context, c card.Card) (card.Card, error)
	AppendEvent(ctx context.Context, cardID string, evt card.StatusEvent) (card.Card, error)
}

// Publisher broadcasts a successfully updated card to subscribers.
type Publisher interface {
	Publish(c card.Card)
}

// UpdateInput is the payload of one status change. CardID and Status are
// required; everything else is optional context carried onto the event.
type UpdateInput struct {
	CardID        string
	Status        card.Status
	Timestamp     *time.Time
	Location      string
	Notes         string
	FailureReason string
	AgentID       string
	StatusType    card.StatusType
}

// CreateInput carries all card fields except the status history, which is
// synthesized from the initial status.
type CreateInput struct {
	ID            string
	CardNumber    string
	PANLastFour   string
	CustomerName  string
	MobileNumber  string
	CardType      string
	CurrentStatus card.Status
	IssueDate     string
	ExpiryDate    string
	Address       card.Address
}

// Service exposes validation and application of card status updates.
type Service interface {
	ApplyStatusUpdate(ctx context.Context, in UpdateInput) (card.Card, error)
	CreateCard(ctx context.Context, in CreateInput) (card.Card, error)
}

type service struct {
	writer Writer
	bus    Publisher
	now    func() time.Time
}

// New constructs the tracking service.
func New(writer Writer, bus Publisher) Service {
	return &service{writer: writer, bus: bus, now: func() time.Time { return time.Now().UTC() }}
}

// ApplyStatusUpdate validates in, appends the resulting event to the card's
// history, and publishes the updated card. Storage failures surface to the
// caller untouched; the engine performs no retries.
func (s *service) ApplyStatusUpdate(ctx context.Context, in UpdateInput) (card.Card, error) {
	if in.CardID == "" || in.Status == "" {
		metrics.StatusUpdatesRejected.WithLabelValues("missing_fields").Inc()
		return card.Card{}, fmt.Errorf("%w: missing required fields: cardId or status", errs.ErrInvalid)
	}
	if !in.Status.Valid() {
		metrics.StatusUpdatesRejected.WithLabelValues("unknown_status").Inc()
		return card.Card{}, fmt.Errorf("%w: unknown status %q", errs.ErrInvalid, in.Status)
	}
	if in.StatusType != "" && !in.StatusType.Valid() {
		metrics.StatusUpdatesRejected.WithLabelValues("unknown_status_type").Inc()
		return card.Card{}, fmt.Errorf("%w: unknown status type %q", errs.ErrInvalid, in.StatusType)
	}

	evt := s.buildEvent(in)
	updated, err := s.writer.AppendEvent(ctx, in.CardID, evt)
	if err != nil {
		return card.Card{}, err
	}
	metrics.StatusUpdatesApplied.WithLabelValues(string(evt.Status)).Inc()
	s.publish(updated)
	return updated, nil
}

// CreateCard validates in, seeds the history with one initial event, and
// persists the new card. Duplicate ids fail with errs.ErrConflict.
func (s *service) CreateCard(ctx context.Context, in CreateInput) (card.Card, error) {
	if err := validateCreate(in); err != nil {
		return card.Card{}, err
	}
	now := s.now()
	c := card.Card{
		ID:            in.ID,
		CardNumber:    in.CardNumber,
		PANLastFour:   in.PANLastFour,
		CustomerName:  in.CustomerName,
		MobileNumber:  in.MobileNumber,
		CardType:      in.CardType,
		CurrentStatus: in.CurrentStatus,
		StatusHistory: []card.StatusEvent{{
			ID:         newEventID(in.ID),
			Status:     in.CurrentStatus,
			Timestamp:  now,
			StatusType: card.StatusTypeInfo,
		}},
		IssueDate:  in.IssueDate,
		ExpiryDate: in.ExpiryDate,
		Address:    in.Address,
	}
	created, err := s.writer.InsertCard(ctx, c)
	if err != nil {
		return card.Card{}, err
	}
	metrics.CardsCreated.Inc()
	// Creation is broadcast as an update so subscribers need only one path.
	s.publish(created)
	return created, nil
}

func (s *service) buildEvent(in UpdateInput) card.StatusEvent {
	ts := s.now()
	if in.Timestamp != nil {
		ts = in.Timestamp.UTC()
	}
	st := in.StatusType
	if st == "" {
		st = card.StatusTypeInfo
	}
	return card.StatusEvent{
		ID:            newEventID(in.CardID),
		Status:        in.Status,
		Timestamp:     ts,
		Location:      in.Location,
		Notes:         in.Notes,
		FailureReason: in.FailureReason,
		AgentID:       in.AgentID,
		StatusType:    st,
	}
}

func (s *service) publish(c card.Card) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(c)
	metrics.UpdatesPublished.Inc()
}

func validateCreate(in CreateInput) error {
	switch {
	case in.ID == "":
		return invalidf("card id is required")
	case in.CustomerName == "":
		return invalidf("customer name is required")
	case !validLastFour(in.PANLastFour):
		return invalidf("pan last four must be 4 digits")
	case in.CurrentStatus == "" || !in.CurrentStatus.Valid():
		return invalidf("unknown status %q", in.CurrentStatus)
	case in.Address.Line1 == "":
		return invalidf("address line1 is required")
	case in.Address.City == "" || in.Address.State == "":
		return invalidf("address city and state are required")
	case in.Address.PostalCode == "" || in.Address.Country == "":
		return invalidf("address postal code and country are required")
	}
	return nil
}

func validLastFour(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// newEventID generates a unique event identifier scoped to the card.
func newEventID(cardID string) string {
	return "evt-" + cardID + "-" + uuid.NewString()
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrInvalid, fmt.Sprintf(format, args...))
}
