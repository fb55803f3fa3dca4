package card

import (
	"time"
)

// Status enumerates the lifecycle states of a physical payment card, in
// typical order of progression. No transition graph is enforced: any status
// may follow any other, since upstream systems report out-of-order facts
// (e.g. a quality check failure after dispatch was already queued).
type Status string

const (
	StatusApproved           Status = "approved"
	StatusCreated            Status = "created"
	StatusEmbossingQueued    Status = "embossing_queued"
	StatusEmbossingComplete  Status = "embossing_complete"
	StatusQualityCheckPassed Status = "quality_check_passed"
	StatusQualityCheckFailed Status = "quality_check_failed"
	StatusDispatchQueued     Status = "dispatch_queued"
	StatusDispatched         Status = "dispatched"
	StatusInTransit          Status = "in_transit"
	StatusDelivered          Status = "delivered"
	StatusDeliveryFailed     Status = "delivery_failed"
	StatusDestroyed          Status = "destroyed"
)

// Statuses lists all valid card statuses in progression order.
func Statuses() []Status {
	return []Status{
		StatusApproved, StatusCreated, StatusEmbossingQueued, StatusEmbossingComplete,
		StatusQualityCheckPassed, StatusQualityCheckFailed, StatusDispatchQueued,
		StatusDispatched, StatusInTransit, StatusDelivered, StatusDeliveryFailed,
		StatusDestroyed,
	}
}

// Valid reports whether s is one of the known card statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusApproved, StatusCreated, StatusEmbossingQueued, StatusEmbossingComplete,
		StatusQualityCheckPassed, StatusQualityCheckFailed, StatusDispatchQueued,
		StatusDispatched, StatusInTransit, StatusDelivered, StatusDeliveryFailed,
		StatusDestroyed:
		return true
	}
	return false
}

// StatusType tags a status event with a display severity.
type StatusType string

const (
	StatusTypeSuccess StatusType = "success"
	StatusTypeWarning StatusType = "warning"
	StatusTypeError   StatusType = "error"
	StatusTypeNeutral StatusType = "neutral"
	StatusTypeInfo    StatusType = "info"
)

// Valid reports whether t is one of the known status types.
func (t StatusType) Valid() bool {
	switch t {
	case StatusTypeSuccess, StatusTypeWarning, StatusTypeError, StatusTypeNeutral, StatusTypeInfo:
		return true
	}
	return false
}

// StatusEvent is one immutable lifecycle fact about a card. Events are only
// ever appended to a card's history, never edited or removed.
type StatusEvent struct {
	ID            string
	Status        Status
	Timestamp     time.Time
	Location      string
	Notes         string
	FailureReason string
	AgentID       string
	StatusType    StatusType
}

// Address is the postal delivery address attached to a card.
type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Card is the lifecycle-tracked entity. CurrentStatus is a denormalized copy
// of the status of the last element of StatusHistory; the store keeps the two
// in sync on every append.
type Card struct {
	ID            string
	CardNumber    string // masked display form, e.g. ****-****-****-1234
	PANLastFour   string
	CustomerName  string
	MobileNumber  string
	CardType      string
	CurrentStatus Status
	StatusHistory []StatusEvent
	IssueDate     string
	ExpiryDate    string
	Address       Address
	// CreatedAt is assigned by the store and drives newest-first orderings.
	CreatedAt time.Time
}

// LastEvent returns the most recently appended status event, or false if the
// history is empty.
func (c Card) LastEvent() (StatusEvent, bool) {
	if len(c.StatusHistory) == 0 {
		return StatusEvent{}, false
	}
	return c.StatusHistory[len(c.StatusHistory)-1], true
}

// Clone returns a deep copy of the card. Stores hand out clones so callers
// can never mutate persisted history.
func (c Card) Clone() Card {
	out := c
	out.StatusHistory = make([]StatusEvent, len(c.StatusHistory))
	copy(out.StatusHistory, c.StatusHistory)
	return out
}
