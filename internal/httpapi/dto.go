package httpapi

import (
	"time"

	"github.com/cardops/cardtrack/internal/card"
	"github.com/cardops/cardtrack/internal/service/tracking"
)

// webhookRequest is the POST /update-card-status body.
type webhookRequest struct {
	CardID        string          `json:"cardId"`
	Status        card.Status     `json:"status"`
	Timestamp     *time.Time      `json:"timestamp,omitempty"`
	Location      string          `json:"location,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	FailureReason string          `json:"failureReason,omitempty"`
	AgentID       string          `json:"agentId,omitempty"`
	StatusType    card.StatusType `json:"statusType,omitempty"`
}

func (r webhookRequest) toInput() tracking.UpdateInput {
	return tracking.UpdateInput{
		CardID:        r.CardID,
		Status:        r.Status,
		Timestamp:     r.Timestamp,
		Location:      r.Location,
		Notes:         r.Notes,
		FailureReason: r.FailureReason,
		AgentID:       r.AgentID,
		StatusType:    r.StatusType,
	}
}

type addressDTO struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// createCardRequest is the POST /cards body: all card fields except the
// status history, which is seeded from currentStatus.
type createCardRequest struct {
	ID            string      `json:"id"`
	CardNumber    string      `json:"cardNumber"`
	PANLastFour   string      `json:"panLastFour"`
	CustomerName  string      `json:"customerName"`
	MobileNumber  string      `json:"mobileNumber"`
	CardType      string      `json:"cardType"`
	CurrentStatus card.Status `json:"currentStatus"`
	IssueDate     string      `json:"issueDate,omitempty"`
	ExpiryDate    string      `json:"expiryDate,omitempty"`
	Address       addressDTO  `json:"address"`
}

func (r createCardRequest) toInput() tracking.CreateInput {
	return tracking.CreateInput{
		ID:            r.ID,
		CardNumber:    r.CardNumber,
		PANLastFour:   r.PANLastFour,
		CustomerName:  r.CustomerName,
		MobileNumber:  r.MobileNumber,
		CardType:      r.CardType,
		CurrentStatus: r.CurrentStatus,
		IssueDate:     r.IssueDate,
		ExpiryDate:    r.ExpiryDate,
		Address: card.Address{
			Line1:      r.Address.Line1,
			Line2:      r.Address.Line2,
			City:       r.Address.City,
			State:      r.Address.State,
			PostalCode: r.Address.PostalCode,
			Country:    r.Address.Country,
		},
	}
}

type statusEventResponse struct {
	ID            string          `json:"id"`
	Status        card.Status     `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
	Location      string          `json:"location,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	FailureReason string          `json:"failureReason,omitempty"`
	AgentID       string          `json:"agentId,omitempty"`
	StatusType    card.StatusType `json:"statusType"`
}

type cardResponse struct {
	ID            string                `json:"id"`
	CardNumber    string                `json:"cardNumber"`
	PANLastFour   string                `json:"panLastFour"`
	CustomerName  string                `json:"customerName"`
	MobileNumber  string                `json:"mobileNumber"`
	CardType      string                `json:"cardType"`
	CurrentStatus card.Status           `json:"currentStatus"`
	StatusHistory []statusEventResponse `json:"statusHistory"`
	IssueDate     string                `json:"issueDate,omitempty"`
	ExpiryDate    string                `json:"expiryDate,omitempty"`
	Address       addressDTO            `json:"address"`
	CreatedAt     time.Time             `json:"createdAt"`
}

func toCardResponse(c card.Card) cardResponse {
	history := make([]statusEventResponse, 0, len(c.StatusHistory))
	for _, e := range c.StatusHistory {
		history = append(history, statusEventResponse{
			ID:            e.ID,
			Status:        e.Status,
			Timestamp:     e.Timestamp,
			Location:      e.Location,
			Notes:         e.Notes,
			FailureReason: e.FailureReason,
			AgentID:       e.AgentID,
			StatusType:    e.StatusType,
		})
	}
	return cardResponse{
		ID:            c.ID,
		CardNumber:    c.CardNumber,
		PANLastFour:   c.PANLastFour,
		CustomerName:  c.CustomerName,
		MobileNumber:  c.MobileNumber,
		CardType:      c.CardType,
		CurrentStatus: c.CurrentStatus,
		StatusHistory: history,
		IssueDate:     c.IssueDate,
		ExpiryDate:    c.ExpiryDate,
		Address: addressDTO{
			Line1:      c.Address.Line1,
			Line2:      c.Address.Line2,
			City:       c.Address.City,
			State:      c.Address.State,
			PostalCode: c.Address.PostalCode,
			Country:    c.Address.Country,
		},
		CreatedAt: c.CreatedAt,
	}
}

func toCardListResponse(cards []card.Card) []cardResponse {
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	return out
}
