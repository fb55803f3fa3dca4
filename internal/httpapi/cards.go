package httpapi

import (
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/cardops/cardtrack/internal/card"
)

// postCard handles POST /cards.
func (s *Server) postCard(w http.ResponseWriter, r *http.Request) {
	var payload createCardRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&payload); err != nil {
		fail(w, http.StatusBadRequest, errValidation, "invalid JSON: "+err.Error())
		return
	}

	created, err := s.trackingSvc.CreateCard(r.Context(), payload.toInput())
	if err != nil {
		failErr(w, err)
		return
	}

	ok(w, http.StatusCreated, "Card created", toCardResponse(created))
}

// getCard handles GET /cards/{cardID}.
func (s *Server) getCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cardID")
	c, err := s.repo.GetCard(r.Context(), id)
	if err != nil {
		failErr(w, err)
		return
	}
	ok(w, http.StatusOK, "Card found", toCardResponse(c))
}

// listCards handles GET /cards with an optional ?status= filter.
func (s *Server) listCards(w http.ResponseWriter, r *http.Request) {
	status := card.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		fail(w, http.StatusBadRequest, errValidation, "unknown status: "+string(status))
		return
	}

	cards, err := s.repo.ListCards(r.Context(), status)
	if err != nil {
		failErr(w, err)
		return
	}
	ok(w, http.StatusOK, "Cards retrieved", toCardListResponse(cards))
}
