package httpapi

import (
	"encoding/json"
	"net/http"
)

// updateCardStatus handles POST /update-card-status, the webhook ingress for
// lifecycle events from issuing and courier partners.
func (s *Server) updateCardStatus(w http.ResponseWriter, r *http.Request) {
	var payload webhookRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&payload); err != nil {
		fail(w, http.StatusBadRequest, errValidation, "invalid JSON: "+err.Error())
		return
	}

	updated, err := s.trackingSvc.ApplyStatusUpdate(r.Context(), payload.toInput())
	if err != nil {
		failErr(w, err)
		return
	}

	ok(w, http.StatusOK, "Card status updated", toCardResponse(updated))
}
