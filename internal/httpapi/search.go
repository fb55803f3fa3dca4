package httpapi

import (
	"net/http"
)

// searchCards handles GET /cards/search?q=. Queries shorter than the minimum
// length return an empty result set rather than an error.
func (s *Server) searchCards(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	cards, err := s.lookupSvc.Search(r.Context(), query)
	if err != nil {
		failErr(w, err)
		return
	}
	ok(w, http.StatusOK, "Search complete", toCardListResponse(cards))
}

// lookupCard handles GET /cards/lookup?identifier=. The identifier may be a
// card id, the last four PAN digits, or a mobile number.
func (s *Server) lookupCard(w http.ResponseWriter, r *http.Request) {
	identifier := r.URL.Query().Get("identifier")
	c, err := s.lookupSvc.ByIdentifier(r.Context(), identifier)
	if err != nil {
		failErr(w, err)
		return
	}
	ok(w, http.StatusOK, "Card found", toCardResponse(c))
}
