package handlers

import (
	"encoding/json"
	"net/http"

	"points-mall/internal/model"
	"points-mall/internal/storage"
)

// CreateExchange redeems available points for product stock.
func (s *Server) CreateExchange(w http.ResponseWriter, r *http.Request) {
	caller, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return
	}

	var body struct {
		ProductID int `json:"product_id"`
		Quantity  int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}
	if body.ProductID == 0 {
		http.Error(w, "product_id is required", http.StatusBadRequest)
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}

	rec, err := s.Ledger.Redeem(r.Context(), actorOf(caller), body.ProductID, body.Quantity)
	if err != nil {
		s.httpError(w, err)
		return
	}
	rec.UserName = caller.RealName
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) ListExchanges(w http.ResponseWriter, r *http.Request) {
	caller, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return
	}

	f := storage.RedemptionFilter{
		Page:    queryInt(r, "page", "1"),
		PerPage: queryInt(r, "per_page", "20"),
		UserID:  queryInt(r, "user_id", "0"),
		Status:  model.RedemptionStatus(r.URL.Query().Get("status")),
	}
	// Members see only their own history.
	if caller.Role != model.RoleAdmin {
		f.UserID = caller.ID
	}

	records, total, err := s.Store.ListRedemptions(r.Context(), f)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listResponse{List: records, Total: total, Page: f.Page, PerPage: f.PerPage})
}

// CancelExchange reverses a completed redemption, restoring the points and
// the stock.
func (s *Server) CancelExchange(w http.ResponseWriter, r *http.Request) {
	caller, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "bad record id", http.StatusBadRequest)
		return
	}

	rec, err := s.Ledger.Cancel(r.Context(), actorOf(caller), id)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}
