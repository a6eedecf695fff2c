package handlers

import (
	"encoding/json"
	"net/http"

	"points-mall/internal/model"
	"points-mall/internal/storage"
)

// GiveThumbs is the award endpoint: an admin grants a single (1 point) or
// double (5 points) thumbs-up to a user.
func (s *Server) GiveThumbs(w http.ResponseWriter, r *http.Request) {
	caller, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return
	}

	var body struct {
		UserID    int             `json:"user_id"`
		ThumbType model.AwardKind `json:"thumb_type"`
		Reason    string          `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}
	if body.UserID == 0 || body.ThumbType == "" {
		http.Error(w, "user_id and thumb_type are required", http.StatusBadRequest)
		return
	}

	rec, err := s.Ledger.Award(r.Context(), actorOf(caller), body.UserID, body.ThumbType, body.Reason)
	if err != nil {
		s.httpError(w, err)
		return
	}

	// Resolve display names for the response.
	if recipient, err := s.Store.UserByID(r.Context(), rec.UserID); err == nil {
		rec.UserName = recipient.RealName
	}
	rec.GivenByName = caller.RealName

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) ListThumbs(w http.ResponseWriter, r *http.Request) {
	if _, err := s.currentUser(r); err != nil {
		s.httpError(w, err)
		return
	}

	f := storage.AwardFilter{
		Page:    queryInt(r, "page", "1"),
		PerPage: queryInt(r, "per_page", "20"),
		UserID:  queryInt(r, "user_id", "0"),
	}
	records, total, err := s.Store.ListAwards(r.Context(), f)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listResponse{List: records, Total: total, Page: f.Page, PerPage: f.PerPage})
}

// ThumbsStats reports a user's point counters and award counts; without an
// explicit user_id it reports on the caller.
func (s *Server) ThumbsStats(w http.ResponseWriter, r *http.Request) {
	caller, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return
	}

	userID := queryInt(r, "user_id", "0")
	if userID == 0 {
		userID = caller.ID
	}

	stats, err := s.Store.AwardStats(r.Context(), userID)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}
