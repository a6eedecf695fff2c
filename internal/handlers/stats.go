package handlers

import (
	"net/http"

	"points-mall/internal/model"
	"points-mall/internal/storage"
)

// Dashboard returns system-wide counters for admins and personal counters
// for members.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	caller, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return
	}

	if caller.Role == model.RoleAdmin {
		stats, err := s.Store.DashboardStats(r.Context())
		if err != nil {
			s.httpError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, stats)
		return
	}

	awardStats, err := s.Store.AwardStats(r.Context(), caller.ID)
	if err != nil {
		s.httpError(w, err)
		return
	}
	_, exchanges, err := s.Store.ListRedemptions(r.Context(), storage.RedemptionFilter{
		Page:    1,
		PerPage: 1,
		UserID:  caller.ID,
		Status:  model.RedemptionCompleted,
	})
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{
		"total_points":     caller.TotalPoints,
		"available_points": caller.AvailablePoints,
		"used_points":      caller.TotalPoints - caller.AvailablePoints,
		"total_thumbs":     awardStats.TotalCount,
		"total_exchanges":  exchanges,
	})
}
