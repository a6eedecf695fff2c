package handlers

import (
	"encoding/json"
	"net/http"

	"points-mall/internal/auth"
	"points-mall/internal/ledger"
	"points-mall/internal/model"
	"points-mall/internal/storage"
)

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := s.currentUser(r); err != nil {
		s.httpError(w, err)
		return
	}

	f := storage.UserFilter{
		Page:    queryInt(r, "page", "1"),
		PerPage: queryInt(r, "per_page", "20"),
		Keyword: r.URL.Query().Get("keyword"),
	}
	users, total, err := s.Store.ListUsers(r.Context(), f)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listResponse{List: users, Total: total, Page: f.Page, PerPage: f.PerPage})
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	caller, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return
	}
	if caller.Role != model.RoleAdmin {
		s.httpError(w, ledger.ErrForbidden)
		return
	}

	var body struct {
		credentialsBody
		Role model.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}
	if body.Username == "" || body.Password == "" || body.RealName == "" {
		http.Error(w, "username, password and real_name are required", http.StatusBadRequest)
		return
	}
	if body.Role == "" {
		body.Role = model.RoleMember
	}
	if body.Role != model.RoleAdmin && body.Role != model.RoleMember {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	passwordHash, err := auth.HashPassword(body.Password)
	if err != nil {
		http.Error(w, "Failed to hash the password", http.StatusInternalServerError)
		return
	}
	user := &model.User{
		Username:     body.Username,
		PasswordHash: passwordHash,
		RealName:     body.RealName,
		Email:        body.Email,
		Phone:        body.Phone,
		Role:         body.Role,
	}
	if err := s.Store.CreateUser(r.Context(), user); err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "bad user id", http.StatusBadRequest)
		return
	}
	// Members may edit only themselves.
	if caller.Role != model.RoleAdmin && caller.ID != id {
		s.httpError(w, ledger.ErrForbidden)
		return
	}

	user, err := s.Store.UserByID(r.Context(), id)
	if err != nil {
		s.httpError(w, err)
		return
	}

	var body struct {
		RealName *string `json:"real_name"`
		Email    *string `json:"email"`
		Phone    *string `json:"phone"`
		Password *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}
	if body.RealName != nil {
		user.RealName = *body.RealName
	}
	if body.Email != nil {
		user.Email = *body.Email
	}
	if body.Phone != nil {
		user.Phone = *body.Phone
	}
	if body.Password != nil && *body.Password != "" {
		user.PasswordHash, err = auth.HashPassword(*body.Password)
		if err != nil {
			http.Error(w, "Failed to hash the password", http.StatusInternalServerError)
			return
		}
	}

	if err := s.Store.UpdateUser(r.Context(), user); err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) ResetPassword(w http.ResponseWriter, r *http.Request) {
	caller, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return
	}
	if caller.Role != model.RoleAdmin {
		s.httpError(w, ledger.ErrForbidden)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "bad user id", http.StatusBadRequest)
		return
	}

	var body struct {
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewPassword == "" {
		http.Error(w, "new_password is required", http.StatusBadRequest)
		return
	}

	user, err := s.Store.UserByID(r.Context(), id)
	if err != nil {
		s.httpError(w, err)
		return
	}
	user.PasswordHash, err = auth.HashPassword(body.NewPassword)
	if err != nil {
		http.Error(w, "Failed to hash the password", http.StatusInternalServerError)
		return
	}
	if err := s.Store.UpdateUser(r.Context(), user); err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
