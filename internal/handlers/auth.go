package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"points-mall/internal/auth"
	"points-mall/internal/model"
)

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RealName string `json:"real_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (s *Server) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}
	if body.Username == "" || body.Password == "" || body.RealName == "" {
		http.Error(w, "username, password and real_name are required", http.StatusBadRequest)
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
		Role:         model.RoleMember,
	}
	if err := s.Store.CreateUser(r.Context(), user); err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) LoginUser(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}

	user, err := s.Store.UserByUsername(r.Context(), body.Username)
	if err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, body.Password); err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user, s.Config.JWTSecret)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", token))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

func (s *Server) UserInfo(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return
	}

	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}
	if body.OldPassword == "" || body.NewPassword == "" {
		http.Error(w, "old_password and new_password are required", http.StatusBadRequest)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, body.OldPassword); err != nil {
		http.Error(w, "Old password is wrong", http.StatusBadRequest)
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
