// Package handlers is the HTTP layer: it decodes requests, resolves the
// authenticated caller, invokes the ledger and storage, and maps error kinds
// onto status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"points-mall/internal/config"
	"points-mall/internal/ledger"
	"points-mall/internal/middleware"
	"points-mall/internal/model"
	"points-mall/internal/storage"
	"points-mall/internal/uploads"
)

type Server struct {
	Store   storage.Storage
	Ledger  *ledger.Ledger
	Config  config.Config
	Uploads *uploads.Storage
	Log     *slog.Logger
}

func NewServer(store storage.Storage, cfg config.Config, log *slog.Logger) (*Server, error) {
	up, err := uploads.New(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	return &Server{
		Store:   store,
		Ledger:  ledger.New(store),
		Config:  cfg,
		Uploads: up,
		Log:     log,
	}, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Error("failed to write response", "error", err)
	}
}

// listResponse is the envelope for all paginated endpoints.
type listResponse struct {
	List    any `json:"list"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// currentUser loads the authenticated caller. The row is re-read on every
// request so role changes take effect without waiting for token expiry.
func (s *Server) currentUser(r *http.Request) (*model.User, error) {
	id, err := middleware.UserID(r)
	if err != nil {
		return nil, err
	}
	return s.Store.UserByID(r.Context(), id)
}

func actorOf(u *model.User) ledger.Actor {
	return ledger.Actor{ID: u.ID, Role: u.Role}
}

// httpError maps an error from the ledger or storage onto a status code.
// The mapping is stable so clients can branch on it.
func (s *Server) httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrProductNotFound),
		errors.Is(err, storage.ErrRecordNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrUsernameTaken),
		errors.Is(err, storage.ErrProductHasRedemptions),
		errors.Is(err, ledger.ErrProductUnlisted),
		errors.Is(err, ledger.ErrInsufficientStock),
		errors.Is(err, ledger.ErrInsufficientPoints),
		errors.Is(err, ledger.ErrNotCancellable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ledger.ErrInvalidKind),
		errors.Is(err, ledger.ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, middleware.ErrNoUser):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	default:
		s.Log.Error("internal error", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, name, def string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		v = def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func pathID(r *http.Request, param string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, param))
}
