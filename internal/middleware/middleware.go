package middleware

import (
	"errors"
	"net/http"
)

type contextKey string

const UserContextKey contextKey = "user_id"

var ErrNoUser = errors.New("user not found in context")

// UserID returns the authenticated caller's id placed into the request
// context by Auth.
func UserID(r *http.Request) (int, error) {
	id, ok := r.Context().Value(UserContextKey).(int)
	if !ok {
		return 0, ErrNoUser
	}
	return id, nil
}
