package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"points-mall/internal/model"
	"points-mall/internal/storage"
)

const userColumns = `user_id, username, password_hash, real_name, email, phone, role,
	total_points, available_points, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.RealName, &u.Email,
		&u.Phone, &u.Role, &u.TotalPoints, &u.AvailablePoints, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, real_name, email, phone, role)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (username) DO NOTHING
		 RETURNING user_id, created_at`,
		u.Username, u.PasswordHash, u.RealName, u.Email, u.Phone, u.Role).
		Scan(&u.ID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrUsernameTaken
	}
	return err
}

func (s *Store) UserByID(ctx context.Context, id int) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	return u, err
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, f storage.UserFilter) ([]model.User, int, error) {
	where := ""
	args := []any{}
	if f.Keyword != "" {
		where = `WHERE username ILIKE $1 OR real_name ILIKE $1`
		args = append(args, "%"+strings.TrimSpace(f.Keyword)+"%")
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Page, f.PerPage)
	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users `+where+
			` ORDER BY created_at DESC, user_id DESC LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET real_name = $1, email = $2, phone = $3, password_hash = $4
		 WHERE user_id = $5`,
		u.RealName, u.Email, u.Phone, u.PasswordHash, u.ID)
	if err != nil {
		return err
	}
	return requireRow(res, storage.ErrUserNotFound)
}
