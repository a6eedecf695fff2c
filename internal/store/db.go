// Package store is the PostgreSQL implementation of storage.Storage, built
// on database/sql with the pgx stdlib driver. Tables are created at startup.
package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"points-mall/internal/auth"
	"points-mall/internal/model"
	"points-mall/internal/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	db  *sql.DB
	log *slog.Logger
}

func New(dsn string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, log: log}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("database connection was created")
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initTables() error {
	var errs []error
	stmts := []string{
		`create table if not exists users (
			user_id BIGSERIAL PRIMARY KEY,
			username VARCHAR(50) NOT NULL UNIQUE,
			password_hash VARCHAR(60) NOT NULL,
			real_name VARCHAR(50) NOT NULL,
			email VARCHAR(100) NOT NULL DEFAULT '',
			phone VARCHAR(20) NOT NULL DEFAULT '',
			role VARCHAR(10) NOT NULL DEFAULT 'member',
			total_points BIGINT NOT NULL DEFAULT 0,
			available_points BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc')
		);`,

		`create table if not exists award_records (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			given_by BIGINT NOT NULL,
			kind VARCHAR(10) NOT NULL,
			points BIGINT NOT NULL,
			reason VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc')
		);`,

		`create table if not exists products (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image_url VARCHAR(255) NOT NULL DEFAULT '',
			points_required BIGINT NOT NULL,
			stock BIGINT NOT NULL DEFAULT 0,
			status VARCHAR(10) NOT NULL DEFAULT 'unlisted',
			sort_order BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc'),
			updated_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc')
		);`,

		`create table if not exists redemption_records (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			product_id BIGINT NOT NULL,
			product_name VARCHAR(100) NOT NULL,
			points_spent BIGINT NOT NULL,
			quantity BIGINT NOT NULL,
			status VARCHAR(10) NOT NULL,
			remark VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc'),
			updated_at TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc')
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EnsureAdmin creates the default administrator account if no admin exists.
func (s *Store) EnsureAdmin(ctx context.Context, username, password string) error {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = $1`, model.RoleAdmin).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &model.User{
		Username:     username,
		PasswordHash: hash,
		RealName:     "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := s.CreateUser(ctx, admin); err != nil {
		return err
	}
	s.log.Info("created default admin account", "username", username)
	return nil
}

// InTx runs fn inside a single database transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&sqlTx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		s.log.Error("failed to commit transaction", "error", err)
		return err
	}
	return nil
}
