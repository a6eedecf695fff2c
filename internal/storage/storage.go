// Package storage defines the persistence interface the rest of the service
// is written against, plus the sentinel errors every implementation returns.
// The Postgres implementation lives in internal/store, an in-memory one used
// by tests in internal/store/memstore.
package storage

import (
	"context"
	"errors"

	"points-mall/internal/model"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUsernameTaken         = errors.New("username already exists")
	ErrProductNotFound       = errors.New("product not found")
	ErrRecordNotFound        = errors.New("redemption record not found")
	ErrProductHasRedemptions = errors.New("product has redemption records")
)

// Tx is the view of a single atomic transaction. The *ForUpdate reads lock
// the row until the transaction ends, so conflicting operations on the same
// user or product serialize.
type Tx interface {
	UserForUpdate(ctx context.Context, id int) (*model.User, error)
	ProductForUpdate(ctx context.Context, id int) (*model.Product, error)
	RedemptionForUpdate(ctx context.Context, id int) (*model.RedemptionRecord, error)

	// AddPoints adjusts both counters on the user row.
	AddPoints(ctx context.Context, userID, totalDelta, availableDelta int) error
	AddStock(ctx context.Context, productID, delta int) error

	InsertAward(ctx context.Context, rec *model.AwardRecord) error
	InsertRedemption(ctx context.Context, rec *model.RedemptionRecord) error
	SetRedemptionStatus(ctx context.Context, id int, status model.RedemptionStatus) error
}

type UserFilter struct {
	Page    int
	PerPage int
	Keyword string // matches username or real name
}

type ProductFilter struct {
	Page    int
	PerPage int
	Status  model.ProductStatus // empty: all
	Keyword string
}

type AwardFilter struct {
	Page    int
	PerPage int
	UserID  int // 0: all users
}

type RedemptionFilter struct {
	Page    int
	PerPage int
	UserID  int
	Status  model.RedemptionStatus
}

// Storage is the full persistence surface. InTx runs fn inside one atomic
// transaction: either every write fn performed applies, or none do.
type Storage interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id int) (*model.User, error)
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]model.User, int, error)
	UpdateUser(ctx context.Context, u *model.User) error

	CreateProduct(ctx context.Context, p *model.Product) error
	ProductByID(ctx context.Context, id int) (*model.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	// DeleteProduct refuses with ErrProductHasRedemptions while any
	// redemption record, whatever its status, references the product.
	DeleteProduct(ctx context.Context, id int) error

	ListAwards(ctx context.Context, f AwardFilter) ([]model.AwardRecord, int, error)
	AwardStats(ctx context.Context, userID int) (*model.AwardStats, error)

	RedemptionByID(ctx context.Context, id int) (*model.RedemptionRecord, error)
	ListRedemptions(ctx context.Context, f RedemptionFilter) ([]model.RedemptionRecord, int, error)

	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
}
