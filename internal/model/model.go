package model

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type User struct {
	ID              int       `json:"id"`
	Username        string    `json:"username"`
	PasswordHash    string    `json:"-"`
	RealName        string    `json:"real_name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Role            Role      `json:"role"`
	TotalPoints     int       `json:"total_points"`     // lifetime-earned, never reduced by redemption
	AvailablePoints int       `json:"available_points"` // spendable balance
	CreatedAt       time.Time `json:"created_at"`
}

type AwardKind string

const (
	KindSingle AwardKind = "single"
	KindDouble AwardKind = "double"
)

// Points returns the point value of the kind; ok is false for an
// unrecognized kind.
func (k AwardKind) Points() (points int, ok bool) {
	switch k {
	case KindSingle:
		return 1, true
	case KindDouble:
		return 5, true
	}
	return 0, false
}

type AwardRecord struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	GivenBy     int       `json:"given_by"`
	Kind        AwardKind `json:"kind"`
	Points      int       `json:"points"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UserName    string    `json:"user_name,omitempty"`     // recipient display name
	GivenByName string    `json:"given_by_name,omitempty"` // granting admin display name
}

type ProductStatus string

const (
	ProductListed   ProductStatus = "listed"
	ProductUnlisted ProductStatus = "unlisted"
)

type Product struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description,omitempty"`
	ImageURL       string        `json:"image_url,omitempty"`
	PointsRequired int           `json:"points_required"`
	Stock          int           `json:"stock"`
	Status         ProductStatus `json:"status"`
	SortOrder      int           `json:"sort_order"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionCompleted RedemptionStatus = "completed"
	RedemptionCancelled RedemptionStatus = "cancelled"
)

// RedemptionRecord carries a snapshot of the product name and the points
// spent at redemption time, so later catalog edits do not alter history.
type RedemptionRecord struct {
	ID          int              `json:"id"`
	UserID      int              `json:"user_id"`
	ProductID   int              `json:"product_id"`
	ProductName string           `json:"product_name"`
	PointsSpent int              `json:"points_spent"`
	Quantity    int              `json:"quantity"`
	Status      RedemptionStatus `json:"status"`
	Remark      string           `json:"remark,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	UserName    string           `json:"user_name,omitempty"`
}

// AwardStats summarizes one user's awards for the stats endpoint.
type AwardStats struct {
	UserID          int    `json:"user_id"`
	UserName        string `json:"user_name"`
	TotalPoints     int    `json:"total_points"`
	AvailablePoints int    `json:"available_points"`
	UsedPoints      int    `json:"used_points"`
	SingleCount     int    `json:"single_thumbs"`
	DoubleCount     int    `json:"double_thumbs"`
	TotalCount      int    `json:"total_thumbs"`
}

type DashboardStats struct {
	TotalUsers     int `json:"total_users"`
	TotalAwards    int `json:"total_thumbs"`
	TotalExchanges int `json:"total_exchanges"`
	TotalProducts  int `json:"total_products"`
}
