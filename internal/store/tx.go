package store

import (
	"context"
	"database/sql"
	"errors"

	"points-mall/internal/model"
	"points-mall/internal/storage"
)

// sqlTx implements storage.Tx over one *sql.Tx. The FOR UPDATE reads hold
// row locks until commit, which is what serializes two redemptions racing on
// the same user or product.
type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) UserForUpdate(ctx context.Context, id int) (*model.User, error) {
	var u model.User
	err := t.tx.QueryRowContext(ctx,
		`SELECT user_id, username, password_hash, real_name, email, phone, role,
		        total_points, available_points, created_at
		 FROM users WHERE user_id = $1 FOR UPDATE`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.RealName, &u.Email, &u.Phone,
			&u.Role, &u.TotalPoints, &u.AvailablePoints, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (t *sqlTx) ProductForUpdate(ctx context.Context, id int) (*model.Product, error) {
	var p model.Product
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, name, description, image_url, points_required, stock, status,
		        sort_order, created_at, updated_at
		 FROM products WHERE id = $1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.PointsRequired,
			&p.Stock, &p.Status, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *sqlTx) RedemptionForUpdate(ctx context.Context, id int) (*model.RedemptionRecord, error) {
	var r model.RedemptionRecord
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, user_id, product_id, product_name, points_spent, quantity,
		        status, remark, created_at, updated_at
		 FROM redemption_records WHERE id = $1 FOR UPDATE`, id).
		Scan(&r.ID, &r.UserID, &r.ProductID, &r.ProductName, &r.PointsSpent,
			&r.Quantity, &r.Status, &r.Remark, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (t *sqlTx) AddPoints(ctx context.Context, userID, totalDelta, availableDelta int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE users
		 SET total_points = total_points + $1, available_points = available_points + $2
		 WHERE user_id = $3`, totalDelta, availableDelta, userID)
	if err != nil {
		return err
	}
	return requireRow(res, storage.ErrUserNotFound)
}

func (t *sqlTx) AddStock(ctx context.Context, productID, delta int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock + $1, updated_at = now() at time zone 'utc'
		 WHERE id = $2`, delta, productID)
	if err != nil {
		return err
	}
	return requireRow(res, storage.ErrProductNotFound)
}

func (t *sqlTx) InsertAward(ctx context.Context, rec *model.AwardRecord) error {
	return t.tx.QueryRowContext(ctx,
		`INSERT INTO award_records (user_id, given_by, kind, points, reason)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		rec.UserID, rec.GivenBy, rec.Kind, rec.Points, rec.Reason).
		Scan(&rec.ID, &rec.CreatedAt)
}

func (t *sqlTx) InsertRedemption(ctx context.Context, rec *model.RedemptionRecord) error {
	return t.tx.QueryRowContext(ctx,
		`INSERT INTO redemption_records
		        (user_id, product_id, product_name, points_spent, quantity, status, remark)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		rec.UserID, rec.ProductID, rec.ProductName, rec.PointsSpent,
		rec.Quantity, rec.Status, rec.Remark).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

func (t *sqlTx) SetRedemptionStatus(ctx context.Context, id int, status model.RedemptionStatus) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE redemption_records
		 SET status = $1, updated_at = now() at time zone 'utc'
		 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return requireRow(res, storage.ErrRecordNotFound)
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
