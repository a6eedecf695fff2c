package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"points-mall/internal/model"
	"points-mall/internal/storage"
)

func (s *Store) RedemptionByID(ctx context.Context, id int) (*model.RedemptionRecord, error) {
	var r model.RedemptionRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, product_id, product_name, points_spent, quantity,
		        status, remark, created_at, updated_at
		 FROM redemption_records WHERE id = $1`, id).
		Scan(&r.ID, &r.UserID, &r.ProductID, &r.ProductName, &r.PointsSpent,
			&r.Quantity, &r.Status, &r.Remark, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListRedemptions(ctx context.Context, f storage.RedemptionFilter) ([]model.RedemptionRecord, int, error) {
	var conds []string
	var args []any
	if f.UserID != 0 {
		args = append(args, f.UserID)
		conds = append(conds, `r.user_id = $`+itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, `r.status = $`+itoa(len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM redemption_records r `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Page, f.PerPage)
	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.product_id, r.product_name, r.points_spent,
		        r.quantity, r.status, r.remark, r.created_at, r.updated_at,
		        COALESCE(u.real_name, '')
		 FROM redemption_records r
		 LEFT JOIN users u ON u.user_id = r.user_id
		 `+where+`
		 ORDER BY r.created_at DESC, r.id DESC
		 LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []model.RedemptionRecord
	for rows.Next() {
		var r model.RedemptionRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.ProductID, &r.ProductName,
			&r.PointsSpent, &r.Quantity, &r.Status, &r.Remark, &r.CreatedAt,
			&r.UpdatedAt, &r.UserName); err != nil {
			return nil, 0, err
		}
		records = append(records, r)
	}
	return records, total, rows.Err()
}

func (s *Store) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM users WHERE role = $1),
		        (SELECT COUNT(*) FROM award_records),
		        (SELECT COUNT(*) FROM redemption_records WHERE status = $2),
		        (SELECT COUNT(*) FROM products WHERE status = $3)`,
		model.RoleMember, model.RedemptionCompleted, model.ProductListed).
		Scan(&stats.TotalUsers, &stats.TotalAwards, &stats.TotalExchanges, &stats.TotalProducts)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
