package store

import (
	"context"
	"database/sql"
	"errors"

	"points-mall/internal/model"
	"points-mall/internal/storage"
)

func (s *Store) ListAwards(ctx context.Context, f storage.AwardFilter) ([]model.AwardRecord, int, error) {
	where := ""
	var args []any
	if f.UserID != 0 {
		where = `WHERE a.user_id = $1`
		args = append(args, f.UserID)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM award_records a `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Page, f.PerPage)
	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.given_by, a.kind, a.points, a.reason, a.created_at,
		        COALESCE(u.real_name, ''), COALESCE(g.real_name, '')
		 FROM award_records a
		 LEFT JOIN users u ON u.user_id = a.user_id
		 LEFT JOIN users g ON g.user_id = a.given_by
		 `+where+`
		 ORDER BY a.created_at DESC, a.id DESC
		 LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []model.AwardRecord
	for rows.Next() {
		var a model.AwardRecord
		if err := rows.Scan(&a.ID, &a.UserID, &a.GivenBy, &a.Kind, &a.Points,
			&a.Reason, &a.CreatedAt, &a.UserName, &a.GivenByName); err != nil {
			return nil, 0, err
		}
		records = append(records, a)
	}
	return records, total, rows.Err()
}

func (s *Store) AwardStats(ctx context.Context, userID int) (*model.AwardStats, error) {
	u, err := s.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &model.AwardStats{
		UserID:          u.ID,
		UserName:        u.RealName,
		TotalPoints:     u.TotalPoints,
		AvailablePoints: u.AvailablePoints,
		UsedPoints:      u.TotalPoints - u.AvailablePoints,
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FILTER (WHERE kind = $2),
		        COUNT(*) FILTER (WHERE kind = $3),
		        COUNT(*)
		 FROM award_records WHERE user_id = $1`,
		userID, model.KindSingle, model.KindDouble).
		Scan(&stats.SingleCount, &stats.DoubleCount, &stats.TotalCount)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return stats, nil
}
