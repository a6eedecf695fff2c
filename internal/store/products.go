package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"points-mall/internal/model"
	"points-mall/internal/storage"
)

const productColumns = `id, name, description, image_url, points_required, stock,
	status, sort_order, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.PointsRequired,
		&p.Stock, &p.Status, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *model.Product) error {
	return s.db.QueryRowContext(ctx,
		`INSERT INTO products (name, description, image_url, points_required, stock, status, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.ImageURL, p.PointsRequired, p.Stock, p.Status, p.SortOrder).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (s *Store) ProductByID(ctx context.Context, id int) (*model.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrProductNotFound
	}
	return p, err
}

func (s *Store) ListProducts(ctx context.Context, f storage.ProductFilter) ([]model.Product, int, error) {
	var conds []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, `status = $`+itoa(len(args)))
	}
	if f.Keyword != "" {
		args = append(args, "%"+strings.TrimSpace(f.Keyword)+"%")
		conds = append(conds, `name ILIKE $`+itoa(len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Page, f.PerPage)
	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products `+where+
			` ORDER BY sort_order ASC, id DESC LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (s *Store) UpdateProduct(ctx context.Context, p *model.Product) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products
		 SET name = $1, description = $2, image_url = $3, points_required = $4,
		     stock = $5, status = $6, sort_order = $7,
		     updated_at = now() at time zone 'utc'
		 WHERE id = $8`,
		p.Name, p.Description, p.ImageURL, p.PointsRequired, p.Stock, p.Status,
		p.SortOrder, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res, storage.ErrProductNotFound)
}

// DeleteProduct removes a catalog entry. Deletion is refused while any
// redemption record references the product, so cancellation can always
// restore stock against a live row and history stays attributable.
func (s *Store) DeleteProduct(ctx context.Context, id int) error {
	return s.InTx(ctx, func(tx storage.Tx) error {
		st := tx.(*sqlTx)
		if _, err := st.ProductForUpdate(ctx, id); err != nil {
			return err
		}
		var n int
		err := st.tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM redemption_records WHERE product_id = $1`, id).Scan(&n)
		if err != nil {
			return err
		}
		if n > 0 {
			return storage.ErrProductHasRedemptions
		}
		_, err = st.tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		return err
	})
}
