// Package ledger holds the points-and-inventory rules: awards credit a user's
// counters, redemptions trade available points for stock, cancellations
// reverse a completed redemption. Every operation runs inside one storage
// transaction so the balance mutation and the record justifying it are
// always committed together.
package ledger

import (
	"context"
	"errors"

	"points-mall/internal/model"
	"points-mall/internal/storage"
)

var (
	ErrForbidden          = errors.New("operation not permitted")
	ErrInvalidKind        = errors.New("unknown award kind")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrProductUnlisted    = errors.New("product is not listed")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrNotCancellable     = errors.New("only a completed redemption can be cancelled")
)

// Actor is the verified identity of the caller, supplied explicitly by the
// transport layer after authentication.
type Actor struct {
	ID   int
	Role model.Role
}

func (a Actor) isAdmin() bool { return a.Role == model.RoleAdmin }

type Ledger struct {
	store storage.Storage
}

func New(store storage.Storage) *Ledger {
	return &Ledger{store: store}
}

// Award grants a thumbs-up of the given kind to a recipient, crediting both
// total and available points. Only admins may award. Repeated calls create
// independent records; each call stands for a distinct acknowledgment.
func (l *Ledger) Award(ctx context.Context, actor Actor, recipientID int, kind model.AwardKind, reason string) (*model.AwardRecord, error) {
	if !actor.isAdmin() {
		return nil, ErrForbidden
	}
	points, ok := kind.Points()
	if !ok {
		return nil, ErrInvalidKind
	}

	rec := &model.AwardRecord{
		UserID:  recipientID,
		GivenBy: actor.ID,
		Kind:    kind,
		Points:  points,
		Reason:  reason,
	}
	err := l.store.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.UserForUpdate(ctx, recipientID); err != nil {
			return err
		}
		if err := tx.AddPoints(ctx, recipientID, points, points); err != nil {
			return err
		}
		return tx.InsertAward(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Redeem exchanges available points and product stock for quantity units of
// a listed product. Preconditions are evaluated in a fixed order: product
// exists, product listed, stock covers the quantity, quantity positive,
// points cover the price. The debits and the completed record commit
// atomically; the row locks taken here make two redemptions racing on the
// same user or product serialize, so at most one of two conflicting calls
// succeeds.
func (l *Ledger) Redeem(ctx context.Context, actor Actor, productID, quantity int) (*model.RedemptionRecord, error) {
	var rec *model.RedemptionRecord
	err := l.store.InTx(ctx, func(tx storage.Tx) error {
		// Lock ordering is user row first, product row second, in both
		// Redeem and Cancel.
		user, err := tx.UserForUpdate(ctx, actor.ID)
		if err != nil {
			return err
		}
		product, err := tx.ProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		if product.Status != model.ProductListed {
			return ErrProductUnlisted
		}
		if product.Stock < quantity {
			return ErrInsufficientStock
		}
		if quantity < 1 {
			return ErrInvalidQuantity
		}
		cost := product.PointsRequired * quantity
		if user.AvailablePoints < cost {
			return ErrInsufficientPoints
		}

		// total_points is untouched: it counts lifetime earnings.
		if err := tx.AddPoints(ctx, user.ID, 0, -cost); err != nil {
			return err
		}
		if err := tx.AddStock(ctx, product.ID, -quantity); err != nil {
			return err
		}
		rec = &model.RedemptionRecord{
			UserID:      user.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			PointsSpent: cost,
			Quantity:    quantity,
			Status:      model.RedemptionCompleted,
		}
		return tx.InsertRedemption(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Cancel reverses a completed redemption: the points come back to the
// record's owner, the stock comes back to the product, and the record moves
// to cancelled. Allowed for admins and for the record's owner. A cancelled
// record is terminal; cancelling twice fails rather than silently
// succeeding, since restoring the points twice would corrupt the balance.
func (l *Ledger) Cancel(ctx context.Context, actor Actor, recordID int) (*model.RedemptionRecord, error) {
	var rec *model.RedemptionRecord
	err := l.store.InTx(ctx, func(tx storage.Tx) error {
		var err error
		rec, err = tx.RedemptionForUpdate(ctx, recordID)
		if err != nil {
			return err
		}
		if !actor.isAdmin() && actor.ID != rec.UserID {
			return ErrForbidden
		}
		if rec.Status != model.RedemptionCompleted {
			return ErrNotCancellable
		}

		if _, err := tx.UserForUpdate(ctx, rec.UserID); err != nil {
			return err
		}
		if err := tx.AddPoints(ctx, rec.UserID, 0, rec.PointsSpent); err != nil {
			return err
		}

		// The product may have been deleted since; the points restoration
		// still applies, only the stock restore is skipped.
		_, err = tx.ProductForUpdate(ctx, rec.ProductID)
		switch {
		case err == nil:
			if err := tx.AddStock(ctx, rec.ProductID, rec.Quantity); err != nil {
				return err
			}
		case errors.Is(err, storage.ErrProductNotFound):
		default:
			return err
		}

		if err := tx.SetRedemptionStatus(ctx, rec.ID, model.RedemptionCancelled); err != nil {
			return err
		}
		rec.Status = model.RedemptionCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
