package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/database"
	"github.com/01moynul/stockroom/internal/models"
)

// ErrConcurrentUpdate means another writer changed the item between our
// read and our write. The caller sees a plain failure; nothing is retried.
var ErrConcurrentUpdate = errors.New("item was modified concurrently")

// StockResult is the response of a stock adjustment.
type StockResult struct {
	Item        *models.Item        `json:"item"`
	Transaction *models.Transaction `json:"transaction"`
	Duration    int64               `json:"duration"` // milliseconds
}

// ComputeAdjustment returns the new stock level and the signed delta.
// A result below zero or above models.MaxQuantity is rejected.
func ComputeAdjustment(current int, kind models.AdjustmentType, quantity int) (newQty, delta int, err error) {
	if quantity <= 0 || quantity > models.MaxQuantity {
		return 0, 0, apperr.Validation("Validation error", apperr.FieldError{Field: "quantity", Message: fmt.Sprintf("Quantity must be between 1 and %d", models.MaxQuantity)})
	}

	switch kind {
	case models.AdjustAdd:
		newQty, delta = current+quantity, quantity
	case models.AdjustRemove:
		newQty, delta = current-quantity, -quantity
	case models.AdjustSet:
		newQty, delta = quantity, quantity-current
	default:
		return 0, 0, apperr.Validation("Validation error", apperr.FieldError{Field: "type", Message: "Type must be one of ADD, REMOVE, SET"})
	}
	if newQty < 0 {
		return 0, 0, apperr.BusinessRule("Stock cannot be negative")
	}
	if newQty > models.MaxQuantity {
		return 0, 0, apperr.BusinessRule(fmt.Sprintf("Stock cannot exceed %d", models.MaxQuantity))
	}
	return newQty, delta, nil
}

// AdjustStock applies one validated adjustment. The item update, the log
// row and any batch change commit together or not at all.
func (s *Service) AdjustStock(ctx context.Context, actor models.AuthUser, itemID string, adj models.StockAdjustment) (*StockResult, error) {
	start := time.Now()
	var result StockResult

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		// 1. Read the current level and version inside the transaction.
		var (
			current   int
			version   int64
			hasExpiry bool
		)
		err := tx.QueryRowContext(ctx, "SELECT current_stock, version, has_expiry FROM items WHERE id = ?", itemID).
			Scan(&current, &version, &hasExpiry)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("Item not found")
		}
		if err != nil {
			return fmt.Errorf("read item: %w", err)
		}

		// 2. Compute the new level; nothing has been written yet.
		newQty, delta, err := ComputeAdjustment(current, adj.Type, adj.Quantity)
		if err != nil {
			return err
		}

		// 3. Batch bookkeeping (expiry-tracked items only).
		now := s.now().UTC()
		var batchID *string
		if hasExpiry {
			if batchID, err = applyBatch(ctx, tx, itemID, adj, now); err != nil {
				return err
			}
		}

		// 4. Guarded write: a bumped version means someone else got here first.
		res, err := tx.ExecContext(ctx,
			"UPDATE items SET current_stock = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?",
			newQty, now, itemID, version)
		if err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("update stock: %w", err)
		} else if n == 0 {
			return ErrConcurrentUpdate
		}

		// 5. Audit row, then reload the item for the response.
		reason := adj.Reason
		txn := &models.Transaction{
			ID:              uuid.NewString(),
			ItemID:          itemID,
			UserID:          actor.ID,
			TransactionType: models.TransactionTypeFor(delta),
			Amount:          delta,
			StockAfter:      newQty,
			BatchID:         batchID,
			Notes:           &reason,
			CreatedAt:       now,
		}
		if err := insertTransaction(ctx, tx, txn); err != nil {
			return err
		}

		item, err := loadItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		result.Item, result.Transaction = item, txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start).Milliseconds()
	return &result, nil
}

// applyBatch mutates the batch an adjustment names and returns its id, or
// nil when no batch was touched. SET never touches batches. A batch id
// that is not one of this item's batches fails the adjustment.
func applyBatch(ctx context.Context, tx *sql.Tx, itemID string, adj models.StockAdjustment, now time.Time) (*string, error) {
	switch {
	case adj.Type == models.AdjustAdd && adj.BatchID != nil:
		res, err := tx.ExecContext(ctx,
			"UPDATE item_batches SET quantity = quantity + ?, updated_at = ? WHERE id = ? AND item_id = ?",
			adj.Quantity, now, *adj.BatchID, itemID)
		if err != nil {
			return nil, fmt.Errorf("increment batch: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("increment batch: %w", err)
		} else if n == 0 {
			return nil, apperr.NotFound("Batch not found")
		}
		return adj.BatchID, nil

	case adj.Type == models.AdjustAdd && adj.BatchCode != nil && adj.ExpiryDate != nil:
		received := now
		if adj.DateReceived != nil {
			received = *adj.DateReceived
		}
		id := uuid.NewString()
		_, err := tx.ExecContext(ctx, `INSERT INTO item_batches
			(id, item_id, batch_code, quantity, expiry_date, date_received, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, itemID, *adj.BatchCode, adj.Quantity, adj.ExpiryDate.UTC(), received.UTC(), now, now)
		if err != nil {
			return nil, fmt.Errorf("create batch: %w", err)
		}
		return &id, nil

	case adj.Type == models.AdjustRemove && adj.BatchID != nil:
		var qty int
		err := tx.QueryRowContext(ctx, "SELECT quantity FROM item_batches WHERE id = ? AND item_id = ?", *adj.BatchID, itemID).Scan(&qty)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Batch not found")
		}
		if err != nil {
			return nil, fmt.Errorf("read batch: %w", err)
		}

		if left := qty - adj.Quantity; left > 0 {
			_, err = tx.ExecContext(ctx, "UPDATE item_batches SET quantity = ?, updated_at = ? WHERE id = ?", left, now, *adj.BatchID)
		} else {
			_, err = tx.ExecContext(ctx, "DELETE FROM item_batches WHERE id = ?", *adj.BatchID)
		}
		if err != nil {
			return nil, fmt.Errorf("decrement batch: %w", err)
		}
		return adj.BatchID, nil
	}
	return nil, nil
}
