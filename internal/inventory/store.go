package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/database"
	"github.com/01moynul/stockroom/internal/models"
)

const itemSelect = `SELECT i.id, i.brand, i.base_name, i.size, i.qty_weight, i.display_name, i.description, i.image_url,
	i.has_expiry, i.is_critical, i.storage_location_id, i.category_id, i.supplier_id, i.cost,
	i.reorder_qty, i.current_stock, i.version, i.created_at, i.updated_at,
	c.name, c.color, s.name, l.name, l.description
FROM items i
LEFT JOIN categories c ON c.id = i.category_id
LEFT JOIN suppliers s ON s.id = i.supplier_id
LEFT JOIN storage_locations l ON l.id = i.storage_location_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*models.Item, error) {
	var it models.Item
	var catName, catColor, supName, locName, locDescription sql.NullString
	err := row.Scan(&it.ID, &it.Brand, &it.BaseName, &it.Size, &it.QtyWeight, &it.DisplayName, &it.Description, &it.ImageURL,
		&it.HasExpiry, &it.IsCritical, &it.StorageLocationID, &it.CategoryID, &it.SupplierID, &it.Cost,
		&it.ReorderQty, &it.CurrentStock, &it.Version, &it.CreatedAt, &it.UpdatedAt,
		&catName, &catColor, &supName, &locName, &locDescription)
	if err != nil {
		return nil, err
	}

	if it.CategoryID != nil && catName.Valid {
		it.Category = &models.CategoryRef{ID: *it.CategoryID, Name: catName.String, Color: nullable(catColor)}
	}
	if it.SupplierID != nil && supName.Valid {
		it.Supplier = &models.SupplierRef{ID: *it.SupplierID, Name: supName.String}
	}
	if it.StorageLocationID != nil && locName.Valid {
		it.StorageLocation = &models.StorageLocationRef{ID: *it.StorageLocationID, Name: locName.String, Description: nullable(locDescription)}
	}
	it.Batches = []models.ItemBatch{}
	return &it, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// loadItem returns the item with its relations and every batch, or a
// NotFound error.
func loadItem(ctx context.Context, q database.Querier, id string) (*models.Item, error) {
	it, err := scanItem(q.QueryRowContext(ctx, itemSelect+" WHERE i.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load item: %w", err)
	}

	batches, err := loadBatches(ctx, q, []string{id}, false)
	if err != nil {
		return nil, err
	}
	if b, ok := batches[id]; ok {
		it.Batches = b
	}
	return it, nil
}

// loadBatches groups batches by item id, soonest expiry first with undated
// batches last. inStockOnly drops empty batches.
func loadBatches(ctx context.Context, q database.Querier, itemIDs []string, inStockOnly bool) (map[string][]models.ItemBatch, error) {
	out := make(map[string][]models.ItemBatch, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}
	query := `SELECT id, item_id, batch_code, quantity, expiry_date, date_received, created_at, updated_at
		FROM item_batches WHERE item_id IN (` + placeholders(len(itemIDs)) + `)`
	if inStockOnly {
		query += " AND quantity > 0"
	}
	query += " ORDER BY expiry_date IS NULL, expiry_date ASC, created_at ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.ItemBatch
		if err := rows.Scan(&b.ID, &b.ItemID, &b.BatchCode, &b.Quantity, &b.ExpiryDate, &b.DateReceived, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out[b.ItemID] = append(out[b.ItemID], b)
	}
	return out, rows.Err()
}

func insertTransaction(ctx context.Context, q database.Querier, t *models.Transaction) error {
	_, err := q.ExecContext(ctx, `INSERT INTO transactions
		(id, item_id, user_id, transaction_type, amount, stock_after, batch_id, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ItemID, t.UserID, t.TransactionType, t.Amount, t.StockAfter, t.BatchID, t.Notes, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// checkRefs turns dangling category/supplier/location ids into field errors
// instead of foreign key failures.
func checkRefs(ctx context.Context, q database.Querier, categoryID, supplierID, locationID *string) error {
	refs := []struct {
		field, table, label string
		id                  *string
	}{
		{"categoryId", "categories", "Category", categoryID},
		{"supplierId", "suppliers", "Supplier", supplierID},
		{"storageLocationId", "storage_locations", "Storage location", locationID},
	}

	var fields []apperr.FieldError
	for _, r := range refs {
		if r.id == nil {
			continue
		}
		var one int
		err := q.QueryRowContext(ctx, "SELECT 1 FROM "+r.table+" WHERE id = ?", *r.id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			fields = append(fields, apperr.FieldError{Field: r.field, Message: r.label + " not found"})
			continue
		}
		if err != nil {
			return fmt.Errorf("check %s: %w", r.table, err)
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("Validation error", fields...)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// escapeLike escapes LIKE wildcards with '!' so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
