// Package inventory owns items, their batches and the stock audit log.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/database"
	"github.com/01moynul/stockroom/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultReorder  = 10

	// MaxPage keeps (page-1)*limit far from overflowing the OFFSET.
	MaxPage = 1_000_000
)

type Service struct {
	db  *sql.DB
	now func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Pagination is echoed back with every list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NormalizePage applies the defaults (page 1, limit 20), clamps limit to
// 1..100 and page to 1..MaxPage.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func newPagination(page, limit, total int) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// CreateItem inserts an item and its "Item created" audit row together.
func (s *Service) CreateItem(ctx context.Context, actor models.AuthUser, in models.CreateItemInput) (*models.Item, error) {
	now := s.now().UTC()
	it := models.Item{
		ID:                uuid.NewString(),
		Brand:             in.Brand,
		BaseName:          strings.TrimSpace(in.BaseName),
		Size:              in.Size,
		QtyWeight:         in.QtyWeight,
		Description:       in.Description,
		ImageURL:          in.ImageURL,
		HasExpiry:         in.HasExpiry,
		IsCritical:        in.IsCritical,
		StorageLocationID: in.StorageLocationID,
		CategoryID:        in.CategoryID,
		SupplierID:        in.SupplierID,
		ReorderQty:        DefaultReorder,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.Cost != nil {
		it.Cost = decimal.NewNullDecimal(*in.Cost)
	}
	if in.ReorderQty != nil {
		it.ReorderQty = *in.ReorderQty
	}
	if in.CurrentStock != nil {
		it.CurrentStock = *in.CurrentStock
	}
	it.RefreshDisplayName()

	var created *models.Item
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		// 1. Referenced category, supplier and location must exist.
		if err := checkRefs(ctx, tx, it.CategoryID, it.SupplierID, it.StorageLocationID); err != nil {
			return err
		}

		// 2. Insert the row.
		_, err := tx.ExecContext(ctx, `INSERT INTO items
			(id, brand, base_name, size, qty_weight, display_name, description, image_url, has_expiry, is_critical,
			 storage_location_id, category_id, supplier_id, cost, reorder_qty, current_stock, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			it.ID, it.Brand, it.BaseName, it.Size, it.QtyWeight, it.DisplayName, it.Description, it.ImageURL, it.HasExpiry, it.IsCritical,
			it.StorageLocationID, it.CategoryID, it.SupplierID, it.Cost, it.ReorderQty, it.CurrentStock, it.CreatedAt, it.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}

		// 3. Zero-amount audit row so the log shows when the item appeared.
		if err := s.logEdit(ctx, tx, actor, it.ID, it.CurrentStock, "Item created", now); err != nil {
			return err
		}

		created, err = loadItem(ctx, tx, it.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetItem returns the item with its relations and all batches.
func (s *Service) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return loadItem(ctx, s.db, id)
}

// UpdateItem applies a partial update. Absent fields keep their value,
// null clears nullable ones, and the display name is rebuilt from the
// merged result.
func (s *Service) UpdateItem(ctx context.Context, actor models.AuthUser, id string, in models.UpdateItemInput) (*models.Item, error) {
	var updated *models.Item
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		it, err := loadItem(ctx, tx, id)
		if err != nil {
			return err
		}
		applyPatch(it, in)
		it.RefreshDisplayName()

		if err := checkRefs(ctx, tx, it.CategoryID, it.SupplierID, it.StorageLocationID); err != nil {
			return err
		}

		now := s.now().UTC()
		res, err := tx.ExecContext(ctx, `UPDATE items SET
			brand = ?, base_name = ?, size = ?, qty_weight = ?, display_name = ?, description = ?, image_url = ?,
			has_expiry = ?, is_critical = ?, storage_location_id = ?, category_id = ?, supplier_id = ?, cost = ?,
			reorder_qty = ?, current_stock = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`,
			it.Brand, it.BaseName, it.Size, it.QtyWeight, it.DisplayName, it.Description, it.ImageURL,
			it.HasExpiry, it.IsCritical, it.StorageLocationID, it.CategoryID, it.SupplierID, it.Cost,
			it.ReorderQty, it.CurrentStock, now, id, it.Version)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("update item: %w", err)
		} else if n == 0 {
			return ErrConcurrentUpdate
		}

		if err := s.logEdit(ctx, tx, actor, id, it.CurrentStock, "Item updated", now); err != nil {
			return err
		}

		updated, err = loadItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func applyPatch(it *models.Item, in models.UpdateItemInput) {
	setStr := func(dst **string, o models.Optional[string]) {
		if o.Set {
			*dst = o.Ptr()
		}
	}
	setStr(&it.Brand, in.Brand)
	setStr(&it.Size, in.Size)
	setStr(&it.QtyWeight, in.QtyWeight)
	setStr(&it.Description, in.Description)
	setStr(&it.ImageURL, in.ImageURL)
	setStr(&it.StorageLocationID, in.StorageLocationID)
	setStr(&it.CategoryID, in.CategoryID)
	setStr(&it.SupplierID, in.SupplierID)

	if in.BaseName.Set && !in.BaseName.Null {
		it.BaseName = strings.TrimSpace(in.BaseName.Value)
	}
	if in.HasExpiry.Set && !in.HasExpiry.Null {
		it.HasExpiry = in.HasExpiry.Value
	}
	if in.IsCritical.Set && !in.IsCritical.Null {
		it.IsCritical = in.IsCritical.Value
	}
	if in.Cost.Set {
		if in.Cost.Null {
			it.Cost = decimal.NullDecimal{}
		} else {
			it.Cost = decimal.NewNullDecimal(in.Cost.Value)
		}
	}
	if in.ReorderQty.Set && !in.ReorderQty.Null {
		it.ReorderQty = in.ReorderQty.Value
	}
	if in.CurrentStock.Set && !in.CurrentStock.Null {
		it.CurrentStock = in.CurrentStock.Value
	}
}

// logEdit appends a zero-amount audit row for a non-stock change.
func (s *Service) logEdit(ctx context.Context, q database.Querier, actor models.AuthUser, itemID string, stock int, note string, at time.Time) error {
	return insertTransaction(ctx, q, &models.Transaction{
		ID:              uuid.NewString(),
		ItemID:          itemID,
		UserID:          actor.ID,
		TransactionType: models.StockIn,
		Amount:          0,
		StockAfter:      stock,
		Notes:           &note,
		CreatedAt:       at,
	})
}

// DeleteItem removes the item with its batches and its audit history.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM items WHERE id = ?", id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("Item not found")
		}
		if err != nil {
			return fmt.Errorf("find item: %w", err)
		}

		for _, stmt := range []string{
			"DELETE FROM item_batches WHERE item_id = ?",
			"DELETE FROM transactions WHERE item_id = ?",
			"DELETE FROM items WHERE id = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete item: %w", err)
			}
		}
		return nil
	})
}

// ListParams are the item list filters. Nil booleans mean "no filter".
type ListParams struct {
	Page       int
	Limit      int
	Search     string
	CategoryID string
	SupplierID string
	LocationID string
	HasExpiry  *bool
	IsCritical *bool
	LowStock   bool
}

type ItemPage struct {
	Items      []models.Item `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// ListItems returns one page ordered critical-first, then by display name.
// Each item carries only its non-empty batches.
func (s *Service) ListItems(ctx context.Context, p ListParams) (*ItemPage, error) {
	page, limit := NormalizePage(p.Page, p.Limit)

	var (
		where []string
		args  []any
	)
	if search := strings.TrimSpace(p.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		where = append(where, "(LOWER(i.brand) LIKE ? ESCAPE '!' OR LOWER(i.display_name) LIKE ? ESCAPE '!' OR LOWER(i.base_name) LIKE ? ESCAPE '!')")
		args = append(args, pattern, pattern, pattern)
	}
	if p.CategoryID != "" {
		where = append(where, "i.category_id = ?")
		args = append(args, p.CategoryID)
	}
	if p.SupplierID != "" {
		where = append(where, "i.supplier_id = ?")
		args = append(args, p.SupplierID)
	}
	if p.LocationID != "" {
		where = append(where, "i.storage_location_id = ?")
		args = append(args, p.LocationID)
	}
	if p.HasExpiry != nil {
		where = append(where, "i.has_expiry = ?")
		args = append(args, *p.HasExpiry)
	}
	if p.IsCritical != nil {
		where = append(where, "i.is_critical = ?")
		args = append(args, *p.IsCritical)
	}
	if p.LowStock {
		where = append(where, "i.current_stock <= i.reorder_qty")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items i"+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	items, err := s.queryItems(ctx, itemSelect+clause+" ORDER BY i.is_critical DESC, i.display_name ASC, i.id ASC LIMIT ? OFFSET ?",
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	batches, err := loadBatches(ctx, s.db, ids, true)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if b, ok := batches[items[i].ID]; ok {
			items[i].Batches = b
		}
	}

	return &ItemPage{Items: items, Pagination: newPagination(page, limit, total)}, nil
}

// queryItems drains the result set before returning so the connection is
// free for follow-up queries.
func (s *Service) queryItems(ctx context.Context, query string, args ...any) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}
