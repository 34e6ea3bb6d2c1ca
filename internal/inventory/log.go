package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/01moynul/stockroom/internal/models"
)

// ExpiryWindow is how far ahead the dashboard looks for expiring batches.
const ExpiryWindow = 30 * 24 * time.Hour

type TransactionFilter struct {
	Page   int
	Limit  int
	ItemID string
	UserID string
	Type   models.TransactionType
	Start  *time.Time
	End    *time.Time
}

type TransactionPage struct {
	Transactions []models.Transaction `json:"transactions"`
	Pagination   Pagination           `json:"pagination"`
}

// ListTransactions returns the audit log newest first.
func (s *Service) ListTransactions(ctx context.Context, f TransactionFilter) (*TransactionPage, error) {
	page, limit := NormalizePage(f.Page, f.Limit)

	var (
		where []string
		args  []any
	)
	if f.ItemID != "" {
		where = append(where, "t.item_id = ?")
		args = append(args, f.ItemID)
	}
	if f.UserID != "" {
		where = append(where, "t.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Type != "" {
		where = append(where, "t.transaction_type = ?")
		args = append(args, f.Type)
	}
	if f.Start != nil {
		where = append(where, "t.created_at >= ?")
		args = append(args, f.Start.UTC())
	}
	if f.End != nil {
		where = append(where, "t.created_at <= ?")
		args = append(args, f.End.UTC())
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions t"+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT t.id, t.item_id, t.user_id, t.transaction_type, t.amount, t.stock_after,
			t.batch_id, t.notes, t.created_at, i.display_name, u.email, u.full_name
		FROM transactions t
		JOIN items i ON i.id = t.item_id
		JOIN users u ON u.id = t.user_id`+clause+`
		ORDER BY t.created_at DESC, t.id DESC LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		var (
			t    models.Transaction
			item models.ItemSummary
			user models.UserSummary
		)
		if err := rows.Scan(&t.ID, &t.ItemID, &t.UserID, &t.TransactionType, &t.Amount, &t.StockAfter,
			&t.BatchID, &t.Notes, &t.CreatedAt, &item.DisplayName, &user.Email, &user.FullName); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		item.ID, user.ID = t.ItemID, t.UserID
		t.Item, t.User = &item, &user
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return &TransactionPage{Transactions: out, Pagination: newPagination(page, limit, total)}, nil
}

// Stats is the dashboard summary.
type Stats struct {
	TotalItems     int             `json:"totalItems"`
	TotalUnits     int             `json:"totalUnits"`
	LowStock       int             `json:"lowStock"`
	CriticalLow    int             `json:"criticalLow"`
	OutOfStock     int             `json:"outOfStock"`
	ExpiringSoon   int             `json:"expiringSoon"`
	Expired        int             `json:"expired"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var (
		st    Stats
		value decimal.NullDecimal
	)
	err := s.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(current_stock), 0),
			COALESCE(SUM(CASE WHEN current_stock <= reorder_qty THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_critical = 1 AND current_stock <= reorder_qty THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN current_stock = 0 THEN 1 ELSE 0 END), 0),
			SUM(cost * current_stock)
		FROM items`).
		Scan(&st.TotalItems, &st.TotalUnits, &st.LowStock, &st.CriticalLow, &st.OutOfStock, &value)
	if err != nil {
		return nil, fmt.Errorf("item stats: %w", err)
	}
	if value.Valid {
		st.InventoryValue = value.Decimal
	}

	now := s.now().UTC()
	err = s.db.QueryRowContext(ctx, `SELECT
			COALESCE(SUM(CASE WHEN expiry_date >= ? AND expiry_date <= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN expiry_date < ? THEN 1 ELSE 0 END), 0)
		FROM item_batches WHERE quantity > 0 AND expiry_date IS NOT NULL`,
		now, now.Add(ExpiryWindow), now).
		Scan(&st.ExpiringSoon, &st.Expired)
	if err != nil {
		return nil, fmt.Errorf("batch stats: %w", err)
	}
	return &st, nil
}
