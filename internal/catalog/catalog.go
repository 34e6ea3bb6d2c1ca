// Package catalog manages reference data: categories, suppliers, storage
// locations, system settings and user accounts.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/database"
	"github.com/01moynul/stockroom/internal/models"
)

type Service struct {
	db  *sql.DB
	now func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Converts "Dry Goods & Spices" -> "dry-goods-and-spices"
func makeSlug(name string) string {
	return slug.Make(strings.TrimSpace(name))
}

// ensureNameFree returns a Conflict error when another row in table already
// uses name (case-insensitive). exceptID is skipped on updates.
func ensureNameFree(ctx context.Context, q database.Querier, table, label, name, exceptID string) error {
	var id string
	err := q.QueryRowContext(ctx,
		"SELECT id FROM "+table+" WHERE LOWER(name) = LOWER(?) AND id <> ?", strings.TrimSpace(name), exceptID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check %s name: %w", table, err)
	}
	return apperr.Conflict(label+" with this name already exists", nil)
}

// detach deletes a reference row and clears the matching column on items
// in one transaction.
func (s *Service) detach(ctx context.Context, table, itemColumn, label, id string) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE items SET "+itemColumn+" = NULL, updated_at = ? WHERE "+itemColumn+" = ?", s.now().UTC(), id); err != nil {
			return fmt.Errorf("detach items: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		} else if n == 0 {
			return apperr.NotFound(label + " not found")
		}
		return nil
	})
}

func boolOr(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

// patchString copies a sent key onto dst; null clears it.
func patchString(dst **string, o models.Optional[string]) {
	if o.Set {
		*dst = o.Ptr()
	}
}

func patchBool(dst *bool, o models.Optional[bool]) {
	if o.Set && !o.Null {
		*dst = o.Value
	}
}
