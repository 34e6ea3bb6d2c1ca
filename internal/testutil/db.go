// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/01moynul/stockroom/internal/database"
	"github.com/01moynul/stockroom/internal/models"
)

// NewDB returns a migrated SQLite database in t.TempDir(), closed on cleanup.
// It also drops the bcrypt cost so password fixtures stay fast.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "stockroom.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	models.PasswordCost = bcrypt.MinCost
	return db
}

// UserOpts tweaks SeedUser. Zero values give an active STAFF user without a password.
type UserOpts struct {
	Password string
	Role     models.Role
	FullName string
	Inactive bool
}

// SeedUser inserts a user and returns it.
func SeedUser(t *testing.T, db *sql.DB, email string, opts UserOpts) models.User {
	t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        uuid.NewString(),
		Email:     models.NormalizeEmail(email),
		Role:      opts.Role,
		IsActive:  !opts.Inactive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if u.Role == "" {
		u.Role = models.RoleStaff
	}
	if opts.FullName != "" {
		u.FullName = &opts.FullName
	}
	if opts.Password != "" {
		var p models.Password
		if err := p.Set(opts.Password); err != nil {
			t.Fatalf("hash password: %v", err)
		}
		u.PasswordHash = &p.Hash
	}

	_, err := db.Exec(`INSERT INTO users (id, email, password_hash, full_name, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// ItemOpts tweaks SeedItem.
type ItemOpts struct {
	Brand        string
	CurrentStock int
	ReorderQty   int
	HasExpiry    bool
	IsCritical   bool
	CategoryID   string
}

// SeedItem inserts an item directly, bypassing the audit log.
func SeedItem(t *testing.T, db *sql.DB, baseName string, opts ItemOpts) models.Item {
	t.Helper()

	now := time.Now().UTC()
	item := models.Item{
		ID:           uuid.NewString(),
		BaseName:     baseName,
		HasExpiry:    opts.HasExpiry,
		IsCritical:   opts.IsCritical,
		ReorderQty:   opts.ReorderQty,
		CurrentStock: opts.CurrentStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if opts.Brand != "" {
		item.Brand = &opts.Brand
	}
	if opts.CategoryID != "" {
		item.CategoryID = &opts.CategoryID
	}
	item.RefreshDisplayName()

	_, err := db.Exec(`INSERT INTO items (id, brand, base_name, display_name, has_expiry, is_critical, category_id,
			reorder_qty, current_stock, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		item.ID, item.Brand, item.BaseName, item.DisplayName, item.HasExpiry, item.IsCritical, item.CategoryID,
		item.ReorderQty, item.CurrentStock, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

// SeedBatch inserts a batch for itemID. expiry may be nil.
func SeedBatch(t *testing.T, db *sql.DB, itemID, code string, qty int, expiry *time.Time) models.ItemBatch {
	t.Helper()

	now := time.Now().UTC()
	b := models.ItemBatch{
		ID:           uuid.NewString(),
		ItemID:       itemID,
		BatchCode:    code,
		Quantity:     qty,
		ExpiryDate:   expiry,
		DateReceived: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := db.Exec(`INSERT INTO item_batches (id, item_id, batch_code, quantity, expiry_date, date_received, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ItemID, b.BatchCode, b.Quantity, b.ExpiryDate, b.DateReceived, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return b
}

// SeedCategory inserts an active category.
func SeedCategory(t *testing.T, db *sql.DB, name string) models.Category {
	t.Helper()

	now := time.Now().UTC()
	c := models.Category{ID: uuid.NewString(), Name: name, Slug: name, IsActive: true, CreatedAt: now, UpdatedAt: now}
	_, err := db.Exec(`INSERT INTO categories (id, name, slug, color, is_active, created_at, updated_at) VALUES (?, ?, ?, NULL, 1, ?, ?)`,
		c.ID, c.Name, c.Slug, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c
}

// SetSetting upserts a system setting row.
func SetSetting(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	_, err := db.Exec(`INSERT OR REPLACE INTO system_settings (setting_key, setting_value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UTC())
	if err != nil {
		t.Fatalf("set setting: %v", err)
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
