package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/models"
)

// --- Categories ---

func (s *Service) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := "SELECT id, name, slug, color, is_active, created_at, updated_at FROM categories"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Color, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Service) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx, "SELECT id, name, slug, color, is_active, created_at, updated_at FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Color, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (s *Service) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	if err := ensureNameFree(ctx, s.db, "categories", "Category", in.Name, ""); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := models.Category{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Slug:      makeSlug(in.Name),
		Color:     in.Color,
		IsActive:  boolOr(in.IsActive, true),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (id, name, slug, color, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Slug, c.Color, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

// UpdateCategory changes only the keys present in the body. The slug follows
// the name and is left alone when no name is sent.
func (s *Service) UpdateCategory(ctx context.Context, id string, in models.UpdateCategoryInput) (*models.Category, error) {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name.Set && !in.Name.Null {
		if err := ensureNameFree(ctx, s.db, "categories", "Category", in.Name.Value, id); err != nil {
			return nil, err
		}
		c.Name = strings.TrimSpace(in.Name.Value)
		c.Slug = makeSlug(in.Name.Value)
	}
	patchString(&c.Color, in.Color)
	patchBool(&c.IsActive, in.IsActive)
	c.UpdatedAt = s.now().UTC()

	_, err = s.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, slug = ?, color = ?, is_active = ?, updated_at = ? WHERE id = ?",
		c.Name, c.Slug, c.Color, c.IsActive, c.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes the category; its items become uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.detach(ctx, "categories", "category_id", "Category", id)
}

// --- Suppliers ---

const supplierColumns = `id, name, slug, business_name, contact_name, phone, email, website, address, notes,
	supplier_type, is_active, min_order_type, min_order_value, created_at, updated_at`

func scanSupplier(row interface{ Scan(...any) error }) (*models.Supplier, error) {
	var sp models.Supplier
	err := row.Scan(&sp.ID, &sp.Name, &sp.Slug, &sp.BusinessName, &sp.ContactName, &sp.Phone, &sp.Email, &sp.Website,
		&sp.Address, &sp.Notes, &sp.SupplierType, &sp.IsActive, &sp.MinOrderType, &sp.MinOrderValue, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *Service) ListSuppliers(ctx context.Context, activeOnly bool) ([]models.Supplier, error) {
	query := "SELECT " + supplierColumns + " FROM suppliers"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	out := []models.Supplier{}
	for rows.Next() {
		sp, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, *sp)
	}
	return out, rows.Err()
}

func (s *Service) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	sp, err := scanSupplier(s.db.QueryRowContext(ctx, "SELECT "+supplierColumns+" FROM suppliers WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Supplier not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return sp, nil
}

func applySupplier(sp *models.Supplier, in models.SupplierInput) {
	sp.Name = strings.TrimSpace(in.Name)
	sp.Slug = makeSlug(in.Name)
	sp.BusinessName = in.BusinessName
	sp.ContactName = in.ContactName
	sp.Phone = in.Phone
	sp.Email = in.Email
	sp.Website = in.Website
	sp.Address = in.Address
	sp.Notes = in.Notes
	sp.SupplierType = in.SupplierType
	sp.IsActive = boolOr(in.IsActive, sp.IsActive)
	sp.MinOrderType = in.MinOrderType
	sp.MinOrderValue.Valid = in.MinOrderValue != nil
	if in.MinOrderValue != nil {
		sp.MinOrderValue.Decimal = *in.MinOrderValue
	}
}

func (s *Service) CreateSupplier(ctx context.Context, in models.SupplierInput) (*models.Supplier, error) {
	if err := ensureNameFree(ctx, s.db, "suppliers", "Supplier", in.Name, ""); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sp := &models.Supplier{ID: uuid.NewString(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	applySupplier(sp, in)

	_, err := s.db.ExecContext(ctx, "INSERT INTO suppliers ("+supplierColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		sp.ID, sp.Name, sp.Slug, sp.BusinessName, sp.ContactName, sp.Phone, sp.Email, sp.Website, sp.Address, sp.Notes,
		sp.SupplierType, sp.IsActive, sp.MinOrderType, sp.MinOrderValue, sp.CreatedAt, sp.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	return sp, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id string, in models.UpdateSupplierInput) (*models.Supplier, error) {
	sp, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name.Set && !in.Name.Null {
		if err := ensureNameFree(ctx, s.db, "suppliers", "Supplier", in.Name.Value, id); err != nil {
			return nil, err
		}
		sp.Name = strings.TrimSpace(in.Name.Value)
		sp.Slug = makeSlug(in.Name.Value)
	}
	patchString(&sp.BusinessName, in.BusinessName)
	patchString(&sp.ContactName, in.ContactName)
	patchString(&sp.Phone, in.Phone)
	patchString(&sp.Email, in.Email)
	patchString(&sp.Website, in.Website)
	patchString(&sp.Address, in.Address)
	patchString(&sp.Notes, in.Notes)
	patchString(&sp.SupplierType, in.SupplierType)
	patchString(&sp.MinOrderType, in.MinOrderType)
	patchBool(&sp.IsActive, in.IsActive)
	if in.MinOrderValue.Set {
		if in.MinOrderValue.Null {
			sp.MinOrderValue = decimal.NullDecimal{}
		} else {
			sp.MinOrderValue = decimal.NewNullDecimal(in.MinOrderValue.Value)
		}
	}
	sp.UpdatedAt = s.now().UTC()

	_, err = s.db.ExecContext(ctx, `UPDATE suppliers SET name = ?, slug = ?, business_name = ?, contact_name = ?, phone = ?,
		email = ?, website = ?, address = ?, notes = ?, supplier_type = ?, is_active = ?, min_order_type = ?,
		min_order_value = ?, updated_at = ? WHERE id = ?`,
		sp.Name, sp.Slug, sp.BusinessName, sp.ContactName, sp.Phone, sp.Email, sp.Website, sp.Address, sp.Notes,
		sp.SupplierType, sp.IsActive, sp.MinOrderType, sp.MinOrderValue, sp.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update supplier: %w", err)
	}
	return sp, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	return s.detach(ctx, "suppliers", "supplier_id", "Supplier", id)
}

// --- Storage locations ---

func (s *Service) ListLocations(ctx context.Context, activeOnly bool) ([]models.StorageLocation, error) {
	query := "SELECT id, name, slug, description, is_active, created_at, updated_at FROM storage_locations"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	out := []models.StorageLocation{}
	for rows.Next() {
		var l models.StorageLocation
		if err := rows.Scan(&l.ID, &l.Name, &l.Slug, &l.Description, &l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Service) GetLocation(ctx context.Context, id string) (*models.StorageLocation, error) {
	var l models.StorageLocation
	err := s.db.QueryRowContext(ctx, "SELECT id, name, slug, description, is_active, created_at, updated_at FROM storage_locations WHERE id = ?", id).
		Scan(&l.ID, &l.Name, &l.Slug, &l.Description, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Storage location not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

func (s *Service) CreateLocation(ctx context.Context, in models.StorageLocationInput) (*models.StorageLocation, error) {
	if err := ensureNameFree(ctx, s.db, "storage_locations", "Storage location", in.Name, ""); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	l := models.StorageLocation{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Slug:        makeSlug(in.Name),
		Description: in.Description,
		IsActive:    boolOr(in.IsActive, true),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO storage_locations (id, name, slug, description, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		l.ID, l.Name, l.Slug, l.Description, l.IsActive, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	return &l, nil
}

func (s *Service) UpdateLocation(ctx context.Context, id string, in models.UpdateStorageLocationInput) (*models.StorageLocation, error) {
	l, err := s.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name.Set && !in.Name.Null {
		if err := ensureNameFree(ctx, s.db, "storage_locations", "Storage location", in.Name.Value, id); err != nil {
			return nil, err
		}
		l.Name = strings.TrimSpace(in.Name.Value)
		l.Slug = makeSlug(in.Name.Value)
	}
	patchString(&l.Description, in.Description)
	patchBool(&l.IsActive, in.IsActive)
	l.UpdatedAt = s.now().UTC()

	_, err = s.db.ExecContext(ctx,
		"UPDATE storage_locations SET name = ?, slug = ?, description = ?, is_active = ?, updated_at = ? WHERE id = ?",
		l.Name, l.Slug, l.Description, l.IsActive, l.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}
	return l, nil
}

func (s *Service) DeleteLocation(ctx context.Context, id string) error {
	return s.detach(ctx, "storage_locations", "storage_location_id", "Storage location", id)
}
