package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/models"
)

// --- Users ---

const userColumns = "id, email, password_hash, full_name, role, is_active, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY email ASC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// CreateUser adds an account without a password; the user picks one on
// first login.
func (s *Service) CreateUser(ctx context.Context, in models.CreateUserInput) (*models.User, error) {
	email := models.NormalizeEmail(in.Email)
	var existing string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&existing)
	if err == nil {
		return nil, apperr.Conflict("A user with this email already exists", nil)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	role := in.Role
	if role == "" {
		role = models.RoleStaff
	}
	now := s.now().UTC()
	u := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  trimmed(in.FullName),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, NULL, ?, ?, ?, ?, ?)",
		u.ID, u.Email, u.FullName, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// UpdateUser changes name, role or active flag. An admin cannot demote or
// deactivate their own account.
func (s *Service) UpdateUser(ctx context.Context, actor models.AuthUser, id string, in models.UpdateUserInput) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if in.FullName.Set {
		u.FullName = trimmed(in.FullName.Ptr())
	}
	if in.Role.Set && !in.Role.Null {
		u.Role = in.Role.Value
	}
	if in.IsActive.Set && !in.IsActive.Null {
		u.IsActive = in.IsActive.Value
	}
	if u.ID == actor.ID && (u.Role != models.RoleAdmin || !u.IsActive) {
		return nil, apperr.BusinessRule("You cannot remove your own admin access")
	}
	u.UpdatedAt = s.now().UTC()

	_, err = s.db.ExecContext(ctx, "UPDATE users SET full_name = ?, role = ?, is_active = ?, updated_at = ? WHERE id = ?",
		u.FullName, u.Role, u.IsActive, u.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

// --- System settings ---

func (s *Service) ListSettings(ctx context.Context) ([]models.SystemSetting, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT setting_key, setting_value, description, updated_at FROM system_settings ORDER BY setting_key")
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := []models.SystemSetting{}
	for rows.Next() {
		var st models.SystemSetting
		if err := rows.Scan(&st.Key, &st.Value, &st.Description, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Setting returns the stored value, or "" when the key was never set.
func (s *Service) Setting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT setting_value FROM system_settings WHERE setting_key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, nil
}

// MaintenanceMode reports whether the maintenance_mode setting is "true".
func (s *Service) MaintenanceMode(ctx context.Context) (bool, error) {
	v, err := s.Setting(ctx, models.SettingMaintenanceMode)
	return v == "true", err
}

// UpsertSetting writes key. The description is kept when in omits it.
func (s *Service) UpsertSetting(ctx context.Context, key string, in models.UpdateSettingInput) (*models.SystemSetting, error) {
	now := s.now().UTC()
	st := models.SystemSetting{Key: key, Value: in.Value, Description: in.Description, UpdatedAt: now}

	var current sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT description FROM system_settings WHERE setting_key = ?", key).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO system_settings (setting_key, setting_value, description, updated_at) VALUES (?, ?, ?, ?)",
			key, st.Value, st.Description, now)
	case err == nil:
		if st.Description == nil && current.Valid {
			st.Description = &current.String
		}
		_, err = s.db.ExecContext(ctx,
			"UPDATE system_settings SET setting_value = ?, description = ?, updated_at = ? WHERE setting_key = ?",
			st.Value, st.Description, now, key)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return &st, nil
}
