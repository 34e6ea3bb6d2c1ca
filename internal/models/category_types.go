package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category defines the struct for the 'categories' table
type Category struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Color     *string   `json:"color" db:"color"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Supplier defines the struct for the 'suppliers' table
type Supplier struct {
	ID            string              `json:"id" db:"id"`
	Name          string              `json:"name" db:"name"`
	Slug          string              `json:"slug" db:"slug"`
	BusinessName  *string             `json:"businessName" db:"business_name"`
	ContactName   *string             `json:"contactName" db:"contact_name"`
	Phone         *string             `json:"phone" db:"phone"`
	Email         *string             `json:"email" db:"email"`
	Website       *string             `json:"website" db:"website"`
	Address       *string             `json:"address" db:"address"`
	Notes         *string             `json:"notes" db:"notes"`
	SupplierType  *string             `json:"supplierType" db:"supplier_type"`
	IsActive      bool                `json:"isActive" db:"is_active"`
	MinOrderType  *string             `json:"minOrderType" db:"min_order_type"`
	MinOrderValue decimal.NullDecimal `json:"minOrderValue" db:"min_order_value"`
	CreatedAt     time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time           `json:"updatedAt" db:"updated_at"`
}

// StorageLocation defines the struct for the 'storage_locations' table
type StorageLocation struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description *string   `json:"description" db:"description"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Refs are the slim shapes embedded in item responses.
type CategoryRef struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

type SupplierRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type StorageLocationRef struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// SystemSetting is a key/value row in 'system_settings'.
type SystemSetting struct {
	Key         string    `json:"key" db:"setting_key"`
	Value       string    `json:"value" db:"setting_value"`
	Description *string   `json:"description" db:"description"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

const SettingMaintenanceMode = "maintenance_mode"
