package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// --- Auth ---

type CheckEmailInput struct {
	Email string `json:"email"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SetupPasswordInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// --- Items ---

// CreateItemInput is the body of POST /api/items.
type CreateItemInput struct {
	Brand             *string          `json:"brand"`
	BaseName          string           `json:"baseName"`
	Size              *string          `json:"size"`
	QtyWeight         *string          `json:"qtyWeight"`
	Description       *string          `json:"description"`
	ImageURL          *string          `json:"imageUrl"`
	HasExpiry         bool             `json:"hasExpiry"`
	IsCritical        bool             `json:"isCritical"`
	StorageLocationID *string          `json:"storageLocationId"`
	CategoryID        *string          `json:"categoryId"`
	SupplierID        *string          `json:"supplierId"`
	Cost              *decimal.Decimal `json:"cost"`
	ReorderQty        *int             `json:"reorderQty"`
	CurrentStock      *int             `json:"currentStock"`
}

// UpdateItemInput is the body of PUT /api/items/:id. Absent keys keep
// their stored value; null clears a nullable column.
type UpdateItemInput struct {
	Brand             Optional[string]          `json:"brand"`
	BaseName          Optional[string]          `json:"baseName"`
	Size              Optional[string]          `json:"size"`
	QtyWeight         Optional[string]          `json:"qtyWeight"`
	Description       Optional[string]          `json:"description"`
	ImageURL          Optional[string]          `json:"imageUrl"`
	HasExpiry         Optional[bool]            `json:"hasExpiry"`
	IsCritical        Optional[bool]            `json:"isCritical"`
	StorageLocationID Optional[string]          `json:"storageLocationId"`
	CategoryID        Optional[string]          `json:"categoryId"`
	SupplierID        Optional[string]          `json:"supplierId"`
	Cost              Optional[decimal.Decimal] `json:"cost"`
	ReorderQty        Optional[int]             `json:"reorderQty"`
	CurrentStock      Optional[int]             `json:"currentStock"`
}

// StockAdjustmentInput is the body of POST /api/items/:id/stock.
// Dates are ISO-8601 strings; both "2026-01-31" and RFC 3339 are accepted.
type StockAdjustmentInput struct {
	Type         string  `json:"type"` // ADD | REMOVE | SET
	Quantity     int     `json:"quantity"`
	Reason       string  `json:"reason"`
	BatchID      *string `json:"batchId"`
	BatchCode    *string `json:"batchCode"`
	ExpiryDate   *string `json:"expiryDate"`
	DateReceived *string `json:"dateReceived"`
}

type AdjustmentType string

const (
	AdjustAdd    AdjustmentType = "ADD"
	AdjustRemove AdjustmentType = "REMOVE"
	AdjustSet    AdjustmentType = "SET"
)

// --- Reference data ---

type CategoryInput struct {
	Name     string  `json:"name"`
	Color    *string `json:"color"`
	IsActive *bool   `json:"isActive"`
}

type SupplierInput struct {
	Name          string           `json:"name"`
	BusinessName  *string          `json:"businessName"`
	ContactName   *string          `json:"contactName"`
	Phone         *string          `json:"phone"`
	Email         *string          `json:"email"`
	Website       *string          `json:"website"`
	Address       *string          `json:"address"`
	Notes         *string          `json:"notes"`
	SupplierType  *string          `json:"supplierType"`
	IsActive      *bool            `json:"isActive"`
	MinOrderType  *string          `json:"minOrderType"`
	MinOrderValue *decimal.Decimal `json:"minOrderValue"`
}

type StorageLocationInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// The Update*Input bodies below back the PUT routes for reference data.
// Absent keys keep their stored value; null clears a nullable column.

type UpdateCategoryInput struct {
	Name     Optional[string] `json:"name"`
	Color    Optional[string] `json:"color"`
	IsActive Optional[bool]   `json:"isActive"`
}

type UpdateSupplierInput struct {
	Name          Optional[string]          `json:"name"`
	BusinessName  Optional[string]          `json:"businessName"`
	ContactName   Optional[string]          `json:"contactName"`
	Phone         Optional[string]          `json:"phone"`
	Email         Optional[string]          `json:"email"`
	Website       Optional[string]          `json:"website"`
	Address       Optional[string]          `json:"address"`
	Notes         Optional[string]          `json:"notes"`
	SupplierType  Optional[string]          `json:"supplierType"`
	IsActive      Optional[bool]            `json:"isActive"`
	MinOrderType  Optional[string]          `json:"minOrderType"`
	MinOrderValue Optional[decimal.Decimal] `json:"minOrderValue"`
}

type UpdateStorageLocationInput struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
	IsActive    Optional[bool]   `json:"isActive"`
}

// --- Users (admin) ---

type CreateUserInput struct {
	Email    string  `json:"email"`
	FullName *string `json:"fullName"`
	Role     Role    `json:"role"`
}

type UpdateUserInput struct {
	FullName Optional[string] `json:"fullName"`
	Role     Optional[Role]   `json:"role"`
	IsActive Optional[bool]   `json:"isActive"`
}

type UpdateSettingInput struct {
	Value       string  `json:"value"`
	Description *string `json:"description"`
}

// StockAdjustment is a validated StockAdjustmentInput.
type StockAdjustment struct {
	Type         AdjustmentType
	Quantity     int
	Reason       string
	BatchID      *string
	BatchCode    *string
	ExpiryDate   *time.Time
	DateReceived *time.Time
}
