package models

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest stock level or adjustment the INT columns hold.
const MaxQuantity = math.MaxInt32

// Item is the model for the 'items' table.
type Item struct {
	ID                string              `json:"id" db:"id"`
	Brand             *string             `json:"brand" db:"brand"`
	BaseName          string              `json:"baseName" db:"base_name"`
	Size              *string             `json:"size" db:"size"`
	QtyWeight         *string             `json:"qtyWeight" db:"qty_weight"`
	DisplayName       string              `json:"displayName" db:"display_name"`
	Description       *string             `json:"description" db:"description"`
	ImageURL          *string             `json:"imageUrl" db:"image_url"`
	HasExpiry         bool                `json:"hasExpiry" db:"has_expiry"`
	IsCritical        bool                `json:"isCritical" db:"is_critical"`
	StorageLocationID *string             `json:"storageLocationId" db:"storage_location_id"`
	CategoryID        *string             `json:"categoryId" db:"category_id"`
	SupplierID        *string             `json:"supplierId" db:"supplier_id"`
	Cost              decimal.NullDecimal `json:"cost" db:"cost"`
	ReorderQty        int                 `json:"reorderQty" db:"reorder_qty"`
	CurrentStock      int                 `json:"currentStock" db:"current_stock"`
	Version           int64               `json:"-" db:"version"`
	CreatedAt         time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time           `json:"updatedAt" db:"updated_at"`

	// Relations, filled by joins
	Category        *CategoryRef        `json:"category"`
	Supplier        *SupplierRef        `json:"supplier"`
	StorageLocation *StorageLocationRef `json:"storageLocation"`
	Batches         []ItemBatch         `json:"batches"`
}

// IsLowStock matches the list filter: at or below the reorder threshold.
func (i *Item) IsLowStock() bool {
	return i.CurrentStock <= i.ReorderQty
}

// RefreshDisplayName recomputes DisplayName from the four name fields.
func (i *Item) RefreshDisplayName() {
	i.DisplayName = DisplayName(i.Brand, i.BaseName, i.Size, i.QtyWeight)
}

// DisplayName joins the non-blank parts with single spaces:
// ("Coke", "Cola", "500ml", nil) -> "Coke Cola 500ml".
func DisplayName(brand *string, baseName string, size, qtyWeight *string) string {
	parts := make([]string, 0, 4)
	for _, p := range []*string{brand, &baseName, size, qtyWeight} {
		if p == nil {
			continue
		}
		if s := strings.TrimSpace(*p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// ItemBatch is an expiry-tracked sub-quantity of an item.
type ItemBatch struct {
	ID           string     `json:"id" db:"id"`
	ItemID       string     `json:"itemId" db:"item_id"`
	BatchCode    string     `json:"batchCode" db:"batch_code"`
	Quantity     int        `json:"quantity" db:"quantity"`
	ExpiryDate   *time.Time `json:"expiryDate" db:"expiry_date"`
	DateReceived time.Time  `json:"dateReceived" db:"date_received"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}
