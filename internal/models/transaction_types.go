package models

import "time"

type TransactionType string

const (
	StockIn  TransactionType = "STOCK_IN"
	StockOut TransactionType = "STOCK_OUT"
)

func (t TransactionType) Valid() bool {
	return t == StockIn || t == StockOut
}

// TransactionTypeFor derives the log type from a signed stock delta.
// Zero counts as STOCK_IN.
func TransactionTypeFor(delta int) TransactionType {
	if delta >= 0 {
		return StockIn
	}
	return StockOut
}

// Transaction is an append-only audit record. Amount is 0 for
// non-stock events such as "Item created" and "Item updated".
type Transaction struct {
	ID              string          `json:"id" db:"id"`
	ItemID          string          `json:"itemId" db:"item_id"`
	UserID          string          `json:"userId" db:"user_id"`
	TransactionType TransactionType `json:"transactionType" db:"transaction_type"`
	Amount          int             `json:"amount" db:"amount"`
	StockAfter      int             `json:"stockAfter" db:"stock_after"`
	BatchID         *string         `json:"batchId" db:"batch_id"`
	Notes           *string         `json:"notes" db:"notes"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`

	// Only set by the log listing
	Item *ItemSummary `json:"item,omitempty"`
	User *UserSummary `json:"user,omitempty"`
}

type ItemSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type UserSummary struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"fullName"`
}
