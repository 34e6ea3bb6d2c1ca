package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func strPtr(s string) *string { return &s }

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name      string
		brand     *string
		baseName  string
		size      *string
		qtyWeight *string
		want      string
	}{
		{"all but weight", strPtr("Coke"), "Cola", strPtr("500ml"), nil, "Coke Cola 500ml"},
		{"base only", nil, "Flour", nil, nil, "Flour"},
		{"blank parts skipped", strPtr("  "), "Rice", strPtr(""), strPtr("5kg"), "Rice 5kg"},
		{"parts trimmed", strPtr(" Heinz "), "Beans", nil, nil, "Heinz Beans"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.brand, tt.baseName, tt.size, tt.qtyWeight))
		})
	}
}

func TestItem_IsLowStock(t *testing.T) {
	item := Item{CurrentStock: 5, ReorderQty: 10}
	assert.True(t, item.IsLowStock())
	item.CurrentStock = 10
	assert.True(t, item.IsLowStock())
	item.CurrentStock = 11
	assert.False(t, item.IsLowStock())
}

func TestTransactionTypeFor(t *testing.T) {
	assert.Equal(t, StockIn, TransactionTypeFor(3))
	assert.Equal(t, StockIn, TransactionTypeFor(0))
	assert.Equal(t, StockOut, TransactionTypeFor(-1))
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	var in UpdateItemInput
	require.NoError(t, json.Unmarshal([]byte(`{"brand":null,"baseName":"Cola","reorderQty":4}`), &in))

	assert.True(t, in.Brand.Set)
	assert.True(t, in.Brand.Null)
	assert.Nil(t, in.Brand.Ptr())

	assert.True(t, in.BaseName.Set)
	assert.Equal(t, "Cola", in.BaseName.Value)
	assert.Equal(t, 4, in.ReorderQty.Value)

	assert.False(t, in.Size.Set, "absent key must stay unset")
	assert.False(t, in.CurrentStock.Set)
}

func TestOptional_RejectsWrongType(t *testing.T) {
	var in UpdateItemInput
	assert.Error(t, json.Unmarshal([]byte(`{"reorderQty":1.5}`), &in))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func TestPassword_SetAndMatches(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { PasswordCost = bcrypt.DefaultCost })

	var p Password
	require.NoError(t, p.Set("secret1"))
	assert.NotEqual(t, "secret1", p.Hash)

	ok, err := p.Matches("secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Matches("wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUser_HasPassword(t *testing.T) {
	u := User{}
	assert.False(t, u.HasPassword())
	u.PasswordHash = strPtr("")
	assert.False(t, u.HasPassword())
	u.PasswordHash = strPtr("$2a$10$abc")
	assert.True(t, u.HasPassword())
}
