package inventory

import (
	"context"
	"math"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/models"
	"github.com/01moynul/stockroom/internal/testutil"
)

func createTestService(t *testing.T) (*Service, *sql.DB, models.AuthUser) {
	t.Helper()
	db := testutil.NewDB(t)
	u := testutil.SeedUser(t, db, "staff@example.com", testutil.UserOpts{Password: "secret1"})
	return NewService(db), db, u.AuthUser()
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

func adjust(kind models.AdjustmentType, qty int) models.StockAdjustment {
	return models.StockAdjustment{Type: kind, Quantity: qty, Reason: "test"}
}

func TestComputeAdjustment(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		kind      models.AdjustmentType
		qty       int
		wantQty   int
		wantDelta int
		wantKind  apperr.Kind
	}{
		{"add", 5, models.AdjustAdd, 3, 8, 3, 0},
		{"remove", 5, models.AdjustRemove, 5, 0, -5, 0},
		{"set up", 5, models.AdjustSet, 12, 12, 7, 0},
		{"set down", 5, models.AdjustSet, 2, 2, -3, 0},
		{"set same", 5, models.AdjustSet, 5, 5, 0, 0},
		{"remove below zero", 0, models.AdjustRemove, 1, 0, 0, apperr.KindBusinessRule},
		{"unknown type", 5, "MOVE", 1, 0, 0, apperr.KindValidation},
		{"add past the column range", 5, models.AdjustAdd, models.MaxQuantity, 0, 0, apperr.KindBusinessRule},
		{"add up to the column range", 5, models.AdjustAdd, models.MaxQuantity - 5, models.MaxQuantity, models.MaxQuantity - 5, 0},
		{"quantity too large", 5, models.AdjustAdd, math.MaxInt64, 0, 0, apperr.KindValidation},
		{"zero quantity", 5, models.AdjustSet, 0, 0, 0, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, delta, err := ComputeAdjustment(tt.current, tt.kind, tt.qty)
			if tt.wantKind != 0 {
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantQty, got)
			assert.Equal(t, tt.wantDelta, delta)
		})
	}
}

func TestAdjustStock_LowStockScenario(t *testing.T) {
	ctx := context.Background()
	svc, db, actor := createTestService(t)
	item := testutil.SeedItem(t, db, "Cola", testutil.ItemOpts{CurrentStock: 5, ReorderQty: 10})

	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.IsLowStock())

	res, err := svc.AdjustStock(ctx, actor, item.ID, adjust(models.AdjustRemove, 5))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Item.CurrentStock)
	assert.Equal(t, models.StockOut, res.Transaction.TransactionType)
	assert.Equal(t, -5, res.Transaction.Amount)
	assert.Equal(t, 0, res.Transaction.StockAfter)
	assert.GreaterOrEqual(t, res.Duration, int64(0))

	_, err = svc.AdjustStock(ctx, actor, item.ID, adjust(models.AdjustRemove, 1))
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindBusinessRule, ae.Kind)
	assert.Equal(t, "Stock cannot be negative", ae.Message)

	got, err = svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStock)
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM transactions WHERE item_id = ?", item.ID), "rejected adjustment writes no log row")
}

func TestAdjustStock_AddThenRemoveRestores(t *testing.T) {
	ctx := context.Background()
	svc, db, actor := createTestService(t)
	item := testutil.SeedItem(t, db, "Flour", testutil.ItemOpts{CurrentStock: 7})

	_, err := svc.AdjustStock(ctx, actor, item.ID, adjust(models.AdjustAdd, 4))
	require.NoError(t, err)
	res, err := svc.AdjustStock(ctx, actor, item.ID, adjust(models.AdjustRemove, 4))
	require.NoError(t, err)
	assert.Equal(t, 7, res.Item.CurrentStock)

	assert.Equal(t, 0, countRows(t, db, "SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE item_id = ?", item.ID))
}

func TestAdjustStock_Set(t *testing.T) {
	ctx := context.Background()
	svc, db, actor := createTestService(t)
	item := testutil.SeedItem(t, db, "Rice", testutil.ItemOpts{CurrentStock: 9})

	res, err := svc.AdjustStock(ctx, actor, item.ID, adjust(models.AdjustSet, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Item.CurrentStock)
	assert.Equal(t, -5, res.Transaction.Amount)
	assert.Equal(t, models.StockOut, res.Transaction.TransactionType)
	assert.Equal(t, "test", *res.Transaction.Notes)
	assert.Equal(t, actor.ID, res.Transaction.UserID)
}

func TestAdjustStock_ItemNotFound(t *testing.T) {
	svc, _, actor := createTestService(t)
	_, err := svc.AdjustStock(context.Background(), actor, "00000000-0000-0000-0000-000000000000", adjust(models.AdjustAdd, 1))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAdjustStock_Batches(t *testing.T) {
	ctx := context.Background()
	svc, db, actor := createTestService(t)
	item := testutil.SeedItem(t, db, "Milk", testutil.ItemOpts{CurrentStock: 10, HasExpiry: true})
	expiry := time.Now().UTC().Add(48 * time.Hour)
	batch := testutil.SeedBatch(t, db, item.ID, "B-1", 10, &expiry)

	t.Run("add to existing batch", func(t *testing.T) {
		a := adjust(models.AdjustAdd, 5)
		a.BatchID = &batch.ID
		res, err := svc.AdjustStock(ctx, actor, item.ID, a)
		require.NoError(t, err)
		assert.Equal(t, 15, res.Item.CurrentStock)
		assert.Equal(t, &batch.ID, res.Transaction.BatchID)
		assert.Equal(t, 15, countRows(t, db, "SELECT quantity FROM item_batches WHERE id = ?", batch.ID))
	})

	t.Run("add creates batch", func(t *testing.T) {
		a := adjust(models.AdjustAdd, 3)
		a.BatchCode = testutil.Ptr("B-2")
		later := time.Now().UTC().Add(96 * time.Hour)
		a.ExpiryDate = &later
		res, err := svc.AdjustStock(ctx, actor, item.ID, a)
		require.NoError(t, err)
		require.NotNil(t, res.Transaction.BatchID)
		assert.Equal(t, 3, countRows(t, db, "SELECT quantity FROM item_batches WHERE id = ?", *res.Transaction.BatchID))
		require.Len(t, res.Item.Batches, 2)
		assert.Equal(t, "B-1", res.Item.Batches[0].BatchCode, "sooner expiry first")
	})

	t.Run("remove decrements", func(t *testing.T) {
		a := adjust(models.AdjustRemove, 5)
		a.BatchID = &batch.ID
		_, err := svc.AdjustStock(ctx, actor, item.ID, a)
		require.NoError(t, err)
		assert.Equal(t, 10, countRows(t, db, "SELECT quantity FROM item_batches WHERE id = ?", batch.ID))
	})

	t.Run("remove to zero deletes batch", func(t *testing.T) {
		a := adjust(models.AdjustRemove, 10)
		a.BatchID = &batch.ID
		_, err := svc.AdjustStock(ctx, actor, item.ID, a)
		require.NoError(t, err)
		assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM item_batches WHERE id = ?", batch.ID))
	})

	t.Run("set leaves batches alone", func(t *testing.T) {
		before := countRows(t, db, "SELECT COALESCE(SUM(quantity), 0) FROM item_batches WHERE item_id = ?", item.ID)
		a := adjust(models.AdjustSet, 50)
		a.BatchID = testutil.Ptr("ignored")
		res, err := svc.AdjustStock(ctx, actor, item.ID, a)
		require.NoError(t, err)
		assert.Nil(t, res.Transaction.BatchID)
		assert.Equal(t, before, countRows(t, db, "SELECT COALESCE(SUM(quantity), 0) FROM item_batches WHERE item_id = ?", item.ID))
	})
}

func TestAdjustStock_ForeignBatchRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, db, actor := createTestService(t)
	item := testutil.SeedItem(t, db, "Milk", testutil.ItemOpts{CurrentStock: 10, HasExpiry: true})
	other := testutil.SeedItem(t, db, "Yogurt", testutil.ItemOpts{CurrentStock: 10, HasExpiry: true})
	foreign := testutil.SeedBatch(t, db, other.ID, "Y-1", 10, nil)

	for _, kind := range []models.AdjustmentType{models.AdjustAdd, models.AdjustRemove} {
		a := adjust(kind, 2)
		a.BatchID = &foreign.ID
		_, err := svc.AdjustStock(ctx, actor, item.ID, a)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), string(kind))
	}

	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.CurrentStock)
	assert.Equal(t, 10, countRows(t, db, "SELECT quantity FROM item_batches WHERE id = ?", foreign.ID))
	assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM transactions WHERE item_id = ?", item.ID))
}

func TestAdjustStock_BumpsVersion(t *testing.T) {
	ctx := context.Background()
	svc, db, actor := createTestService(t)
	item := testutil.SeedItem(t, db, "Sugar", testutil.ItemOpts{CurrentStock: 3})

	for i := 1; i <= 3; i++ {
		_, err := svc.AdjustStock(ctx, actor, item.ID, adjust(models.AdjustAdd, 1))
		require.NoError(t, err)
		assert.Equal(t, i, countRows(t, db, "SELECT version FROM items WHERE id = ?", item.ID))
	}
}

func TestAdjustStock_StaleVersionIsRejected(t *testing.T) {
	ctx := context.Background()
	_, db, _ := createTestService(t)
	item := testutil.SeedItem(t, db, "Sugar", testutil.ItemOpts{CurrentStock: 3})

	// The guarded write used by AdjustStock matches nothing once another
	// writer has moved the version on.
	_, err := db.Exec("UPDATE items SET version = version + 1 WHERE id = ?", item.ID)
	require.NoError(t, err)
	res, err := db.ExecContext(ctx,
		"UPDATE items SET current_stock = ?, version = version + 1 WHERE id = ? AND version = ?", 99, item.ID, 0)
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(ErrConcurrentUpdate), "lost races surface as internal errors")
}

func TestCreateItem(t *testing.T) {
	ctx := context.Background()
	svc, db, actor := createTestService(t)
	cat := testutil.SeedCategory(t, db, "Drinks")
	cost := decimal.RequireFromString("1.25")

	it, err := svc.CreateItem(ctx, actor, models.CreateItemInput{
		Brand:      testutil.Ptr("Coke"),
		BaseName:   "Cola",
		Size:       testutil.Ptr("500ml"),
		CategoryID: &cat.ID,
		Cost:       &cost,
	})
	require.NoError(t, err)
	assert.Equal(t, "Coke Cola 500ml", it.DisplayName)
	assert.Equal(t, DefaultReorder, it.ReorderQty)
	assert.Equal(t, 0, it.CurrentStock)
	require.NotNil(t, it.Category)
	assert.Equal(t, "Drinks", it.Category.Name)
	assert.True(t, it.Cost.Valid)
	assert.True(t, cost.Equal(it.Cost.Decimal))
	assert.NotNil(t, it.Batches)

	var notes string
	var amount int
	require.NoError(t, db.QueryRow("SELECT notes, amount FROM transactions WHERE item_id = ?", it.ID).Scan(&notes, &amount))
	assert.Equal(t, "Item created", notes)
	assert.Equal(t, 0, amount)
}

func TestCreateItem_UnknownCategory(t *testing.T) {
	svc, db, actor := createTestService(t)
	_, err := svc.CreateItem(context.Background(), actor, models.CreateItemInput{
		BaseName:   "Cola",
		CategoryID: testutil.Ptr("11111111-1111-1111-1111-111111111111"),
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM items"))
}

func TestUpdateItem_PartialAndNull(t *testing.T) {
	ctx := context.Background()
	svc, db, actor := createTestService(t)
	item := testutil.SeedItem(t, db, "Cola", testutil.ItemOpts{Brand: "Coke", CurrentStock: 4, ReorderQty: 2})

	var in models.UpdateItemInput
	require.NoError(t, json.Unmarshal([]byte(`{"brand":null,"size":"1L"}`), &in))

	got, err := svc.UpdateItem(ctx, actor, item.ID, in)
	require.NoError(t, err)
	assert.Nil(t, got.Brand)
	assert.Equal(t, "Cola 1L", got.DisplayName, "display name rebuilt from merged fields")
	assert.Equal(t, 4, got.CurrentStock, "absent fields untouched")
	assert.Equal(t, 2, got.ReorderQty)

	var notes string
	var stockAfter int
	require.NoError(t, db.QueryRow("SELECT notes, stock_after FROM transactions WHERE item_id = ?", item.ID).Scan(&notes, &stockAfter))
	assert.Equal(t, "Item updated", notes)
	assert.Equal(t, 4, stockAfter)
}

func TestUpdateItem_NotFound(t *testing.T) {
	svc, _, actor := createTestService(t)
	_, err := svc.UpdateItem(context.Background(), actor, "missing", models.UpdateItemInput{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteItem_RemovesChildren(t *testing.T) {
	ctx := context.Background()
	svc, db, actor := createTestService(t)
	item := testutil.SeedItem(t, db, "Milk", testutil.ItemOpts{CurrentStock: 2, HasExpiry: true})
	testutil.SeedBatch(t, db, item.ID, "B-1", 2, nil)
	_, err := svc.AdjustStock(ctx, actor, item.ID, adjust(models.AdjustAdd, 1))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, item.ID))

	assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM items WHERE id = ?", item.ID))
	assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM item_batches WHERE item_id = ?", item.ID))
	assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM transactions WHERE item_id = ?", item.ID))

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.DeleteItem(ctx, item.ID)))
}

func TestListItems(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := createTestService(t)
	cat := testutil.SeedCategory(t, db, "Dairy")

	testutil.SeedItem(t, db, "Apples", testutil.ItemOpts{CurrentStock: 50, ReorderQty: 10})
	milk := testutil.SeedItem(t, db, "Milk", testutil.ItemOpts{CurrentStock: 1, ReorderQty: 5, IsCritical: true, HasExpiry: true, CategoryID: cat.ID})
	testutil.SeedItem(t, db, "100% Juice", testutil.ItemOpts{Brand: "Sunny", CurrentStock: 20, ReorderQty: 10})
	testutil.SeedBatch(t, db, milk.ID, "empty", 0, nil)
	testutil.SeedBatch(t, db, milk.ID, "full", 3, nil)

	page, err := svc.ListItems(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Milk", page.Items[0].DisplayName, "critical items first")
	assert.Equal(t, "Apples", page.Items[1].DisplayName)
	require.Len(t, page.Items[0].Batches, 1, "empty batches are hidden")
	assert.Equal(t, "full", page.Items[0].Batches[0].BatchCode)
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Total: 3, TotalPages: 1}, page.Pagination)

	page, err = svc.ListItems(ctx, ListParams{LowStock: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, milk.ID, page.Items[0].ID)

	page, err = svc.ListItems(ctx, ListParams{Search: "sunny"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	page, err = svc.ListItems(ctx, ListParams{Search: "%"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1, "wildcards match literally")
	assert.Equal(t, "Sunny 100% Juice", page.Items[0].DisplayName)

	no := false
	page, err = svc.ListItems(ctx, ListParams{IsCritical: &no})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = svc.ListItems(ctx, ListParams{CategoryID: cat.ID})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	page, err = svc.ListItems(ctx, ListParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Pagination.TotalPages)
}

func TestNormalizePage(t *testing.T) {
	p, l := NormalizePage(0, 0)
	assert.Equal(t, 1, p)
	assert.Equal(t, DefaultPageSize, l)

	_, l = NormalizePage(3, 500)
	assert.Equal(t, MaxPageSize, l)

	p, _ = NormalizePage(math.MaxInt64, MaxPageSize)
	assert.Equal(t, MaxPage, p)
}

func TestListItems_HugePageIsEmpty(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := createTestService(t)
	testutil.SeedItem(t, db, "Cola", testutil.ItemOpts{CurrentStock: 5})

	page, err := svc.ListItems(ctx, ListParams{Page: math.MaxInt64, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, MaxPage, page.Pagination.Page)
	assert.Equal(t, 1, page.Pagination.Total)
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	svc, db, actor := createTestService(t)
	a := testutil.SeedItem(t, db, "Tea", testutil.ItemOpts{CurrentStock: 5})
	b := testutil.SeedItem(t, db, "Coffee", testutil.ItemOpts{CurrentStock: 5})

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	step := 0
	svc.now = func() time.Time { step++; return base.Add(time.Duration(step) * time.Minute) }

	_, err := svc.AdjustStock(ctx, actor, a.ID, adjust(models.AdjustAdd, 1))
	require.NoError(t, err)
	_, err = svc.AdjustStock(ctx, actor, b.ID, adjust(models.AdjustRemove, 2))
	require.NoError(t, err)

	page, err := svc.ListTransactions(ctx, TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, b.ID, page.Transactions[0].ItemID, "newest first")
	assert.Equal(t, "Coffee", page.Transactions[0].Item.DisplayName)
	assert.Equal(t, "staff@example.com", page.Transactions[0].User.Email)

	page, err = svc.ListTransactions(ctx, TransactionFilter{Type: models.StockIn})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, a.ID, page.Transactions[0].ItemID)

	start := base.Add(90 * time.Second)
	page, err = svc.ListTransactions(ctx, TransactionFilter{Start: &start})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, b.ID, page.Transactions[0].ItemID)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := createTestService(t)
	now := time.Now().UTC()
	svc.now = func() time.Time { return now }

	milk := testutil.SeedItem(t, db, "Milk", testutil.ItemOpts{CurrentStock: 0, ReorderQty: 5, IsCritical: true, HasExpiry: true})
	testutil.SeedItem(t, db, "Rice", testutil.ItemOpts{CurrentStock: 40, ReorderQty: 5})
	testutil.SeedItem(t, db, "Salt", testutil.ItemOpts{CurrentStock: 3, ReorderQty: 5})
	soon := now.Add(5 * 24 * time.Hour)
	far := now.Add(60 * 24 * time.Hour)
	past := now.Add(-24 * time.Hour)
	testutil.SeedBatch(t, db, milk.ID, "soon", 1, &soon)
	testutil.SeedBatch(t, db, milk.ID, "far", 1, &far)
	testutil.SeedBatch(t, db, milk.ID, "past", 1, &past)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalItems)
	assert.Equal(t, 43, st.TotalUnits)
	assert.Equal(t, 2, st.LowStock)
	assert.Equal(t, 1, st.CriticalLow)
	assert.Equal(t, 1, st.OutOfStock)
	assert.Equal(t, 1, st.ExpiringSoon)
	assert.Equal(t, 1, st.Expired)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "50!% off!_now!!", escapeLike("50% off_now!"))
}
