package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/stockroom/internal/inventory"
	"github.com/01moynul/stockroom/internal/models"
	"github.com/01moynul/stockroom/internal/validation"
)

// queryInt returns the integer query parameter, or 0 when absent or malformed.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// queryBool returns nil when key is absent; any value other than "true" is false.
func queryBool(c *gin.Context, key string) *bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	b := v == "true"
	return &b
}

// --- Items ---

// ListItems handles GET /api/items.
func (h *Handlers) ListItems(c *gin.Context) {
	page, err := h.Inventory.ListItems(c.Request.Context(), inventory.ListParams{
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
		Search:     c.Query("search"),
		CategoryID: c.Query("categoryId"),
		SupplierID: c.Query("supplierId"),
		LocationID: c.Query("locationId"),
		HasExpiry:  queryBool(c, "hasExpiry"),
		IsCritical: queryBool(c, "isCritical"),
		LowStock:   c.Query("lowStock") == "true",
	})
	if err != nil {
		respondError(c, err, "Failed to fetch items")
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateItem handles POST /api/items.
func (h *Handlers) CreateItem(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}

	var input models.CreateItemInput
	if !bindJSON(c, &input, "Validation error") {
		return
	}
	if err := validation.CreateItem(&input); err != nil {
		respondError(c, err, "Failed to create item")
		return
	}

	item, err := h.Inventory.CreateItem(c.Request.Context(), user, input)
	if err != nil {
		respondError(c, err, "Failed to create item")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItem handles GET /api/items/:id.
func (h *Handlers) GetItem(c *gin.Context) {
	item, err := h.Inventory.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem handles PUT /api/items/:id.
func (h *Handlers) UpdateItem(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}

	var input models.UpdateItemInput
	if !bindJSON(c, &input, "Validation error") {
		return
	}
	if err := validation.UpdateItem(&input); err != nil {
		respondError(c, err, "Failed to update item")
		return
	}

	item, err := h.Inventory.UpdateItem(c.Request.Context(), user, c.Param("id"), input)
	if err != nil {
		respondError(c, err, "Failed to update item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /api/items/:id.
func (h *Handlers) DeleteItem(c *gin.Context) {
	if err := h.Inventory.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AdjustStock handles POST /api/items/:id/stock.
func (h *Handlers) AdjustStock(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}

	// 1. --- Bind & Validate JSON ---
	var input models.StockAdjustmentInput
	if !bindJSON(c, &input, "Validation error") {
		return
	}
	adj, err := validation.StockAdjustment(&input)
	if err != nil {
		respondError(c, err, "Failed to adjust stock")
		return
	}

	// 2. --- Apply Adjustment ---
	result, err := h.Inventory.AdjustStock(c.Request.Context(), user, c.Param("id"), adj)
	if err != nil {
		respondError(c, err, "Failed to adjust stock")
		return
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusOK, result)
}
