package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/inventory"
	"github.com/01moynul/stockroom/internal/models"
	"github.com/01moynul/stockroom/internal/validation"
)

// GetDashboardStats handles GET /api/dashboard/stats.
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	stats, err := h.Inventory.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load dashboard stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListTransactions handles GET /api/transactions.
func (h *Handlers) ListTransactions(c *gin.Context) {
	filter := inventory.TransactionFilter{
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
		ItemID: c.Query("itemId"),
		UserID: c.Query("userId"),
		Type:   models.TransactionType(c.Query("type")),
	}

	var fields []apperr.FieldError
	if filter.Type != "" && !filter.Type.Valid() {
		fields = append(fields, apperr.FieldError{Field: "type", Message: "Type must be STOCK_IN or STOCK_OUT"})
	}
	for _, d := range []struct {
		key string
		dst **time.Time
	}{{"startDate", &filter.Start}, {"endDate", &filter.End}} {
		raw := c.Query(d.key)
		if raw == "" {
			continue
		}
		t, err := validation.ParseDate(raw)
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: d.key, Message: "Must be an ISO-8601 date"})
			continue
		}
		*d.dst = &t
	}
	if len(fields) > 0 {
		respondError(c, apperr.Validation("Validation error", fields...), "Failed to fetch transactions")
		return
	}

	page, err := h.Inventory.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to fetch transactions")
		return
	}
	c.JSON(http.StatusOK, page)
}
