package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/stockroom/internal/email"
	"github.com/01moynul/stockroom/internal/models"
	"github.com/01moynul/stockroom/internal/validation"
)

// --- User administration ---

func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.Catalog.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// CreateUser adds a passwordless account. The new user sets a password
// through the check-email flow on first sign in.
func (h *Handlers) CreateUser(c *gin.Context) {
	var input models.CreateUserInput
	if !bindJSON(c, &input, "Validation failed") {
		return
	}
	if err := validation.CreateUser(&input); err != nil {
		respondError(c, err, "Failed to create user")
		return
	}

	user, err := h.Catalog.CreateUser(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Failed to create user")
		return
	}
	if err := email.SendInvite(c.Request.Context(), user.Email, h.Config.BaseURL); err != nil {
		slog.WarnContext(c.Request.Context(), "invite not sent", "user_id", user.ID, "error", err)
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handlers) UpdateUser(c *gin.Context) {
	admin, ok := actor(c)
	if !ok {
		return
	}

	var input models.UpdateUserInput
	if !bindJSON(c, &input, "Validation failed") {
		return
	}
	if err := validation.UpdateUser(&input); err != nil {
		respondError(c, err, "Failed to update user")
		return
	}

	user, err := h.Catalog.UpdateUser(c.Request.Context(), admin, c.Param("id"), input)
	if err != nil {
		respondError(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// --- System settings ---

func (h *Handlers) GetSettings(c *gin.Context) {
	settings, err := h.Catalog.ListSettings(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSetting handles PUT /api/admin/settings/:key.
func (h *Handlers) UpdateSetting(c *gin.Context) {
	key := c.Param("key")

	var input models.UpdateSettingInput
	if !bindJSON(c, &input, "Validation failed") {
		return
	}
	if err := validation.Setting(key, &input); err != nil {
		respondError(c, err, "Failed to update setting")
		return
	}

	setting, err := h.Catalog.UpsertSetting(c.Request.Context(), key, input)
	if err != nil {
		respondError(c, err, "Failed to update setting")
		return
	}
	c.JSON(http.StatusOK, setting)
}
