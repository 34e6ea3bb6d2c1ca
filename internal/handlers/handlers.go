package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/stockroom/internal/ai"
	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/auth"
	"github.com/01moynul/stockroom/internal/catalog"
	"github.com/01moynul/stockroom/internal/config"
	"github.com/01moynul/stockroom/internal/inventory"
	"github.com/01moynul/stockroom/internal/middleware"
	"github.com/01moynul/stockroom/internal/models"
)

// Assistant answers inventory questions. *ai.Service implements it.
type Assistant interface {
	Ask(ctx context.Context, role models.Role, message string) (*ai.Reply, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Auth      *auth.Service
	Inventory *inventory.Service
	Catalog   *catalog.Service
	Assistant Assistant // nil when GEMINI_API_KEY is not set
	Config    config.Config
}

// respondError writes {error, details}. Internal errors are logged and
// answered with fallback so database messages never reach the client.
func respondError(c *gin.Context, err error, fallback string) {
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind == apperr.KindInternal {
		slog.ErrorContext(c.Request.Context(), fallback, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
		return
	}

	body := gin.H{"error": e.Message}
	if len(e.Fields) > 0 {
		body["details"] = e.Fields
	}
	c.JSON(apperr.Status(e.Kind), body)
}

// bindJSON decodes the body into dst. Malformed JSON becomes a 400 with
// message as the error text.
func bindJSON(c *gin.Context, dst any, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.Validation(message, apperr.FieldError{Field: "body", Message: err.Error()}), message)
		return false
	}
	return true
}

// actor returns the authenticated user. RequireUser guarantees it exists on
// every route that calls this.
func actor(c *gin.Context) (models.AuthUser, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return user, ok
}
