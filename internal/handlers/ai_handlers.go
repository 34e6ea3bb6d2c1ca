package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/stockroom/internal/apperr"
)

// ChatInput defines the structure of the JSON request body.
type ChatInput struct {
	Message string `json:"message"`
}

// ChatAI handles POST /api/admin/assistant.
func (h *Handlers) ChatAI(c *gin.Context) {
	if h.Assistant == nil {
		respondError(c, apperr.Unavailable("Assistant is not configured"), "AI Service unavailable")
		return
	}

	user, ok := actor(c)
	if !ok {
		return
	}

	var input ChatInput
	if !bindJSON(c, &input, "Validation failed") {
		return
	}
	if strings.TrimSpace(input.Message) == "" {
		respondError(c, apperr.Validation("Validation failed", apperr.FieldError{Field: "message", Message: "Message is required"}), "AI Service unavailable")
		return
	}

	reply, err := h.Assistant.Ask(c.Request.Context(), user.Role, input.Message)
	if err != nil {
		respondError(c, err, "AI Service unavailable")
		return
	}
	c.JSON(http.StatusOK, reply)
}
