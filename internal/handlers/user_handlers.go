package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/stockroom/internal/auth"
	"github.com/01moynul/stockroom/internal/models"
	"github.com/01moynul/stockroom/internal/validation"
)

// --- Email-first sign in ---

// CheckEmail handles POST /api/auth/check-email.
func (h *Handlers) CheckEmail(c *gin.Context) {
	var input models.CheckEmailInput
	if !bindJSON(c, &input, "Invalid email format") {
		return
	}
	if err := validation.CheckEmail(&input); err != nil {
		respondError(c, err, "Failed to check email")
		return
	}

	needsSetup, err := h.Auth.CheckEmail(c.Request.Context(), input.Email)
	if err != nil {
		respondError(c, err, "Failed to check email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "needsPasswordSetup": needsSetup})
}

// SetupPassword handles POST /api/auth/setup-password.
func (h *Handlers) SetupPassword(c *gin.Context) {
	var input models.SetupPasswordInput
	if !bindJSON(c, &input, "Validation failed") {
		return
	}
	if err := validation.SetupPassword(&input); err != nil {
		respondError(c, err, "Failed to set up password")
		return
	}

	session, err := h.Auth.SetupPassword(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err, "Failed to set up password")
		return
	}
	h.startSession(c, session)
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input models.LoginInput
	if !bindJSON(c, &input, "Invalid email or password format") {
		return
	}
	if err := validation.Login(&input); err != nil {
		respondError(c, err, "An error occurred during login")
		return
	}

	// 2. --- Authenticate ---
	session, err := h.Auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err, "An error occurred during login")
		return
	}

	// 3. --- Set Cookie & Respond ---
	h.startSession(c, session)
}

// startSession sets the HttpOnly cookie and returns the public user.
// The token itself never goes into the body, so page scripts cannot read it.
func (h *Handlers) startSession(c *gin.Context, s *auth.Session) {
	auth.SetSessionCookie(c, s.Token, h.Config.CookieSecure)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    s.User.AuthUser(),
	})
}

// Logout handles POST /api/auth/logout. It is public: clearing the cookie
// works even when the session already expired.
func (h *Handlers) Logout(c *gin.Context) {
	auth.ClearSessionCookie(c, h.Config.CookieSecure)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET /api/auth/me.
func (h *Handlers) Me(c *gin.Context) {
	user, ok := actor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
