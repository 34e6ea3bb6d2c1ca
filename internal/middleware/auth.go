package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/auth"
	"github.com/01moynul/stockroom/internal/models"
)

// userKey is the gin context key RequireUser stores the AuthUser under.
const userKey = "user"

// Paths reachable without a session. Matched by prefix.
var publicPrefixes = []string{
	"/login",
	"/api/auth/check-email",
	"/api/auth/setup-password",
	"/api/auth/login",
	"/api/auth/logout",
	"/health",
}

var imageSuffixes = []string{".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico"}

// Paths only ADMIN claims may open; others are sent to /items.
var adminPrefixes = []string{"/settings"}

func isPublic(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	lower := strings.ToLower(path)
	for _, s := range imageSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Gate guards every route. It only checks the token signature and expiry;
// RequireUser does the live account check for API routes.
func Gate(tokens *auth.TokenManager, cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if isPublic(path) {
			c.Next()
			return
		}

		token := auth.ExtractToken(c)
		if token == "" {
			deny(c, path)
			return
		}

		claims, err := tokens.ParseToken(token)
		if err != nil {
			auth.ClearSessionCookie(c, cookieSecure)
			deny(c, path)
			return
		}

		if hasAnyPrefix(path, adminPrefixes) && claims.Role != models.RoleAdmin {
			c.Redirect(http.StatusTemporaryRedirect, "/items")
			c.Abort()
			return
		}
		c.Next()
	}
}

// deny answers API paths with 401 and sends pages to the login screen.
func deny(c *gin.Context, path string) {
	if strings.HasPrefix(path, "/api/") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, "/login?redirect="+url.QueryEscape(path))
	c.Abort()
}

// TokenVerifier resolves a token to a live user. *auth.Service implements it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (models.AuthUser, error)
}

// MaintenanceChecker reports the maintenance_mode setting. *catalog.Service implements it.
type MaintenanceChecker interface {
	MaintenanceMode(ctx context.Context) (bool, error)
}

// RequireUser verifies the session against the users table and stores the
// AuthUser in the context. While maintenance mode is on only admins pass.
func RequireUser(verifier TokenVerifier, settings MaintenanceChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		user, err := verifier.VerifyToken(ctx, auth.ExtractToken(c))
		if err != nil {
			abortWithError(c, err)
			return
		}

		maintenance, err := settings.MaintenanceMode(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "maintenance check failed", "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable (maintenance check failed)"})
			return
		}
		if maintenance && !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "The system is currently in Maintenance Mode. Please try again later.",
			})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user RequireUser stored in the context.
func CurrentUser(c *gin.Context) (models.AuthUser, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.AuthUser{}, false
	}
	user, ok := v.(models.AuthUser)
	return user, ok
}

func abortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := "Internal server error"
	if kind == apperr.KindInternal {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	} else {
		var e *apperr.Error
		if errors.As(err, &e) {
			msg = e.Message
		}
	}
	c.AbortWithStatusJSON(apperr.Status(kind), gin.H{"error": msg})
}
