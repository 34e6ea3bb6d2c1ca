package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CookieName is the session cookie set on login and setup-password.
const CookieName = "token"

// ExtractToken reads the session token from "Authorization: Bearer <t>",
// falling back to the cookie. The header wins when both are present.
func ExtractToken(c *gin.Context) string {
	if t, ok := bearerToken(c.GetHeader("Authorization")); ok {
		return t
	}
	if t, err := c.Cookie(CookieName); err == nil {
		return t
	}
	return ""
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// SetSessionCookie writes the HttpOnly, SameSite=Lax session cookie.
func SetSessionCookie(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(SessionTTL.Seconds()), "/", "", secure, true)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", secure, true)
}
