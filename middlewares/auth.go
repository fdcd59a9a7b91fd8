package middlewares

import (
	"net/http"
	"strings"

	"pollhub/models"
	"pollhub/services"

	"github.com/gin-gonic/gin"
)

// Cookie names carrying admin tokens
const (
	AdminTokenCookie   = "admin_token"
	RefreshTokenCookie = "admin_refresh_token"
)

const adminUserKey = "adminUser"

// Authenticator verifies an admin access token
type Authenticator interface {
	Authenticate(token string) (*services.SessionUser, error)
}

// TokenFromRequest reads the admin token from the admin_token cookie,
// falling back to an Authorization: Bearer header.
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(AdminTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	return BearerToken(c)
}

// BearerToken returns the token of an Authorization: Bearer header, or "".
func BearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireAdmin rejects requests without a valid admin token and stores the
// admin in the context.
func RequireAdmin(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Authenticate(TokenFromRequest(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": services.Message(err)})
			return
		}
		c.Set(adminUserKey, user)
		c.Next()
	}
}

// RequireSuperAdmin must run after RequireAdmin.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentAdmin(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if user.Role != models.RoleSuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "super admin access required"})
			return
		}
		c.Next()
	}
}

// OptionalAdmin stores the admin in the context when a valid token is
// present and never rejects the request. Owner-or-admin routes use it.
func OptionalAdmin(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := TokenFromRequest(c); token != "" {
			if user, err := auth.Authenticate(token); err == nil {
				c.Set(adminUserKey, user)
			}
		}
		c.Next()
	}
}

// CurrentAdmin returns the admin stored by RequireAdmin or OptionalAdmin.
func CurrentAdmin(c *gin.Context) (*services.SessionUser, bool) {
	v, ok := c.Get(adminUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*services.SessionUser)
	return user, ok && user != nil
}
