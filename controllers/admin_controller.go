package controllers

import (
	"net/http"

	"pollhub/middlewares"
	"pollhub/services"
	"pollhub/utils"

	"github.com/gin-gonic/gin"
)

// AdminController serves admin sessions and the backoffice
type AdminController struct {
	Auth         *services.AdminAuthService
	ErrorLogs    *services.ErrorLogService
	Debates      *services.DebateService
	CookieSecure bool
}

// AdminLoginRequest represents the login request
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AdminCreateRequest represents a new stored admin
type AdminCreateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (ac *AdminController) setSessionCookies(c *gin.Context, session *services.Session) {
	setCookie(c, middlewares.AdminTokenCookie, session.Token, utils.AdminTokenTTL, ac.CookieSecure)
	setCookie(c, middlewares.RefreshTokenCookie, session.RefreshToken, utils.RefreshTokenTTL, ac.CookieSecure)
}

func sessionBody(session *services.Session) gin.H {
	return gin.H{
		"message":     "Login successful",
		"token":       session.Token,
		"accessToken": session.Token,
		"expires_at":  session.ExpiresAt,
		"user":        session.User,
	}
}

// AdminLogin handles POST /api/admin/auth
func (ac *AdminController) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := ac.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	ac.setSessionCookies(c, session)
	c.JSON(http.StatusOK, sessionBody(session))
}

// Refresh handles POST /api/admin/refresh. The refresh token comes from its
// cookie or the request body.
func (ac *AdminController) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(middlewares.RefreshTokenCookie)
	}
	session, err := ac.Auth.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	ac.setSessionCookies(c, session)
	body := sessionBody(session)
	body["message"] = "Session refreshed"
	c.JSON(http.StatusOK, body)
}

// Logout handles POST /api/admin/logout. Tokens stay valid until expiry;
// only the cookies are cleared.
func (ac *AdminController) Logout(c *gin.Context) {
	setCookie(c, middlewares.AdminTokenCookie, "", 0, ac.CookieSecure)
	setCookie(c, middlewares.RefreshTokenCookie, "", 0, ac.CookieSecure)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// CheckAuth handles GET /api/admin/check-auth and never fails.
func (ac *AdminController) CheckAuth(c *gin.Context) {
	c.JSON(http.StatusOK, ac.Auth.CheckAuth(middlewares.TokenFromRequest(c)))
}

// GetDebates handles GET /api/admin/debates
func (ac *AdminController) GetDebates(c *gin.Context) {
	page, limit := pageParams(c)
	list, err := ac.Debates.List(c.Request.Context(), services.ListDebatesInput{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// BulkDeleteDebates handles DELETE /api/admin/debates/bulk. Unknown ids are
// reported back rather than failing the batch.
func (ac *AdminController) BulkDeleteDebates(c *gin.Context) {
	var req bulkDeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.IDs) == 0 {
		respondError(c, services.ValidationError("ids are required"))
		return
	}
	deleted := 0
	failed := []string{}
	for _, id := range req.IDs {
		if err := ac.Debates.Delete(c.Request.Context(), id, "", true); err != nil {
			if services.StatusCode(err) >= http.StatusInternalServerError {
				respondError(c, err)
				return
			}
			failed = append(failed, id)
			continue
		}
		deleted++
	}
	c.JSON(http.StatusOK, gin.H{"message": "Debates deleted", "deletedCount": deleted, "failed": failed})
}

// ListErrorLogs handles GET /api/admin/error-logs
func (ac *AdminController) ListErrorLogs(c *gin.Context) {
	page, limit := pageParams(c)
	list, err := ac.ErrorLogs.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListAdmins handles GET /api/admin/admins
func (ac *AdminController) ListAdmins(c *gin.Context) {
	admins, err := ac.Auth.ListAdmins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": admins})
}

// CreateAdmin handles POST /api/admin/admins
func (ac *AdminController) CreateAdmin(c *gin.Context) {
	var req AdminCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	admin, err := ac.Auth.CreateAdmin(c.Request.Context(), services.CreateAdminInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Admin created", "admin": admin})
}
