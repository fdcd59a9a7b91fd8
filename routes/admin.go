package routes

import (
	"pollhub/middlewares"

	"github.com/gin-gonic/gin"
)

// setupAdminRoutes sets up admin routes. Admins are created by a super
// admin or the addadmin command; there is no signup.
func setupAdminRoutes(api *gin.RouterGroup, d Deps) {
	ac, qc, bc, dc := d.Admin, d.Question, d.Board, d.Debate
	perm := func(resource, action string) gin.HandlerFunc {
		return middlewares.RequirePermission(d.Enforcer, resource, action)
	}

	adminPublic := api.Group("/admin")
	{
		adminPublic.POST("/auth", limit(d, "admin_auth"), ac.AdminLogin)
		adminPublic.POST("/refresh", limit(d, "admin_auth"), ac.Refresh)
		adminPublic.POST("/logout", ac.Logout)
		adminPublic.GET("/check-auth", ac.CheckAuth)
	}

	admin := api.Group("/admin")
	admin.Use(middlewares.RequireAdmin(d.Auth))
	{
		// Debates management
		admin.GET("/debates", perm(middlewares.ResourceDebate, middlewares.ActionRead), ac.GetDebates)
		admin.DELETE("/debates/bulk", perm(middlewares.ResourceDebate, middlewares.ActionDelete), ac.BulkDeleteDebates)
		admin.DELETE("/debates/:id", perm(middlewares.ResourceDebate, middlewares.ActionDelete), dc.DeleteDebate)

		// Q&A moderation
		admin.POST("/questions/:id/answer", perm(middlewares.ResourceQuestion, middlewares.ActionAnswer), qc.Answer)
		admin.PUT("/questions/:id/status", perm(middlewares.ResourceQuestion, middlewares.ActionStatus), qc.SetStatus)
		admin.DELETE("/questions/:id", perm(middlewares.ResourceQuestion, middlewares.ActionDelete), qc.DeleteQuestion)
		admin.DELETE("/questions/:id/comments/:commentId", perm(middlewares.ResourceComment, middlewares.ActionDelete), qc.DeleteComment)

		// Requests and guestbook
		admin.PUT("/requests/:id/status", perm(middlewares.ResourceRequest, middlewares.ActionStatus), bc.SetRequestStatus)
		admin.DELETE("/requests/:id", perm(middlewares.ResourceRequest, middlewares.ActionDelete), bc.DeleteRequest)
		admin.DELETE("/guestbook/:id", perm(middlewares.ResourceGuestbook, middlewares.ActionDelete), bc.DeleteNote)

		admin.GET("/error-logs", perm(middlewares.ResourceErrorLog, middlewares.ActionRead), ac.ListErrorLogs)
	}

	superAdmin := admin.Group("/admins")
	superAdmin.Use(middlewares.RequireSuperAdmin())
	{
		superAdmin.GET("", perm(middlewares.ResourceAdmin, middlewares.ActionRead), ac.ListAdmins)
		superAdmin.POST("", perm(middlewares.ResourceAdmin, middlewares.ActionCreate), ac.CreateAdmin)
	}
}
