package routes

import (
	"github.com/gin-gonic/gin"
)

func setupDebateRoutes(api *gin.RouterGroup, d Deps) {
	dc := d.Debate
	debates := api.Group("/debates")
	{
		debates.GET("", dc.ListDebates)
		debates.POST("", limit(d, "create"), dc.CreateDebate)
		debates.GET("/:id", dc.GetDebate)
		debates.PUT("/:id", limit(d, "edit"), dc.UpdateDebate)
		debates.DELETE("/:id", limit(d, "edit"), dc.DeleteDebate)

		debates.POST("/:id/vote", limit(d, "vote"), dc.Vote)
		debates.GET("/:id/results", dc.Results)
		debates.GET("/:id/stats", dc.Stats)
		debates.POST("/:id/opinion", limit(d, "opinion"), dc.AddOpinion)
		debates.GET("/:id/opinions", dc.ListOpinions)

		// WebSocket live results feed
		debates.GET("/:id/live", dc.Live)
	}
}
