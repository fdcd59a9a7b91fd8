package routes

import (
	"pollhub/middlewares"

	"github.com/gin-gonic/gin"
)

func setupSurveyRoutes(api *gin.RouterGroup, d Deps) {
	sc := d.Survey
	surveys := api.Group("/surveys")
	{
		surveys.GET("", sc.ListSurveys)
		surveys.POST("", limit(d, "create"), sc.CreateSurvey)
		surveys.GET("/:id", sc.GetSurvey)
		surveys.POST("/:id/verify", limit(d, "verify"), sc.Verify)
		surveys.POST("/:id/responses", limit(d, "response"), sc.SubmitResponse)
		surveys.GET("/:id/has-responded", sc.HasResponded)

		// Author session routes
		surveys.GET("/:id/results", sc.Results)
		surveys.PUT("/:id/status", sc.SetStatus)
		surveys.DELETE("/:id", sc.DeleteSurvey)
	}
}

func setupQuestionRoutes(api *gin.RouterGroup, d Deps) {
	qc := d.Question
	questions := api.Group("/questions")
	{
		questions.GET("", qc.ListQuestions)
		questions.POST("", limit(d, "create"), qc.CreateQuestion)
		questions.GET("/:id", middlewares.OptionalAdmin(d.Auth), qc.GetQuestion)
		questions.POST("/:id/verify", limit(d, "verify"), qc.Verify)
		questions.DELETE("/:id", limit(d, "edit"), qc.DeleteQuestion)

		questions.GET("/:id/comments", middlewares.OptionalAdmin(d.Auth), qc.ListComments)
		questions.POST("/:id/comments", limit(d, "comment"), middlewares.OptionalAdmin(d.Auth), qc.AddComment)
		questions.DELETE("/:id/comments/:commentId", limit(d, "edit"), qc.DeleteComment)
	}
}

func setupBoardRoutes(api *gin.RouterGroup, d Deps) {
	bc := d.Board
	requests := api.Group("/requests")
	{
		requests.GET("", bc.ListRequests)
		requests.POST("", limit(d, "request"), bc.CreateRequest)
		requests.DELETE("/:id", limit(d, "edit"), bc.DeleteRequest)
	}

	guestbook := api.Group("/guestbook")
	{
		guestbook.GET("", bc.ListNotes)
		guestbook.POST("", limit(d, "guestbook"), bc.CreateNote)
		guestbook.DELETE("/:id", limit(d, "edit"), bc.DeleteNote)
	}
}
