package controllers

import (
	"net/http"

	"pollhub/middlewares"
	"pollhub/services"

	"github.com/gin-gonic/gin"
)

// QuestionPasswordHeader unlocks a private question on GET
const QuestionPasswordHeader = "X-Question-Password"

// QuestionController serves the Q&A board and its comments
type QuestionController struct {
	Questions *services.QuestionService
	Comments  *services.CommentService
	Salt      string
}

type createQuestionRequest struct {
	AuthorNickname string `json:"author_nickname"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	Password       string `json:"password"`
	IsPrivate      bool   `json:"is_private"`
	AllowComments  bool   `json:"allow_comments"`
}

type commentRequest struct {
	AuthorNickname string `json:"author_nickname"`
	Content        string `json:"content"`
	Password       string `json:"password"`
}

type answerRequest struct {
	Content string `json:"content"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// ListQuestions handles GET /api/questions
func (qc *QuestionController) ListQuestions(c *gin.Context) {
	page, limit := pageParams(c)
	list, err := qc.Questions.List(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateQuestion handles POST /api/questions
func (qc *QuestionController) CreateQuestion(c *gin.Context) {
	var req createQuestionRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := qc.Questions.Create(c.Request.Context(), services.CreateQuestionInput{
		AuthorNickname: req.AuthorNickname,
		Title:          req.Title,
		Content:        req.Content,
		Password:       req.Password,
		IsPrivate:      req.IsPrivate,
		AllowComments:  req.AllowComments,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Question created", "question": q})
}

// access is the private-question unlock a request carries.
func (qc *QuestionController) access(c *gin.Context) services.QuestionAccess {
	return services.QuestionAccess{Password: c.GetHeader(QuestionPasswordHeader), IsAdmin: isAdmin(c)}
}

// GetQuestion handles GET /api/questions/:id. Private questions unlock with
// the X-Question-Password header or an admin session.
func (qc *QuestionController) GetQuestion(c *gin.Context) {
	access := qc.access(c)
	view, err := qc.Questions.Get(c.Request.Context(), c.Param("id"), access.Password, access.IsAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Verify handles POST /api/questions/:id/verify
func (qc *QuestionController) Verify(c *gin.Context) {
	var req passwordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := qc.Questions.Verify(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteQuestion handles DELETE /api/questions/:id with the author password
// and DELETE /api/admin/questions/:id for admins.
func (qc *QuestionController) DeleteQuestion(c *gin.Context) {
	var req passwordRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := qc.Questions.Delete(c.Request.Context(), c.Param("id"), req.Password, isAdmin(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

// Answer handles POST /api/admin/questions/:id/answer
func (qc *QuestionController) Answer(c *gin.Context) {
	var req answerRequest
	if !bindJSON(c, &req) {
		return
	}
	admin, _ := middlewares.CurrentAdmin(c)
	answeredBy := ""
	if admin != nil {
		answeredBy = admin.Username
	}
	q, err := qc.Questions.Answer(c.Request.Context(), c.Param("id"), req.Content, answeredBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answer saved", "question": q})
}

// SetStatus handles PUT /api/admin/questions/:id/status
func (qc *QuestionController) SetStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := qc.Questions.SetStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question status updated", "status": req.Status})
}

// ListComments handles GET /api/questions/:id/comments
func (qc *QuestionController) ListComments(c *gin.Context) {
	page, limit := pageParams(c)
	out, err := qc.Comments.ListComments(c.Request.Context(), c.Param("id"), qc.access(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// AddComment handles POST /api/questions/:id/comments
func (qc *QuestionController) AddComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := qc.Comments.AddComment(c.Request.Context(), c.Param("id"), services.CommentInput{
		AuthorNickname: req.AuthorNickname,
		Content:        req.Content,
		Password:       req.Password,
	}, qc.access(c), fingerprint(c, qc.Salt))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Comment added", "comment": comment})
}

// DeleteComment handles DELETE /api/questions/:id/comments/:commentId
func (qc *QuestionController) DeleteComment(c *gin.Context) {
	var req passwordRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	err := qc.Comments.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("commentId"), req.Password, isAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
