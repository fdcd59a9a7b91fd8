package controllers

import (
	"net/http"

	"pollhub/services"

	"github.com/gin-gonic/gin"
)

// BoardController serves the request board and the guestbook
type BoardController struct {
	Requests  *services.RequestService
	Guestbook *services.GuestbookService
}

type createRequestRequest struct {
	AuthorNickname string `json:"author_nickname"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	Category       string `json:"category"`
	Password       string `json:"password"`
}

type guestbookRequest struct {
	AuthorNickname string `json:"author_nickname"`
	Content        string `json:"content"`
	Password       string `json:"password"`
}

// ListRequests handles GET /api/requests
func (bc *BoardController) ListRequests(c *gin.Context) {
	page, limit := pageParams(c)
	list, err := bc.Requests.List(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateRequest handles POST /api/requests
func (bc *BoardController) CreateRequest(c *gin.Context) {
	var req createRequestRequest
	if !bindJSON(c, &req) {
		return
	}
	created, err := bc.Requests.Create(c.Request.Context(), services.CreateRequestInput{
		AuthorNickname: req.AuthorNickname,
		Title:          req.Title,
		Content:        req.Content,
		Category:       req.Category,
		Password:       req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Request created", "request": created})
}

// DeleteRequest handles DELETE /api/requests/:id and its admin variant.
func (bc *BoardController) DeleteRequest(c *gin.Context) {
	var req passwordRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := bc.Requests.Delete(c.Request.Context(), c.Param("id"), req.Password, isAdmin(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request deleted"})
}

// SetRequestStatus handles PUT /api/admin/requests/:id/status
func (bc *BoardController) SetRequestStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := bc.Requests.SetStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request status updated", "status": req.Status})
}

// ListNotes handles GET /api/guestbook
func (bc *BoardController) ListNotes(c *gin.Context) {
	page, limit := pageParams(c)
	list, err := bc.Guestbook.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateNote handles POST /api/guestbook
func (bc *BoardController) CreateNote(c *gin.Context) {
	var req guestbookRequest
	if !bindJSON(c, &req) {
		return
	}
	note, err := bc.Guestbook.Create(c.Request.Context(), services.GuestbookInput{
		AuthorNickname: req.AuthorNickname,
		Content:        req.Content,
		Password:       req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Note added", "note": note})
}

// DeleteNote handles DELETE /api/guestbook/:id and its admin variant.
func (bc *BoardController) DeleteNote(c *gin.Context) {
	var req passwordRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := bc.Guestbook.Delete(c.Request.Context(), c.Param("id"), req.Password, isAdmin(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note deleted"})
}
