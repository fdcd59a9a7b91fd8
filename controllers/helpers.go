package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pollhub/middlewares"
	"pollhub/services"
	"pollhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func init() {
	// Request bodies with unexpected fields are rejected.
	binding.EnableDecoderDisallowUnknownFields = true
}

// respondError maps err onto its status code and writes {error: message}.
// Server-side failures are attached to the context for the error log.
func respondError(c *gin.Context, err error) {
	status := services.StatusCode(err)
	evt := middlewares.Logger.Warn()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		evt = middlewares.Logger.Error()
	}
	evt.Err(err).
		Str("request_id", middlewares.GetRequestID(c)).
		Str("path", c.FullPath()).
		Int("status", status).
		Msg("request failed")
	c.JSON(status, gin.H{"error": services.Message(err)})
}

// bindJSON decodes the request body into req, answering 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		msg := "invalid request body"
		switch {
		case errors.Is(err, io.EOF):
			msg = "request body is required"
		case strings.Contains(err.Error(), "unknown field"):
			msg = "invalid request body: " + err.Error()
		}
		respondError(c, services.ValidationError(msg))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for bodies that may be absent.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, req)
}

// pageParams reads ?page= and ?limit=; invalid values become zero and are
// normalised by the services.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return page, limit
}

func fingerprint(c *gin.Context, salt string) string {
	return utils.Fingerprint(c.Request.Header, salt)
}

// setCookie writes an httpOnly, SameSite=Lax cookie valid for ttl. A zero
// ttl clears the cookie.
func setCookie(c *gin.Context, name, value string, ttl time.Duration, secure bool) {
	maxAge := int(ttl.Seconds())
	if ttl == 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", secure, true)
}

func isAdmin(c *gin.Context) bool {
	_, ok := middlewares.CurrentAdmin(c)
	return ok
}
