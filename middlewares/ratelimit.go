package middlewares

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"pollhub/internal/ratelimit"
	"pollhub/models"
	"pollhub/utils"

	"github.com/gin-gonic/gin"
)

// RateLimit limits requests per client fingerprint within scope. Limiter
// failures let the request through.
func RateLimit(limiter ratelimit.Limiter, scope, salt string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + utils.Fingerprint(c.Request.Header, salt)
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			Logger.Warn().Err(err).Str("scope", scope).Msg("rate limiter failed")
			c.Next()
			return
		}
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, try again in " + strconv.Itoa(seconds) + " seconds",
			})
			return
		}
		c.Next()
	}
}

// ErrorRecorder persists server-side failures
type ErrorRecorder interface {
	Record(ctx context.Context, entry models.ErrorLog)
}

// RecordErrors writes an ErrorLog entry for every 5xx response, using the
// last error attached to the context as its message.
func RecordErrors(recorder ErrorRecorder, salt string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < http.StatusInternalServerError {
			return
		}
		message := http.StatusText(status)
		if len(c.Errors) > 0 {
			message = c.Errors.Last().Error()
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		recorder.Record(context.WithoutCancel(c.Request.Context()), models.ErrorLog{
			RequestID: GetRequestID(c),
			Method:    c.Request.Method,
			Path:      path,
			Status:    status,
			Message:   message,
			IPHash:    utils.Fingerprint(c.Request.Header, salt),
		})
	}
}
