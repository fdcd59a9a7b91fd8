package routes

import (
	"net/http"

	"pollhub/controllers"
	"pollhub/internal/ratelimit"
	"pollhub/middlewares"

	"github.com/casbin/casbin/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps wires the controllers and middlewares into a router
type Deps struct {
	Debate   *controllers.DebateController
	Survey   *controllers.SurveyController
	Question *controllers.QuestionController
	Board    *controllers.BoardController
	Admin    *controllers.AdminController

	Auth     middlewares.Authenticator
	Enforcer *casbin.Enforcer
	Limiter  ratelimit.Limiter
	Metrics  *middlewares.Metrics
	ErrorLog middlewares.ErrorRecorder
	Health   map[string]controllers.Pinger

	AllowedOrigins []string
	TrustedProxies []string
	Salt           string
}

// NewRouter builds the gin engine with every route of the API.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.SetTrustedProxies(d.TrustedProxies)

	router.Use(gin.Recovery(), middlewares.RequestID(), middlewares.RequestLogger(d.Salt))
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware())
	}
	if d.ErrorLog != nil {
		router.Use(middlewares.RecordErrors(d.ErrorLog, d.Salt))
	}
	corsConfig := cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", controllers.QuestionPasswordHeader, middlewares.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", middlewares.RequestIDHeader},
		AllowCredentials: true,
	}
	if len(d.AllowedOrigins) == 0 {
		// Cookies are never sent cross-origin without an explicit list.
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	router.GET("/health", controllers.Health(d.Health))
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	api := router.Group("/api")
	setupDebateRoutes(api, d)
	setupSurveyRoutes(api, d)
	setupQuestionRoutes(api, d)
	setupBoardRoutes(api, d)
	setupAdminRoutes(api, d)

	return router
}

// limit returns the write rate limiter for scope, or a no-op without a limiter.
func limit(d Deps, scope string) gin.HandlerFunc {
	if d.Limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middlewares.RateLimit(d.Limiter, scope, d.Salt)
}
