package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/omrgrade/omr-backend/internal/config"
	"github.com/omrgrade/omr-backend/internal/handler"
	"github.com/omrgrade/omr-backend/internal/middleware"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Grading *handler.GradingHandler
	Scheme  *handler.SchemeHandler
	Test    *handler.TestHandler
	Sheet   *handler.SheetHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// loginLimiter may be nil to disable login rate limiting.
func SetupRouter(
	tokens middleware.TokenValidator,
	handlers *Handlers,
	loginLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		login := []gin.HandlerFunc{handlers.Auth.Login}
		if loginLimiter != nil {
			login = append([]gin.HandlerFunc{loginLimiter.Middleware()}, login...)
		}
		auth.POST("/login", login...)
		auth.GET("/me", middleware.RequireOperatorJWT(tokens), handlers.Auth.Me)
	}

	// ─── 2. Operator API (JWT) ─────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireOperatorJWT(tokens))
	{
		// Stateless grading
		api.POST("/grade", handlers.Grading.Grade)

		// Schemes
		api.GET("/schemes/default", middleware.CacheControl(5*time.Minute), handlers.Scheme.GetDefault)
		api.GET("/schemes", handlers.Scheme.List)
		api.GET("/schemes/:id", handlers.Scheme.Get)
		api.POST("/schemes",
			middleware.RequireRole(model.RoleAdmin),
			handlers.Scheme.Create,
		)
		api.DELETE("/schemes/:id",
			middleware.RequireRole(model.RoleAdmin),
			handlers.Scheme.Delete,
		)

		// Tests (answer keys)
		api.GET("/tests", handlers.Test.List)
		api.GET("/tests/:id", handlers.Test.Get)
		api.POST("/tests",
			middleware.RequireRole(model.RoleAdmin),
			handlers.Test.Create,
		)

		// Sheets and results
		api.POST("/tests/:id/sheets", handlers.Sheet.Submit)
		api.GET("/tests/:id/sheets", handlers.Sheet.List)
		api.POST("/tests/:id/grade-all", handlers.Sheet.GradeAll)
		api.GET("/tests/:id/results", handlers.Sheet.Results)
		api.GET("/sheets/:id/result", handlers.Sheet.SheetResult)
	}

	// ─── 3. WebSocket Group (Query Token Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(tokens))
	{
		ws.GET("/tests/:id/results", handlers.WS.ResultStream)
	}

	return router
}
