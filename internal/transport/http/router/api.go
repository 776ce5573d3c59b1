package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"academic-records-core/internal/core/auth"
	"academic-records-core/internal/transport/http/handler"
	mdw "academic-records-core/internal/transport/http/middleware"
)

// NewAPIEngine mounts the consumer-facing surface. Everything behind
// /api/v1 except login/register requires a token.
func NewAPIEngine(l *zap.Logger, h *handler.Handlers, jwter *auth.JWTer) *gin.Engine {
	r := gin.New()
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		ginzap.Ginzap(l, time.RFC3339, true),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	api := r.Group("/api/v1")
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)

	authed := api.Group("")
	authed.Use(mdw.AuthJWT(jwter, ""))
	authed.GET("/me", h.Me)

	students := authed.Group("/students")
	{
		students.GET("", h.ListStudents)
		students.GET("/search", h.SearchStudents)
		students.GET("/code/:code", h.GetStudentByCode)
		students.GET("/:id", h.GetStudent)
		students.POST("", h.CreateStudent)
		students.PATCH("/:id", h.UpdateStudent)
		students.DELETE("/:id", h.DeleteStudent)
		students.POST("/:id/risk/recompute", h.RecomputeStudentRisk)
		students.GET("/:id/alerts", h.ListStudentAlerts)
	}

	alerts := authed.Group("/alerts")
	{
		alerts.GET("", h.ListAlerts)
		alerts.GET("/:id", h.GetAlert)
		alerts.POST("", h.CreateAlert)
		alerts.PATCH("/:id", h.UpdateAlert)
		alerts.POST("/:id/resolve", h.ResolveAlert)
		alerts.DELETE("/:id", h.DeleteAlert)
	}

	resources := authed.Group("/resources")
	{
		resources.GET("", h.ListResources)
		resources.GET("/search", h.SearchResources)
		resources.GET("/career/:career", h.ListResourcesByCareer)
		resources.GET("/:id", h.GetResource)
		resources.POST("", h.CreateResource)
		resources.PATCH("/:id", h.UpdateResource)
		resources.DELETE("/:id", h.DeleteResource)
	}

	return r
}
