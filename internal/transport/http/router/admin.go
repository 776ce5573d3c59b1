package router

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"academic-records-core/internal/core/auth"
	"academic-records-core/internal/transport/http/handler"
	mdw "academic-records-core/internal/transport/http/middleware"
)

// NewAdminEngine mounts the operations surface: user administration,
// the bulk risk sweep, cache flush and metrics. Admin role required.
func NewAdminEngine(l *zap.Logger, h *handler.Handlers, jwter *auth.JWTer) *gin.Engine {
	r := gin.New()
	r.Use(
		mdw.RequestID(),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		ginzap.Ginzap(l, time.RFC3339, true),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin/v1")
	admin.POST("/auth/login", h.Login)

	authed := admin.Group("")
	authed.Use(mdw.AuthJWT(jwter, "admin"))
	{
		authed.GET("/users", h.ListUsers)
		authed.GET("/users/:id", h.GetUser)
		authed.PATCH("/users/:id", h.UpdateUser)
		authed.POST("/risk/sweep", h.RiskSweep)
		authed.POST("/cache/flush", h.FlushCaches)
	}

	return r
}
