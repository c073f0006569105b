// Package httpapi exposes the reconciliation engine over HTTP. Routes are
// grouped by access level: health and login are public, everything else
// requires a bearer token.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fiscalflow/auth"
	"fiscalflow/logger"
	"fiscalflow/reconcile"
)

// RouterConfig carries the services the HTTP layer delegates to.
type RouterConfig struct {
	AuthService      *auth.Service
	ReconcileService *reconcile.Service
	Log              *logger.Logger
}

// NewRouter assembles the gin engine with all application routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	authHandler := newAuthHandler(cfg.AuthService, cfg.Log)
	reconcileHandler := newReconcileHandler(cfg.ReconcileService, cfg.Log)

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := router.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("/")
	protected.Use(requireAuth(cfg.AuthService))
	protected.POST("/reconciliation/runs", reconcileHandler.StartRun)
	protected.POST("/activities/:id/reconcile", reconcileHandler.ReconcileActivity)

	return router
}
