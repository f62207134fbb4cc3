package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/pulsecrm-backend/internal/handlers"
	"github.com/yungbote/pulsecrm-backend/internal/middleware"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	ServiceName     string
	Identity        *middleware.IdentityMiddleware
	ResourceHandler *handlers.ResourceHandler
	AccountHandler  *handlers.AccountHandler
	ChangesHandler  *handlers.ChangesHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(middleware.CORS())

	// Health
	r.GET("/healthcheck", handlers.HealthCheck)

	api := r.Group("/api")
	{
		// Every API route sees the caller identity when a token is sent.
		if cfg.Identity != nil {
			api.Use(cfg.Identity.Attach())
		}

		// Session (public)
		if cfg.AccountHandler != nil {
			api.POST("/login", cfg.AccountHandler.Login)
		}

		// Realtime (SSE)
		if cfg.ChangesHandler != nil {
			api.GET("/changes", cfg.ChangesHandler.Stream)
		}

		// Records
		if cfg.ResourceHandler != nil {
			api.GET("/:resource", cfg.ResourceHandler.GetList)
			api.GET("/:resource/:id", cfg.ResourceHandler.GetOne)
			api.POST("/:resource", cfg.ResourceHandler.Create)
			api.PUT("/:resource", cfg.ResourceHandler.UpdateMany)
			api.PUT("/:resource/:id", cfg.ResourceHandler.Update)
			api.DELETE("/:resource/:id", cfg.ResourceHandler.Delete)
		}
	}

	protected := api.Group("/")
	{
		if cfg.Identity != nil {
			protected.Use(cfg.Identity.Require())
		}

		// Account administration
		if cfg.AccountHandler != nil {
			protected.POST("/sales/transfer-admin", cfg.AccountHandler.TransferAdmin)
		}
	}

	return r
}
