package main

import (
	"context"
	"net/http"
	"time"

	"coderelay/internal/common/http/middleware"
	executeController "coderelay/internal/execute/controller"
	userController "coderelay/internal/user/controller"
	"coderelay/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// pinger is a dependency checked by /readyz.
type pinger interface {
	Ping(ctx context.Context) error
}

type routerDeps struct {
	cors          middleware.CORSConfig
	execute       *executeController.ExecuteController
	auth          *userController.AuthController
	authenticator middleware.TokenAuthenticator
	requireAuth   bool
	readiness     map[string]pinger
}

func buildRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceContextMiddleware())
	router.Use(middleware.CORSMiddleware(deps.cors))
	router.Use(middleware.RequestLogger())

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/readyz", readinessHandler(deps.readiness))

	api := router.Group("/api")
	api.GET("/languages", deps.execute.Languages)
	if deps.requireAuth {
		api.POST("/execute", middleware.AuthMiddleware(deps.authenticator), deps.execute.Execute)
	} else {
		api.POST("/execute", deps.execute.Execute)
	}

	if deps.auth != nil {
		auth := api.Group("/auth")
		auth.POST("/signup", deps.auth.Signup)
		auth.POST("/login", deps.auth.Login)
	}
	return router
}

func readinessHandler(checks map[string]pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		failed := make([]string, 0)
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				logger.Warn(ctx, "readiness check failed", zap.String("dependency", name), zap.Error(err))
				failed = append(failed, name)
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
