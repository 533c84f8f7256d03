package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/charchit19/auth-mindsparkle/internal/config"
	"github.com/charchit19/auth-mindsparkle/internal/http/handler"
	httpmiddleware "github.com/charchit19/auth-mindsparkle/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, adminHandler *handler.AdminHandler, gate *httpmiddleware.Auth) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	r.Use(httpmiddleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.GET("/verify-email/:token", authHandler.VerifyEmail)
		auth.POST("/resend-verification-email", authHandler.ResendVerification)
		auth.POST("/login", authHandler.Login)
		auth.POST("/request-reset-password", authHandler.RequestPasswordReset)
		auth.POST("/reset-password", authHandler.ResetPassword)

		auth.GET("/profile", gate.RequireAuth, authHandler.GetProfile)
		auth.PUT("/profile", gate.RequireAuth, authHandler.UpdateProfile)
	}

	admin := api.Group("/admin", gate.RequireAuth, gate.RequireAdmin)
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.PUT("/users/:id", adminHandler.UpdateUser)
		admin.PUT("/users/:id/edit-password", adminHandler.ForceResetPassword)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
	}

	return r
}
