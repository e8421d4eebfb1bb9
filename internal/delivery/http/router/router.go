// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"accounts/internal/delivery/http/middleware"
	"accounts/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler       *handler.AuthHandler
	SessionMiddleware *middleware.SessionMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler       *handler.AuthHandler
	sessionMiddleware *middleware.SessionMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:       params.AuthHandler,
		sessionMiddleware: params.SessionMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	authGroup := e.Group("/auth")
	authGroup.Use(r.sessionMiddleware.Session())
	authGroup.Use(r.sessionMiddleware.CurrentUser)
	{
		authGroup.POST("/signup", r.authHandler.SignUp)
		authGroup.POST("/signin", r.authHandler.SignIn)
		authGroup.POST("/signout", r.authHandler.SignOut)
		authGroup.GET("/whoami", r.authHandler.WhoAmI, r.sessionMiddleware.RequireSignedIn)
	}
}
