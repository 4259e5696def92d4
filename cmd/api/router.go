package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/middleware"
	"library-backend/internal/shared/response"
	"library-backend/pkg/container"
)

// SetupRouter wires all HTTP routes. The HTTP layer is deliberately
// thin: every business rule lives in the services.
func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	v1 := router.Group("/api/v1")

	v1.GET("/health", func(ctx *gin.Context) {
		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			response.ErrorResponse(ctx, http.StatusServiceUnavailable, "UNHEALTHY", err.Error())
			return
		}
		response.Success(ctx, http.StatusOK, gin.H{
			"status":  "ok",
			"version": c.Config.App.Version,
		})
	})

	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/refresh", c.UserHandler.Refresh)
	}

	authenticated := v1.Group("")
	authenticated.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		authenticated.GET("/users/me", c.UserHandler.Profile)

		authenticated.GET("/books", c.BookHandler.ListBooks)
		authenticated.GET("/books/:id", c.BookHandler.GetBook)

		authenticated.POST("/borrowings", c.BorrowingHandler.CreateBorrowing)
		authenticated.GET("/borrowings", c.BorrowingHandler.ListBorrowings)
		authenticated.GET("/borrowings/:id", c.BorrowingHandler.GetBorrowing)
		authenticated.POST("/borrowings/:id/return", c.BorrowingHandler.ReturnBorrowing)
	}

	staff := v1.Group("")
	staff.Use(middleware.AuthMiddleware(c.JWTManager), middleware.StaffOnly())
	{
		staff.POST("/books", c.BookHandler.CreateBook)
		staff.PATCH("/books/:id", c.BookHandler.UpdateBook)
		staff.DELETE("/books/:id", c.BookHandler.DeleteBook)
	}

	return router
}
