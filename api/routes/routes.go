package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/kujifair/kuji-backend/internal/config"
	"github.com/kujifair/kuji-backend/internal/handlers"
	"github.com/kujifair/kuji-backend/internal/middleware"
)

// HandlerDependencies bundles the handlers the router wires up
type HandlerDependencies struct {
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	DrawHandler    *handlers.DrawHandler
	VerifyHandler  *handlers.VerifyHandler
	RateHandler    *handlers.RateHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		// Commit-reveal audit endpoint: stateless, no auth, unlimited concurrency
		public.POST("/verify", deps.VerifyHandler.Verify)

		public.GET("/products", deps.ProductHandler.ListProducts)
		public.GET("/products/:id", deps.ProductHandler.GetProduct)

		public.POST("/auth/login", deps.AuthHandler.Login)
	}

	// Authenticated routes
	authenticated := router.Group("/api/v1")
	authenticated.Use(middleware.JWTAuthMiddleware(cfg))
	{
		authenticated.POST("/products/:id/draw", deps.DrawHandler.ExecuteDraw)
		authenticated.GET("/users/me/draws", deps.DrawHandler.GetMyDraws)
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg))
	admin.Use(middleware.AdminOnlyMiddleware())
	{
		admin.POST("/auth/register", deps.AuthHandler.Register)

		admin.POST("/products", deps.ProductHandler.CreatePool)
		admin.POST("/products/:id/reveal", deps.ProductHandler.RevealSeed)
		admin.GET("/products/:id/draws", deps.DrawHandler.GetDrawsByProduct)

		admin.GET("/products/:id/rate", deps.RateHandler.GetRate)
		admin.PUT("/products/:id/rate", deps.RateHandler.UpdateRate)

		admin.POST("/reconcile/:id", deps.DrawHandler.Reconcile)
	}

	return router
}
