package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/stockroom/internal/handlers"
	"github.com/01moynul/stockroom/internal/middleware"
)

func SetupRouter(h *handlers.Handlers, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS must answer preflight requests before the gate sees them.
	router.Use(middleware.CORS(h.Config.CORSOrigin))
	router.Use(middleware.Gate(h.Auth.Tokens(), h.Config.CookieSecure))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.Static("/uploads", h.Config.UploadDir)

	api := router.Group("/api")
	{
		// --- Auth Routes (Public) ---
		authGroup := api.Group("/auth")
		authGroup.POST("/check-email", h.CheckEmail)
		authGroup.POST("/setup-password", h.SetupPassword)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)

		// --- Protected Routes (Login Required) ---
		protected := api.Group("/")
		protected.Use(middleware.RequireUser(h.Auth, h.Catalog))
		{
			protected.GET("/auth/me", h.Me)

			protected.GET("/items", h.ListItems)
			protected.POST("/items", h.CreateItem)
			protected.GET("/items/:id", h.GetItem)
			protected.PUT("/items/:id", h.UpdateItem)
			protected.DELETE("/items/:id", h.DeleteItem)
			protected.POST("/items/:id/stock", h.AdjustStock)

			protected.GET("/transactions", h.ListTransactions)
			protected.GET("/dashboard/stats", h.GetDashboardStats)

			protected.GET("/categories", h.GetAllCategories)
			protected.GET("/suppliers", h.GetAllSuppliers)
			protected.GET("/locations", h.GetAllLocations)

			protected.POST("/uploads", h.UploadFile)
		}

		// --- Admin-Only Routes ---
		admin := api.Group("/admin")
		admin.Use(middleware.RequireUser(h.Auth, h.Catalog))
		admin.Use(middleware.RequireAdmin())
		{
			admin.POST("/categories", h.CreateCategory)
			admin.PUT("/categories/:id", h.UpdateCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)

			admin.POST("/suppliers", h.CreateSupplier)
			admin.PUT("/suppliers/:id", h.UpdateSupplier)
			admin.DELETE("/suppliers/:id", h.DeleteSupplier)

			admin.POST("/locations", h.CreateLocation)
			admin.PUT("/locations/:id", h.UpdateLocation)
			admin.DELETE("/locations/:id", h.DeleteLocation)

			admin.GET("/users", h.ListUsers)
			admin.POST("/users", h.CreateUser)
			admin.PUT("/users/:id", h.UpdateUser)

			admin.GET("/settings", h.GetSettings)
			admin.PUT("/settings/:key", h.UpdateSetting)

			admin.POST("/assistant", h.ChatAI)
		}
	}

	return router
}
