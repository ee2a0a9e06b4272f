package handler

import (
	"catalog-service/internal/middleware"
	"catalog-service/internal/model"
	"catalog-service/pkg/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// Handlers groups every route handler of the API
type Handlers struct {
	Auth      *AuthHandler
	Category  *CategoryHandler
	Product   *ProductHandler
	Inventory *InventoryHandler
	Upload    *UploadHandler
	Health    *HealthHandler
}

// RegisterRoutes mounts the API under cfg.Server.BasePath
func RegisterRoutes(e *echo.Echo, h Handlers, auth middleware.Authenticator, cfg *config.Config) {
	e.GET("/health", h.Health.HealthCheck)

	api := e.Group(cfg.Server.BasePath)

	// Authentication routes, throttled per client
	authRoutes := api.Group("/auth", middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	authRoutes.POST("/register", h.Auth.Register)
	authRoutes.POST("/login", h.Auth.Login)
	authRoutes.POST("/logout", h.Auth.Logout)

	authenticated := middleware.AuthMiddleware(auth, cfg.Cookie.Name)
	readers := middleware.RequireRoles(model.RoleMaster, model.RoleAdmin)
	masters := middleware.RequireRoles(model.RoleMaster)

	products := api.Group("/products", authenticated)
	products.GET("", h.Product.ListProducts, readers)
	products.GET("/:id", h.Product.GetProduct, readers)
	products.POST("", h.Product.CreateProduct, masters)
	products.PUT("/:id", h.Product.UpdateProduct, masters)
	products.DELETE("/:id", h.Product.DeleteProduct, masters)

	categories := api.Group("/categories", authenticated)
	categories.GET("", h.Category.ListCategories, readers)
	categories.GET("/:id", h.Category.GetCategory, readers)
	categories.POST("", h.Category.CreateCategory, masters)
	categories.PUT("/:id", h.Category.UpdateCategory, masters)
	categories.DELETE("/:id", h.Category.DeleteCategory, masters)

	inventories := api.Group("/inventories", authenticated)
	inventories.GET("", h.Inventory.ListInventories, readers)
	inventories.POST("", h.Inventory.CreateInventory, masters)
	inventories.PUT("/:id", h.Inventory.UpdateInventory, masters)

	upload := api.Group("/upload", authenticated)
	upload.POST("/csv", h.Upload.UploadCSV, masters, echomiddleware.BodyLimit(cfg.Server.MaxUploadSize))
}
