package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	cartControllers "github.com/Iamvinnie254/freshharvest-api/controllers/cart"
	orderControllers "github.com/Iamvinnie254/freshharvest-api/controllers/order"
	productcontroller "github.com/Iamvinnie254/freshharvest-api/controllers/product"
	userControllers "github.com/Iamvinnie254/freshharvest-api/controllers/user"
	"github.com/Iamvinnie254/freshharvest-api/middleware"
)

// SetupUserRoutes registers all "/api/*" endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB) {
	api := r.Group("/api")
	api.Use(middleware.ValidateToken)
	{
		// ──────────────── Profile ────────────────
		api.GET("/me", userControllers.GetUser(db))
		api.PUT("/me", userControllers.UpdateUser(db))

		// ──────────────── Shopping Cart ────────────────
		cart := api.Group("/cart")
		{
			cart.GET("", cartControllers.GetCart(db))
			cart.POST("", cartControllers.AddCartItem(db))
			cart.PUT("/:id", cartControllers.UpdateCartItem(db))
			cart.DELETE("/:id", cartControllers.DeleteCartItem(db))
			cart.DELETE("", cartControllers.ClearCart(db))
		}

		// ──────────────── Checkout & Orders ────────────────
		api.POST("/checkout", orderControllers.CheckoutHandler(db))
		orders := api.Group("/orders")
		{
			orders.GET("", orderControllers.GetUserOrdersHandler(db))
			orders.GET("/pending", orderControllers.GetPendingOrdersHandler(db))
			orders.GET("/:orderID", orderControllers.GetOrderByIDHandler(db))
		}

		// ──────────────── Farmer Product Management ────────────────
		farmer := api.Group("/products")
		farmer.Use(middleware.RequireFarmer)
		{
			farmer.POST("", productcontroller.CreateProduct(db))
			farmer.PUT("/:id", productcontroller.UpdateProduct(db))
		}
	}
}
