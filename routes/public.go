package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/Iamvinnie254/freshharvest-api/controllers/order"
	productcontroller "github.com/Iamvinnie254/freshharvest-api/controllers/product"
)

// SetupPublicRoutes registers the anonymous catalog-browsing endpoints and
// the order feed websocket.
func SetupPublicRoutes(r *gin.Engine, db *gorm.DB) {
	r.GET("/products", productcontroller.GetProducts(db))
	r.GET("/products/:id", productcontroller.GetProductByID(db))

	categories := r.Group("/categories")
	{
		categories.GET("", productcontroller.GetAllCategories(db))
		categories.GET("/popular", productcontroller.GetPopularCategories(db))
		categories.GET("/:id", productcontroller.GetCategoryByID(db))
	}

	// websocket endpoint for real-time order updates
	r.GET("/orders/ws", orderControllers.OrderFeedHandler)
}
