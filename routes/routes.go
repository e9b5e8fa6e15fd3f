package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes is the single entry-point that wires up the public, user, and
// admin route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	// Public auth + catalog browsing (no middleware)
	SetupAuthRoutes(r, db)
	SetupPublicRoutes(r, db)

	// User routes (JWT-protected): profile, cart, checkout, orders
	SetupUserRoutes(r, db)

	// Admin routes (API-key-protected)
	SetupAdminRoutes(r, db)
}
