package productcontroller

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Iamvinnie254/freshharvest-api/models"
)

var sortableColumns = map[string]bool{
	"price":        true,
	"harvest_date": true,
	"created_at":   true,
	"name":         true,
}

// GET /products
// Filters: search, category_id, farmer_id, available, min_price, max_price,
// harvest_fresh; sorting via sort_by + order.
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := c.Query("search")
		categoryID := c.Query("category_id")
		farmerID := c.Query("farmer_id")
		available := c.Query("available")
		minPriceStr := c.Query("min_price")
		maxPriceStr := c.Query("max_price")
		harvestFresh := c.Query("harvest_fresh")
		sortBy := c.DefaultQuery("sort_by", "created_at")
		sortOrder := strings.ToLower(c.DefaultQuery("order", "desc"))
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "desc"
		}
		if !sortableColumns[sortBy] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by"})
			return
		}

		query := db.Model(&models.Product{})

		if search != "" {
			likePattern := "%" + strings.ToLower(search) + "%"
			query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", likePattern, likePattern)
		}

		if minPriceStr != "" {
			if mp, err := decimal.NewFromString(minPriceStr); err == nil {
				query = query.Where("price >= ?", mp)
			} else {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_price"})
				return
			}
		}
		if maxPriceStr != "" {
			if mp, err := decimal.NewFromString(maxPriceStr); err == nil {
				query = query.Where("price <= ?", mp)
			} else {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
				return
			}
		}

		if categoryID != "" {
			if cid, err := strconv.ParseUint(categoryID, 10, 64); err == nil {
				query = query.Where("category_id = ?", uint(cid))
			} else {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category_id"})
				return
			}
		}
		if farmerID != "" {
			if fid, err := strconv.ParseUint(farmerID, 10, 64); err == nil {
				query = query.Where("farmer_id = ?", uint(fid))
			} else {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid farmer_id"})
				return
			}
		}

		if available == "true" {
			query = query.Where("is_available = ?", true)
		}

		// harvest_fresh restricts to produce harvested today or later
		if harvestFresh == "true" {
			today := time.Now().Truncate(24 * time.Hour)
			query = query.Where("harvest_date >= ?", today)
		}

		var products []models.Product
		if err := query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
