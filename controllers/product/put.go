package productcontroller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Iamvinnie254/freshharvest-api/middleware"
	"github.com/Iamvinnie254/freshharvest-api/models"
)

type UpdateProductInput struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Price         *string `json:"price"`
	Unit          *string `json:"unit"`
	StockQuantity *int    `json:"stock_quantity"`
	CategoryID    *uint   `json:"category_id"`
	Image         *string `json:"image"`
	HarvestDate   *string `json:"harvest_date"` // YYYY-MM-DD
}

// UpdateProduct updates a farmer's own product. Stock changes re-derive
// availability at the same point, never independently.
func UpdateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		farmerID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var product models.Product
		if err := db.First(&product, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}

		if product.FarmerID != farmerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own products"})
			return
		}

		var input UpdateProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		if input.Name != nil {
			product.Name = *input.Name
		}
		if input.Description != nil {
			product.Description = *input.Description
		}
		if input.Price != nil {
			price, err := decimal.NewFromString(*input.Price)
			if err != nil || price.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price"})
				return
			}
			product.Price = price
		}
		if input.Unit != nil {
			product.Unit = *input.Unit
		}
		if input.CategoryID != nil {
			var category models.Category
			if err := db.First(&category, *input.CategoryID).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
				return
			}
			product.CategoryID = *input.CategoryID
		}
		if input.Image != nil {
			product.Image = *input.Image
		}
		if input.HarvestDate != nil {
			if *input.HarvestDate == "" {
				product.HarvestDate = nil
			} else {
				parsed, err := time.Parse("2006-01-02", *input.HarvestDate)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid harvest_date, expected YYYY-MM-DD"})
					return
				}
				product.HarvestDate = &parsed
			}
		}
		if input.StockQuantity != nil {
			if *input.StockQuantity < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "stock_quantity cannot be negative"})
				return
			}
			product.StockQuantity = *input.StockQuantity
		}
		product.RecomputeAvailability()

		if err := db.Save(&product).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
