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

type CreateProductInput struct {
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Price         string  `json:"price" binding:"required"`
	Unit          string  `json:"unit"`
	StockQuantity int     `json:"stock_quantity" binding:"min=0"`
	CategoryID    uint    `json:"category_id" binding:"required"`
	Image         string  `json:"image"`
	HarvestDate   *string `json:"harvest_date"` // YYYY-MM-DD
}

// CreateProduct registers new produce under the authenticated farmer.
func CreateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		farmerID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var input CreateProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		price, err := decimal.NewFromString(input.Price)
		if err != nil || price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price"})
			return
		}

		var category models.Category
		if err := db.First(&category, input.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Category does not exist"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate category"})
			return
		}

		var harvestDate *time.Time
		if input.HarvestDate != nil && *input.HarvestDate != "" {
			parsed, err := time.Parse("2006-01-02", *input.HarvestDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid harvest_date, expected YYYY-MM-DD"})
				return
			}
			harvestDate = &parsed
		}

		product := models.Product{
			FarmerID:      farmerID,
			CategoryID:    input.CategoryID,
			Name:          input.Name,
			Description:   input.Description,
			Price:         price,
			Unit:          input.Unit,
			StockQuantity: input.StockQuantity,
			Image:         input.Image,
			HarvestDate:   harvestDate,
		}
		product.RecomputeAvailability()

		if err := db.Create(&product).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}
