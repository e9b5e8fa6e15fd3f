package orderControllers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Iamvinnie254/freshharvest-api/metrics"
	"github.com/Iamvinnie254/freshharvest-api/middleware"
	"github.com/Iamvinnie254/freshharvest-api/models"
)

const (
	maxDeliveryAddressLen = 500
	maxOrderNotesLen      = 1000
)

// -------- Request Structs --------

type CheckoutItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type CheckoutRequest struct {
	DeliveryAddress string              `json:"delivery_address" binding:"required"`
	OrderNotes      string              `json:"order_notes"`
	CartItems       []CheckoutItemInput `json:"cart_items" binding:"required,min=1,dive"`
}

// -------- Errors --------

// ErrCheckoutBusy means a product row lock could not be acquired promptly.
// The condition is transient; callers should retry with backoff.
var ErrCheckoutBusy = errors.New("checkout busy: try again")

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type ProductUnavailableError struct {
	ProductID uint
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %d does not exist or is unavailable", e.ProductID)
}

type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// -------- Core Logic --------

// Checkout converts an explicit item list into a committed order inside a
// single transaction: lock product rows in ascending id order, validate
// availability and stock, snapshot current prices into order items, deduct
// stock and re-derive availability. Any failure rolls the whole thing back.
// Cart rows are not read or cleared; the item list is authoritative.
func Checkout(db *gorm.DB, userID uint, req CheckoutRequest) (*models.Order, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	// Merge duplicate product ids; order items are unique per (order, product).
	quantities := make(map[uint]int, len(req.CartItems))
	for _, item := range req.CartItems {
		quantities[item.ProductID] += item.Quantity
	}
	productIDs := make([]uint, 0, len(quantities))
	for id := range quantities {
		productIDs = append(productIDs, id)
	}
	// Fixed lock order prevents deadlock between overlapping checkouts.
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	var order models.Order

	err := db.Transaction(func(tx *gorm.DB) error {
		var orderItems []models.OrderItem

		for _, productID := range productIDs {
			quantity := quantities[productID]

			var product models.Product
			if err := lockProducts(tx).First(&product, "id = ?", productID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &ProductUnavailableError{ProductID: productID}
				}
				if isLockUnavailable(err) {
					return ErrCheckoutBusy
				}
				return err
			}

			if !product.IsAvailable {
				return &ProductUnavailableError{ProductID: productID}
			}
			if quantity > product.StockQuantity {
				return &InsufficientStockError{
					ProductID: productID,
					Requested: quantity,
					Available: product.StockQuantity,
				}
			}

			// Snapshot the current price; the order item keeps it forever.
			orderItems = append(orderItems, models.OrderItem{
				ProductID:       product.ID,
				ProductName:     product.Name,
				Quantity:        quantity,
				PriceAtPurchase: product.Price,
			})

			product.StockQuantity -= quantity
			product.RecomputeAvailability()
			if err := tx.Save(&product).Error; err != nil {
				return err
			}
		}

		order = models.Order{
			OrderRef:        generateOrderRef(),
			UserID:          userID,
			Items:           orderItems,
			Status:          models.OrderStatusPending,
			DeliveryAddress: req.DeliveryAddress,
			OrderNotes:      req.OrderNotes,
			CreatedAt:       time.Now(),
		}
		order.RecalculateTotal()

		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func validateCheckout(req CheckoutRequest) error {
	if strings.TrimSpace(req.DeliveryAddress) == "" {
		return &ValidationError{Field: "delivery_address", Message: "is required"}
	}
	if len(req.DeliveryAddress) > maxDeliveryAddressLen {
		return &ValidationError{Field: "delivery_address", Message: "must be at most 500 characters"}
	}
	if len(req.OrderNotes) > maxOrderNotesLen {
		return &ValidationError{Field: "order_notes", Message: "must be at most 1000 characters"}
	}
	if len(req.CartItems) == 0 {
		return &ValidationError{Field: "cart_items", Message: "must contain at least one item"}
	}
	for _, item := range req.CartItems {
		if item.Quantity < 1 {
			return &ValidationError{Field: "cart_items", Message: "quantity must be at least 1"}
		}
	}
	return nil
}

// lockProducts adds SELECT ... FOR UPDATE NOWAIT on backends that support
// it. sqlite (tests) rejects the syntax; its single-writer lock already
// serializes concurrent checkouts.
func lockProducts(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"})
}

// isLockUnavailable matches the Postgres lock_not_available failure (55P03)
// raised by FOR UPDATE NOWAIT under contention.
func isLockUnavailable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "could not obtain lock") || strings.Contains(msg, "55P03")
}

func generateOrderRef() string {
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}

// -------- Handler --------

// POST /api/checkout
func CheckoutHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			metrics.CheckoutOutcomes.WithLabelValues("validation_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		order, err := Checkout(db, userID, req)
		if err != nil {
			var validationErr *ValidationError
			var unavailableErr *ProductUnavailableError
			var stockErr *InsufficientStockError

			switch {
			case errors.As(err, &validationErr):
				metrics.CheckoutOutcomes.WithLabelValues("validation_error").Inc()
				c.JSON(http.StatusBadRequest, gin.H{
					"error": validationErr.Message,
					"field": validationErr.Field,
				})
			case errors.As(err, &unavailableErr):
				metrics.CheckoutOutcomes.WithLabelValues("product_unavailable").Inc()
				c.JSON(http.StatusConflict, gin.H{
					"error":      "Product is unavailable",
					"product_id": unavailableErr.ProductID,
					"reason":     "unavailable",
				})
			case errors.As(err, &stockErr):
				metrics.CheckoutOutcomes.WithLabelValues("insufficient_stock").Inc()
				c.JSON(http.StatusConflict, gin.H{
					"error":      "Insufficient stock",
					"product_id": stockErr.ProductID,
					"requested":  stockErr.Requested,
					"available":  stockErr.Available,
					"reason":     "insufficient_stock",
				})
			case errors.Is(err, ErrCheckoutBusy):
				metrics.CheckoutOutcomes.WithLabelValues("busy").Inc()
				c.JSON(http.StatusConflict, gin.H{
					"error":  "Checkout busy, please retry",
					"reason": "busy",
				})
			default:
				metrics.CheckoutOutcomes.WithLabelValues("persistence_failure").Inc()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
			}
			return
		}

		metrics.CheckoutOutcomes.WithLabelValues("success").Inc()
		broadcastNewOrder(*order)
		c.JSON(http.StatusCreated, order)
	}
}
