package orderControllers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	orderControllers "github.com/Iamvinnie254/freshharvest-api/controllers/order"
	"github.com/Iamvinnie254/freshharvest-api/models"
)

func setupCheckoutDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Product{},
		&models.CartItem{}, &models.Order{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, price string, stock int) models.Product {
	consumer := models.User{Username: "wanjiku", Email: fmt.Sprintf("wanjiku-%s-%d@example.com", t.Name(), time.Now().UnixNano()), PasswordHash: "x", UserType: models.UserTypeConsumer}
	assert.NoError(t, db.Create(&consumer).Error)

	farmer := models.User{Username: "kamau", Email: fmt.Sprintf("kamau-%s-%d@example.com", t.Name(), time.Now().UnixNano()), PasswordHash: "x", UserType: models.UserTypeFarmer}
	assert.NoError(t, db.Create(&farmer).Error)

	category := models.Category{Name: "Vegetables " + t.Name(), Slug: models.Slugify("vegetables " + t.Name())}
	assert.NoError(t, db.Create(&category).Error)

	product := models.Product{
		FarmerID:      farmer.ID,
		CategoryID:    category.ID,
		Name:          "Sukuma Wiki",
		Price:         decimal.RequireFromString(price),
		Unit:          "bunch",
		StockQuantity: stock,
	}
	product.RecomputeAvailability()
	assert.NoError(t, db.Create(&product).Error)
	return product
}

func TestCheckoutSuccess(t *testing.T) {
	db := setupCheckoutDB(t)
	product := seedProduct(t, db, "100.00", 5)

	order, err := orderControllers.Checkout(db, 1, orderControllers.CheckoutRequest{
		DeliveryAddress: "12 Riverside Drive, Nairobi",
		OrderNotes:      "leave at gate",
		CartItems: []orderControllers.CheckoutItemInput{
			{ProductID: product.ID, Quantity: 3},
		},
	})
	assert.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.NotEmpty(t, order.OrderRef)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("300.00")),
		"expected total 300.00, got %s", order.TotalAmount)

	// Stock decreased by exactly the requested quantity; availability re-derived.
	var updated models.Product
	assert.NoError(t, db.First(&updated, product.ID).Error)
	assert.Equal(t, 2, updated.StockQuantity)
	assert.True(t, updated.IsAvailable)

	// One line item carrying the snapshotted price.
	var stored models.Order
	assert.NoError(t, db.Preload("Items").First(&stored, order.ID).Error)
	assert.Len(t, stored.Items, 1)
	assert.Equal(t, 3, stored.Items[0].Quantity)
	assert.True(t, stored.Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("100.00")))
}

func TestCheckoutInsufficientStockAfterDepletion(t *testing.T) {
	db := setupCheckoutDB(t)
	product := seedProduct(t, db, "100.00", 5)

	first, err := orderControllers.Checkout(db, 1, orderControllers.CheckoutRequest{
		DeliveryAddress: "12 Riverside Drive, Nairobi",
		CartItems:       []orderControllers.CheckoutItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	assert.NoError(t, err)
	assert.NotNil(t, first)

	// The loser of the race is evaluated against the already-decremented stock.
	_, err = orderControllers.Checkout(db, 2, orderControllers.CheckoutRequest{
		DeliveryAddress: "89 Moi Avenue, Nakuru",
		CartItems:       []orderControllers.CheckoutItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	var stockErr *orderControllers.InsufficientStockError
	assert.True(t, errors.As(err, &stockErr), "expected InsufficientStockError, got %v", err)
	assert.Equal(t, product.ID, stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	// No partial order, stock unchanged by the failed attempt.
	var updated models.Product
	assert.NoError(t, db.First(&updated, product.ID).Error)
	assert.Equal(t, 2, updated.StockQuantity)

	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	assert.Equal(t, int64(1), orderCount)
}

func TestCheckoutUnavailableProduct(t *testing.T) {
	db := setupCheckoutDB(t)
	product := seedProduct(t, db, "50.00", 0) // stock 0 => unavailable

	_, err := orderControllers.Checkout(db, 1, orderControllers.CheckoutRequest{
		DeliveryAddress: "12 Riverside Drive, Nairobi",
		CartItems:       []orderControllers.CheckoutItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	var unavailableErr *orderControllers.ProductUnavailableError
	assert.True(t, errors.As(err, &unavailableErr))
	assert.Equal(t, product.ID, unavailableErr.ProductID)

	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	assert.Equal(t, int64(0), orderCount)
}

func TestCheckoutMissingProduct(t *testing.T) {
	db := setupCheckoutDB(t)

	_, err := orderControllers.Checkout(db, 1, orderControllers.CheckoutRequest{
		DeliveryAddress: "12 Riverside Drive, Nairobi",
		CartItems:       []orderControllers.CheckoutItemInput{{ProductID: 9999, Quantity: 1}},
	})
	var unavailableErr *orderControllers.ProductUnavailableError
	assert.True(t, errors.As(err, &unavailableErr))
	assert.Equal(t, uint(9999), unavailableErr.ProductID)
}

func TestCheckoutAtomicAcrossProducts(t *testing.T) {
	db := setupCheckoutDB(t)
	okProduct := seedProduct(t, db, "80.00", 10)

	shortProduct := models.Product{
		FarmerID:      okProduct.FarmerID,
		CategoryID:    okProduct.CategoryID,
		Name:          "Managu",
		Price:         decimal.RequireFromString("40.00"),
		Unit:          "bunch",
		StockQuantity: 1,
	}
	shortProduct.RecomputeAvailability()
	assert.NoError(t, db.Create(&shortProduct).Error)

	_, err := orderControllers.Checkout(db, 1, orderControllers.CheckoutRequest{
		DeliveryAddress: "12 Riverside Drive, Nairobi",
		CartItems: []orderControllers.CheckoutItemInput{
			{ProductID: okProduct.ID, Quantity: 2},
			{ProductID: shortProduct.ID, Quantity: 5},
		},
	})
	var stockErr *orderControllers.InsufficientStockError
	assert.True(t, errors.As(err, &stockErr))

	// The passing product's deduction was rolled back with everything else.
	var first, second models.Product
	assert.NoError(t, db.First(&first, okProduct.ID).Error)
	assert.NoError(t, db.First(&second, shortProduct.ID).Error)
	assert.Equal(t, 10, first.StockQuantity)
	assert.Equal(t, 1, second.StockQuantity)

	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	assert.Equal(t, int64(0), orderCount)
}

func TestCheckoutMergesDuplicateProductEntries(t *testing.T) {
	db := setupCheckoutDB(t)
	product := seedProduct(t, db, "25.50", 10)

	order, err := orderControllers.Checkout(db, 1, orderControllers.CheckoutRequest{
		DeliveryAddress: "12 Riverside Drive, Nairobi",
		CartItems: []orderControllers.CheckoutItemInput{
			{ProductID: product.ID, Quantity: 2},
			{ProductID: product.ID, Quantity: 3},
		},
	})
	assert.NoError(t, err)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, 5, order.Items[0].Quantity)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("127.50")),
		"expected total 127.50, got %s", order.TotalAmount)

	var updated models.Product
	assert.NoError(t, db.First(&updated, product.ID).Error)
	assert.Equal(t, 5, updated.StockQuantity)
}

func TestCheckoutDepletesStockAndAvailability(t *testing.T) {
	db := setupCheckoutDB(t)
	product := seedProduct(t, db, "10.00", 4)

	_, err := orderControllers.Checkout(db, 1, orderControllers.CheckoutRequest{
		DeliveryAddress: "12 Riverside Drive, Nairobi",
		CartItems:       []orderControllers.CheckoutItemInput{{ProductID: product.ID, Quantity: 4}},
	})
	assert.NoError(t, err)

	var updated models.Product
	assert.NoError(t, db.First(&updated, product.ID).Error)
	assert.Equal(t, 0, updated.StockQuantity)
	assert.False(t, updated.IsAvailable)
}

func TestCheckoutPriceSnapshotIsPermanent(t *testing.T) {
	db := setupCheckoutDB(t)
	product := seedProduct(t, db, "19.99", 10)

	order, err := orderControllers.Checkout(db, 1, orderControllers.CheckoutRequest{
		DeliveryAddress: "12 Riverside Drive, Nairobi",
		CartItems:       []orderControllers.CheckoutItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	assert.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("59.97")))

	// A later price change must not leak into the committed order.
	assert.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", decimal.RequireFromString("999.00")).Error)

	var stored models.Order
	assert.NoError(t, db.Preload("Items").First(&stored, order.ID).Error)
	assert.True(t, stored.Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("59.97")))
}

func TestCheckoutValidation(t *testing.T) {
	db := setupCheckoutDB(t)
	product := seedProduct(t, db, "10.00", 5)

	longAddress := make([]byte, 501)
	for i := range longAddress {
		longAddress[i] = 'a'
	}

	cases := []struct {
		name string
		req  orderControllers.CheckoutRequest
	}{
		{"empty item list", orderControllers.CheckoutRequest{DeliveryAddress: "somewhere"}},
		{"blank address", orderControllers.CheckoutRequest{
			DeliveryAddress: "   ",
			CartItems:       []orderControllers.CheckoutItemInput{{ProductID: product.ID, Quantity: 1}},
		}},
		{"oversized address", orderControllers.CheckoutRequest{
			DeliveryAddress: string(longAddress),
			CartItems:       []orderControllers.CheckoutItemInput{{ProductID: product.ID, Quantity: 1}},
		}},
		{"non-positive quantity", orderControllers.CheckoutRequest{
			DeliveryAddress: "somewhere",
			CartItems:       []orderControllers.CheckoutItemInput{{ProductID: product.ID, Quantity: 0}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := orderControllers.Checkout(db, 1, tc.req)
			var validationErr *orderControllers.ValidationError
			assert.True(t, errors.As(err, &validationErr), "expected ValidationError, got %v", err)
		})
	}

	// Validation failures never touch stock.
	var updated models.Product
	assert.NoError(t, db.First(&updated, product.ID).Error)
	assert.Equal(t, 5, updated.StockQuantity)
}

func TestCheckoutHandlerResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupCheckoutDB(t)
	product := seedProduct(t, db, "100.00", 5)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", uint(1)) })
	r.POST("/api/checkout", orderControllers.CheckoutHandler(db))

	post := func(body any) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewBuffer(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("201 with the created order", func(t *testing.T) {
		w := post(gin.H{
			"delivery_address": "12 Riverside Drive, Nairobi",
			"cart_items":       []gin.H{{"product_id": product.ID, "quantity": 2}},
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var order models.Order
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
		assert.Equal(t, models.OrderStatusPending, order.Status)
		assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("200.00")))
	})

	t.Run("400 for malformed request", func(t *testing.T) {
		w := post(gin.H{"delivery_address": "", "cart_items": []gin.H{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("409 with stock details on conflict", func(t *testing.T) {
		w := post(gin.H{
			"delivery_address": "12 Riverside Drive, Nairobi",
			"cart_items":       []gin.H{{"product_id": product.ID, "quantity": 50}},
		})
		assert.Equal(t, http.StatusConflict, w.Code)

		var body map[string]any
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "insufficient_stock", body["reason"])
		assert.EqualValues(t, 50, body["requested"])
		assert.EqualValues(t, 3, body["available"])
	})
}
