package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // Placed, awaiting confirmation
	OrderStatusConfirmed  OrderStatus = "confirmed"  // Confirmed by the farmer
	OrderStatusProcessing OrderStatus = "processing" // Being packed
	OrderStatusShipped    OrderStatus = "shipped"    // Out for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // Customer received the produce
	OrderStatusCancelled  OrderStatus = "cancelled"  // Cancelled before processing
)

// orderTransitions is the allowed status graph. Cancellation is only
// possible while the order is still pending or confirmed.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderRef        string          `gorm:"uniqueIndex;not null" json:"order_ref"`
	UserID          uint            `gorm:"not null;index:idx_orders_user_created" json:"user_id"`
	User            User            `gorm:"foreignKey:UserID" json:"-"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:VARCHAR(20);default:'pending';index" json:"status"`
	DeliveryAddress string          `gorm:"not null" json:"delivery_address"`
	OrderNotes      string          `json:"order_notes"`
	CreatedAt       time.Time       `gorm:"index:idx_orders_user_created" json:"created_at"`
}

// RecalculateTotal re-derives TotalAmount from the order's items. It must be
// called whenever items are attached; no other code path sets TotalAmount.
func (o *Order) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	o.TotalAmount = total
}

// OrderItem is one immutable line of a committed order. PriceAtPurchase is a
// snapshot of the product price at checkout time and is never re-derived
// from the live product.
type OrderItem struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID         uint            `gorm:"not null;uniqueIndex:idx_order_product" json:"order_id"`
	ProductID       uint            `gorm:"not null;uniqueIndex:idx_order_product" json:"product_id"`
	Product         Product         `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"-"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_at_purchase"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
