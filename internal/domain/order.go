package domain

import (
	"time"
)

// Order status constants.
const (
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
)

// AllowedTransitions defines the order status state machine. Delivered is
// terminal: no transitions out of it are permitted.
var AllowedTransitions = map[string][]string{
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusDelivered},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
}

// IsValidOrderStatus checks whether the given status is known.
func IsValidOrderStatus(status string) bool {
	_, ok := AllowedTransitions[status]
	return ok
}

// CanTransitionTo reports whether an order in status from may move to status to.
func CanTransitionTo(from, to string) bool {
	for _, allowed := range AllowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Address is a shipping destination.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// OrderItem is a line item snapshot taken at order creation time.
type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Order represents a customer order. All monetary amounts are minor units.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Items           []OrderItem `json:"items"`
	Status          string      `json:"status"`
	ShippingAddress Address     `json:"shipping_address"`
	ItemsPrice      int64       `json:"items_price"`
	TaxPrice        int64       `json:"tax_price"`
	ShippingPrice   int64       `json:"shipping_price"`
	TotalPrice      int64       `json:"total_price"`
	PaidAt          *time.Time  `json:"paid_at,omitempty"`
	DeliveredAt     *time.Time  `json:"delivered_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
