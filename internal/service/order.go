package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/event"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/payment"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/repository"
	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

// Pricing constants, all amounts in minor units.
const (
	// taxRatePercent is applied to the items subtotal.
	taxRatePercent = 15

	// freeShippingThreshold is the subtotal above which shipping is free.
	freeShippingThreshold = 20000

	// shippingFlatFee is charged below the free shipping threshold.
	shippingFlatFee = 500
)

// OrderItemInput is one requested line item.
type OrderItemInput struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput holds the parameters for placing an order. Prices are
// never taken from the client; every amount is computed from the catalog.
type CreateOrderInput struct {
	UserID          string
	Items           []OrderItemInput
	ShippingAddress domain.Address
	PaymentMethod   string
}

// OrderListResult is one page of orders.
type OrderListResult struct {
	Orders     []domain.Order `json:"orders"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
}

// AdminOrderListResult is one page of all orders with the running revenue sum.
type AdminOrderListResult struct {
	Orders       []domain.Order `json:"orders"`
	TotalCount   int            `json:"total_count"`
	TotalRevenue int64          `json:"total_revenue"`
	Page         int            `json:"page"`
	PerPage      int            `json:"per_page"`
}

// OrderService implements the business logic for placing and reading orders.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	provider payment.Provider
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	provider payment.Provider,
	producer *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		carts:    carts,
		provider: provider,
		producer: producer,
		logger:   logger,
	}
}

// CreateOrder snapshots the requested products, computes all totals server
// side, charges the payment provider, and persists the order. Stock is not
// touched here; it is decremented once, when the order is delivered.
func (s *OrderService) CreateOrder(ctx context.Context, input *CreateOrderInput) (*domain.Order, error) {
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()

	items := make([]domain.OrderItem, 0, len(input.Items))
	var itemsPrice int64
	for _, in := range input.Items {
		if in.Quantity < 1 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity for product %s must be at least 1", in.ProductID))
		}

		product, err := s.products.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product %s for order: %w", in.ProductID, err)
		}
		if product.Stock < in.Quantity {
			return nil, apperrors.InvalidInput(fmt.Sprintf("insufficient stock for product %s", product.ID))
		}

		imageURL := ""
		if len(product.Images) > 0 {
			imageURL = product.Images[0].URL
		}

		items = append(items, domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  in.Quantity,
			ImageURL:  imageURL,
		})
		itemsPrice += product.Price * int64(in.Quantity)
	}

	taxPrice := itemsPrice * taxRatePercent / 100
	var shippingPrice int64
	if itemsPrice <= freeShippingThreshold {
		shippingPrice = shippingFlatFee
	}
	totalPrice := itemsPrice + taxPrice + shippingPrice

	charge, err := s.provider.Charge(ctx, &payment.ChargeInput{
		Amount:      totalPrice,
		Currency:    "USD",
		Method:      input.PaymentMethod,
		Description: fmt.Sprintf("order %s", orderID),
		Metadata:    map[string]any{"order_id": orderID, "user_id": input.UserID},
	})
	if err != nil {
		return nil, apperrors.ServiceUnavailable("payment provider is unavailable", err)
	}
	if charge.Status != "succeeded" {
		return nil, apperrors.InvalidInput(fmt.Sprintf("payment failed: %s", charge.FailureReason))
	}

	paidAt := now
	order := &domain.Order{
		ID:              orderID,
		UserID:          input.UserID,
		Items:           items,
		Status:          domain.OrderStatusProcessing,
		ShippingAddress: input.ShippingAddress,
		ItemsPrice:      itemsPrice,
		TaxPrice:        taxPrice,
		ShippingPrice:   shippingPrice,
		TotalPrice:      totalPrice,
		PaidAt:          &paidAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// The cart has been converted; a stale copy is harmless if this fails.
	if err := s.carts.Delete(ctx, input.UserID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart after order",
			slog.String("user_id", input.UserID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Int64("total_price", order.TotalPrice),
		slog.String("provider_payment_id", charge.ProviderPaymentID),
	)

	return order, nil
}

// GetOrder retrieves an order. Non-admin requesters may only read their own.
func (s *OrderService) GetOrder(ctx context.Context, id, requesterID, requesterRole string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	if requesterRole != domain.RoleAdmin && order.UserID != requesterID {
		return nil, apperrors.Forbidden("order belongs to another user")
	}

	return order, nil
}

// ListMyOrders returns the requester's orders.
func (s *OrderService) ListMyOrders(ctx context.Context, userID string, page, perPage int) (*OrderListResult, error) {
	page, perPage = normalizePage(page, perPage)

	orders, total, err := s.orders.List(ctx, repository.OrderFilter{
		UserID:  &userID,
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return &OrderListResult{
		Orders:     orders,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

// ListAllOrders returns every order with the total revenue. Admin only, which
// the handler enforces.
func (s *OrderService) ListAllOrders(ctx context.Context, page, perPage int) (*AdminOrderListResult, error) {
	page, perPage = normalizePage(page, perPage)

	orders, total, err := s.orders.List(ctx, repository.OrderFilter{
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}

	revenue, err := s.orders.TotalRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("total revenue: %w", err)
	}

	return &AdminOrderListResult{
		Orders:       orders,
		TotalCount:   total,
		TotalRevenue: revenue,
		Page:         page,
		PerPage:      perPage,
	}, nil
}

// DeleteOrder removes an order.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	s.logger.InfoContext(ctx, "order deleted",
		slog.String("order_id", id),
	)

	return nil
}

func normalizePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
