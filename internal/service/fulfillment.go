package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/event"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/repository"
	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

// FulfillmentService moves orders through the processing, shipped, delivered
// state machine. Stock is decremented exactly once per order, on the
// transition into delivered; delivered is terminal, so a repeat request can
// never decrement again.
type FulfillmentService struct {
	orders   repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewFulfillmentService creates a new fulfillment service. now is injectable
// for tests; pass nil for the wall clock.
func NewFulfillmentService(
	orders repository.OrderRepository,
	producer *event.Producer,
	logger *slog.Logger,
	now func() time.Time,
) *FulfillmentService {
	if now == nil {
		now = time.Now
	}
	return &FulfillmentService{
		orders:   orders,
		producer: producer,
		logger:   logger,
		now:      now,
	}
}

// UpdateOrderStatus transitions an order to the given status. Disallowed
// transitions, including any move out of delivered, are rejected. A
// transition into delivered decrements stock for every item and sets the
// delivery timestamp in one transaction.
func (s *FulfillmentService) UpdateOrderStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q, must be one of: %s", status, strings.Join(orderStatuses(), ", ")))
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	if !domain.CanTransitionTo(order.Status, status) {
		return nil, apperrors.InvalidTransition(fmt.Sprintf("order %s cannot move from %s to %s", orderID, order.Status, status))
	}

	if status == domain.OrderStatusDelivered {
		deliveredAt := s.now().UTC()
		if err := s.orders.Deliver(ctx, order, deliveredAt); err != nil {
			return nil, fmt.Errorf("deliver order: %w", err)
		}
		order.DeliveredAt = &deliveredAt
	} else {
		if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
	}

	order.Status = status
	order.UpdatedAt = s.now().UTC()

	if err := s.producer.PublishOrderStatusChanged(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", order.ID),
		slog.String("status", status),
	)

	return order, nil
}

func orderStatuses() []string {
	return []string{domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered}
}
