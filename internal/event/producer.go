package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	pkgkafka "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/kafka"
)

// Kafka topic constants for storefront domain events.
const (
	TopicProductCreated     = "shopit.product.created"
	TopicProductUpdated     = "shopit.product.updated"
	TopicProductDeleted     = "shopit.product.deleted"
	TopicReviewSubmitted    = "shopit.review.submitted"
	TopicReviewDeleted      = "shopit.review.deleted"
	TopicOrderCreated       = "shopit.order.created"
	TopicOrderStatusChanged = "shopit.order.status_changed"
	TopicUserRegistered     = "shopit.user.registered"
	TopicPasswordResetReq   = "shopit.user.password_reset_requested"
)

// Aggregate type constants.
const (
	AggregateTypeProduct = "product"
	AggregateTypeOrder   = "order"
	AggregateTypeUser    = "user"
)

// Source identifier for events originating from this service.
const Source = "shopit-api"

// ProductEventData is the payload for product lifecycle events.
type ProductEventData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
	Stock    int    `json:"stock"`
}

// ReviewEventData is the payload for review events.
type ReviewEventData struct {
	ReviewID     string  `json:"review_id"`
	ProductID    string  `json:"product_id"`
	AuthorID     string  `json:"author_id"`
	Rating       int     `json:"rating,omitempty"`
	Ratings      float64 `json:"ratings"`
	NumOfReviews int     `json:"num_of_reviews"`
}

// OrderEventData is the payload for order events.
type OrderEventData struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	Status     string `json:"status"`
	TotalPrice int64  `json:"total_price"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// PasswordResetRequestedData is the payload for a password reset request
// event. The token itself never leaves the mailer path.
type PasswordResetRequestedData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, product.ID, AggregateTypeProduct, ProductEventData{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		Category: product.Category,
		Stock:    product.Stock,
	})
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, AggregateTypeProduct, ProductEventData{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		Category: product.Category,
		Stock:    product.Stock,
	})
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, productID string) error {
	return p.publish(ctx, TopicProductDeleted, productID, AggregateTypeProduct, ProductEventData{ID: productID})
}

// PublishReviewSubmitted publishes a review.submitted event carrying the
// recomputed product aggregates.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review, summary domain.ReviewSummary) error {
	return p.publish(ctx, TopicReviewSubmitted, review.ProductID, AggregateTypeProduct, ReviewEventData{
		ReviewID:     review.ID,
		ProductID:    review.ProductID,
		AuthorID:     review.AuthorID,
		Rating:       review.Rating,
		Ratings:      summary.Ratings,
		NumOfReviews: summary.NumOfReviews,
	})
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, productID, reviewID string, summary domain.ReviewSummary) error {
	return p.publish(ctx, TopicReviewDeleted, productID, AggregateTypeProduct, ReviewEventData{
		ReviewID:     reviewID,
		ProductID:    productID,
		Ratings:      summary.Ratings,
		NumOfReviews: summary.NumOfReviews,
	})
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, order.ID, AggregateTypeOrder, OrderEventData{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
	})
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderStatusChanged, order.ID, AggregateTypeOrder, OrderEventData{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
	})
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	})
}

// PublishPasswordResetRequested publishes a password reset request event.
func (p *Producer) PublishPasswordResetRequested(ctx context.Context, userID, email string) error {
	return p.publish(ctx, TopicPasswordResetReq, userID, AggregateTypeUser, PasswordResetRequestedData{
		UserID: userID,
		Email:  email,
	})
}
