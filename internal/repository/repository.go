package repository

import (
	"context"
	"time"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/catalog"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
)

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns one page of products matching the query.
	List(ctx context.Context, q catalog.Query) ([]domain.Product, error)

	// Count returns the total number of products matching the query,
	// independent of pagination.
	Count(ctx context.Context, q catalog.Query) (int, error)

	// Update modifies an existing product. The write is conditioned on the
	// version the caller read; a lost race yields ErrConflict.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product and its reviews.
	Delete(ctx context.Context, id string) error
}

// ReviewRepository defines persistence operations for reviews and the
// derived product aggregates. Aggregate writes happen in the same
// transaction as the review write.
type ReviewRepository interface {
	// ListByProduct returns all reviews for a product in creation order.
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)

	// Upsert inserts or replaces the review and writes the recomputed
	// aggregates onto the product, conditioned on productVersion.
	Upsert(ctx context.Context, review *domain.Review, summary domain.ReviewSummary, productVersion int) error

	// Delete removes a review (if present) and writes the recomputed
	// aggregates onto the product, conditioned on productVersion.
	Delete(ctx context.Context, productID, reviewID string, summary domain.ReviewSummary, productVersion int) error
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	UserID  *string
	Status  *string
	Page    int
	PerPage int
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create inserts an order and its items atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the filter with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// TotalRevenue returns the sum of total_price across all orders.
	TotalRevenue(ctx context.Context) (int64, error)

	// UpdateStatus changes an order's status without touching stock.
	UpdateStatus(ctx context.Context, id, status string) error

	// Deliver marks the order delivered and decrements stock for every item
	// in one transaction. Each decrement is conditional on sufficient stock;
	// any failure rolls back the whole transaction.
	Deliver(ctx context.Context, order *domain.Order, deliveredAt time.Time) error

	// Delete removes an order and its items.
	Delete(ctx context.Context, id string) error
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, page, perPage int) ([]domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error

	// SetResetToken stores the token digest and expiry together.
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error

	// ClearResetToken nulls both reset fields together.
	ClearResetToken(ctx context.Context, id string) error

	// GetByResetTokenHash finds the user holding the given token digest.
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error)

	// ResetPassword sets a new password hash and clears both reset fields in
	// a single write.
	ResetPassword(ctx context.Context, id, passwordHash string) error
}

// CartRepository defines persistence operations for shopping carts.
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
