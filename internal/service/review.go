package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/event"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/repository"
	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	ProductID  string
	AuthorID   string
	AuthorName string
	Rating     int
	Comment    string
}

// ReviewListResult contains a product's reviews and their aggregate summary.
type ReviewListResult struct {
	Reviews []domain.Review      `json:"reviews"`
	Summary domain.ReviewSummary `json:"summary"`
}

// ReviewService implements the business logic for reviews. One review per
// author per product: resubmitting replaces the author's earlier review in
// place, and the product's rating aggregates are recomputed from the full
// review set on every write.
type ReviewService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		products: products,
		reviews:  reviews,
		producer: producer,
		logger:   logger,
	}
}

// SubmitReview creates the author's review for a product, or replaces their
// existing one. The recomputed aggregates land on the product atomically with
// the review write.
func (s *ReviewService) SubmitReview(ctx context.Context, input *SubmitReviewInput) (*domain.Review, error) {
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}
	if input.AuthorID == "" {
		return nil, apperrors.InvalidInput("author_id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product for review: %w", err)
	}

	existing, err := s.reviews.ListByProduct(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for product: %w", err)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:         uuid.New().String(),
		ProductID:  input.ProductID,
		AuthorID:   input.AuthorID,
		AuthorName: input.AuthorName,
		Rating:     input.Rating,
		Comment:    strings.TrimSpace(input.Comment),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Recompute aggregates over the post-write review set: the author's
	// earlier review, if any, is replaced in place (same id and created_at),
	// never counted twice.
	next := make([]domain.Review, 0, len(existing)+1)
	replaced := false
	for _, r := range existing {
		if r.AuthorID == input.AuthorID {
			replaced = true
			review.ID = r.ID
			review.CreatedAt = r.CreatedAt
			r.Rating = review.Rating
			r.Comment = review.Comment
		}
		next = append(next, r)
	}
	if !replaced {
		next = append(next, *review)
	}
	summary := domain.Summarize(next)

	if err := s.reviews.Upsert(ctx, review, summary, product.Version); err != nil {
		return nil, fmt.Errorf("upsert review: %w", err)
	}

	if err := s.producer.PublishReviewSubmitted(ctx, review, summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("product_id", review.ProductID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("product_id", review.ProductID),
		slog.String("author_id", review.AuthorID),
		slog.Int("rating", review.Rating),
		slog.Bool("replaced", replaced),
		slog.Float64("ratings", summary.Ratings),
		slog.Int("num_of_reviews", summary.NumOfReviews),
	)

	return review, nil
}

// ListReviews returns all reviews for a product with the aggregate summary.
func (s *ReviewService) ListReviews(ctx context.Context, productID string) (*ReviewListResult, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product for review list: %w", err)
	}

	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return &ReviewListResult{
		Reviews: reviews,
		Summary: domain.Summarize(reviews),
	}, nil
}

// DeleteReview removes a review and recomputes the product's aggregates from
// the remaining set. Deleting the last review resets the aggregates to zero.
func (s *ReviewService) DeleteReview(ctx context.Context, productID, reviewID string) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product for review delete: %w", err)
	}

	existing, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("list reviews for delete: %w", err)
	}

	remaining := make([]domain.Review, 0, len(existing))
	for _, r := range existing {
		if r.ID != reviewID {
			remaining = append(remaining, r)
		}
	}
	summary := domain.Summarize(remaining)

	if err := s.reviews.Delete(ctx, productID, reviewID, summary, product.Version); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if err := s.producer.PublishReviewDeleted(ctx, productID, reviewID, summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("product_id", productID),
		slog.String("review_id", reviewID),
		slog.Float64("ratings", summary.Ratings),
		slog.Int("num_of_reviews", summary.NumOfReviews),
	)

	return nil
}
