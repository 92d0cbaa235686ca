package postgres

import (
	"context"
	"fmt"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/database"
	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// ListByProduct returns all reviews for a product in creation order.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	query := `
		SELECT id, product_id, author_id, author_name, rating, comment, created_at, updated_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(
			&rev.ID,
			&rev.ProductID,
			&rev.AuthorID,
			&rev.AuthorName,
			&rev.Rating,
			&rev.Comment,
			&rev.CreatedAt,
			&rev.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// Upsert inserts the review, or replaces the author's existing review for
// the product in place (id and created_at preserved). The recomputed
// aggregates land on the product in the same transaction, conditioned on the
// version the caller read.
func (r *ReviewRepository) Upsert(ctx context.Context, review *domain.Review, summary domain.ReviewSummary, productVersion int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	reviewQuery := `
		INSERT INTO reviews (id, product_id, author_id, author_name, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (product_id, author_id) DO UPDATE
		SET author_name = EXCLUDED.author_name,
		    rating = EXCLUDED.rating,
		    comment = EXCLUDED.comment,
		    updated_at = EXCLUDED.updated_at`

	_, err = tx.Exec(ctx, reviewQuery,
		review.ID,
		review.ProductID,
		review.AuthorID,
		review.AuthorName,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}

	if err := r.writeAggregates(ctx, tx, review.ProductID, summary, productVersion); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Delete removes a review and writes the recomputed aggregates in the same
// transaction. A missing review is not an error; the aggregates are still
// written so derived state converges.
func (r *ReviewRepository) Delete(ctx context.Context, productID, reviewID string, summary domain.ReviewSummary, productVersion int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND product_id = $2`, reviewID, productID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if err := r.writeAggregates(ctx, tx, productID, summary, productVersion); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// writeAggregates persists derived ratings and review count onto the
// product, bumping the version. Zero rows means a concurrent writer won the
// version race.
func (r *ReviewRepository) writeAggregates(ctx context.Context, tx txExecer, productID string, summary domain.ReviewSummary, productVersion int) error {
	query := `
		UPDATE products
		SET ratings = $1, num_of_reviews = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND version = $4`

	ct, err := tx.Exec(ctx, query, summary.Ratings, summary.NumOfReviews, productID, productVersion)
	if err != nil {
		return fmt.Errorf("update product aggregates: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.Conflict("product", productID)
	}

	return nil
}
