package postgres

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

var reviewCols = []string{
	"id", "product_id", "author_id", "author_name", "rating", "comment",
	"created_at", "updated_at",
}

func sampleReview() domain.Review {
	return domain.Review{
		ID:         "review-1",
		ProductID:  "prod-1",
		AuthorID:   "user-1",
		AuthorName: "Alice",
		Rating:     5,
		Comment:    "Works exactly as described.",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func reviewRow(r domain.Review) []any {
	return []any{
		r.ID, r.ProductID, r.AuthorID, r.AuthorName, r.Rating, r.Comment,
		r.CreatedAt, r.UpdatedAt,
	}
}

func TestReviewRepository_ListByProduct_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	r1 := sampleReview()
	r2 := sampleReview()
	r2.ID = "review-2"
	r2.AuthorID = "user-2"
	r2.AuthorName = "Bob"
	r2.Rating = 3

	mock.ExpectQuery("SELECT .+ FROM reviews WHERE product_id").
		WithArgs("prod-1").
		WillReturnRows(
			pgxmock.NewRows(reviewCols).
				AddRow(reviewRow(r1)...).
				AddRow(reviewRow(r2)...),
		)

	reviews, err := repo.ListByProduct(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.Equal(t, r1.ID, reviews[0].ID)
	assert.Equal(t, r2.ID, reviews[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByProduct_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM reviews WHERE product_id").
		WithArgs("prod-no-reviews").
		WillReturnRows(pgxmock.NewRows(reviewCols))

	reviews, err := repo.ListByProduct(context.Background(), "prod-no-reviews")
	require.NoError(t, err)
	assert.Equal(t, []domain.Review{}, reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Upsert_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	r := sampleReview()
	summary := domain.ReviewSummary{Ratings: 4.0, NumOfReviews: 2}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(r.ID, r.ProductID, r.AuthorID, r.AuthorName, r.Rating, r.Comment, r.CreatedAt, r.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE products").
		WithArgs(summary.Ratings, summary.NumOfReviews, r.ProductID, 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Upsert(context.Background(), &r, summary, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Upsert_VersionConflict(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	r := sampleReview()
	summary := domain.ReviewSummary{Ratings: 5.0, NumOfReviews: 1}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(r.ID, r.ProductID, r.AuthorID, r.AuthorName, r.Rating, r.Comment, r.CreatedAt, r.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE products").
		WithArgs(summary.Ratings, summary.NumOfReviews, r.ProductID, 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Upsert(context.Background(), &r, summary, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Delete_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	summary := domain.ReviewSummary{Ratings: 3.0, NumOfReviews: 1}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM reviews WHERE").
		WithArgs("review-1", "prod-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("UPDATE products").
		WithArgs(summary.Ratings, summary.NumOfReviews, "prod-1", 5).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "prod-1", "review-1", summary, 5)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Delete_MissingReviewStillWritesAggregates(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	summary := domain.ReviewSummary{Ratings: 0, NumOfReviews: 0}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM reviews WHERE").
		WithArgs("missing-review", "prod-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("UPDATE products").
		WithArgs(summary.Ratings, summary.NumOfReviews, "prod-1", 5).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "prod-1", "missing-review", summary, 5)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
