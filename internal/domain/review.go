package domain

import (
	"time"
)

// Review represents a product review submitted by a user. A user holds at
// most one review per product; resubmitting replaces the existing one.
type Review struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ReviewSummary contains the aggregate statistics derived from a product's
// review sequence.
type ReviewSummary struct {
	Ratings      float64 `json:"ratings"`
	NumOfReviews int     `json:"num_of_reviews"`
}

// Summarize computes the aggregate over the given reviews. An empty sequence
// yields a zero summary, never a division error.
func Summarize(reviews []Review) ReviewSummary {
	if len(reviews) == 0 {
		return ReviewSummary{}
	}

	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}

	return ReviewSummary{
		Ratings:      float64(sum) / float64(len(reviews)),
		NumOfReviews: len(reviews),
	}
}
