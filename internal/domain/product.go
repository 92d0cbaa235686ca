package domain

import (
	"time"
)

// Product categories match the storefront's fixed catalog taxonomy.
var productCategories = []string{
	"Electronics",
	"Cameras",
	"Laptops",
	"Accessories",
	"Headphones",
	"Food",
	"Books",
	"Clothes",
	"Beauty",
	"Sports",
	"Outdoor",
	"Home",
}

// Product represents a catalog product. Ratings and NumOfReviews are derived
// from the product's reviews and must never be written independently of them.
type Product struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Price        int64          `json:"price"`
	Category     string         `json:"category"`
	Seller       string         `json:"seller"`
	Stock        int            `json:"stock"`
	Ratings      float64        `json:"ratings"`
	NumOfReviews int            `json:"num_of_reviews"`
	Images       []ProductImage `json:"images"`
	Version      int            `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ProductImage is an image attached to a product.
type ProductImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ValidCategories returns the set of valid product categories.
func ValidCategories() []string {
	return productCategories
}

// IsValidCategory checks whether the given category is part of the taxonomy.
func IsValidCategory(category string) bool {
	for _, c := range productCategories {
		if c == category {
			return true
		}
	}
	return false
}
