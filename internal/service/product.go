package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/catalog"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/event"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/repository"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/storage"
	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

// ProductService implements the business logic for catalog operations.
type ProductService struct {
	repo     repository.ProductRepository
	storage  storage.Storage
	producer *event.Producer
	logger   *slog.Logger
	pageSize int
}

// NewProductService creates a new product service. pageSize bounds every
// catalog listing.
func NewProductService(
	repo repository.ProductRepository,
	store storage.Storage,
	producer *event.Producer,
	logger *slog.Logger,
	pageSize int,
) *ProductService {
	if pageSize <= 0 {
		pageSize = 4
	}
	return &ProductService{
		repo:     repo,
		storage:  store,
		producer: producer,
		logger:   logger,
		pageSize: pageSize,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Category    string
	Seller      string
	Stock       int
}

// UpdateProductInput holds the parameters for updating a product. Nil fields
// are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *int64
	Category    *string
	Seller      *string
	Stock       *int
}

// ProductListResult is one page of the catalog.
type ProductListResult struct {
	Products   []domain.Product `json:"products"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
}

// CreateProduct creates a new product with the given input.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}
	if !domain.IsValidCategory(input.Category) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid category %q, must be one of: %s", input.Category, strings.Join(domain.ValidCategories(), ", ")))
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Seller:      input.Seller,
		Stock:       input.Stock,
		Images:      []domain.ProductImage{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("category", product.Category),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// ListProducts parses the raw query values into a bounded catalog query and
// returns the matching page plus the total match count.
func (s *ProductService) ListProducts(ctx context.Context, values url.Values) (*ProductListResult, error) {
	q, err := catalog.Parse(values, s.pageSize)
	if err != nil {
		return nil, err
	}

	products, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	totalPages := total / q.Limit
	if total%q.Limit > 0 {
		totalPages++
	}

	return &ProductListResult{
		Products:   products,
		TotalCount: total,
		Page:       q.Page,
		PerPage:    q.Limit,
		TotalPages: totalPages,
	}, nil
}

// UpdateProduct applies partial updates to an existing product. The write is
// conditioned on the version read here; a concurrent writer surfaces as
// ErrConflict.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		product.Name = strings.TrimSpace(*input.Name)
	}

	if input.Description != nil {
		product.Description = *input.Description
	}

	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		product.Price = *input.Price
	}

	if input.Category != nil {
		if !domain.IsValidCategory(*input.Category) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid category %q, must be one of: %s", *input.Category, strings.Join(domain.ValidCategories(), ", ")))
		}
		product.Category = *input.Category
	}

	if input.Seller != nil {
		product.Seller = *input.Seller
	}

	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, apperrors.InvalidInput("stock must not be negative")
		}
		product.Stock = *input.Stock
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
	)

	return product, nil
}

// AddProductImage uploads an image to blob storage and appends it to the
// product's image list.
func (s *ProductService) AddProductImage(ctx context.Context, id, filename, contentType string, size int64, data io.Reader) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for image upload: %w", err)
	}

	key := fmt.Sprintf("products/%s/%s-%s", product.ID, uuid.New().String(), path.Base(filename))
	result, err := s.storage.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: contentType,
		Size:        size,
		Data:        data,
	})
	if err != nil {
		return nil, apperrors.ServiceUnavailable("image storage is unavailable", err)
	}

	product.Images = append(product.Images, domain.ProductImage{Key: result.Key, URL: result.URL})

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product images: %w", err)
	}

	s.logger.InfoContext(ctx, "product image added",
		slog.String("product_id", product.ID),
		slog.String("key", result.Key),
	)

	return product, nil
}

// DeleteProduct removes a product and its stored images.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	// Blob cleanup is best effort; the catalog row is already gone.
	for _, img := range product.Images {
		if err := s.storage.Delete(ctx, img.Key); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete product image blob",
				slog.String("product_id", id),
				slog.String("key", img.Key),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
	)

	return nil
}
