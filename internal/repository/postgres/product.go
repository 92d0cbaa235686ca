package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/catalog"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/database"
	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

const productColumns = `id, name, description, price, category, seller, stock, ratings, num_of_reviews, images, version, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}

	query := `
		INSERT INTO products (id, name, description, price, category, seller, stock, ratings, num_of_reviews, images, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Category,
		p.Seller,
		p.Stock,
		p.Ratings,
		p.NumOfReviews,
		imagesJSON,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	row := r.pool.QueryRow(ctx, query, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// buildWhere translates a catalog query into SQL conditions. Field and
// operator names come from the catalog allowlist, never from raw input.
func buildWhere(q catalog.Query, argIndex int) (clause string, args []any, next int) {
	var conditions []string

	if q.Keyword != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+catalog.EscapeLike(q.Keyword)+"%")
		argIndex++
	}

	for _, f := range q.Filters {
		conditions = append(conditions, fmt.Sprintf("%s %s $%d", f.Field, catalog.SQLOp(f.Op), argIndex))
		args = append(args, f.Value)
		argIndex++
	}

	if len(conditions) > 0 {
		clause = "WHERE " + strings.Join(conditions, " AND ")
	}

	return clause, args, argIndex
}

// List returns one page of products matching the query.
func (r *ProductRepository) List(ctx context.Context, q catalog.Query) ([]domain.Product, error) {
	whereClause, args, argIndex := buildWhere(q, 1)

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, argIndex, argIndex+1,
	)

	args = append(args, q.Limit, q.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// Count returns the total number of matching products regardless of paging.
func (r *ProductRepository) Count(ctx context.Context, q catalog.Query) (int, error) {
	whereClause, args, _ := buildWhere(q, 1)

	query := fmt.Sprintf(`SELECT count(*) FROM products %s`, whereClause)

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// Update modifies an existing product, conditioned on the version the caller
// read. A concurrent writer bumps the version first and this write reports
// ErrConflict.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}

	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, category = $4, seller = $5,
		    stock = $6, ratings = $7, num_of_reviews = $8, images = $9,
		    version = version + 1, updated_at = $10
		WHERE id = $11 AND version = $12`

	ct, err := r.pool.Exec(ctx, query,
		p.Name,
		p.Description,
		p.Price,
		p.Category,
		p.Seller,
		p.Stock,
		p.Ratings,
		p.NumOfReviews,
		imagesJSON,
		p.UpdatedAt,
		p.ID,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		// Distinguish a missing row from a lost version race.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check product existence: %w", err)
		}
		if !exists {
			return apperrors.NotFound("product", p.ID)
		}
		return apperrors.Conflict("product", p.ID)
	}

	p.Version++
	return nil
}

// Delete removes a product. Reviews are removed by the FK cascade.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// scanProduct reads one product row.
func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p          domain.Product
		imagesJSON []byte
	)

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.Seller,
		&p.Stock,
		&p.Ratings,
		&p.NumOfReviews,
		&imagesJSON,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(imagesJSON) > 0 && string(imagesJSON) != "null" {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return nil, fmt.Errorf("unmarshal images: %w", err)
		}
	} else {
		p.Images = []domain.ProductImage{}
	}

	return &p, nil
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
