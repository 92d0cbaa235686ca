// Package main implements a standalone seed script that populates the
// storefront database with realistic catalog products across the full
// category taxonomy, plus an admin account for exercising the admin API.
//
// Run: go run scripts/seed_products.go
//
// Connection settings come from the same POSTGRES_* environment variables
// the API server uses.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	totalProducts = 500
	batchSize     = 100
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("POSTGRES_USER", "shopit"),
		getEnv("POSTGRES_PASSWORD", "shopit_secret"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB", "shopit"),
		getEnv("POSTGRES_SSL_MODE", "disable"),
	)
}

// deterministicUUID produces a stable UUID-shaped string from a namespace and
// an index so re-runs always upsert the same rows.
func deterministicUUID(namespace string, index int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", namespace, index)))
	hex := fmt.Sprintf("%x", h[:16])
	return fmt.Sprintf("%s-%s-4%s-%x%s-%s",
		hex[0:8],
		hex[8:12],
		hex[13:16],
		0x8|(h[8]&0x3),
		hex[17:20],
		hex[20:32],
	)
}

var categories = []string{
	"Electronics", "Cameras", "Laptops", "Accessories", "Headphones",
	"Food", "Books", "Clothes", "Beauty", "Sports", "Outdoor", "Home",
}

var adjectives = []string{
	"Ultra", "Pro", "Compact", "Classic", "Premium", "Essential",
	"Wireless", "Portable", "Heavy-Duty", "Slim",
}

var nouns = map[string][]string{
	"Electronics": {"Power Bank", "Smart Plug", "USB-C Hub", "Bluetooth Speaker"},
	"Cameras":     {"Action Camera", "Mirrorless Body", "Tripod", "Camera Bag"},
	"Laptops":     {"Notebook 14\"", "Ultrabook 13\"", "Workstation 16\"", "Chromebook"},
	"Accessories": {"Memory Card 128GB", "Charging Cable", "Phone Stand", "Laptop Sleeve"},
	"Headphones":  {"Over-Ear Headphones", "Earbuds", "Gaming Headset", "Studio Monitors"},
	"Food":        {"Coffee Beans 1kg", "Green Tea Pack", "Protein Bar Box", "Olive Oil 500ml"},
	"Books":       {"Paperback Novel", "Cookbook", "Field Guide", "Atlas"},
	"Clothes":     {"Cotton T-Shirt", "Rain Jacket", "Wool Sweater", "Running Shorts"},
	"Beauty":      {"Face Cream", "Shampoo 400ml", "Beard Trimmer", "Sunscreen SPF50"},
	"Sports":      {"Yoga Mat", "Dumbbell Set", "Jump Rope", "Resistance Bands"},
	"Outdoor":     {"Camping Tent", "Hiking Backpack", "Thermos 1L", "Headlamp"},
	"Home":        {"Desk Lamp", "Throw Blanket", "Ceramic Mug Set", "Wall Clock"},
}

var sellers = []string{"ShopIT", "Acme Retail", "Northline Goods", "BlueCart", "Evergreen Supply"}

type image struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type product struct {
	ID       string
	Name     string
	Desc     string
	Price    int64
	Category string
	Seller   string
	Stock    int
	Images   []image
}

func buildProduct(rng *rand.Rand, index int) product {
	category := categories[index%len(categories)]
	names := nouns[category]
	name := fmt.Sprintf("%s %s", adjectives[rng.Intn(len(adjectives))], names[rng.Intn(len(names))])
	id := deterministicUUID("seed-product", index)

	return product{
		ID:       id,
		Name:     name,
		Desc:     fmt.Sprintf("%s from the %s range.", name, category),
		Price:    int64(rng.Intn(49000) + 199),
		Category: category,
		Seller:   sellers[rng.Intn(len(sellers))],
		Stock:    rng.Intn(120),
		Images: []image{
			{Key: fmt.Sprintf("products/%s/main.jpg", id), URL: fmt.Sprintf("https://cdn.example.com/products/%s/main.jpg", id)},
		},
	}
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	rng := rand.New(rand.NewSource(42))

	for start := 0; start < totalProducts; start += batchSize {
		end := start + batchSize
		if end > totalProducts {
			end = totalProducts
		}

		batch := make([]product, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, buildProduct(rng, i))
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin batch %d: %w", start, err)
		}

		for _, p := range batch {
			imagesJSON, err := json.Marshal(p.Images)
			if err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("marshal images for %s: %w", p.ID, err)
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO products (id, name, description, price, category, seller, stock, images)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					description = EXCLUDED.description,
					price = EXCLUDED.price,
					category = EXCLUDED.category,
					seller = EXCLUDED.seller,
					stock = EXCLUDED.stock,
					images = EXCLUDED.images,
					updated_at = NOW()`,
				p.ID, p.Name, p.Desc, p.Price, p.Category, p.Seller, p.Stock, imagesJSON,
			)
			if err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("insert product %s: %w", p.ID, err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit batch %d: %w", start, err)
		}
		log.Printf("seeded products %d-%d", start, end-1)
	}

	return nil
}

// seedAdmin creates a known admin account for exercising the admin API.
// The password hash below is bcrypt("admin-password-123", cost 12).
func seedAdmin(ctx context.Context, pool *pgxpool.Pool) error {
	const adminHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, 'Seed Admin', 'admin@shopit.local', $2, 'admin')
		ON CONFLICT (email) DO UPDATE SET role = 'admin'`,
		deterministicUUID("seed-admin", 0), adminHash,
	)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn())
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}

	if err := seedAdmin(ctx, pool); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedProducts(ctx, pool); err != nil {
		log.Fatalf("seed products: %v", err)
	}

	log.Printf("done: %d products", totalProducts)
}
