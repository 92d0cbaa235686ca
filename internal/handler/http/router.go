package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/auth"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/service"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/health"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/middleware"
)

// Services bundles everything the router mounts.
type Services struct {
	Products    *service.ProductService
	Reviews     *service.ReviewService
	Orders      *service.OrderService
	Fulfillment *service.FulfillmentService
	Users       *service.UserService
	Resets      *service.PasswordResetService
	Carts       *service.CartService
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svc Services,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("shopit"))
	r.Use(middleware.Tracing("shopit"))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.Validate(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}
	authenticated := middleware.Auth(tokenValidator)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	productHandler := NewProductHandler(svc.Products, logger)
	reviewHandler := NewReviewHandler(svc.Reviews, svc.Users, logger)
	orderHandler := NewOrderHandler(svc.Orders, svc.Fulfillment, logger)
	authHandler := NewAuthHandler(svc.Users, svc.Resets, logger)
	userHandler := NewUserHandler(svc.Users, logger)
	cartHandler := NewCartHandler(svc.Carts, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog endpoints
		r.Group(func(r chi.Router) {
			r.Get("/products", productHandler.ListProducts)
			r.Get("/products/{id}", productHandler.GetProduct)
			r.Get("/products/{id}/reviews", reviewHandler.ListReviews)
		})

		// Public auth endpoints
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/password/forgot", authHandler.ForgotPassword)
			r.Put("/auth/password/reset/{token}", authHandler.ResetPassword)
		})

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Use(ContentTypeJSON)

			r.Put("/products/{id}/reviews", reviewHandler.SubmitReview)

			r.Post("/orders", orderHandler.CreateOrder)
			r.Get("/orders/me", orderHandler.ListMyOrders)
			r.Get("/orders/{id}", orderHandler.GetOrder)

			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateMe)
			r.Put("/me/password", userHandler.ChangePassword)

			r.Get("/cart", cartHandler.GetCart)
			r.Put("/cart/items", cartHandler.SetItem)
			r.Delete("/cart/items/{productId}", cartHandler.RemoveItem)
			r.Delete("/cart", cartHandler.ClearCart)
		})

		// Authenticated multipart endpoints, outside ContentTypeJSON.
		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Put("/me/avatar", userHandler.UpdateAvatar)
		})

		// Admin endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticated)
			r.Use(adminOnly)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)

				r.Post("/products", productHandler.CreateProduct)
				r.Put("/products/{id}", productHandler.UpdateProduct)
				r.Delete("/products/{id}", productHandler.DeleteProduct)
				r.Delete("/products/{id}/reviews/{reviewId}", reviewHandler.DeleteReview)

				r.Get("/orders", orderHandler.ListAllOrders)
				r.Put("/orders/{id}/status", orderHandler.UpdateOrderStatus)
				r.Delete("/orders/{id}", orderHandler.DeleteOrder)

				r.Get("/users", userHandler.ListUsers)
				r.Get("/users/{id}", userHandler.GetUser)
				r.Put("/users/{id}/role", userHandler.UpdateUserRole)
				r.Delete("/users/{id}", userHandler.DeleteUser)
			})

			r.Put("/products/{id}/images", productHandler.UploadProductImage)
		})
	})

	return r
}
