package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/quickcommerce/internal/metrics"
	"github.com/hitoshi/quickcommerce/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenParser       middleware.TokenParser
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	// MetricsHandler が nil でない場合、/metrics に公開する
	MetricsHandler http.Handler
	HealthChecker  HealthChecker

	AuthService     AuthServiceInterface
	UserService     UserServiceInterface
	AddressService  AddressServiceInterface
	CategoryService CategoryServiceInterface
	ProductService  ProductServiceInterface
	CartService     CartServiceInterface
	OrderService    OrderServiceInterface
	ReviewService   ReviewServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → Metrics → SecurityHeaders → CORS → RateLimit(General)
//
// 認証が必要なルートには更にAuthMiddlewareを適用し、POST /api/orders のみCheckoutレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// 運用エンドポイントはレート制限の対象外
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	addressHandler := NewAddressHandler(deps.AddressService)
	catalogHandler := NewCatalogHandler(deps.CategoryService, deps.ProductService)
	cartHandler := NewCartHandler(deps.CartService)
	orderHandler := NewOrderHandler(deps.OrderService)
	reviewHandler := NewReviewHandler(deps.ReviewService)

	requireAuth := middleware.NewAuthMiddleware(deps.TokenParser)

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// --- 認証不要のルート ---

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.GoogleLogin)
		})

		// カテゴリ（参照は公開、更新は認証必須）
		r.Route("/api/categories", func(r chi.Router) {
			r.Get("/", catalogHandler.ListCategories)
			r.With(requireAuth).Post("/", catalogHandler.CreateCategory)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", catalogHandler.GetCategory)
				r.Get("/products", catalogHandler.ListCategoryProducts)
				r.With(requireAuth).Put("/", catalogHandler.UpdateCategory)
				r.With(requireAuth).Delete("/", catalogHandler.DeleteCategory)
			})
		})

		// 商品（参照は公開、更新は認証必須）
		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", catalogHandler.ListProducts)
			r.Get("/search", catalogHandler.SearchProducts)
			r.Get("/price-range", catalogHandler.PriceRange)
			r.With(requireAuth).Post("/", catalogHandler.CreateProduct)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", catalogHandler.GetProduct)
				r.Get("/reviews", reviewHandler.ListByProduct)
				r.With(requireAuth).Put("/", catalogHandler.UpdateProduct)
				r.With(requireAuth).Delete("/", catalogHandler.DeleteProduct)
			})
		})

		// レビュー（参照は公開、投稿・更新・削除は認証必須）
		r.Route("/api/reviews", func(r chi.Router) {
			r.Get("/", reviewHandler.List)
			r.With(requireAuth).Post("/", reviewHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", reviewHandler.Get)
				r.With(requireAuth).Put("/", reviewHandler.Update)
				r.With(requireAuth).Delete("/", reviewHandler.Delete)
			})
		})

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/api/users", func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Get("/me", userHandler.Me)
				r.Put("/me", userHandler.UpdateProfile)
				r.Delete("/me", userHandler.Withdraw)
				r.Post("/me/password", userHandler.ChangePassword)
				r.Get("/{id}", userHandler.Get)
			})

			r.Route("/api/addresses", func(r chi.Router) {
				r.Post("/", addressHandler.Create)
				r.Get("/me", addressHandler.Mine)
				r.Put("/me", addressHandler.UpdateMine)
				r.Get("/{id}", addressHandler.Get)
				r.Delete("/{id}", addressHandler.Delete)
			})

			r.Route("/api/cart", func(r chi.Router) {
				r.Get("/", cartHandler.List)
				r.Post("/items", cartHandler.Add)
				r.Put("/items/{id}", cartHandler.SetQuantity)
				r.Delete("/items/{id}", cartHandler.Remove)
			})

			r.Route("/api/orders", func(r chi.Router) {
				r.Get("/", orderHandler.List)
				// POST /api/orders - 注文確定（チェックアウト専用レート制限を追加）
				r.With(deps.RateLimiter.CheckoutMiddleware()).Post("/", orderHandler.Place)
			})
		})
	})

	return r
}
