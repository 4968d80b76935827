package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/quickcommerce/internal/auth"
	"github.com/hitoshi/quickcommerce/internal/middleware"
	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/order"
)

const testBearerToken = "valid-token"

// stubTokenParser はtestBearerTokenのみをユーザーID 7として受け付ける。
type stubTokenParser struct{}

func (stubTokenParser) ParseToken(token string) (*auth.Claims, error) {
	if token != testBearerToken {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}}, nil
}

type stubHealthChecker struct {
	err error
}

func (s stubHealthChecker) PingContext(ctx context.Context) error {
	return s.err
}

// testRouterDeps はテスト用の依存関係一式を返す。
func testRouterDeps(t *testing.T, limiterCfg middleware.RateLimiterConfig) *RouterDeps {
	t.Helper()
	rl := middleware.NewRateLimiter(limiterCfg)
	t.Cleanup(rl.Stop)

	return &RouterDeps{
		TokenParser:       stubTokenParser{},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "# metrics")
		}),
		HealthChecker: stubHealthChecker{},

		AuthService:     &mockAuthService{},
		UserService:     &mockUserService{},
		AddressService:  &mockAddressService{},
		CategoryService: &mockCategoryService{},
		ProductService:  &mockProductService{},
		CartService:     &mockCartService{},
		OrderService:    &mockOrderService{},
		ReviewService:   &mockReviewService{},
	}
}

func serve(h http.Handler, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testBearerToken)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewRouter_Health(t *testing.T) {
	router := NewRouter(testRouterDeps(t, middleware.DefaultRateLimiterConfig()))

	w := serve(router, http.MethodGet, "/health", "", false)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected X-Request-ID header on every response")
	}
}

func TestNewRouter_Health_DatabaseDown(t *testing.T) {
	deps := testRouterDeps(t, middleware.DefaultRateLimiterConfig())
	deps.HealthChecker = stubHealthChecker{err: errors.New("connection refused")}
	router := NewRouter(deps)

	w := serve(router, http.MethodGet, "/health", "", false)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	router := NewRouter(testRouterDeps(t, middleware.DefaultRateLimiterConfig()))

	w := serve(router, http.MethodGet, "/metrics", "", false)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestNewRouter_PublicRoutesWithoutToken(t *testing.T) {
	router := NewRouter(testRouterDeps(t, middleware.DefaultRateLimiterConfig()))

	paths := []string{
		"/api/categories",
		"/api/categories/1",
		"/api/categories/1/products",
		"/api/products",
		"/api/products/search?q=milk",
		"/api/products/price-range",
		"/api/products/1",
		"/api/products/1/reviews",
		"/api/reviews",
		"/api/reviews/1",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := serve(router, http.MethodGet, path, "", false)
			if w.Code != http.StatusOK {
				t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusOK)
			}
		})
	}
}

func TestNewRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router := NewRouter(testRouterDeps(t, middleware.DefaultRateLimiterConfig()))

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodDelete, "/api/users/me"},
		{http.MethodGet, "/api/addresses/me"},
		{http.MethodGet, "/api/cart"},
		{http.MethodPost, "/api/cart/items"},
		{http.MethodGet, "/api/orders"},
		{http.MethodPost, "/api/orders"},
		{http.MethodPost, "/api/reviews"},
		{http.MethodPut, "/api/reviews/1"},
		{http.MethodDelete, "/api/reviews/1"},
		{http.MethodPost, "/api/categories"},
		{http.MethodDelete, "/api/categories/1"},
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/products/1"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := serve(router, rt.method, rt.path, "{}", false)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestNewRouter_AuthenticatedCartUsesTokenUser(t *testing.T) {
	deps := testRouterDeps(t, middleware.DefaultRateLimiterConfig())
	var gotUserID int64
	deps.CartService = &mockCartService{
		listCartFn: func(ctx context.Context, userID int64) (*model.Cart, error) {
			gotUserID = userID
			return model.NewCart(nil), nil
		},
	}
	router := NewRouter(deps)

	w := serve(router, http.MethodGet, "/api/cart", "", true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUserID != 7 {
		t.Errorf("userID = %d, want 7", gotUserID)
	}
}

func TestNewRouter_InvalidTokenRejected(t *testing.T) {
	router := NewRouter(testRouterDeps(t, middleware.DefaultRateLimiterConfig()))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer forged")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestNewRouter_AuthRoutesArePublic(t *testing.T) {
	deps := testRouterDeps(t, middleware.DefaultRateLimiterConfig())
	deps.AuthService = &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.Session, error) {
			return testSession(7), nil
		},
	}
	router := NewRouter(deps)

	w := serve(router, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`, false)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestNewRouter_CheckoutRateLimit(t *testing.T) {
	cfg := middleware.DefaultRateLimiterConfig()
	cfg.CheckoutBurst = 1
	cfg.CheckoutRate = 1.0 / 3600
	deps := testRouterDeps(t, cfg)
	placed := 0
	deps.OrderService = &mockOrderService{
		placeOrderFn: func(ctx context.Context, userID int64, in order.PlaceOrderInput) (int64, error) {
			placed++
			return int64(placed), nil
		},
	}
	router := NewRouter(deps)

	first := serve(router, http.MethodPost, "/api/orders", testOrderBody, true)
	if first.Code != http.StatusCreated {
		t.Fatalf("first status = %d, want %d", first.Code, http.StatusCreated)
	}

	second := serve(router, http.MethodPost, "/api/orders", testOrderBody, true)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want %d", second.Code, http.StatusTooManyRequests)
	}
	if placed != 1 {
		t.Errorf("PlaceOrder called %d times, want 1", placed)
	}

	// 注文一覧はチェックアウト制限の対象外
	list := serve(router, http.MethodGet, "/api/orders", "", true)
	if list.Code != http.StatusOK {
		t.Errorf("list status = %d, want %d", list.Code, http.StatusOK)
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(testRouterDeps(t, middleware.DefaultRateLimiterConfig()))

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Error("Authorization must be an allowed header")
	}
}

func TestNewRouter_RecoversFromPanic(t *testing.T) {
	deps := testRouterDeps(t, middleware.DefaultRateLimiterConfig())
	deps.CategoryService = &mockCategoryService{
		listFn: func(ctx context.Context) ([]*model.Category, error) {
			panic("boom")
		},
	}
	router := NewRouter(deps)

	w := serve(router, http.MethodGet, "/api/categories", "", false)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestNewRouter_GeneralRateLimitByIP(t *testing.T) {
	cfg := middleware.DefaultRateLimiterConfig()
	cfg.GeneralBurst = 2
	cfg.GeneralRate = 1.0 / 3600
	router := NewRouter(testRouterDeps(t, cfg))

	for i := 0; i < 2; i++ {
		if w := serve(router, http.MethodGet, "/api/products", "", false); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}
	if w := serve(router, http.MethodGet, "/api/products", "", false); w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	// ヘルスチェックはレート制限の対象外
	if w := serve(router, http.MethodGet, "/health", "", false); w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
}
