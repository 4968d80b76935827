package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// userRequest は認証済みユーザーのリクエストを生成する。
func userRequest(method, path string, userID int64) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

func testLimiterConfig(generalBurst, checkoutBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    generalBurst,
		CheckoutRate:    1,
		CheckoutBurst:   checkoutBurst,
		CleanupInterval: 1 * time.Minute,
	}
}

// --- GeneralMiddleware のテスト ---

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(5, 10))
	defer rl.Stop()

	handlerCallCount := 0
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, userRequest(http.MethodGet, "/api/products", 1))
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfter(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(2, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	// バースト分（2回）は通る
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, userRequest(http.MethodGet, "/api/products", 7))
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	// 3回目はレート制限に引っかかる
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest(http.MethodGet, "/api/products", 7))

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || retryAfter < 1 {
		t.Errorf("Retry-After = %q, want positive integer", resp.Header.Get("Retry-After"))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q, want %q", body.Code, "RATE_LIMIT_EXCEEDED")
	}
	if body.Category != "system" {
		t.Errorf("category = %q, want %q", body.Category, "system")
	}
}

func TestRateLimitMiddleware_IsolatesUserRateLimits(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(1, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest(http.MethodGet, "/api/cart", 1))
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("user 1 first request: status = %d", w.Result().StatusCode)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest(http.MethodGet, "/api/cart", 1))
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("user 1 second request: status = %d, want 429", w.Result().StatusCode)
	}

	// 別ユーザーは影響を受けない
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest(http.MethodGet, "/api/cart", 2))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("user 2 request: status = %d, want 200", w.Result().StatusCode)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", got)
	}
}

func TestRateLimitMiddleware_UnauthenticatedKeyedByIP(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(1, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Result().StatusCode
	}

	if got := send("10.0.0.1:1234"); got != http.StatusOK {
		t.Errorf("first request: status = %d, want 200", got)
	}
	if got := send("10.0.0.1:5678"); got != http.StatusTooManyRequests {
		t.Errorf("same IP different port: status = %d, want 429", got)
	}
	if got := send("10.0.0.2:1234"); got != http.StatusOK {
		t.Errorf("other IP: status = %d, want 200", got)
	}
}

// --- CheckoutMiddleware のテスト ---

func TestCheckoutRateLimit_Returns429WhenLimitExceeded(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(100, 1))
	defer rl.Stop()

	handler := rl.CheckoutMiddleware()(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest(http.MethodPost, "/api/orders", 3))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("request 1: status = %d, want 200", w.Result().StatusCode)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest(http.MethodPost, "/api/orders", 3))
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("request 2: status = %d, want 429", w.Result().StatusCode)
	}
}

func TestCheckoutRateLimit_IndependentFromGeneralLimit(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(1, 1))
	defer rl.Stop()

	// General limitを使い果たす
	w := httptest.NewRecorder()
	rl.GeneralMiddleware()(okHandler()).ServeHTTP(w, userRequest(http.MethodGet, "/api/cart", 9))

	// Checkout limitはまだ使える
	w = httptest.NewRecorder()
	rl.CheckoutMiddleware()(okHandler()).ServeHTTP(w, userRequest(http.MethodPost, "/api/orders", 9))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("checkout request: status = %d, want 200", w.Result().StatusCode)
	}

	if rl.GeneralLimiterCount() != 1 || rl.CheckoutLimiterCount() != 1 {
		t.Errorf("limiter counts = (%d, %d), want (1, 1)", rl.GeneralLimiterCount(), rl.CheckoutLimiterCount())
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(10, 10))
	defer rl.Stop()

	rl.GeneralMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), userRequest(http.MethodGet, "/", 1))
	rl.CheckoutMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), userRequest(http.MethodPost, "/", 1))

	// 最終アクセスを古くする
	old := time.Now().Add(-10 * time.Minute)
	for _, set := range []*limiterSet{rl.general, rl.checkout} {
		set.mu.Lock()
		for _, cl := range set.limiters {
			cl.lastAccess = old
		}
		set.mu.Unlock()
	}

	rl.cleanup()

	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("GeneralLimiterCount = %d, want 0", rl.GeneralLimiterCount())
	}
	if rl.CheckoutLimiterCount() != 0 {
		t.Errorf("CheckoutLimiterCount = %d, want 0", rl.CheckoutLimiterCount())
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(1, 1))
	rl.Stop()
	rl.Stop()
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.GeneralRate != 2 {
		t.Errorf("GeneralRate = %v, want 2", cfg.GeneralRate)
	}
	if cfg.CheckoutBurst != 10 {
		t.Errorf("CheckoutBurst = %d, want 10", cfg.CheckoutBurst)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("CleanupInterval = %v, want 5m", cfg.CleanupInterval)
	}
}
