// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hitoshi/quickcommerce/internal/address"
	"github.com/hitoshi/quickcommerce/internal/auth"
	"github.com/hitoshi/quickcommerce/internal/cart"
	"github.com/hitoshi/quickcommerce/internal/catalog"
	"github.com/hitoshi/quickcommerce/internal/config"
	"github.com/hitoshi/quickcommerce/internal/database"
	"github.com/hitoshi/quickcommerce/internal/handler"
	"github.com/hitoshi/quickcommerce/internal/logger"
	"github.com/hitoshi/quickcommerce/internal/metrics"
	"github.com/hitoshi/quickcommerce/internal/middleware"
	"github.com/hitoshi/quickcommerce/internal/order"
	"github.com/hitoshi/quickcommerce/internal/repository"
	"github.com/hitoshi/quickcommerce/internal/review"
	"github.com/hitoshi/quickcommerce/internal/security"
	"github.com/hitoshi/quickcommerce/internal/user"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	dbPingTimeout   = 5 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。SIGINTまたはSIGTERMで終了する。
func Run(w io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return run(ctx, w, args)
}

func run(ctx context.Context, w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(ctx, port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.Bool("google_login", cfg.GoogleLoginEnabled()),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(ctx, db, dbPingTimeout); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. 依存関係のワイヤリング
	registry := prometheus.NewRegistry()
	srv, cleanup := NewServer(cfg, db, registry)
	defer cleanup()

	// 3. HTTPサーバーの起動
	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// NewServer はリポジトリ・サービス・ハンドラーを組み立てたHTTPサーバーを返す。
// 返されたcleanupはレートリミッターのバックグラウンド処理を停止する。
func NewServer(cfg *config.Config, db *sql.DB, registry *prometheus.Registry) (*http.Server, func()) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	addressRepo := repository.NewPostgresAddressRepo(db)
	categoryRepo := repository.NewPostgresCategoryRepo(db)
	productRepo := repository.NewPostgresProductRepo(db)
	cartRepo := repository.NewPostgresCartRepo(db)
	orderRepo := repository.NewPostgresOrderRepo(db)
	reviewRepo := repository.NewPostgresReviewRepo(db)

	// 2. メトリクスとセキュリティ
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)
	sanitizer := security.NewTextSanitizer()

	// 3. 認証
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})
	var google auth.GoogleVerifier
	if cfg.GoogleLoginEnabled() {
		google = auth.NewGoogleTokenVerifier(auth.GoogleTokenConfig{ClientID: cfg.GoogleClientID})
	}
	authService := auth.NewService(userRepo, hasher, tokens, google, sanitizer)

	// 4. ドメインサービスの初期化
	userService := user.NewService(userRepo, hasher)
	addressService := address.NewService(addressRepo)
	categoryService := catalog.NewCategoryService(categoryRepo, productRepo)
	productService := catalog.NewProductService(productRepo, categoryRepo, cfg.ProductQueryLimit)
	cartService := cart.NewService(cartRepo, productRepo, collector)
	orderService := order.NewService(orderRepo, addressRepo, collector)
	reviewService := review.NewService(reviewRepo, productRepo, sanitizer)

	// 5. ルーターの構築（RATE_LIMIT_* は req/min 単位）
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitCheckout),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		TokenParser:       authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(registry),
		HealthChecker:     db,

		AuthService:     authService,
		UserService:     userService,
		AddressService:  addressService,
		CategoryService: categoryService,
		ProductService:  productService,
		CartService:     cartService,
		OrderService:    orderService,
		ReviewService:   reviewService,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, rateLimiter.Stop
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.Version(cfg.DatabaseURL)
	if err != nil {
		slog.Warn("failed to read migration version", slog.String("error", err.Error()))
	} else {
		slog.Info("database migrations completed successfully",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(ctx context.Context, port string) error {
	return checkHealth(ctx, fmt.Sprintf("http://localhost:%s/health", port))
}

func checkHealth(ctx context.Context, healthURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	u.RawQuery = ""
	if u.User == nil {
		return u.String()
	}
	// url.Userは"*"をエスケープするため、認証情報は文字列で差し込む
	u.User = nil
	scheme, rest, _ := strings.Cut(u.String(), "://")
	return scheme + "://***@" + rest
}
