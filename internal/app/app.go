// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/subzs/internal/catalog"
	"github.com/hitoshi/subzs/internal/config"
	"github.com/hitoshi/subzs/internal/database"
	"github.com/hitoshi/subzs/internal/enrich"
	"github.com/hitoshi/subzs/internal/handler"
	"github.com/hitoshi/subzs/internal/logger"
	"github.com/hitoshi/subzs/internal/metrics"
	"github.com/hitoshi/subzs/internal/middleware"
	"github.com/hitoshi/subzs/internal/notify"
	"github.com/hitoshi/subzs/internal/repository"
	"github.com/hitoshi/subzs/internal/security"
	"github.com/hitoshi/subzs/internal/subscription"
	"github.com/hitoshi/subzs/internal/worker/remind"
)

// Init はアプリケーションの初期化を行う。
// .envファイル（存在する場合）と環境変数からConfigを読み込み、
// JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envファイルは存在する場合のみ読み込む（ローカル開発用）
	_ = godotenv.Load()

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// buildNotifier は設定に応じた通知配信クライアントを構築する。
// 通知無効の構成ではNopNotifierを返す。
func buildNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.NotifyEnabled {
		return notify.NopNotifier{}
	}
	return notify.NewWebhookNotifier(
		&http.Client{Timeout: cfg.NotifyTimeout},
		slog.Default(),
		cfg.NotifyWebhookURL,
	)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. カタログの読み込み（未指定の場合は組み込みデフォルト）
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	// 3. リポジトリの初期化
	subRepo := repository.NewPostgresSubscriptionRepo(db)
	catRepo := repository.NewPostgresCategoryRepo(db)

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. ドメインサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	logoFinder := enrich.NewLogoFinder(ssrfGuard, slog.Default())
	enricher := enrich.NewAsyncEnricher(logoFinder, subRepo, slog.Default(), collector)

	subService := subscription.NewService(subRepo, enricher)
	catService := subscription.NewCategoryService(catRepo, subRepo, cat)

	adviceClient := enrich.NewAdviceClient(
		&http.Client{Timeout: cfg.AdviceTimeout},
		slog.Default(),
		cfg.AdviceAPIURL,
	)

	notifier := buildNotifier(cfg)

	// 6. ルーターの構築
	// configのレート制限はreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(cfg.RateLimitGeneral) / 60.0),
		GeneralBurst:    cfg.RateLimitGeneral,
		MutationRate:    rate.Limit(float64(cfg.RateLimitMutation) / 60.0),
		MutationBurst:   cfg.RateLimitMutation,
		CleanupInterval: 5 * time.Minute,
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		StatusRecorder:    collector,

		SubscriptionService: subService,
		CategoryService:     catService,
		DashboardService:    subService,
		AdviceClient:        adviceClient,
		LogoRefresher:       enricher,

		Notifier:      notifier,
		NotifyEnabled: cfg.NotifyEnabled,
		Catalog:       cat,

		MetricsGatherer: registry,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、リマインダースイーパーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. カタログの読み込み
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	// 3. 依存関係の初期化
	subRepo := repository.NewPostgresSubscriptionRepo(db)
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	notifier := buildNotifier(cfg)

	if !cfg.NotifyEnabled {
		slog.Warn("通知が無効な構成のため、リマインダーは発火しても配信されません")
	}

	sweeper := remind.NewSweeper(
		subRepo, notifier, cat, slog.Default(), collector, cfg.SweepMaxConcurrent,
	)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("sweep_interval", cfg.SweepInterval),
		slog.Int("max_concurrent", cfg.SweepMaxConcurrent),
	)

	// スイーパーをメインgoroutineで実行（ブロッキング）
	sweeper.Start(ctx, cfg.SweepInterval)

	slog.Info("worker stopped gracefully")
	return nil
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

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
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
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
