package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/subzs/internal/catalog"
	"github.com/hitoshi/subzs/internal/metrics"
	"github.com/hitoshi/subzs/internal/middleware"
	"github.com/hitoshi/subzs/internal/notify"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	StatusRecorder    middleware.HTTPStatusRecorder

	// サービス
	SubscriptionService SubscriptionServiceInterface
	CategoryService     CategoryServiceInterface
	DashboardService    DashboardServiceInterface
	AdviceClient        AdviceClientInterface
	LogoRefresher       LogoRefresherInterface

	// 通知
	Notifier      notify.Notifier
	NotifyEnabled bool
	Catalog       *catalog.Catalog

	// メトリクス公開用（nilの場合/metricsは公開しない）
	MetricsGatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → SecurityHeaders → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	subHandler := NewSubscriptionHandler(deps.SubscriptionService, deps.LogoRefresher)
	catHandler := NewCategoryHandler(deps.CategoryService)
	dashHandler := NewDashboardHandler(deps.DashboardService, deps.AdviceClient)
	remHandler := NewReminderHandler(deps.SubscriptionService, deps.Notifier, deps.Catalog, deps.NotifyEnabled)

	// --- レート制限の外のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)。変更系は追加でRateLimit(Mutation)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		mutation := deps.RateLimiter.MutationMiddleware()

		// サブスクリプション管理
		r.Route("/api/subscriptions", func(r chi.Router) {
			r.Get("/", subHandler.ListSubscriptions)
			r.With(mutation).Post("/", subHandler.CreateSubscription)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", subHandler.GetSubscription)
				r.With(mutation).Put("/", subHandler.UpdateSubscription)
				r.With(mutation).Delete("/", subHandler.DeleteSubscription)
				r.With(mutation).Post("/archive", subHandler.ArchiveSubscription)
				r.With(mutation).Post("/unarchive", subHandler.UnarchiveSubscription)
				r.With(mutation).Put("/logo", subHandler.UpdateLogo)
				r.With(mutation).Post("/logo", subHandler.RefreshLogo)
			})
		})

		// カテゴリ管理
		r.Route("/api/categories", func(r chi.Router) {
			r.Get("/", catHandler.ListCategories)
			r.With(mutation).Post("/", catHandler.AddCategory)
			r.With(mutation).Delete("/{name}", catHandler.RemoveCategory)
		})

		// ダッシュボード
		r.Route("/api/dashboard", func(r chi.Router) {
			r.Get("/", dashHandler.GetDashboard)
			r.Get("/advice", dashHandler.GetAdvice)
			r.Post("/advice", dashHandler.GetAdvice)
		})

		// 通知テスト
		r.Post("/api/reminders/test", remHandler.TestReminder)
	})

	return r
}
