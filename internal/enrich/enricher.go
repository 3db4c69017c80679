package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/subzs/internal/metrics"
)

// enrichTimeout は1件のロゴ補完に許可する最大時間。
const enrichTimeout = 15 * time.Second

// LogoStore はロゴURLの保存先を抽象化する。
type LogoStore interface {
	UpdateLogoURL(ctx context.Context, id, logoURL string) error
}

// AsyncEnricher はロゴURLをバックグラウンドで補完する。
// サブスクリプション作成をブロックせず、失敗しても作成は成功のまま残る。
type AsyncEnricher struct {
	finder  *LogoFinder
	store   LogoStore
	logger  *slog.Logger
	metrics metrics.MetricsCollector
}

// NewAsyncEnricher はAsyncEnricherの新しいインスタンスを生成する。
// metricsはnil可。
func NewAsyncEnricher(finder *LogoFinder, store LogoStore, logger *slog.Logger, collector metrics.MetricsCollector) *AsyncEnricher {
	return &AsyncEnricher{
		finder:  finder,
		store:   store,
		logger:  logger,
		metrics: collector,
	}
}

// EnrichNow はロゴURLの検出と保存を同期で実行し、検出したURLを返す。
// 検出できなかった場合は空文字列を返す（エラーではない）。
func (e *AsyncEnricher) EnrichNow(ctx context.Context, id, name string) (string, error) {
	logoURL := e.finder.FindLogoURL(ctx, name)
	if e.metrics != nil {
		e.metrics.RecordLogoEnrichment(logoURL != "")
	}
	if logoURL == "" {
		e.logger.Info("ロゴが検出できませんでした",
			slog.String("subscription_id", id),
			slog.String("name", name),
		)
		return "", nil
	}

	if err := e.store.UpdateLogoURL(ctx, id, logoURL); err != nil {
		e.logger.Error("ロゴURLの保存に失敗しました",
			slog.String("subscription_id", id),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	e.logger.Info("ロゴURLを補完しました",
		slog.String("subscription_id", id),
		slog.String("logo_url", logoURL),
	)
	return logoURL, nil
}

// EnrichAsync はロゴURLの検出と保存をgoroutineで実行する。
// パニックは回復してログに記録し、呼び出し元には伝播しない。
func (e *AsyncEnricher) EnrichAsync(id, name string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("ロゴ補完中にパニックが発生しました",
					slog.String("subscription_id", id),
					slog.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
		defer cancel()

		_, _ = e.EnrichNow(ctx, id, name)
	}()
}
