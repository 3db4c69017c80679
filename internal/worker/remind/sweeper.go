// Package remind はリマインダーの定期スイープ処理を提供する。
// 毎日のスケジューリング、発火判定、通知配信の並列制御を含む。
package remind

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/subzs/internal/catalog"
	"github.com/hitoshi/subzs/internal/metrics"
	"github.com/hitoshi/subzs/internal/model"
	"github.com/hitoshi/subzs/internal/notify"
	"github.com/hitoshi/subzs/internal/reminder"
	"github.com/hitoshi/subzs/internal/repository"
)

// Sweeper はリマインダーの定期評価と通知配信を行う。
// 日次のティッカーで全サブスクリプションを評価し、
// semaphoreパターンで最大並列数を制御しながら通知を配信する。
// 評価は当日限定の同日一致判定のため、同じ日に複数回実行しても
// 同じ集合に対して発火する（配信先での重複排除を前提とする）。
type Sweeper struct {
	subRepo        repository.SubscriptionRepository
	notifier       notify.Notifier
	catalog        *catalog.Catalog
	logger         *slog.Logger
	metrics        metrics.MetricsCollector
	maxConcurrency int
}

// NewSweeper はSweeperの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値5を使用する。metricsはnil可。
func NewSweeper(
	subRepo repository.SubscriptionRepository,
	notifier notify.Notifier,
	cat *catalog.Catalog,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	maxConcurrency int,
) *Sweeper {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Sweeper{
		subRepo:        subRepo,
		notifier:       notifier,
		catalog:        cat,
		logger:         logger,
		metrics:        collector,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスイーパーを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("リマインダースイーパーを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx, time.Now()); err != nil {
		s.logger.Error("リマインダースイープの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("リマインダースイーパーを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx, time.Now()); err != nil {
				s.logger.Error("リマインダースイープの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は全サブスクリプションを1回評価し、発火対象に並列で通知を配信する。
// 1件の配信失敗は他の配信を妨げない。
func (s *Sweeper) RunOnce(ctx context.Context, today time.Time) error {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordSweepRun()
	}

	subs, err := s.subRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	due := reminder.Due(subs, today)
	if len(due) == 0 {
		s.logger.Info("発火対象のリマインダーはありません")
		return nil
	}

	s.logger.Info("リマインダースイープを開始します",
		slog.Int("due_count", len(due)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, sub := range due {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(sub model.Subscription) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if err := s.deliver(ctx, sub); err != nil {
				if s.metrics != nil {
					s.metrics.RecordNotifyFailure()
				}
				s.logger.Error("リマインダー通知の配信に失敗しました",
					slog.String("subscription_id", sub.ID),
					slog.String("name", sub.Name),
					slog.String("error", err.Error()),
				)
			}
		}(sub)
	}

	wg.Wait()

	if s.metrics != nil {
		s.metrics.RecordRemindersFired(len(due))
		s.metrics.RecordSweepLatency(time.Since(start))
	}
	s.logger.Info("リマインダースイープが完了しました",
		slog.Int("due_count", len(due)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// deliver は1件のリマインダー通知を組み立てて配信する。
func (s *Sweeper) deliver(ctx context.Context, sub model.Subscription) error {
	n := BuildNotification(sub, s.catalog)
	return s.notifier.Send(ctx, n)
}

// BuildNotification はサブスクリプションからリマインダー通知を組み立てる。
// 通知音は識別名からサウンドURLに解決する（未知の識別名は音なし）。
func BuildNotification(sub model.Subscription, cat *catalog.Catalog) notify.Notification {
	body := fmt.Sprintf("%s が %s に更新されます（%s %s）",
		sub.Name,
		sub.EndDate.Format("2006-01-02"),
		sub.Price.String(),
		sub.BillingCycle,
	)

	var toneURL string
	if cat != nil {
		toneURL = cat.ToneURL(sub.SoundTone)
	}

	return notify.Notification{
		Title:    fmt.Sprintf("%s の更新が近づいています", sub.Name),
		Body:     body,
		IconURL:  sub.LogoURL,
		ToneURL:  toneURL,
		SourceID: sub.ID,
	}
}
