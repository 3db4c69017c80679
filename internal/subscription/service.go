// Package subscription はサブスクリプション管理のドメインロジックを提供する。
package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/subzs/internal/billing"
	"github.com/hitoshi/subzs/internal/model"
	"github.com/hitoshi/subzs/internal/portfolio"
	"github.com/hitoshi/subzs/internal/repository"
)

// View は一覧取得時の絞り込みビュー。
type View string

const (
	// ViewAll は全件（アーカイブ・期限切れ含む）。
	ViewAll View = "all"
	// ViewActive は継続中のみ。
	ViewActive View = "active"
	// ViewEndingSoon は7日以内に更新を迎えるもののみ。
	ViewEndingSoon View = "ending_soon"
	// ViewHistory はアーカイブ済みまたは期限切れのみ。
	ViewHistory View = "history"
)

// LogoEnricher はロゴURLの非同期補完を行う。
// サブスクリプション作成をブロックしないよう、補完はバックグラウンドで実行される。
type LogoEnricher interface {
	EnrichAsync(id, name string)
}

// Input はサブスクリプションの作成・更新リクエスト。
// EndDateがゼロ値の場合、更新日は開始日と課金サイクルから導出される。
// 非ゼロの場合はユーザー指定値として保存し、以後の編集で再導出しない。
type Input struct {
	Name         string
	Price        decimal.Decimal
	BillingCycle model.BillingCycle
	StartDate    time.Time
	EndDate      time.Time
	ReminderDays int
	Category     string
	Color        string
	LogoURL      string
	SoundTone    string
}

// Dashboard はダッシュボード表示用の集計結果。
type Dashboard struct {
	Totals          portfolio.Totals
	NextUpcoming    *model.Subscription
	ActiveCount     int
	EndingSoonCount int
	HistoryCount    int
}

// Service はサブスクリプション管理のサービス層。
// CRUD、ライフサイクルビューの分割、ダッシュボード集計のビジネスロジックを提供する。
type Service struct {
	subRepo  repository.SubscriptionRepository
	enricher LogoEnricher
}

// NewService はServiceの新しいインスタンスを生成する。
// enricherはnil可（ロゴ補完が無効な構成）。
func NewService(subRepo repository.SubscriptionRepository, enricher LogoEnricher) *Service {
	return &Service{
		subRepo:  subRepo,
		enricher: enricher,
	}
}

// Create はサブスクリプションを新規作成する。
// 更新日が未指定の場合は開始日と課金サイクルから導出する。
// ロゴURLが未指定の場合はバックグラウンドで補完を試みる（失敗しても作成は成功する）。
func (s *Service) Create(ctx context.Context, in Input) (*model.Subscription, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := time.Now()
	sub := &model.Subscription{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Price:        in.Price,
		BillingCycle: in.BillingCycle,
		StartDate:    model.DateOnly(in.StartDate),
		ReminderDays: in.ReminderDays,
		Category:     in.Category,
		Color:        in.Color,
		LogoURL:      in.LogoURL,
		SoundTone:    in.SoundTone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	applyEndDate(sub, in)

	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("サブスクリプションの作成に失敗しました: %w", err)
	}

	if s.enricher != nil && sub.LogoURL == "" {
		s.enricher.EnrichAsync(sub.ID, sub.Name)
	}

	return sub, nil
}

// Update はサブスクリプション全体を更新する。
// 更新日が手動指定でない場合、開始日・課金サイクルの変更に追随して再導出する。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.Subscription, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	sub, err := s.subRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("サブスクリプションの取得に失敗しました: %w", err)
	}
	if sub == nil {
		return nil, model.NewSubscriptionNotFoundError(id)
	}

	sub.Name = strings.TrimSpace(in.Name)
	sub.Price = in.Price
	sub.BillingCycle = in.BillingCycle
	sub.StartDate = model.DateOnly(in.StartDate)
	sub.ReminderDays = in.ReminderDays
	sub.Category = in.Category
	sub.Color = in.Color
	sub.LogoURL = in.LogoURL
	sub.SoundTone = in.SoundTone
	sub.UpdatedAt = time.Now()
	applyEndDate(sub, in)

	if err := s.subRepo.Replace(ctx, sub); err != nil {
		return nil, fmt.Errorf("サブスクリプションの更新に失敗しました: %w", err)
	}
	return sub, nil
}

// Get は指定IDのサブスクリプションを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Subscription, error) {
	sub, err := s.subRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("サブスクリプションの取得に失敗しました: %w", err)
	}
	if sub == nil {
		return nil, model.NewSubscriptionNotFoundError(id)
	}
	return sub, nil
}

// List は指定ビューのサブスクリプション一覧を返す。
// queryは名前の部分一致、categoryは完全一致（"All"または空は全カテゴリ）。
func (s *Service) List(ctx context.Context, view View, query, category string, today time.Time) ([]model.Subscription, error) {
	all, err := s.subRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("サブスクリプション一覧の取得に失敗しました: %w", err)
	}

	views := portfolio.Split(all, today)

	var selected []model.Subscription
	switch view {
	case ViewAll, "":
		selected = all
	case ViewActive:
		selected = views.Active
	case ViewEndingSoon:
		selected = views.EndingSoon
	case ViewHistory:
		selected = views.History
	default:
		return nil, model.NewInvalidViewError(string(view))
	}

	return portfolio.Filter(selected, query, category), nil
}

// Archive はサブスクリプションをアーカイブする。
// アーカイブ済みは日付に関係なく履歴ビューに分類される。
func (s *Service) Archive(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, true)
}

// Unarchive はアーカイブを解除する。解除後の分類は日付から再計算される。
func (s *Service) Unarchive(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, false)
}

func (s *Service) setArchived(ctx context.Context, id string, archived bool) error {
	sub, err := s.subRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("サブスクリプションの取得に失敗しました: %w", err)
	}
	if sub == nil {
		return model.NewSubscriptionNotFoundError(id)
	}
	if err := s.subRepo.SetArchived(ctx, id, archived); err != nil {
		return fmt.Errorf("アーカイブ状態の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete はサブスクリプションを完全に削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	sub, err := s.subRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("サブスクリプションの取得に失敗しました: %w", err)
	}
	if sub == nil {
		return model.NewSubscriptionNotFoundError(id)
	}
	if err := s.subRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("サブスクリプションの削除に失敗しました: %w", err)
	}
	return nil
}

// SetLogoURL はロゴURLのみを更新する。
func (s *Service) SetLogoURL(ctx context.Context, id, logoURL string) error {
	sub, err := s.subRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("サブスクリプションの取得に失敗しました: %w", err)
	}
	if sub == nil {
		return model.NewSubscriptionNotFoundError(id)
	}
	if err := s.subRepo.UpdateLogoURL(ctx, id, logoURL); err != nil {
		return fmt.Errorf("ロゴURLの更新に失敗しました: %w", err)
	}
	return nil
}

// GetDashboard はダッシュボード表示用の集計を返す。
// 集計対象はアクティブなサブスクリプションのみ（履歴は件数のみ）。
func (s *Service) GetDashboard(ctx context.Context, today time.Time) (*Dashboard, error) {
	all, err := s.subRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("サブスクリプション一覧の取得に失敗しました: %w", err)
	}

	views := portfolio.Split(all, today)
	return &Dashboard{
		Totals:          portfolio.ComputeTotals(views.Active),
		NextUpcoming:    portfolio.NextUpcoming(views.Active),
		ActiveCount:     len(views.Active),
		EndingSoonCount: len(views.EndingSoon),
		HistoryCount:    len(views.History),
	}, nil
}

// applyEndDate は更新日を確定する。
// 入力が未指定なら導出値を使う。指定があってもそれが導出値と一致する場合は
// クライアントが導出値をそのまま送り返しただけとみなし、手動指定にしない。
// 手動フラグが立つのは導出値と異なる日付を明示した場合のみ。
func applyEndDate(sub *model.Subscription, in Input) {
	derived := billing.NextRenewal(sub.StartDate, sub.BillingCycle)
	if in.EndDate.IsZero() {
		sub.EndDate = derived
		sub.EndDateManual = false
		return
	}
	end := model.DateOnly(in.EndDate)
	sub.EndDate = end
	sub.EndDateManual = !end.Equal(derived)
}

// validateInput は作成・更新共通の入力検証を行う。
func validateInput(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return model.NewNameRequiredError()
	}
	if in.Price.IsNegative() {
		return model.NewInvalidPriceError(in.Price.String())
	}
	if !in.BillingCycle.Valid() {
		return model.NewInvalidBillingCycleError(string(in.BillingCycle))
	}
	if in.ReminderDays < 0 {
		return model.NewInvalidReminderDaysError(in.ReminderDays)
	}
	return nil
}
