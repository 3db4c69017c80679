package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/subzs/internal/enrich"
	"github.com/hitoshi/subzs/internal/model"
	"github.com/hitoshi/subzs/internal/subscription"
)

// DashboardServiceInterface はダッシュボードハンドラーが必要とするサービスインターフェース。
type DashboardServiceInterface interface {
	// GetDashboard はダッシュボード表示用の集計を返す。
	GetDashboard(ctx context.Context, today time.Time) (*subscription.Dashboard, error)
	// List は指定ビューのサブスクリプション一覧を返す。
	List(ctx context.Context, view subscription.View, query, category string, today time.Time) ([]model.Subscription, error)
}

// AdviceClientInterface は節約アドバイス生成APIのクライアントインターフェース。
type AdviceClientInterface interface {
	Enabled() bool
	GetAdvice(ctx context.Context, req enrich.AdviceRequest) (string, error)
}

// DashboardHandler はダッシュボード・アドバイスのHTTPハンドラー。
type DashboardHandler struct {
	service DashboardServiceInterface
	advice  AdviceClientInterface
	now     func() time.Time
}

// NewDashboardHandler はDashboardHandlerを生成する。
// adviceはnil可（アドバイスAPIが無効な構成）。
func NewDashboardHandler(service DashboardServiceInterface, advice AdviceClientInterface) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		advice:  advice,
		now:     time.Now,
	}
}

// categoryTotalResponse はカテゴリごとの月額内訳のAPIレスポンス。
type categoryTotalResponse struct {
	Category string          `json:"category"`
	Monthly  decimal.Decimal `json:"monthly"`
	Percent  float64         `json:"percent"`
}

// dashboardResponse はダッシュボードのAPIレスポンス。
type dashboardResponse struct {
	MonthlyTotal    decimal.Decimal         `json:"monthly_total"`
	YearlyTotal     decimal.Decimal         `json:"yearly_total"`
	Categories      []categoryTotalResponse `json:"categories"`
	NextUpcoming    *subscriptionResponse   `json:"next_upcoming,omitempty"`
	ActiveCount     int                     `json:"active_count"`
	EndingSoonCount int                     `json:"ending_soon_count"`
	HistoryCount    int                     `json:"history_count"`
}

// adviceResponseBody はアドバイスのAPIレスポンス。
type adviceResponseBody struct {
	Advice string `json:"advice"`
}

// GetDashboard はダッシュボードの集計を取得する。
// GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	today := h.now()
	dash, err := h.service.GetDashboard(r.Context(), today)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := dashboardResponse{
		MonthlyTotal:    dash.Totals.Monthly,
		YearlyTotal:     dash.Totals.Yearly,
		Categories:      make([]categoryTotalResponse, 0, len(dash.Totals.Categories)),
		ActiveCount:     dash.ActiveCount,
		EndingSoonCount: dash.EndingSoonCount,
		HistoryCount:    dash.HistoryCount,
	}
	for _, ct := range dash.Totals.Categories {
		resp.Categories = append(resp.Categories, categoryTotalResponse{
			Category: ct.Category,
			Monthly:  ct.Monthly,
			Percent:  ct.Percent,
		})
	}
	if dash.NextUpcoming != nil {
		next := toSubscriptionResponse(dash.NextUpcoming, today)
		resp.NextUpcoming = &next
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetAdvice は現在の支出サマリーから節約アドバイスを生成する。
// アドバイスAPIが未構成の構成では空のアドバイスを返す（エラーにしない）。
// GET/POST /api/dashboard/advice
func (h *DashboardHandler) GetAdvice(w http.ResponseWriter, r *http.Request) {
	if h.advice == nil || !h.advice.Enabled() {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(adviceResponseBody{})
		return
	}

	today := h.now()
	dash, err := h.service.GetDashboard(r.Context(), today)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	active, err := h.service.List(r.Context(), subscription.ViewActive, "", "", today)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	req := enrich.AdviceRequest{
		MonthlyTotal:  dash.Totals.Monthly.String(),
		YearlyTotal:   dash.Totals.Yearly.String(),
		Categories:    make([]enrich.AdviceCategory, 0, len(dash.Totals.Categories)),
		Subscriptions: make([]enrich.AdviceSubscription, 0, len(active)),
	}
	for _, ct := range dash.Totals.Categories {
		req.Categories = append(req.Categories, enrich.AdviceCategory{
			Name:    ct.Category,
			Monthly: ct.Monthly.String(),
			Percent: ct.Percent,
		})
	}
	for _, sub := range active {
		req.Subscriptions = append(req.Subscriptions, enrich.AdviceSubscription{
			Name:         sub.Name,
			Price:        sub.Price.String(),
			BillingCycle: string(sub.BillingCycle),
			Category:     sub.Category,
		})
	}

	advice, err := h.advice.GetAdvice(r.Context(), req)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadGateway, &model.APIError{
			Code:     "ADVICE_FAILED",
			Message:  "アドバイスの生成に失敗しました。",
			Category: "system",
			Action:   "しばらく待ってから再度お試しください。",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(adviceResponseBody{Advice: advice})
}
