// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/subzs/internal/billing"
	"github.com/hitoshi/subzs/internal/lifecycle"
	"github.com/hitoshi/subzs/internal/model"
	"github.com/hitoshi/subzs/internal/subscription"
)

// SubscriptionServiceInterface はサブスクリプションハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	// Create はサブスクリプションを新規作成する。
	Create(ctx context.Context, in subscription.Input) (*model.Subscription, error)
	// Update はサブスクリプション全体を更新する。
	Update(ctx context.Context, id string, in subscription.Input) (*model.Subscription, error)
	// Get は指定IDのサブスクリプションを取得する。
	Get(ctx context.Context, id string) (*model.Subscription, error)
	// List は指定ビューのサブスクリプション一覧を返す。
	List(ctx context.Context, view subscription.View, query, category string, today time.Time) ([]model.Subscription, error)
	// Archive はサブスクリプションをアーカイブする。
	Archive(ctx context.Context, id string) error
	// Unarchive はアーカイブを解除する。
	Unarchive(ctx context.Context, id string) error
	// Delete はサブスクリプションを完全に削除する。
	Delete(ctx context.Context, id string) error
	// SetLogoURL はロゴURLのみを更新する。
	SetLogoURL(ctx context.Context, id, logoURL string) error
}

// LogoRefresherInterface はロゴ検出の同期再実行を行うインターフェース。
type LogoRefresherInterface interface {
	// EnrichNow はロゴURLを検出して保存し、検出したURLを返す。
	// 検出できなかった場合は空文字列を返す。
	EnrichNow(ctx context.Context, id, name string) (string, error)
}

// SubscriptionHandler はサブスクリプション管理のHTTPハンドラー。
type SubscriptionHandler struct {
	service   SubscriptionServiceInterface
	refresher LogoRefresherInterface
	now       func() time.Time
}

// NewSubscriptionHandler はSubscriptionHandlerを生成する。
// refresherはnil可（ロゴ再検出が無効な構成）。
func NewSubscriptionHandler(service SubscriptionServiceInterface, refresher LogoRefresherInterface) *SubscriptionHandler {
	return &SubscriptionHandler{
		service:   service,
		refresher: refresher,
		now:       time.Now,
	}
}

// subscriptionRequest はサブスクリプション作成・更新リクエストのボディ。
// 日付はYYYY-MM-DD形式の文字列で受け取る。
type subscriptionRequest struct {
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	BillingCycle string          `json:"billing_cycle"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	ReminderDays int             `json:"reminder_days"`
	Category     string          `json:"category"`
	Color        string          `json:"color"`
	LogoURL      string          `json:"logo_url"`
	SoundTone    string          `json:"sound_tone"`
}

// subscriptionResponse はサブスクリプション情報のAPIレスポンス。
// ライフサイクル状態はリクエスト時点の日付から計算して返す。
type subscriptionResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	BillingCycle  string          `json:"billing_cycle"`
	StartDate     string          `json:"start_date,omitempty"`
	EndDate       string          `json:"end_date,omitempty"`
	EndDateManual bool            `json:"end_date_manual"`
	ReminderDays  int             `json:"reminder_days"`
	Category      string          `json:"category"`
	Color         string          `json:"color"`
	LogoURL       string          `json:"logo_url,omitempty"`
	SoundTone     string          `json:"sound_tone,omitempty"`
	IsArchived    bool            `json:"is_archived"`
	Status        string          `json:"status"`
	EndingSoon    bool            `json:"ending_soon"`
	DaysLeft      int             `json:"days_left"`
	MonthlyCost   decimal.Decimal `json:"monthly_cost"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// toSubscriptionResponse はドメインモデルをAPIレスポンスに変換する。
func toSubscriptionResponse(sub *model.Subscription, today time.Time) subscriptionResponse {
	c := lifecycle.Classify(*sub, today)
	resp := subscriptionResponse{
		ID:            sub.ID,
		Name:          sub.Name,
		Price:         sub.Price,
		BillingCycle:  string(sub.BillingCycle),
		EndDateManual: sub.EndDateManual,
		ReminderDays:  sub.ReminderDays,
		Category:      sub.Category,
		Color:         sub.Color,
		LogoURL:       sub.LogoURL,
		SoundTone:     sub.SoundTone,
		IsArchived:    sub.IsArchived,
		Status:        string(c.Status),
		EndingSoon:    c.EndingSoon,
		DaysLeft:      c.DaysLeft,
		MonthlyCost:   billing.MonthlyEquivalent(sub.Price, sub.BillingCycle),
		CreatedAt:     sub.CreatedAt,
		UpdatedAt:     sub.UpdatedAt,
	}
	if !sub.StartDate.IsZero() {
		resp.StartDate = sub.StartDate.Format("2006-01-02")
	}
	if !sub.EndDate.IsZero() {
		resp.EndDate = sub.EndDate.Format("2006-01-02")
	}
	return resp
}

// parseSubscriptionInput はリクエストボディをドメイン入力に変換する。
func parseSubscriptionInput(req subscriptionRequest) (subscription.Input, error) {
	startDate, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return subscription.Input{}, err
	}
	endDate, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return subscription.Input{}, err
	}

	return subscription.Input{
		Name:         req.Name,
		Price:        req.Price,
		BillingCycle: model.BillingCycle(req.BillingCycle),
		StartDate:    startDate,
		EndDate:      endDate,
		ReminderDays: req.ReminderDays,
		Category:     req.Category,
		Color:        req.Color,
		LogoURL:      req.LogoURL,
		SoundTone:    req.SoundTone,
	}, nil
}

// parseDate はYYYY-MM-DD形式の文字列をパースする。空文字列はゼロ値を返す。
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, model.NewInvalidDateError(field, value)
	}
	return t, nil
}

// CreateSubscription はサブスクリプションを新規作成する。
// POST /api/subscriptions
func (h *SubscriptionHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	in, err := parseSubscriptionInput(req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	sub, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toSubscriptionResponse(sub, h.now()))
}

// ListSubscriptions はサブスクリプション一覧を取得する。
// GET /api/subscriptions?view=&q=&category=
func (h *SubscriptionHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	view := subscription.View(r.URL.Query().Get("view"))
	query := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")

	today := h.now()
	subs, err := h.service.List(r.Context(), view, query, category, today)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]subscriptionResponse, 0, len(subs))
	for i := range subs {
		resp = append(resp, toSubscriptionResponse(&subs[i], today))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetSubscription は指定IDのサブスクリプションを取得する。
// GET /api/subscriptions/:id
func (h *SubscriptionHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sub, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSubscriptionResponse(sub, h.now()))
}

// UpdateSubscription はサブスクリプション全体を更新する。
// PUT /api/subscriptions/:id
func (h *SubscriptionHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	in, err := parseSubscriptionInput(req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	sub, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSubscriptionResponse(sub, h.now()))
}

// DeleteSubscription はサブスクリプションを完全に削除する。
// DELETE /api/subscriptions/:id
func (h *SubscriptionHandler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ArchiveSubscription はサブスクリプションをアーカイブする。
// POST /api/subscriptions/:id/archive
func (h *SubscriptionHandler) ArchiveSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Archive(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnarchiveSubscription はアーカイブを解除する。
// POST /api/subscriptions/:id/unarchive
func (h *SubscriptionHandler) UnarchiveSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Unarchive(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// logoRequest はロゴURL更新リクエストのボディ。
type logoRequest struct {
	LogoURL string `json:"logo_url"`
}

// UpdateLogo はロゴURLのみを更新する。
// PUT /api/subscriptions/:id/logo
func (h *SubscriptionHandler) UpdateLogo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req logoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.SetLogoURL(r.Context(), id, req.LogoURL); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RefreshLogo はロゴの自動検出を同期で再実行する。
// 検出できなかった場合もlogo_urlが空のレスポンスを返す（エラーにしない）。
// POST /api/subscriptions/:id/logo
func (h *SubscriptionHandler) RefreshLogo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sub, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var logoURL string
	if h.refresher != nil {
		logoURL, err = h.refresher.EnrichNow(r.Context(), sub.ID, sub.Name)
		if err != nil {
			handleServiceError(w, err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logoRequest{LogoURL: logoURL})
}

// apiErrorResponse はAPIエラーレスポンスの統一フォーマット。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidRequestBody はリクエストボディの解析失敗レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeSubscriptionNotFound, model.ErrCodeCategoryNotFound:
		return http.StatusNotFound
	case model.ErrCodeNameRequired,
		model.ErrCodeInvalidPrice,
		model.ErrCodeInvalidBillingCycle,
		model.ErrCodeInvalidReminderDays,
		model.ErrCodeInvalidDate,
		model.ErrCodeInvalidView:
		return http.StatusBadRequest
	case model.ErrCodeCategoryExists:
		return http.StatusConflict
	case model.ErrCodeNotifyDisabled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
