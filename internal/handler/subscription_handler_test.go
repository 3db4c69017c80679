package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/subzs/internal/model"
	"github.com/hitoshi/subzs/internal/subscription"
)

// mockSubscriptionService はSubscriptionServiceInterfaceのテスト用モック。
type mockSubscriptionService struct {
	createFn     func(ctx context.Context, in subscription.Input) (*model.Subscription, error)
	updateFn     func(ctx context.Context, id string, in subscription.Input) (*model.Subscription, error)
	getFn        func(ctx context.Context, id string) (*model.Subscription, error)
	listFn       func(ctx context.Context, view subscription.View, query, category string, today time.Time) ([]model.Subscription, error)
	archiveFn    func(ctx context.Context, id string) error
	unarchiveFn  func(ctx context.Context, id string) error
	deleteFn     func(ctx context.Context, id string) error
	setLogoURLFn func(ctx context.Context, id, logoURL string) error
}

func (m *mockSubscriptionService) Create(ctx context.Context, in subscription.Input) (*model.Subscription, error) {
	return m.createFn(ctx, in)
}

func (m *mockSubscriptionService) Update(ctx context.Context, id string, in subscription.Input) (*model.Subscription, error) {
	return m.updateFn(ctx, id, in)
}

func (m *mockSubscriptionService) Get(ctx context.Context, id string) (*model.Subscription, error) {
	return m.getFn(ctx, id)
}

func (m *mockSubscriptionService) List(ctx context.Context, view subscription.View, query, category string, today time.Time) ([]model.Subscription, error) {
	return m.listFn(ctx, view, query, category, today)
}

func (m *mockSubscriptionService) Archive(ctx context.Context, id string) error {
	return m.archiveFn(ctx, id)
}

func (m *mockSubscriptionService) Unarchive(ctx context.Context, id string) error {
	return m.unarchiveFn(ctx, id)
}

func (m *mockSubscriptionService) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSubscriptionService) SetLogoURL(ctx context.Context, id, logoURL string) error {
	return m.setLogoURLFn(ctx, id, logoURL)
}

// fixedDate はテストで使用する固定評価日。
var fixedDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func testSubscription() *model.Subscription {
	return &model.Subscription{
		ID:           "sub-1",
		Name:         "Netflix",
		Price:        decimal.NewFromInt(1490),
		BillingCycle: model.CycleMonthly,
		StartDate:    time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
		ReminderDays: 3,
		Category:     "Entertainment",
		Color:        "#E50914",
		CreatedAt:    time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
	}
}

// mockLogoRefresher はLogoRefresherInterfaceのテスト用モック。
type mockLogoRefresher struct {
	enrichNowFn func(ctx context.Context, id, name string) (string, error)
}

func (m *mockLogoRefresher) EnrichNow(ctx context.Context, id, name string) (string, error) {
	return m.enrichNowFn(ctx, id, name)
}

// newTestHandler は評価日を固定したSubscriptionHandlerを生成する。
func newTestHandler(service SubscriptionServiceInterface) *SubscriptionHandler {
	h := NewSubscriptionHandler(service, nil)
	h.now = func() time.Time { return fixedDate }
	return h
}

// routeWithID はchiのURLパラメータを解決するテスト用ルーターを返す。
func routeWithID(method, pattern string, fn http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, fn)
	return r
}

func TestCreateSubscription_Success(t *testing.T) {
	service := &mockSubscriptionService{
		createFn: func(ctx context.Context, in subscription.Input) (*model.Subscription, error) {
			if in.Name != "Netflix" {
				t.Errorf("name = %q, want Netflix", in.Name)
			}
			if !in.Price.Equal(decimal.NewFromInt(1490)) {
				t.Errorf("price = %s, want 1490", in.Price)
			}
			if in.BillingCycle != model.CycleMonthly {
				t.Errorf("billing_cycle = %q, want monthly", in.BillingCycle)
			}
			return testSubscription(), nil
		},
	}
	h := newTestHandler(service)

	body := `{"name":"Netflix","price":1490,"billing_cycle":"monthly","start_date":"2026-05-10","reminder_days":3,"category":"Entertainment","color":"#E50914"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.CreateSubscription(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp subscriptionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.ID != "sub-1" {
		t.Errorf("id = %q, want sub-1", resp.ID)
	}
	if resp.Status != "active" {
		t.Errorf("status = %q, want active", resp.Status)
	}
	if resp.EndDate != "2026-06-10" {
		t.Errorf("end_date = %q, want 2026-06-10", resp.EndDate)
	}
	if !resp.MonthlyCost.Equal(decimal.NewFromInt(1490)) {
		t.Errorf("monthly_cost = %s, want 1490", resp.MonthlyCost)
	}
}

func TestCreateSubscription_PriceAsString(t *testing.T) {
	service := &mockSubscriptionService{
		createFn: func(ctx context.Context, in subscription.Input) (*model.Subscription, error) {
			if !in.Price.Equal(decimal.RequireFromString("9.99")) {
				t.Errorf("price = %s, want 9.99", in.Price)
			}
			return testSubscription(), nil
		},
	}
	h := newTestHandler(service)

	body := `{"name":"Netflix","price":"9.99","billing_cycle":"monthly"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.CreateSubscription(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestCreateSubscription_InvalidDate(t *testing.T) {
	h := newTestHandler(&mockSubscriptionService{})

	body := `{"name":"Netflix","price":1490,"billing_cycle":"monthly","start_date":"2026/05/10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.CreateSubscription(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.Code != model.ErrCodeInvalidDate {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeInvalidDate)
	}
}

func TestCreateSubscription_InvalidJSON(t *testing.T) {
	h := newTestHandler(&mockSubscriptionService{})

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.CreateSubscription(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateSubscription_ValidationError(t *testing.T) {
	service := &mockSubscriptionService{
		createFn: func(ctx context.Context, in subscription.Input) (*model.Subscription, error) {
			return nil, model.NewNameRequiredError()
		},
	}
	h := newTestHandler(service)

	body := `{"name":"","price":1490,"billing_cycle":"monthly"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.CreateSubscription(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListSubscriptions_PassesQueryParams(t *testing.T) {
	service := &mockSubscriptionService{
		listFn: func(ctx context.Context, view subscription.View, query, category string, today time.Time) ([]model.Subscription, error) {
			if view != subscription.ViewEndingSoon {
				t.Errorf("view = %q, want ending_soon", view)
			}
			if query != "net" {
				t.Errorf("q = %q, want net", query)
			}
			if category != "Entertainment" {
				t.Errorf("category = %q, want Entertainment", category)
			}
			return []model.Subscription{*testSubscription()}, nil
		},
	}
	h := newTestHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions?view=ending_soon&q=net&category=Entertainment", nil)
	w := httptest.NewRecorder()

	h.ListSubscriptions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []subscriptionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("len = %d, want 1", len(resp))
	}
	if resp[0].EndingSoon {
		t.Error("2026-06-01時点で06-10更新は7日窓の外のためending_soonはfalseのはず")
	}
	if resp[0].DaysLeft != 9 {
		t.Errorf("days_left = %d, want 9", resp[0].DaysLeft)
	}
}

func TestListSubscriptions_EmptyResult_ReturnsEmptyArray(t *testing.T) {
	service := &mockSubscriptionService{
		listFn: func(ctx context.Context, view subscription.View, query, category string, today time.Time) ([]model.Subscription, error) {
			return nil, nil
		},
	}
	h := newTestHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions", nil)
	w := httptest.NewRecorder()

	h.ListSubscriptions(w, req)

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestListSubscriptions_InvalidView(t *testing.T) {
	service := &mockSubscriptionService{
		listFn: func(ctx context.Context, view subscription.View, query, category string, today time.Time) ([]model.Subscription, error) {
			return nil, model.NewInvalidViewError(string(view))
		},
	}
	h := newTestHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions?view=bogus", nil)
	w := httptest.NewRecorder()

	h.ListSubscriptions(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetSubscription_NotFound(t *testing.T) {
	service := &mockSubscriptionService{
		getFn: func(ctx context.Context, id string) (*model.Subscription, error) {
			return nil, model.NewSubscriptionNotFoundError(id)
		},
	}
	h := newTestHandler(service)

	router := routeWithID(http.MethodGet, "/api/subscriptions/{id}", h.GetSubscription)
	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/missing", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.Code != model.ErrCodeSubscriptionNotFound {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeSubscriptionNotFound)
	}
}

func TestUpdateSubscription_Success(t *testing.T) {
	service := &mockSubscriptionService{
		updateFn: func(ctx context.Context, id string, in subscription.Input) (*model.Subscription, error) {
			if id != "sub-1" {
				t.Errorf("id = %q, want sub-1", id)
			}
			if !in.EndDate.Equal(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)) {
				t.Errorf("end_date = %v, want 2026-12-31", in.EndDate)
			}
			sub := testSubscription()
			sub.EndDate = in.EndDate
			sub.EndDateManual = true
			return sub, nil
		},
	}
	h := newTestHandler(service)

	body := `{"name":"Netflix","price":1490,"billing_cycle":"monthly","end_date":"2026-12-31"}`
	router := routeWithID(http.MethodPut, "/api/subscriptions/{id}", h.UpdateSubscription)
	req := httptest.NewRequest(http.MethodPut, "/api/subscriptions/sub-1", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp subscriptionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if !resp.EndDateManual {
		t.Error("end_date_manual = false, want true")
	}
}

func TestDeleteSubscription_Success(t *testing.T) {
	deleted := ""
	service := &mockSubscriptionService{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	h := newTestHandler(service)

	router := routeWithID(http.MethodDelete, "/api/subscriptions/{id}", h.DeleteSubscription)
	req := httptest.NewRequest(http.MethodDelete, "/api/subscriptions/sub-1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deleted != "sub-1" {
		t.Errorf("deleted id = %q, want sub-1", deleted)
	}
}

func TestArchiveSubscription_Success(t *testing.T) {
	archived := ""
	service := &mockSubscriptionService{
		archiveFn: func(ctx context.Context, id string) error {
			archived = id
			return nil
		},
	}
	h := newTestHandler(service)

	router := routeWithID(http.MethodPost, "/api/subscriptions/{id}/archive", h.ArchiveSubscription)
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/sub-1/archive", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if archived != "sub-1" {
		t.Errorf("archived id = %q, want sub-1", archived)
	}
}

func TestUpdateLogo_Success(t *testing.T) {
	service := &mockSubscriptionService{
		setLogoURLFn: func(ctx context.Context, id, logoURL string) error {
			if logoURL != "https://cdn.example.com/logo.png" {
				t.Errorf("logo_url = %q", logoURL)
			}
			return nil
		},
	}
	h := newTestHandler(service)

	body := `{"logo_url":"https://cdn.example.com/logo.png"}`
	router := routeWithID(http.MethodPut, "/api/subscriptions/{id}/logo", h.UpdateLogo)
	req := httptest.NewRequest(http.MethodPut, "/api/subscriptions/sub-1/logo", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestRefreshLogo_Success(t *testing.T) {
	service := &mockSubscriptionService{
		getFn: func(ctx context.Context, id string) (*model.Subscription, error) {
			return testSubscription(), nil
		},
	}
	refresher := &mockLogoRefresher{
		enrichNowFn: func(ctx context.Context, id, name string) (string, error) {
			if id != "sub-1" || name != "Netflix" {
				t.Errorf("EnrichNow(%q, %q)", id, name)
			}
			return "https://netflix.com/favicon.ico", nil
		},
	}
	h := NewSubscriptionHandler(service, refresher)
	h.now = func() time.Time { return fixedDate }

	router := routeWithID(http.MethodPost, "/api/subscriptions/{id}/logo", h.RefreshLogo)
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/sub-1/logo", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp logoRequest
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.LogoURL != "https://netflix.com/favicon.ico" {
		t.Errorf("logo_url = %q", resp.LogoURL)
	}
}

func TestRefreshLogo_NotDetected_ReturnsEmptyURL(t *testing.T) {
	service := &mockSubscriptionService{
		getFn: func(ctx context.Context, id string) (*model.Subscription, error) {
			return testSubscription(), nil
		},
	}
	refresher := &mockLogoRefresher{
		enrichNowFn: func(ctx context.Context, id, name string) (string, error) {
			return "", nil
		},
	}
	h := NewSubscriptionHandler(service, refresher)
	h.now = func() time.Time { return fixedDate }

	router := routeWithID(http.MethodPost, "/api/subscriptions/{id}/logo", h.RefreshLogo)
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/sub-1/logo", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp logoRequest
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.LogoURL != "" {
		t.Errorf("logo_url = %q, want empty", resp.LogoURL)
	}
}

func TestHandleServiceError_UnknownError_Returns500(t *testing.T) {
	service := &mockSubscriptionService{
		getFn: func(ctx context.Context, id string) (*model.Subscription, error) {
			return nil, context.DeadlineExceeded
		},
	}
	h := newTestHandler(service)

	router := routeWithID(http.MethodGet, "/api/subscriptions/{id}", h.GetSubscription)
	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/sub-1", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if resp.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", resp.Code)
	}
}
