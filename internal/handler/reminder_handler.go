package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/subzs/internal/catalog"
	"github.com/hitoshi/subzs/internal/model"
	"github.com/hitoshi/subzs/internal/notify"
	"github.com/hitoshi/subzs/internal/worker/remind"
)

// ReminderHandler は通知テストのHTTPハンドラー。
// 指定サブスクリプションのリマインダー通知を即時配信し、設定の動作確認に使う。
type ReminderHandler struct {
	service  SubscriptionServiceInterface
	notifier notify.Notifier
	catalog  *catalog.Catalog
	enabled  bool
}

// NewReminderHandler はReminderHandlerを生成する。
// enabledがfalseの場合、テスト配信はNOTIFY_DISABLEDエラーを返す。
func NewReminderHandler(
	service SubscriptionServiceInterface,
	notifier notify.Notifier,
	cat *catalog.Catalog,
	enabled bool,
) *ReminderHandler {
	return &ReminderHandler{
		service:  service,
		notifier: notifier,
		catalog:  cat,
		enabled:  enabled,
	}
}

// reminderTestRequest は通知テストリクエストのボディ。
type reminderTestRequest struct {
	ID string `json:"id"`
}

// TestReminder は指定サブスクリプションのリマインダー通知を即時配信する。
// POST /api/reminders/test
func (h *ReminderHandler) TestReminder(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewNotifyDisabledError())
		return
	}

	var req reminderTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	sub, err := h.service.Get(r.Context(), req.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	n := remind.BuildNotification(*sub, h.catalog)
	if err := h.notifier.Send(r.Context(), n); err != nil {
		writeAPIErrorResponse(w, http.StatusBadGateway, &model.APIError{
			Code:     "NOTIFY_FAILED",
			Message:  "通知の配信に失敗しました。",
			Category: "system",
			Action:   "通知先Webhookの設定を確認してください。",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(n)
}
