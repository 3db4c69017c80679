// Package notify はリマインダー通知の配信を提供する。
// Webhookエンドポイントへの配信クライアントとテスト用の無効実装を含む。
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Notification は配信する通知の内容。
type Notification struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	IconURL  string `json:"icon_url,omitempty"`
	ToneURL  string `json:"tone_url,omitempty"`
	SourceID string `json:"source_id,omitempty"` // 通知元サブスクリプションのID
}

// Notifier は通知配信のインターフェース。
type Notifier interface {
	// Send は通知を1件配信する。
	Send(ctx context.Context, n Notification) error
}

// WebhookNotifier はJSON POSTで通知を配信するWebhookクライアント。
type WebhookNotifier struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
}

// NewWebhookNotifier はWebhookNotifierの新しいインスタンスを生成する。
func NewWebhookNotifier(httpClient *http.Client, logger *slog.Logger, endpoint string) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
	}
}

// Send は通知をWebhookエンドポイントにJSON POSTで配信する。
// 2xx以外のステータスはエラーとして返す（リトライ判断は呼び出し元に委ねる）。
func (n *WebhookNotifier) Send(ctx context.Context, notification Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("通知ペイロードのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Subzs/1.0 Subscription Manager")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Error("通知Webhookの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("title", notification.Title),
		)
		return err
	}
	defer resp.Body.Close()

	// レスポンスボディは使用しないが、接続再利用のため読み捨てる
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Error("通知Webhookがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("title", notification.Title),
		)
		return fmt.Errorf("通知Webhookがステータス %d を返しました", resp.StatusCode)
	}

	return nil
}

// NopNotifier は何も配信しないNotifier。通知が無効な構成で使用する。
type NopNotifier struct{}

// Send は常に成功を返す。
func (NopNotifier) Send(ctx context.Context, n Notification) error {
	return nil
}

// compile-time interface check
var (
	_ Notifier = (*WebhookNotifier)(nil)
	_ Notifier = NopNotifier{}
)
