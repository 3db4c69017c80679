package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxAdviceResponseSize はアドバイスAPIレスポンスの最大サイズ（256KB）。
const maxAdviceResponseSize = 256 * 1024

// AdviceRequest はアドバイスAPIに送信する支出サマリー。
type AdviceRequest struct {
	MonthlyTotal  string               `json:"monthly_total"`
	YearlyTotal   string               `json:"yearly_total"`
	Categories    []AdviceCategory     `json:"categories"`
	Subscriptions []AdviceSubscription `json:"subscriptions"`
}

// AdviceCategory はカテゴリごとの支出内訳。
type AdviceCategory struct {
	Name    string  `json:"name"`
	Monthly string  `json:"monthly"`
	Percent float64 `json:"percent"`
}

// AdviceSubscription はアドバイス生成に渡す個別サブスクリプションの要約。
type AdviceSubscription struct {
	Name         string `json:"name"`
	Price        string `json:"price"`
	BillingCycle string `json:"billing_cycle"`
	Category     string `json:"category"`
}

// adviceResponse はアドバイスAPIのレスポンス形式。
type adviceResponse struct {
	Advice string `json:"advice"`
}

// AdviceClient は節約アドバイス生成APIのクライアント。
// 外部APIが返すテキストはHTMLタグを全て除去してから呼び出し元に返す。
type AdviceClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
	sanitizer  *bluemonday.Policy
}

// NewAdviceClient はAdviceClientの新しいインスタンスを生成する。
func NewAdviceClient(httpClient *http.Client, logger *slog.Logger, endpoint string) *AdviceClient {
	return &AdviceClient{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

// Enabled はアドバイスAPIが構成されているかを返す。
func (c *AdviceClient) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// GetAdvice は支出サマリーをアドバイスAPIに送信し、生成されたアドバイスを返す。
// レスポンスのテキストはStrictPolicyでサニタイズされ、タグは全て除去される。
func (c *AdviceClient) GetAdvice(ctx context.Context, req AdviceRequest) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("アドバイスAPIが構成されていません")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "Subzs/1.0 Subscription Manager")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("アドバイスAPIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("アドバイスAPIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("アドバイスAPIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAdviceResponseSize))
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result adviceResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("アドバイスAPIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return strings.TrimSpace(c.sanitizer.Sanitize(result.Advice)), nil
}
