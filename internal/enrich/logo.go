// Package enrich はサブスクリプション情報の外部補完を提供する。
// サービス名からのロゴURL自動検出と、節約アドバイスAPIの呼び出しを含む。
package enrich

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxLogoPageSize はロゴ検出時に読み込むHTMLの最大サイズ（2MB）。
const maxLogoPageSize = 2 * 1024 * 1024

// logoFetchTimeout はロゴ検出のHTTPタイムアウト。
const logoFetchTimeout = 5 * time.Second

// IconKind は検出されたアイコンの種類を表す。
type IconKind string

const (
	// IconKindAppleTouch はapple-touch-iconリンク。高解像度のことが多い。
	IconKindAppleTouch IconKind = "apple_touch_icon"
	// IconKindOGImage はOpen Graphのog:imageメタタグ。
	IconKindOGImage IconKind = "og_image"
	// IconKindFavicon はrel=iconリンク。
	IconKindFavicon IconKind = "favicon"
)

// IconCandidate はHTMLから検出されたアイコン候補を表す。
type IconCandidate struct {
	URL  string
	Kind IconKind
}

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// LogoFinder はサービス名からロゴURLを自動検出する。
type LogoFinder struct {
	ssrfGuard SSRFValidator
	logger    *slog.Logger
}

// NewLogoFinder はLogoFinderの新しいインスタンスを生成する。
func NewLogoFinder(ssrfGuard SSRFValidator, logger *slog.Logger) *LogoFinder {
	return &LogoFinder{
		ssrfGuard: ssrfGuard,
		logger:    logger,
	}
}

// FindLogoURL はサービス名からロゴURLを検出する。
//  1. サービス名からドメインを推測（英数字のみに正規化 + .com）
//  2. SSRF検証の上でサイトのトップページを取得
//  3. HTMLのheadタグからアイコン候補を検出し、優先順位で選択
//  4. 候補がなければ /favicon.ico にフォールバック
//
// 検出失敗は空文字を返す（エラーは返さない。ロゴは任意の付加情報）。
func (f *LogoFinder) FindLogoURL(ctx context.Context, name string) string {
	siteURL := GuessSiteURL(name)
	if siteURL == "" {
		return ""
	}

	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateURL(siteURL); err != nil {
			f.logger.Warn("ロゴ検出: SSRFブロック", slog.String("url", siteURL), slog.String("error", err.Error()))
			return ""
		}
	}

	client := f.getHTTPClient()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Subzs/1.0 Subscription Manager")
	req.Header.Set("Accept", "text/html, */*")

	resp, err := client.Do(req)
	if err != nil {
		f.logger.Warn("ロゴ検出: HTTPリクエスト失敗", slog.String("url", siteURL), slog.String("error", err.Error()))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn("ロゴ検出: HTTPステータス異常", slog.String("url", siteURL), slog.Int("status", resp.StatusCode))
		return guessDefaultFaviconURL(siteURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoPageSize))
	if err != nil {
		return guessDefaultFaviconURL(siteURL)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.Contains(strings.ToLower(mediaType), "html") {
		return guessDefaultFaviconURL(siteURL)
	}

	candidates := ParseIconsFromHTML(body, siteURL)
	if best := SelectBestIcon(candidates); best != nil {
		return best.URL
	}
	return guessDefaultFaviconURL(siteURL)
}

// getHTTPClient はHTTPクライアントを取得する。
// SSRFGuardが設定されている場合はSSRF防止付きクライアントを返す。
func (f *LogoFinder) getHTTPClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(logoFetchTimeout, maxLogoPageSize)
	}
	return &http.Client{Timeout: logoFetchTimeout}
}

// GuessSiteURL はサービス名から公式サイトURLを推測する。
// 英数字以外を除去して小文字化し、.comドメインとして組み立てる。
// 有効な文字が残らない場合は空文字を返す。
func GuessSiteURL(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	domain := b.String()
	if domain == "" {
		return ""
	}
	return "https://" + domain + ".com"
}

// ParseIconsFromHTML はHTMLのheadタグからアイコン候補を解析・検出する。
// 相対URLはbaseURLを基準に絶対URLに解決される。
func ParseIconsFromHTML(htmlBody []byte, baseURL string) []IconCandidate {
	var candidates []IconCandidate

	baseU, err := url.Parse(baseURL)
	if err != nil {
		return candidates
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inHead := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return candidates

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			if tagName == "head" {
				inHead = true
				continue
			}

			if tagName == "body" {
				// bodyに入ったらheadの解析を終了
				return candidates
			}

			if !inHead || !hasAttr {
				continue
			}

			switch tagName {
			case "link":
				var rel, href string
				for {
					key, val, more := tokenizer.TagAttr()
					switch strings.ToLower(string(key)) {
					case "rel":
						rel = strings.ToLower(string(val))
					case "href":
						href = string(val)
					}
					if !more {
						break
					}
				}
				if href == "" {
					continue
				}

				var kind IconKind
				switch {
				case strings.Contains(rel, "apple-touch-icon"):
					kind = IconKindAppleTouch
				case rel == "icon" || rel == "shortcut icon":
					kind = IconKindFavicon
				default:
					continue
				}

				if resolved := resolveURL(baseU, href); resolved != "" {
					candidates = append(candidates, IconCandidate{URL: resolved, Kind: kind})
				}

			case "meta":
				var property, content string
				for {
					key, val, more := tokenizer.TagAttr()
					switch strings.ToLower(string(key)) {
					case "property":
						property = strings.ToLower(string(val))
					case "content":
						content = string(val)
					}
					if !more {
						break
					}
				}
				if property != "og:image" || content == "" {
					continue
				}
				if resolved := resolveURL(baseU, content); resolved != "" {
					candidates = append(candidates, IconCandidate{URL: resolved, Kind: IconKindOGImage})
				}
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "head" {
				return candidates
			}
		}
	}
}

// SelectBestIcon は複数のアイコン候補から優先順位に従って最適な候補を選択する。
// 優先順位: apple-touch-icon > og:image > favicon > 先頭
func SelectBestIcon(candidates []IconCandidate) *IconCandidate {
	if len(candidates) == 0 {
		return nil
	}

	bestIdx := 0
	bestScore := -1

	for i, c := range candidates {
		score := 0
		switch c.Kind {
		case IconKindAppleTouch:
			score = 100
		case IconKindOGImage:
			score = 50
		case IconKindFavicon:
			score = 10
		}
		// 同スコアはインデックスが小さい方を優先
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	return &candidates[bestIdx]
}

// guessDefaultFaviconURL はサイトURLからデフォルトのfavicon URLを推測する。
func guessDefaultFaviconURL(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}
	u.Path = "/favicon.ico"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// resolveURL は相対URLをベースURLを基準に絶対URLに解決する。
func resolveURL(base *url.URL, rawRef string) string {
	ref, err := url.Parse(rawRef)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
