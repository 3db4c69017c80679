// Package catalog はカテゴリ・アクセントカラー・通知音のカタログを提供する。
// 既定値を内蔵し、YAMLファイルで上書き・追加できる。
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultCategories は組み込みのカテゴリ一覧。
var DefaultCategories = []string{
	"Entertainment",
	"Gaming",
	"Education",
	"Fitness",
	"News",
	"Work",
	"Utility",
	"Lifestyle",
	"Other",
}

// DefaultColors はアクセントカラーの既定パレット。
var DefaultColors = []string{
	"#4F46E5", "#EF4444", "#10B981", "#F59E0B",
	"#6366F1", "#EC4899", "#8B5CF6", "#1DB954", "#FF0000",
}

// defaultTones は通知音の識別名とサウンドURLの既定マッピング。
var defaultTones = map[string]string{
	"Digital": "https://assets.mixkit.co/active_storage/sfx/2869/2869-preview.mp3",
	"Bell":    "https://assets.mixkit.co/active_storage/sfx/2568/2568-preview.mp3",
	"Playful": "https://assets.mixkit.co/active_storage/sfx/2358/2358-preview.mp3",
	"Gentle":  "https://assets.mixkit.co/active_storage/sfx/2190/2190-preview.mp3",
}

// DefaultTone はテスト通知などで使用する既定の通知音識別名。
const DefaultTone = "Digital"

// Catalog はカテゴリ・カラー・通知音のカタログを保持する。
type Catalog struct {
	Categories []string          `yaml:"categories,omitempty"`
	Colors     []string          `yaml:"colors,omitempty"`
	Tones      map[string]string `yaml:"tones,omitempty"`
}

// Default は組み込み値のみのカタログを返す。
func Default() *Catalog {
	tones := make(map[string]string, len(defaultTones))
	for name, url := range defaultTones {
		tones[name] = url
	}
	return &Catalog{
		Categories: append([]string(nil), DefaultCategories...),
		Colors:     append([]string(nil), DefaultColors...),
		Tones:      tones,
	}
}

// Load はYAMLファイルからカタログを読み込み、既定値とマージして返す。
// パスが空、またはファイルが存在しない場合は既定値のみを返す（エラーにしない）。
// YAMLが壊れている場合のみエラーを返す。
func Load(path string) (*Catalog, error) {
	cat := Default()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cat, nil
		}
		return nil, fmt.Errorf("カタログファイルの読み込みに失敗しました: %w", err)
	}

	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("カタログファイルの解析に失敗しました: %w", err)
	}

	// カテゴリは既定値への追加。重複は無視する
	for _, c := range override.Categories {
		if !contains(cat.Categories, c) {
			cat.Categories = append(cat.Categories, c)
		}
	}
	if len(override.Colors) > 0 {
		cat.Colors = override.Colors
	}
	for name, url := range override.Tones {
		cat.Tones[name] = url
	}

	return cat, nil
}

// ToneURL は通知音識別名からサウンドURLを解決する。
// 未知の識別名は空文字を返す（音は任意の付加情報であり、解決失敗は無視される）。
func (c *Catalog) ToneURL(name string) string {
	if name == "" {
		return ""
	}
	return c.Tones[name]
}

// AllCategories はカタログのカテゴリ・カスタムカテゴリ・使用中カテゴリを
// 統合し、重複を除いてソートした一覧を返す。
func (c *Catalog) AllCategories(custom, inUse []string) []string {
	seen := make(map[string]struct{})
	var all []string
	for _, group := range [][]string{c.Categories, custom, inUse} {
		for _, name := range group {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			all = append(all, name)
		}
	}
	sort.Strings(all)
	return all
}

// IsDefaultCategory は組み込みカテゴリかどうかを返す。
func (c *Catalog) IsDefaultCategory(name string) bool {
	return contains(c.Categories, name)
}

func contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
