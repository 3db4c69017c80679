package portfolio

import (
	"strings"

	"github.com/hitoshi/subzs/internal/model"
)

// CategoryAll はカテゴリフィルタのワイルドカード値。
const CategoryAll = "All"

// Filter は検索文字列とカテゴリでビューを絞り込む。
//
//   - query: 名前の部分一致（大文字小文字を区別しない）。空なら全件。
//   - category: 完全一致。"All"または空なら全カテゴリ。
//
// 非破壊的で、入力順を保持した新しいスライスを返す。
func Filter(subs []model.Subscription, query, category string) []model.Subscription {
	q := strings.ToLower(strings.TrimSpace(query))
	matchAllCategories := category == "" || category == CategoryAll

	var result []model.Subscription
	for _, sub := range subs {
		if q != "" && !strings.Contains(strings.ToLower(sub.Name), q) {
			continue
		}
		if !matchAllCategories && sub.Category != category {
			continue
		}
		result = append(result, sub)
	}
	return result
}
