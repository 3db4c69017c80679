// Package portfolio はサブスクリプション集合の集計ビューを提供する。
// ライフサイクル分類ごとのビュー分割、月額/年額合計、カテゴリ内訳、
// 検索フィルタを含む。すべて(集合, 評価日)の純粋関数。
package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/subzs/internal/billing"
	"github.com/hitoshi/subzs/internal/lifecycle"
	"github.com/hitoshi/subzs/internal/model"
)

// Views はライフサイクル分類で分割したビュー集合。
// EndingSoonはActiveの部分集合（絞り込みビュー）。
type Views struct {
	Active     []model.Subscription
	EndingSoon []model.Subscription
	History    []model.Subscription
}

// Split は全サブスクリプションを評価日時点のビューに分割する。
// 各ビュー内の順序は入力順を保持する。
func Split(subs []model.Subscription, today time.Time) Views {
	var v Views
	for _, sub := range subs {
		c := lifecycle.Classify(sub, today)
		if c.Status == lifecycle.StatusHistory {
			v.History = append(v.History, sub)
			continue
		}
		v.Active = append(v.Active, sub)
		if c.EndingSoon {
			v.EndingSoon = append(v.EndingSoon, sub)
		}
	}
	return v
}

// CategoryTotal はカテゴリごとの月額換算コストと構成比。
type CategoryTotal struct {
	Category string
	Monthly  decimal.Decimal
	Percent  float64 // 月額合計に対する割合（0-100）
}

// Totals はポートフォリオ全体の集計結果。
type Totals struct {
	Monthly    decimal.Decimal // アクティブな全サブスクリプションの月額換算合計
	Yearly     decimal.Decimal // 月額合計の12ヶ月分
	Categories []CategoryTotal // 金額降順。同額は先に出現したカテゴリ優先
}

// ComputeTotals はアクティブなサブスクリプション集合から集計を計算する。
// 月額換算はbilling.MonthlyEquivalentに従う（one_timeは0として除外される）。
// カテゴリ内訳の合計は月額合計と一致する。
func ComputeTotals(active []model.Subscription) Totals {
	monthly := decimal.Zero
	catTotals := make(map[string]decimal.Decimal)
	var catOrder []string

	for _, sub := range active {
		effect := billing.MonthlyEquivalent(sub.Price, sub.BillingCycle)
		monthly = monthly.Add(effect)

		if _, seen := catTotals[sub.Category]; !seen {
			catOrder = append(catOrder, sub.Category)
		}
		catTotals[sub.Category] = catTotals[sub.Category].Add(effect)
	}

	categories := make([]CategoryTotal, 0, len(catOrder))
	for _, name := range catOrder {
		total := catTotals[name]
		if total.IsZero() {
			continue
		}
		ct := CategoryTotal{Category: name, Monthly: total}
		if monthly.IsPositive() {
			percent, _ := total.Div(monthly).Mul(decimal.NewFromInt(100)).Float64()
			ct.Percent = percent
		}
		categories = append(categories, ct)
	}

	// 金額降順。SliceStableにより同額は出現順を保つ
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Monthly.GreaterThan(categories[j].Monthly)
	})

	return Totals{
		Monthly:    monthly,
		Yearly:     billing.YearlyProjection(monthly),
		Categories: categories,
	}
}

// NextUpcoming は更新日が最も近いサブスクリプションを返す。
// 不正日付は候補から除外する。候補がなければnil。
func NextUpcoming(active []model.Subscription) *model.Subscription {
	var next *model.Subscription
	for i := range active {
		sub := &active[i]
		if sub.EndDate.IsZero() {
			continue
		}
		if next == nil || sub.EndDate.Before(next.EndDate) {
			next = sub
		}
	}
	return next
}
