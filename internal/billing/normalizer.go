package billing

import (
	"github.com/shopspring/decimal"

	"github.com/hitoshi/subzs/internal/model"
)

// weeksPerMonth は月あたりの平均週数（365.25/12/7 ≒ 4.33）。
// 集計結果を元のアプリと一致させるため固定値4.33を使用する。
var weeksPerMonth = decimal.NewFromFloat(4.33)

var (
	three  = decimal.NewFromInt(3)
	twelve = decimal.NewFromInt(12)
)

// MonthlyEquivalent は価格と課金サイクルから月額換算コストを返す。
// 集計レポート専用で、エンティティを変更しない。
//
//   - weekly: price × 4.33
//   - monthly: price
//   - quarterly: price ÷ 3
//   - yearly: price ÷ 12
//   - one_time: 0（継続コストに含めない）
//
// 未定義のサイクルは0を返す。
func MonthlyEquivalent(price decimal.Decimal, cycle model.BillingCycle) decimal.Decimal {
	switch cycle {
	case model.CycleWeekly:
		return price.Mul(weeksPerMonth)
	case model.CycleMonthly:
		return price
	case model.CycleQuarterly:
		return price.Div(three)
	case model.CycleYearly:
		return price.Div(twelve)
	case model.CycleOneTime:
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// YearlyProjection は月額換算コストの12ヶ月分を返す。
func YearlyProjection(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Mul(twelve)
}
