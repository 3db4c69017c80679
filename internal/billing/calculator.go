// Package billing は課金サイクルの計算ロジックを提供する。
// 次回更新日の導出と月額換算コストの正規化を含む。すべて純粋関数。
package billing

import (
	"time"

	"github.com/hitoshi/subzs/internal/model"
)

// NextRenewal は開始日と課金サイクルから次回更新日を導出する。
//
//   - weekly: 7日後
//   - monthly: 1ヶ月後（同日。対象月が短い場合は月末にクランプする。例: 1/31 + 1ヶ月 = 2/28 or 2/29）
//   - quarterly: 3ヶ月後（同様にクランプ）
//   - yearly: 1年後（2/29は非うるう年で2/28にクランプ）
//   - one_time: 開始日をそのまま返す（更新は発生しない）
//
// 開始日がゼロ値（不正日付）の場合はゼロ値を返す。呼び出し側は
// ゼロ値を「日付ベースの分類から除外しつつActiveとして表示する」扱いにする。
func NextRenewal(start time.Time, cycle model.BillingCycle) time.Time {
	if start.IsZero() {
		return time.Time{}
	}

	switch cycle {
	case model.CycleWeekly:
		return start.AddDate(0, 0, 7)
	case model.CycleMonthly:
		return addMonthsClamped(start, 1)
	case model.CycleQuarterly:
		return addMonthsClamped(start, 3)
	case model.CycleYearly:
		return addMonthsClamped(start, 12)
	case model.CycleOneTime:
		return start
	default:
		return time.Time{}
	}
}

// addMonthsClamped は月を加算し、日が対象月の日数を超える場合は月末にクランプする。
// time.TimeのAddDateは超過分を翌月に繰り越す（1/31 + 1ヶ月 = 3/2）ため使用しない。
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hour, minute, sec := t.Clock()

	// 対象月の1日を起点に月数を正規化する
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month())
	if d > lastDay {
		d = lastDay
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, hour, minute, sec, t.Nanosecond(), t.Location())
}

// daysInMonth は指定年月の日数を返す。
func daysInMonth(year int, month time.Month) int {
	// 翌月0日 = 当月末日
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
