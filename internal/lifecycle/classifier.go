// Package lifecycle はサブスクリプションのライフサイクル分類を提供する。
// 分類は(現在日, エンティティ)の純粋関数であり、状態として保存しない。
package lifecycle

import (
	"time"

	"github.com/hitoshi/subzs/internal/model"
)

// EndingSoonWindowDays はEndingSoon判定の対象期間（本日を含む7日間）。
const EndingSoonWindowDays = 7

// Status はサブスクリプションのライフサイクル状態を表す。
type Status string

const (
	// StatusActive は継続中の状態。
	StatusActive Status = "active"
	// StatusHistory はアーカイブ済みまたは更新日を過ぎた状態。
	StatusHistory Status = "history"
)

// Classification は1件のサブスクリプションの分類結果。
// EndingSoonはActiveの絞り込みビューであり、排他的な状態ではない。
type Classification struct {
	Status     Status
	EndingSoon bool
	DaysLeft   int // 更新日までの残日数。負値は0にクランプして返す
}

// Classify はサブスクリプションを評価日時点で分類する。
//
//  1. IsArchivedがtrueなら無条件にHistory。
//  2. EndDateが評価日より前（日付単位の厳密比較）ならHistory。
//  3. それ以外はActive。さらに today <= EndDate <= today+7日（両端含む）
//     ならEndingSoonを付与する。
//
// 不正日付（ゼロ値のEndDate）は「期限切れでない」扱いとし、
// Activeに分類してEndingSoon判定からは除外する。
func Classify(sub model.Subscription, today time.Time) Classification {
	if sub.IsArchived {
		return Classification{Status: StatusHistory}
	}

	end := model.DateOnly(sub.EndDate)
	day := model.DateOnly(today)

	// 不正日付: 分類を壊さずActiveに倒す
	if end.IsZero() {
		return Classification{Status: StatusActive}
	}

	if end.Before(day) {
		return Classification{Status: StatusHistory}
	}

	windowEnd := day.AddDate(0, 0, EndingSoonWindowDays)
	c := Classification{
		Status:     StatusActive,
		EndingSoon: !end.Before(day) && !end.After(windowEnd),
		DaysLeft:   daysBetween(day, end),
	}
	return c
}

// daysBetween はfromからtoまでの日数を返す。負値は0にクランプする。
func daysBetween(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
