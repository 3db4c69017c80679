// Package reminder はリマインダー発火判定を提供する。
// 判定は(サブスクリプション一覧, 評価日)の純粋関数で、I/Oを一切行わない。
package reminder

import (
	"time"

	"github.com/hitoshi/subzs/internal/model"
)

// DueOn はサブスクリプションのリマインダーを評価日に発火すべきかを判定する。
//
// リマインダー日 = EndDate - ReminderDays（暦日単位の減算）。
// 発火条件はリマインダー日と評価日が同一暦日であること。<=比較ではなく
// 同日一致に限定することで、更新日まで毎日発火し続けることを避ける。
// 評価を実行しなかった日のリマインダーは失われる（at-most-once、仕様通り）。
//
// アーカイブ済み、不正日付（ゼロ値のEndDate）、負のReminderDaysは発火しない。
// リマインダー日がStartDateより前になることは許容する（過去日なら単に一致しない）。
func DueOn(sub model.Subscription, today time.Time) bool {
	if sub.IsArchived {
		return false
	}
	if sub.EndDate.IsZero() || sub.ReminderDays < 0 {
		return false
	}

	reminderDate := model.DateOnly(sub.EndDate).AddDate(0, 0, -sub.ReminderDays)
	return model.SameDay(reminderDate, today)
}

// Due は評価日にリマインダーを発火すべきサブスクリプションの部分集合を返す。
// 入力順を保持する。エラーは発生しない（不正データは除外されるのみ）。
func Due(subs []model.Subscription, today time.Time) []model.Subscription {
	var due []model.Subscription
	for _, sub := range subs {
		if DueOn(sub, today) {
			due = append(due, sub)
		}
	}
	return due
}
