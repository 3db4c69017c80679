// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingCycle はサブスクリプションの課金サイクルを表す。
type BillingCycle string

const (
	// CycleWeekly は週次課金。
	CycleWeekly BillingCycle = "weekly"
	// CycleMonthly は月次課金。
	CycleMonthly BillingCycle = "monthly"
	// CycleQuarterly は四半期課金。
	CycleQuarterly BillingCycle = "quarterly"
	// CycleYearly は年次課金。
	CycleYearly BillingCycle = "yearly"
	// CycleOneTime は一回限りの支払い。更新日は開始日と等しい。
	CycleOneTime BillingCycle = "one_time"
)

// Valid は課金サイクルが定義済みの値かどうかを返す。
func (c BillingCycle) Valid() bool {
	switch c {
	case CycleWeekly, CycleMonthly, CycleQuarterly, CycleYearly, CycleOneTime:
		return true
	}
	return false
}

// Subscription はユーザーが追跡するサブスクリプション契約を表す。
// EndDateは課金サイクルから導出して保存する派生データだが、
// ユーザーが手動で上書きできる（EndDateManualで上書き状態を保持する）。
// ライフサイクル状態（Active/History）は保存せず、日付から毎回再計算する。
type Subscription struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	BillingCycle  BillingCycle
	StartDate     time.Time // 初回/直近の支払日（日付のみ有効）
	EndDate       time.Time // 次回更新日。OneTimeはStartDateと等しい。ゼロ値は不正日付
	EndDateManual bool      // ユーザーが更新日を手動指定した場合true（編集時に再導出しない）
	ReminderDays  int       // 更新日の何日前にリマインドするか（0以上）
	Category      string
	Color         string
	LogoURL       string // 任意。空でもライフサイクル計算を妨げない
	SoundTone     string // 任意。通知音の識別名
	IsArchived    bool   // trueなら日付に関係なくHistory扱い。解除は明示操作のみ
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RenewalDate はリマインダーロジックが参照する更新日を返す。
// 書き込み時にEndDateと等しく保たれるエイリアス。
func (s *Subscription) RenewalDate() time.Time {
	return s.EndDate
}

// DateOnly は時刻成分を切り捨てて日付のみのtime.TimeにUTCで正規化する。
// ライフサイクル判定・リマインダー判定はすべて日付単位で行うため、
// 元の値のタイムゾーンに関わらず同一暦日は同一の値になる。
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay は2つの時刻が同一暦日かどうかを判定する。
// どちらかがゼロ値の場合はfalseを返す。
func SameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
