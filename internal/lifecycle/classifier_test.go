package lifecycle

import (
	"testing"
	"time"

	"github.com/hitoshi/subzs/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestClassify_Archived はアーカイブ済みが無条件にHistoryになることを検証する。
func TestClassify_Archived(t *testing.T) {
	today := date(2026, 6, 1)

	// 更新日が未来でもアーカイブが優先される
	sub := model.Subscription{
		IsArchived: true,
		EndDate:    date(2026, 12, 31),
	}
	c := Classify(sub, today)
	if c.Status != StatusHistory {
		t.Errorf("c.Status = %q, want history", c.Status)
	}
	if c.EndingSoon {
		t.Error("archived subscription should not be EndingSoon")
	}
}

// 更新日を過ぎたサブスクリプションはHistoryになることを検証
func TestClassify_Expired(t *testing.T) {
	today := date(2026, 6, 1)
	sub := model.Subscription{EndDate: date(2026, 5, 31)}

	c := Classify(sub, today)
	if c.Status != StatusHistory {
		t.Errorf("c.Status = %q, want history", c.Status)
	}
}

// TestClassify_EndingSoonWindow は7日ウィンドウの境界を検証する。
func TestClassify_EndingSoonWindow(t *testing.T) {
	today := date(2026, 6, 1)

	tests := []struct {
		name       string
		endDate    time.Time
		wantStatus Status
		wantSoon   bool
	}{
		{"ends today", date(2026, 6, 1), StatusActive, true},
		{"ends in 3 days", date(2026, 6, 4), StatusActive, true},
		{"ends in 7 days (inclusive)", date(2026, 6, 8), StatusActive, true},
		{"ends in 8 days (outside)", date(2026, 6, 9), StatusActive, false},
		{"ended yesterday", date(2026, 5, 31), StatusHistory, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(model.Subscription{EndDate: tt.endDate}, today)
			if c.Status != tt.wantStatus {
				t.Errorf("c.Status = %q, want %q", c.Status, tt.wantStatus)
			}
			if c.EndingSoon != tt.wantSoon {
				t.Errorf("c.EndingSoon = %v, want %v", c.EndingSoon, tt.wantSoon)
			}
		})
	}
}

// 時刻成分が判定に影響しないことを検証
func TestClassify_IgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2026, 6, 1, 23, 59, 0, 0, time.UTC)
	sub := model.Subscription{
		EndDate: time.Date(2026, 6, 8, 0, 1, 0, 0, time.UTC),
	}

	c := Classify(sub, today)
	if c.Status != StatusActive || !c.EndingSoon {
		t.Errorf("Classify = %+v, want active and EndingSoon", c)
	}
}

// タイムゾーンが異なる入力でも暦日で比較されることを検証。
// 保存値はUTC、評価日はサーバーのローカル時刻になるため混在が起こりうる。
func TestClassify_MixedLocations(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	est := time.FixedZone("EST", -5*60*60)

	tests := []struct {
		name         string
		endDate      time.Time
		today        time.Time
		wantStatus   Status
		wantSoon     bool
		wantDaysLeft int
	}{
		{
			"UTCに先行するローカル評価日でもtoday+7は含まれる",
			date(2026, 6, 8),
			time.Date(2026, 6, 1, 10, 0, 0, 0, jst),
			StatusActive, true, 7,
		},
		{
			"UTCに遅れるローカル評価日でも更新日当日はActive",
			date(2026, 6, 1),
			time.Date(2026, 6, 1, 10, 0, 0, 0, est),
			StatusActive, true, 0,
		},
		{
			"前日に終了していればローカル評価日でもHistory",
			date(2026, 5, 31),
			time.Date(2026, 6, 1, 10, 0, 0, 0, jst),
			StatusHistory, false, 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(model.Subscription{EndDate: tt.endDate}, tt.today)
			if c.Status != tt.wantStatus {
				t.Errorf("c.Status = %q, want %q", c.Status, tt.wantStatus)
			}
			if c.EndingSoon != tt.wantSoon {
				t.Errorf("c.EndingSoon = %v, want %v", c.EndingSoon, tt.wantSoon)
			}
			if c.DaysLeft != tt.wantDaysLeft {
				t.Errorf("c.DaysLeft = %d, want %d", c.DaysLeft, tt.wantDaysLeft)
			}
		})
	}
}

// 不正日付（ゼロ値）はActiveに分類されEndingSoonにならないことを検証
func TestClassify_InvalidDate(t *testing.T) {
	c := Classify(model.Subscription{}, date(2026, 6, 1))
	if c.Status != StatusActive {
		t.Errorf("c.Status = %q, want active", c.Status)
	}
	if c.EndingSoon {
		t.Error("invalid date should not be EndingSoon")
	}
}

// DaysLeftの計算とクランプを検証
func TestClassify_DaysLeft(t *testing.T) {
	today := date(2026, 6, 1)

	c := Classify(model.Subscription{EndDate: date(2026, 6, 4)}, today)
	if c.DaysLeft != 3 {
		t.Errorf("c.DaysLeft = %d, want 3", c.DaysLeft)
	}

	c = Classify(model.Subscription{EndDate: date(2026, 6, 1)}, today)
	if c.DaysLeft != 0 {
		t.Errorf("c.DaysLeft = %d, want 0", c.DaysLeft)
	}
}

// 同一入力に対して分類が安定していることを検証
func TestClassify_Deterministic(t *testing.T) {
	today := date(2026, 6, 1)
	sub := model.Subscription{EndDate: date(2026, 6, 5)}

	first := Classify(sub, today)
	for i := 0; i < 10; i++ {
		if got := Classify(sub, today); got != first {
			t.Fatalf("Classify not deterministic: %+v != %+v", got, first)
		}
	}
}
