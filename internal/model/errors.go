// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, subscription, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeSubscriptionNotFound = "SUBSCRIPTION_NOT_FOUND"
	ErrCodeNameRequired         = "NAME_REQUIRED"
	ErrCodeInvalidPrice         = "INVALID_PRICE"
	ErrCodeInvalidBillingCycle  = "INVALID_BILLING_CYCLE"
	ErrCodeInvalidReminderDays  = "INVALID_REMINDER_DAYS"
	ErrCodeInvalidDate          = "INVALID_DATE"
	ErrCodeInvalidView          = "INVALID_VIEW"
	ErrCodeCategoryExists       = "CATEGORY_EXISTS"
	ErrCodeCategoryNotFound     = "CATEGORY_NOT_FOUND"
	ErrCodeNotifyDisabled       = "NOTIFY_DISABLED"
)

// NewSubscriptionNotFoundError はサブスクリプションが見つからない場合のエラーを生成する。
func NewSubscriptionNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeSubscriptionNotFound,
		Message:  fmt.Sprintf("指定されたサブスクリプションが見つかりません: %s", id),
		Category: "subscription",
		Action:   "サブスクリプションIDを確認してください。",
	}
}

// NewNameRequiredError は名前が未入力の場合のエラーを生成する。
func NewNameRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeNameRequired,
		Message:  "サブスクリプション名が指定されていません。",
		Category: "validation",
		Action:   "名前を入力してください。",
	}
}

// NewInvalidPriceError は価格が不正な場合のエラーを生成する。
func NewInvalidPriceError(price string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPrice,
		Message:  fmt.Sprintf("無効な価格です: %s", price),
		Category: "validation",
		Action:   "価格には0以上の数値を指定してください。",
	}
}

// NewInvalidBillingCycleError は課金サイクルが不正な場合のエラーを生成する。
func NewInvalidBillingCycleError(cycle string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBillingCycle,
		Message:  fmt.Sprintf("無効な課金サイクルです: %s", cycle),
		Category: "validation",
		Action:   "weekly、monthly、quarterly、yearly、one_time のいずれかを指定してください。",
	}
}

// NewInvalidReminderDaysError はリマインダー日数が不正な場合のエラーを生成する。
func NewInvalidReminderDaysError(days int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidReminderDays,
		Message:  fmt.Sprintf("無効なリマインダー日数です: %d", days),
		Category: "validation",
		Action:   "リマインダー日数には0以上の整数を指定してください。",
	}
}

// NewInvalidDateError は日付が解析できない場合のエラーを生成する。
func NewInvalidDateError(field, value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("無効な日付です: %s=%q", field, value),
		Category: "validation",
		Action:   "日付はYYYY-MM-DD形式で指定してください。",
	}
}

// NewInvalidViewError は一覧ビューの指定が不正な場合のエラーを生成する。
func NewInvalidViewError(view string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidView,
		Message:  fmt.Sprintf("無効なビューです: %s", view),
		Category: "validation",
		Action:   "ビューには all、active、ending_soon、history のいずれかを指定してください。",
	}
}

// NewCategoryExistsError はカテゴリが既に存在する場合のエラーを生成する。
func NewCategoryExistsError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeCategoryExists,
		Message:  fmt.Sprintf("カテゴリは既に存在します: %s", name),
		Category: "validation",
		Action:   "別のカテゴリ名を指定してください。",
	}
}

// NewCategoryNotFoundError はカスタムカテゴリが見つからない場合のエラーを生成する。
func NewCategoryNotFoundError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeCategoryNotFound,
		Message:  fmt.Sprintf("指定されたカスタムカテゴリが見つかりません: %s", name),
		Category: "validation",
		Action:   "削除できるのはユーザー定義カテゴリのみです。",
	}
}

// NewNotifyDisabledError は通知が無効化されている場合のエラーを生成する。
func NewNotifyDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeNotifyDisabled,
		Message:  "通知配信が無効化されています。",
		Category: "system",
		Action:   "NOTIFY_WEBHOOK_URLを設定し、NOTIFY_ENABLEDをtrueにしてください。",
	}
}
