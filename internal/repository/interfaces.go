// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/subzs/internal/model"
)

// SubscriptionRepository はサブスクリプションデータの永続化インターフェース。
type SubscriptionRepository interface {
	// FindByID は指定IDのサブスクリプションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Subscription, error)

	// ListAll は全サブスクリプションを作成日時昇順で返す。
	ListAll(ctx context.Context) ([]model.Subscription, error)

	// Create はサブスクリプションを作成する。
	Create(ctx context.Context, sub *model.Subscription) error

	// Replace はサブスクリプション全体を上書き更新する。
	Replace(ctx context.Context, sub *model.Subscription) error

	// SetArchived はアーカイブフラグを更新する。
	SetArchived(ctx context.Context, id string, archived bool) error

	// UpdateLogoURL はロゴURLのみを更新する。
	UpdateLogoURL(ctx context.Context, id, logoURL string) error

	// Delete は指定IDのサブスクリプションを削除する。
	Delete(ctx context.Context, id string) error

	// ListCategoriesInUse は登録済みサブスクリプションで使用中のカテゴリ一覧を返す。
	ListCategoriesInUse(ctx context.Context) ([]string, error)
}

// CategoryRepository はカスタムカテゴリの永続化インターフェース。
type CategoryRepository interface {
	// ListCustom はカスタムカテゴリ一覧を名前昇順で返す。
	ListCustom(ctx context.Context) ([]string, error)

	// Add はカスタムカテゴリを追加する。既に存在する場合はエラーを返さない。
	Add(ctx context.Context, name string) error

	// Remove はカスタムカテゴリを削除する。
	Remove(ctx context.Context, name string) error

	// Exists はカスタムカテゴリが存在するかを返す。
	Exists(ctx context.Context, name string) (bool, error)
}
