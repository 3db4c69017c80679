package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/subzs/internal/model"
)

// PostgresSubscriptionRepo はPostgreSQLを使用したサブスクリプションリポジトリ。
type PostgresSubscriptionRepo struct {
	db *sql.DB
}

// NewPostgresSubscriptionRepo はPostgresSubscriptionRepoを生成する。
func NewPostgresSubscriptionRepo(db *sql.DB) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{db: db}
}

const subscriptionColumns = `id, name, price, billing_cycle, start_date, end_date, end_date_manual,
	 reminder_days, category, color, logo_url, sound_tone, is_archived, created_at, updated_at`

// FindByID は指定IDのサブスクリプションを取得する。見つからない場合はnilを返す。
func (r *PostgresSubscriptionRepo) FindByID(ctx context.Context, id string) (*model.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`,
		id,
	)

	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("サブスクリプションの取得に失敗しました: %w", err)
	}
	return sub, nil
}

// ListAll は全サブスクリプションを作成日時昇順で返す。
// 日付がNULLの行も除外せず、ゼロ値の日付として読み出す。
func (r *PostgresSubscriptionRepo) ListAll(ctx context.Context) ([]model.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("サブスクリプション一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("サブスクリプション行の読み取りに失敗しました: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("サブスクリプション一覧の走査に失敗しました: %w", err)
	}
	return subs, nil
}

// Create はサブスクリプションを作成する。
func (r *PostgresSubscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		sub.ID, sub.Name, sub.Price, sub.BillingCycle,
		nullableDate(sub.StartDate), nullableDate(sub.EndDate), sub.EndDateManual,
		sub.ReminderDays, sub.Category, sub.Color, sub.LogoURL, sub.SoundTone,
		sub.IsArchived, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("サブスクリプションの作成に失敗しました: %w", err)
	}
	return nil
}

// Replace はサブスクリプション全体を上書き更新する。
func (r *PostgresSubscriptionRepo) Replace(ctx context.Context, sub *model.Subscription) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET
			name = $2, price = $3, billing_cycle = $4, start_date = $5, end_date = $6,
			end_date_manual = $7, reminder_days = $8, category = $9, color = $10,
			logo_url = $11, sound_tone = $12, is_archived = $13, updated_at = $14
		 WHERE id = $1`,
		sub.ID, sub.Name, sub.Price, sub.BillingCycle,
		nullableDate(sub.StartDate), nullableDate(sub.EndDate), sub.EndDateManual,
		sub.ReminderDays, sub.Category, sub.Color, sub.LogoURL, sub.SoundTone,
		sub.IsArchived, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("サブスクリプションの更新に失敗しました: %w", err)
	}
	return requireRowAffected(result, sub.ID)
}

// SetArchived はアーカイブフラグを更新する。
func (r *PostgresSubscriptionRepo) SetArchived(ctx context.Context, id string, archived bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET is_archived = $2, updated_at = NOW() WHERE id = $1`,
		id, archived,
	)
	if err != nil {
		return fmt.Errorf("アーカイブ状態の更新に失敗しました: %w", err)
	}
	return requireRowAffected(result, id)
}

// UpdateLogoURL はロゴURLのみを更新する。
func (r *PostgresSubscriptionRepo) UpdateLogoURL(ctx context.Context, id, logoURL string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET logo_url = $2, updated_at = NOW() WHERE id = $1`,
		id, logoURL,
	)
	if err != nil {
		return fmt.Errorf("ロゴURLの更新に失敗しました: %w", err)
	}
	return requireRowAffected(result, id)
}

// Delete は指定IDのサブスクリプションを削除する。
func (r *PostgresSubscriptionRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("サブスクリプションの削除に失敗しました: %w", err)
	}
	return requireRowAffected(result, id)
}

// ListCategoriesInUse は登録済みサブスクリプションで使用中のカテゴリ一覧を返す。
func (r *PostgresSubscriptionRepo) ListCategoriesInUse(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM subscriptions WHERE category <> '' ORDER BY category ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("使用中カテゴリ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("カテゴリ行の読み取りに失敗しました: %w", err)
		}
		categories = append(categories, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("使用中カテゴリ一覧の走査に失敗しました: %w", err)
	}
	return categories, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSubscription は1行をモデルに読み出す。
// start_date / end_date はNULL許容で、NULLはゼロ値のtime.Timeにマップする。
func scanSubscription(row rowScanner) (*model.Subscription, error) {
	sub := &model.Subscription{}
	var startDate, endDate sql.NullTime
	err := row.Scan(
		&sub.ID, &sub.Name, &sub.Price, &sub.BillingCycle,
		&startDate, &endDate, &sub.EndDateManual,
		&sub.ReminderDays, &sub.Category, &sub.Color, &sub.LogoURL, &sub.SoundTone,
		&sub.IsArchived, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startDate.Valid {
		sub.StartDate = startDate.Time
	}
	if endDate.Valid {
		sub.EndDate = endDate.Time
	}
	return sub, nil
}

// nullableDate はゼロ値の日付をNULLとして保存する。
func nullableDate(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func requireRowAffected(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("サブスクリプションが見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
