package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresCategoryRepo はPostgreSQLを使用したカスタムカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// ListCustom はカスタムカテゴリ一覧を名前昇順で返す。
func (r *PostgresCategoryRepo) ListCustom(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM custom_categories ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("カスタムカテゴリ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("カスタムカテゴリ行の読み取りに失敗しました: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カスタムカテゴリ一覧の走査に失敗しました: %w", err)
	}
	return names, nil
}

// Add はカスタムカテゴリを追加する。既に存在する場合は何もしない。
func (r *PostgresCategoryRepo) Add(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO custom_categories (name, created_at)
		 VALUES ($1, NOW())
		 ON CONFLICT (name) DO NOTHING`,
		name,
	)
	if err != nil {
		return fmt.Errorf("カスタムカテゴリの追加に失敗しました: %w", err)
	}
	return nil
}

// Remove はカスタムカテゴリを削除する。
func (r *PostgresCategoryRepo) Remove(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM custom_categories WHERE name = $1`,
		name,
	)
	if err != nil {
		return fmt.Errorf("カスタムカテゴリの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("カスタムカテゴリが見つかりません: %s", name)
	}
	return nil
}

// Exists はカスタムカテゴリが存在するかを返す。
func (r *PostgresCategoryRepo) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM custom_categories WHERE name = $1)`,
		name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("カスタムカテゴリの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
