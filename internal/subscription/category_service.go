package subscription

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/subzs/internal/catalog"
	"github.com/hitoshi/subzs/internal/model"
	"github.com/hitoshi/subzs/internal/repository"
)

// CategoryService はカテゴリ管理のサービス層。
// 組み込みカテゴリ・カスタムカテゴリ・使用中カテゴリを統合して提供する。
type CategoryService struct {
	catRepo repository.CategoryRepository
	subRepo repository.SubscriptionRepository
	catalog *catalog.Catalog
}

// NewCategoryService はCategoryServiceの新しいインスタンスを生成する。
func NewCategoryService(
	catRepo repository.CategoryRepository,
	subRepo repository.SubscriptionRepository,
	cat *catalog.Catalog,
) *CategoryService {
	return &CategoryService{
		catRepo: catRepo,
		subRepo: subRepo,
		catalog: cat,
	}
}

// List は利用可能な全カテゴリを重複なしソート済みで返す。
// 組み込みカテゴリ、カスタムカテゴリ、登録済みサブスクリプションで
// 使用中のカテゴリを統合する。
func (s *CategoryService) List(ctx context.Context) ([]string, error) {
	custom, err := s.catRepo.ListCustom(ctx)
	if err != nil {
		return nil, fmt.Errorf("カスタムカテゴリ一覧の取得に失敗しました: %w", err)
	}
	inUse, err := s.subRepo.ListCategoriesInUse(ctx)
	if err != nil {
		return nil, fmt.Errorf("使用中カテゴリ一覧の取得に失敗しました: %w", err)
	}
	return s.catalog.AllCategories(custom, inUse), nil
}

// Add はカスタムカテゴリを追加する。
// 組み込みカテゴリと同名、または既存のカスタムカテゴリと同名の場合はエラーを返す。
func (s *CategoryService) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.NewNameRequiredError()
	}
	if s.catalog.IsDefaultCategory(name) {
		return model.NewCategoryExistsError(name)
	}

	exists, err := s.catRepo.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("カスタムカテゴリの存在確認に失敗しました: %w", err)
	}
	if exists {
		return model.NewCategoryExistsError(name)
	}

	if err := s.catRepo.Add(ctx, name); err != nil {
		return fmt.Errorf("カスタムカテゴリの追加に失敗しました: %w", err)
	}
	return nil
}

// Remove はカスタムカテゴリを削除する。
// 削除できるのはカスタムカテゴリのみで、組み込みカテゴリは削除できない。
func (s *CategoryService) Remove(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if s.catalog.IsDefaultCategory(name) {
		return model.NewCategoryNotFoundError(name)
	}

	exists, err := s.catRepo.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("カスタムカテゴリの存在確認に失敗しました: %w", err)
	}
	if !exists {
		return model.NewCategoryNotFoundError(name)
	}

	if err := s.catRepo.Remove(ctx, name); err != nil {
		return fmt.Errorf("カスタムカテゴリの削除に失敗しました: %w", err)
	}
	return nil
}
