package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	Sort       string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 見つからないIDはmapに入らない
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	// 無ければ ErrNotFound
	Delete(ctx context.Context, id int64) error
	// カテゴリ削除時にcategory_idをNULLへ
	ClearCategory(ctx context.Context, categoryID int64) (int64, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	// slugが重複したら ErrDuplicate
	Create(ctx context.Context, c model.Category) (model.Category, error)
	// 無ければ ErrNotFound
	Delete(ctx context.Context, id int64) error
}
