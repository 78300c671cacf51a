package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type FavoriteRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.Favorite, error)
	// 既に登録済みなら ErrDuplicate
	Create(ctx context.Context, userID int64, productID int64) (model.Favorite, error)
	Delete(ctx context.Context, userID int64, productID int64) error
	DeleteByProductID(ctx context.Context, productID int64) (int64, error)
}
