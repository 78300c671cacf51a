package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartRepository interface {
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// FindByUserID と同じだが行ロックを取る（トランザクション内で使う）
	LockByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// user_idが重複したら ErrDuplicate
	Create(ctx context.Context, userID int64) (model.Cart, error)
}
