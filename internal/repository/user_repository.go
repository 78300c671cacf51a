package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（usernameが重複したら ErrDuplicate）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// プロフィール・パスワード・token_version・最終ログインなどの更新
	// usernameが重複したら ErrDuplicate
	Update(ctx context.Context, user *model.User) error
}
