package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartItem, error)
	// 明細がuserのカートに属していなければ ErrNotFound
	FindByIDForUser(ctx context.Context, cartItemID int64, userID int64) (model.CartItem, error)
	// (cart_id, product_id)が重複したら ErrDuplicate
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	// quantity = quantity + delta
	AddQuantity(ctx context.Context, cartItemID int64, delta int64) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	// カートの明細を全削除して件数を返す
	DeleteByCartID(ctx context.Context, cartID int64) (int64, error)
	// 商品削除時に全カートから外す
	DeleteByProductID(ctx context.Context, productID int64) (int64, error)
}
