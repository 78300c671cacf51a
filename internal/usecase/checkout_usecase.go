package usecase

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CheckoutUsecase はカート→注文の確定処理です。
type CheckoutUsecase struct {
	tx repo.TransactionManager
}

func NewCheckoutUsecase(tx repo.TransactionManager) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx}
}

type CheckoutInput struct {
	ShippingAddress string
}

// Checkout はカートの中身から注文を作り、カートを空にする。
// 注文・注文明細の作成と明細削除は1トランザクション（途中で失敗したら全部戻す）。
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewError(KindUnauthorized, "unauthorized")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//カートをロックして取得（同時チェックアウト対策）
		cart, err := r.Carts().LockByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindEmptyCart, "cart is empty")
		}
		if err != nil {
			return storeError(err)
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return storeError(err)
		}
		if len(cartItems) == 0 {
			return NewError(KindEmptyCart, "cart is empty")
		}

		valid, errs := validator.Checkout(validator.CheckoutInput{ShippingAddress: in.ShippingAddress})
		if errs != nil {
			return validationError(errs)
		}

		ids := make([]int64, 0, len(cartItems))
		for _, ci := range cartItems {
			ids = append(ids, ci.ProductID)
		}
		products, err := r.Products().FindByIDs(ctx, ids)
		if err != nil {
			return storeError(err)
		}

		//価格は今の商品価格でスナップショット
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		total := decimal.Zero
		for _, ci := range cartItems {
			p, ok := products[ci.ProductID]
			if !ok {
				return storeError(fmt.Errorf("product %d: %w", ci.ProductID, repo.ErrNotFound))
			}
			it := model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    ci.Quantity,
				Price:       p.Price,
			}
			orderItems = append(orderItems, it)
			total = total.Add(it.LineTotal())
		}

		order, err := r.Orders().Create(ctx, model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPending,
			TotalPrice:      total,
			ShippingAddress: valid.ShippingAddress,
		})
		if err != nil {
			return storeError(err)
		}

		created, err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems)
		if err != nil {
			return storeError(err)
		}

		//カート明細を全削除
		if _, err := r.CartItems().DeleteByCartID(ctx, cart.ID); err != nil {
			return storeError(err)
		}

		out = toOrderOutput(order, created)
		return nil
	})
	if err != nil {
		return OrderOutput{}, asAppError(err)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("order_id", out.ID).
		Str("total", out.TotalPrice.StringFixed(2)).
		Msg("order placed")

	return out, nil
}
