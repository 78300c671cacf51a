package usecase

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/shopspring/decimal"
)

// 競合時にupsertをやり直す上限
const maxUpsertAttempts = 3

// CartUsecase はカートの業務ロジックです。
// 操作するユーザーは必ず引数で受け取ります（グローバルな状態は持たない）。
type CartUsecase struct {
	tx       repo.TransactionManager
	carts    repo.CartRepository
	items    repo.CartItemRepository
	products repo.ProductRepository
}

func NewCartUsecase(
	tx repo.TransactionManager,
	carts repo.CartRepository,
	items repo.CartItemRepository,
	products repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		tx:       tx,
		carts:    carts,
		items:    items,
		products: products,
	}
}

type CartItemOutput struct {
	ID        int64           `json:"id"`
	Product   ProductOutput   `json:"product"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartOutput struct {
	ID    int64            `json:"id"`
	Items []CartItemOutput `json:"items"`
	Total decimal.Decimal  `json:"total"`
}

// 件数（数量の合計）
func (c CartOutput) Count() int64 {
	var n int64
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// 変更結果。画面側はメッセージ作成に、APIはCartだけ使う。
type CartMutation struct {
	Cart        CartOutput
	ProductName string
	// 変更後の数量（削除されたら0）
	Quantity int64
	Removed  bool
}

type AddItemInput struct {
	ProductID int64
	Quantity  int64
}

// GetOrCreateCart はユーザーのカートを返す（無ければ作る）。
func (u *CartUsecase) GetOrCreateCart(ctx context.Context, userID int64) (model.Cart, error) {
	if userID <= 0 {
		return model.Cart{}, NewError(KindUnauthorized, "unauthorized")
	}
	return getOrCreateCart(ctx, u.carts, userID)
}

// 探す→無ければ作る→一意制約で負けたら取り直す
func getOrCreateCart(ctx context.Context, carts repo.CartRepository, userID int64) (model.Cart, error) {
	cart, err := carts.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, storeError(err)
	}

	cart, err = carts.Create(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repo.ErrDuplicate) {
		return model.Cart{}, storeError(err)
	}

	//同時リクエストが先に作った
	cart, err = carts.FindByUserID(ctx, userID)
	if err != nil {
		return model.Cart{}, storeError(err)
	}
	return cart, nil
}

// GetCart はカートの中身と合計を返す（表示時にも遅延作成する）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartOutput, error) {
	cart, err := u.GetOrCreateCart(ctx, userID)
	if err != nil {
		return CartOutput{}, err
	}
	return u.buildCart(ctx, u.items, u.products, cart.ID)
}

// AddItem は商品を追加する。同じ商品なら数量を加算。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddItemInput) (CartMutation, error) {
	if userID <= 0 {
		return CartMutation{}, NewError(KindUnauthorized, "unauthorized")
	}
	valid, errs := validator.AddItem(validator.AddItemInput{ProductID: in.ProductID, Quantity: in.Quantity})
	if errs != nil {
		return CartMutation{}, validationError(errs)
	}

	p, err := u.products.FindByID(ctx, valid.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartMutation{}, notFound()
	}
	if err != nil {
		return CartMutation{}, storeError(err)
	}

	cart, err := getOrCreateCart(ctx, u.carts, userID)
	if err != nil {
		return CartMutation{}, err
	}

	if err := u.upsertItem(ctx, cart.ID, p.ID, valid.Quantity); err != nil {
		return CartMutation{}, err
	}

	out, err := u.buildCart(ctx, u.items, u.products, cart.ID)
	if err != nil {
		return CartMutation{}, err
	}
	return CartMutation{
		Cart:        out,
		ProductName: p.Name,
		Quantity:    lineQuantity(out, p.ID),
	}, nil
}

// 既存行があれば加算、無ければ作成。
// 作成が一意制約で負けたら次の周回で加算に回る。
func (u *CartUsecase) upsertItem(ctx context.Context, cartID int64, productID int64, qty int64) error {
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		item, err := u.items.FindByCartAndProduct(ctx, cartID, productID)
		if err == nil {
			err = u.items.AddQuantity(ctx, item.ID, qty)
			if err == nil {
				return nil
			}
			if !errors.Is(err, repo.ErrNotFound) {
				return storeError(err)
			}
			// 加算前に消された
			continue
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return storeError(err)
		}

		_, err = u.items.Create(ctx, model.CartItem{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  qty,
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repo.ErrDuplicate) {
			return storeError(err)
		}
	}
	return storeError(fmt.Errorf("cart %d product %d: upsert did not settle", cartID, productID))
}

// SetQuantity は数量を指定値にする。0以下なら明細を削除（エラーにしない）。
func (u *CartUsecase) SetQuantity(ctx context.Context, userID int64, cartItemID int64, qty int64) (CartMutation, error) {
	return u.changeQuantity(ctx, userID, cartItemID, func(current int64) int64 {
		return qty
	})
}

// Increase は数量+1
func (u *CartUsecase) Increase(ctx context.Context, userID int64, cartItemID int64) (CartMutation, error) {
	return u.changeQuantity(ctx, userID, cartItemID, func(current int64) int64 {
		return current + 1
	})
}

// Decrease は数量-1。1を下回るなら削除。
func (u *CartUsecase) Decrease(ctx context.Context, userID int64, cartItemID int64) (CartMutation, error) {
	return u.changeQuantity(ctx, userID, cartItemID, func(current int64) int64 {
		return current - 1
	})
}

// 所有チェック→新しい数量を決めて更新or削除、を1トランザクションで行う。
func (u *CartUsecase) changeQuantity(ctx context.Context, userID int64, cartItemID int64, next func(current int64) int64) (CartMutation, error) {
	if userID <= 0 {
		return CartMutation{}, NewError(KindUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartMutation{}, notFound()
	}

	var out CartMutation
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		item, err := r.CartItems().FindByIDForUser(ctx, cartItemID, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		if err != nil {
			return storeError(err)
		}

		p, err := r.Products().FindByID(ctx, item.ProductID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return storeError(err)
		}

		qty := next(item.Quantity)
		if qty <= 0 {
			if err := r.CartItems().DeleteByID(ctx, item.ID); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return notFound()
				}
				return storeError(err)
			}
			out.Removed = true
		} else {
			if err := r.CartItems().UpdateQuantity(ctx, item.ID, qty); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return notFound()
				}
				return storeError(err)
			}
			out.Quantity = qty
		}
		out.ProductName = p.Name

		cart, err := u.buildCart(ctx, r.CartItems(), r.Products(), item.CartID)
		if err != nil {
			return err
		}
		out.Cart = cart
		return nil
	})
	if err != nil {
		return CartMutation{}, asAppError(err)
	}
	return out, nil
}

// RemoveItem は明細を削除する。他人の明細や存在しない明細は not found。
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, cartItemID int64) (CartMutation, error) {
	if userID <= 0 {
		return CartMutation{}, NewError(KindUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartMutation{}, notFound()
	}

	item, err := u.items.FindByIDForUser(ctx, cartItemID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartMutation{}, notFound()
	}
	if err != nil {
		return CartMutation{}, storeError(err)
	}

	var name string
	if p, err := u.products.FindByID(ctx, item.ProductID); err == nil {
		name = p.Name
	}

	if err := u.items.DeleteByID(ctx, item.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartMutation{}, notFound()
		}
		return CartMutation{}, storeError(err)
	}

	out, err := u.buildCart(ctx, u.items, u.products, item.CartID)
	if err != nil {
		return CartMutation{}, err
	}
	return CartMutation{Cart: out, ProductName: name, Removed: true}, nil
}

// Clear はカートを空にする。カートが無い・空でもエラーにしない。
// 戻り値は削除した明細数。
func (u *CartUsecase) Clear(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, NewError(KindUnauthorized, "unauthorized")
	}

	cart, err := u.carts.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, storeError(err)
	}

	n, err := u.items.DeleteByCartID(ctx, cart.ID)
	if err != nil {
		return 0, storeError(err)
	}
	return n, nil
}

// Total は現在の商品価格で毎回計算する（保存しない）。
func (u *CartUsecase) Total(ctx context.Context, userID int64) (decimal.Decimal, error) {
	if userID <= 0 {
		return decimal.Zero, NewError(KindUnauthorized, "unauthorized")
	}

	cart, err := u.carts.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, storeError(err)
	}

	out, err := u.buildCart(ctx, u.items, u.products, cart.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return out.Total, nil
}

// cartIDの明細と商品の現在価格からCartOutputを作る。
func (u *CartUsecase) buildCart(ctx context.Context, items repo.CartItemRepository, products repo.ProductRepository, cartID int64) (CartOutput, error) {
	lines, err := items.ListByCartID(ctx, cartID)
	if err != nil {
		return CartOutput{}, storeError(err)
	}

	ids := make([]int64, 0, len(lines))
	for _, it := range lines {
		ids = append(ids, it.ProductID)
	}
	byID, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return CartOutput{}, storeError(err)
	}

	out := CartOutput{ID: cartID, Items: make([]CartItemOutput, 0, len(lines)), Total: decimal.Zero}
	for _, it := range lines {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		line := p.Price.Mul(decimal.NewFromInt(it.Quantity))
		out.Items = append(out.Items, CartItemOutput{
			ID:        it.ID,
			Product:   toProductOutput(p),
			Quantity:  it.Quantity,
			LineTotal: line,
		})
		out.Total = out.Total.Add(line)
	}
	return out, nil
}

func lineQuantity(c CartOutput, productID int64) int64 {
	for _, it := range c.Items {
		if it.Product.ID == productID {
			return it.Quantity
		}
	}
	return 0
}

// Tx経由で返ってきたエラーを *Error に揃える（commit失敗など）
func asAppError(err error) error {
	if _, ok := AsError(err); ok {
		return err
	}
	return storeError(err)
}
