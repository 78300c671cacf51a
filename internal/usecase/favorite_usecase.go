package usecase

import (
	"context"
	"errors"
	"time"

	repo "storefront/internal/repository"
)

type FavoriteUsecase struct {
	favorites repo.FavoriteRepository
	products  repo.ProductRepository
}

func NewFavoriteUsecase(favorites repo.FavoriteRepository, products repo.ProductRepository) *FavoriteUsecase {
	return &FavoriteUsecase{favorites: favorites, products: products}
}

type FavoriteOutput struct {
	ID      int64         `json:"id"`
	Product ProductOutput `json:"product"`
	AddedAt time.Time     `json:"added_at"`
}

// 新しい順。商品が消えたものは出さない。
func (u *FavoriteUsecase) List(ctx context.Context, userID int64) ([]FavoriteOutput, error) {
	favs, err := u.favorites.ListByUserID(ctx, userID)
	if err != nil {
		return []FavoriteOutput{}, storeError(err)
	}
	if len(favs) == 0 {
		return []FavoriteOutput{}, nil
	}

	ids := make([]int64, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.ProductID)
	}
	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return []FavoriteOutput{}, storeError(err)
	}

	out := make([]FavoriteOutput, 0, len(favs))
	for _, f := range favs {
		p, ok := products[f.ProductID]
		if !ok {
			continue
		}
		out = append(out, FavoriteOutput{ID: f.ID, Product: toProductOutput(p), AddedAt: f.AddedAt})
	}
	return out, nil
}

// Add は登録済みでもエラーにしない。2回目はcreated=false。
func (u *FavoriteUsecase) Add(ctx context.Context, userID int64, productID int64) (bool, error) {
	if productID <= 0 {
		return false, notFound()
	}
	if _, err := u.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, notFound()
		}
		return false, storeError(err)
	}

	_, err := u.favorites.Create(ctx, userID, productID)
	if errors.Is(err, repo.ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, storeError(err)
	}
	return true, nil
}

func (u *FavoriteUsecase) Remove(ctx context.Context, userID int64, productID int64) error {
	err := u.favorites.Delete(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return notFound()
	}
	if err != nil {
		return storeError(err)
	}
	return nil
}
