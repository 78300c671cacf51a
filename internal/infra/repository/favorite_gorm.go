package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type FavoriteGormRepository struct {
	db *gorm.DB
}

func NewFavoriteGormRepository(db *gorm.DB) *FavoriteGormRepository {
	return &FavoriteGormRepository{db: db}
}

// 新しい順
func (r *FavoriteGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Favorite, error) {
	var favs []model.Favorite
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at desc").
		Order("id desc").
		Find(&favs).Error
	if err != nil {
		return []model.Favorite{}, err
	}
	return favs, nil
}

func (r *FavoriteGormRepository) Create(ctx context.Context, userID int64, productID int64) (model.Favorite, error) {
	f := model.Favorite{UserID: userID, ProductID: productID, AddedAt: time.Now()}
	if err := r.db.WithContext(ctx).Create(&f).Error; err != nil {
		return model.Favorite{}, translateWriteErr(err)
	}
	return f, nil
}

func (r *FavoriteGormRepository) Delete(ctx context.Context, userID int64, productID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *FavoriteGormRepository) DeleteByProductID(ctx context.Context, productID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&model.Favorite{})
	return res.RowsAffected, res.Error
}
