package model

import "time"

// お気に入り（同じ商品は1回だけ）
type Favorite struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_favorites_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_favorites_user_product" json:"product_id"`
	AddedAt   time.Time `gorm:"not null;autoCreateTime" json:"added_at"`
}
