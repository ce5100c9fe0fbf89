package model

import "time"

// 在庫調整の履歴。キャンセルによる在庫戻しは注文IDも残す。
// 操作者は管理者とは限らない（ユーザー自身のキャンセルでも行を作る）。
type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	ActorUserID int64     `gorm:"not null;index" json:"actor_user_id"`
	OrderID     *int64    `gorm:"index" json:"order_id"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
