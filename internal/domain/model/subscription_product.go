package model

import "time"

// 定期便商品。支払い確定時にこの設定からN件の配送予定を作る。
type SubscriptionProduct struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`

	//配送回数（N）
	TotalDeliveries int `gorm:"not null" json:"total_deliveries"`
	//配送間隔（日数）
	IntervalDays int `gorm:"not null" json:"interval_days"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
