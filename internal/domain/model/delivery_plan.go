package model

import "time"

// 配送予定のステータス。注文とは別に1件ずつ進む。
type DeliveryPlanStatus int

const (
	//確定待ち
	DeliveryPlanPending DeliveryPlanStatus = 0
	//確定済み
	DeliveryPlanConfirmed DeliveryPlanStatus = 1
	//発送済み（以降キャンセルカスケードの対象外）
	DeliveryPlanShipped DeliveryPlanStatus = 2
	//配達完了（終端）
	DeliveryPlanCompleted DeliveryPlanStatus = 3
	//キャンセル（終端）
	DeliveryPlanCancelled DeliveryPlanStatus = 4
)

// 1回分の配送予定。定期便は明細1件からN件ぶら下がる。
type DeliveryPlan struct {
	ID          int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderItemID int64 `gorm:"not null;index" json:"order_item_id"`

	//お届け開始日（この日から配達に回す）
	DeliveryStartDate time.Time `gorm:"not null;index" json:"delivery_start_date"`
	//お届け期限。これを過ぎると至急扱い。
	DeliveryEndDate time.Time `gorm:"not null" json:"delivery_end_date"`

	//定期便内の回数（1..N）。単発は常に1。
	DeliverySequence int `gorm:"not null;default:1" json:"delivery_sequence"`

	Status DeliveryPlanStatus `gorm:"not null;index" json:"status"`

	SubscriptionProductID *int64 `gorm:"index" json:"subscription_product_id"`

	//受取人スナップショット（ギフト受け取り確定時に上書きされる）
	ReceiverName  string `gorm:"type:varchar(255)" json:"receiver_name"`
	ReceiverPhone string `gorm:"type:varchar(30)" json:"receiver_phone"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
