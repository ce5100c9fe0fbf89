package model

import "time"

// ギフト明細の受け取り状態。
type GiftStatus int

const (
	//未受け取り（receiver未確定）
	GiftStatusUnclaimed GiftStatus = 0
	//受け取り済み
	GiftStatusClaimed GiftStatus = 1
)

type OrderItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64 `gorm:"not null;index" json:"order_id"`
	ProductID int64 `gorm:"not null;index" json:"product_id"`

	ProductNameSnapshot string `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   int64  `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64  `gorm:"not null" json:"quantity"`

	//受取人のユーザーID。null→確定の一方向のみ。一度入ったら二度と書き換えない。
	ReceiverID *int64     `gorm:"index" json:"receiver_id"`
	GiftStatus GiftStatus `gorm:"not null;default:0" json:"gift_status"`

	GiftMessage      string `gorm:"type:text" json:"gift_message"`
	GiftReceiverName string `gorm:"type:varchar(255)" json:"gift_receiver_name"`
	GiftRelationship string `gorm:"type:varchar(50)" json:"gift_relationship"`

	//定期便商品のID。単発購入はnull。
	SubscriptionProductID *int64 `gorm:"index" json:"subscription_product_id"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
