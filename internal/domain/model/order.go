package model

import "time"

// 注文ステータス。決済・配送の連携先が数値コードで参照するためintで持つ。
type OrderStatus int

const (
	//支払い待ち
	OrderStatusPendingPayment OrderStatus = 0
	//支払い済み
	OrderStatusPaid OrderStatus = 1
	//発送済み
	OrderStatusShipped OrderStatus = 2
	//受取確認済み（終端）
	OrderStatusCompleted OrderStatus = 3
	//キャンセル（終端）
	OrderStatusCancelled OrderStatus = 4
)

// 終端ステータスかどうか。終端からの遷移は通常フローでは許可しない。
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// ギフト注文の種別（直接配送 / リンク受け取り）。
type GiftType string

const (
	GiftTypeDirect GiftType = "DIRECT"
	GiftTypeLink   GiftType = "LINK"
)

type Order struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo string `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_no"`
	UserID  int64  `gorm:"not null;index" json:"user_id"`
	//購入者が選んだ配送先。支払い確定時にスナップショットへ焼き込む。
	AddressID int64 `gorm:"not null" json:"address_id"`

	//合計金額（確定時スナップショット）
	Amount int64       `gorm:"not null" json:"amount"`
	Status OrderStatus `gorm:"not null;index" json:"status"`

	IsGift   bool     `gorm:"not null;default:false" json:"is_gift"`
	GiftType GiftType `gorm:"type:varchar(20)" json:"gift_type"`
	//ギフトカード文面（購入時スナップショット）
	GiftCard string `gorm:"type:text" json:"gift_card"`

	//支払い確定時に書き込む配送先スナップショット。未払いの間はnull。
	AddressSnapshot *string `gorm:"type:text" json:"address_snapshot"`

	IdempotencyKey string `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
