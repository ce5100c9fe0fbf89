package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

// 需要予測用に商品まで結合した1行。
type ForecastRow struct {
	PlanID            int64
	OrderItemID       int64
	ProductID         int64
	ProductName       string
	Quantity          int64
	DeliveryStartDate time.Time
	DeliveryEndDate   time.Time
	Status            model.DeliveryPlanStatus
}

type DeliveryPlanRepository interface {
	CreateBulk(ctx context.Context, plans []model.DeliveryPlan) error
	FindByID(ctx context.Context, planID int64) (model.DeliveryPlan, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.DeliveryPlan, error)
	ListByOrderItemID(ctx context.Context, orderItemID int64) ([]model.DeliveryPlan, error)

	//今のステータスがfromのときだけtoへ進める。0件更新ならfalse。
	AdvanceStatus(ctx context.Context, planID int64, from, to model.DeliveryPlanStatus) (bool, error)

	//注文キャンセルのカスケード。明細の未発送（0,1）だけを一括でキャンセルに落とす。
	//発送済み・配達完了はこのUPDATEの対象外。更新件数を返す（在庫戻し量の根拠になる）。
	CancelPendingByOrderItemID(ctx context.Context, orderItemID int64) (int64, error)

	//受取確認のカスケード。発送済み（2）を配達完了（3）へ一括で進める。
	CompleteShippedByOrderID(ctx context.Context, orderID int64) (int64, error)

	//ギフト受け取り確定時に未発送分の受取人スナップショットを差し替える。
	UpdateReceiverByOrderItemID(ctx context.Context, orderItemID int64, name, phone string) error

	//需要予測の対象行。status∈{0,1}かつお届け開始日が[from, to]のもの。
	ListForForecast(ctx context.Context, from, to time.Time) ([]ForecastRow, error)
}
