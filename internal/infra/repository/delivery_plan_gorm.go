package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type DeliveryPlanGormRepository struct {
	db *gorm.DB
}

func NewDeliveryPlanGormRepository(db *gorm.DB) *DeliveryPlanGormRepository {
	return &DeliveryPlanGormRepository{db: db}
}

func (r *DeliveryPlanGormRepository) CreateBulk(ctx context.Context, plans []model.DeliveryPlan) error {
	if len(plans) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&plans).Error; err != nil {
		return err
	}
	return nil
}

func (r *DeliveryPlanGormRepository) FindByID(ctx context.Context, planID int64) (model.DeliveryPlan, error) {
	var p model.DeliveryPlan
	err := r.db.WithContext(ctx).Where("id = ?", planID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DeliveryPlan{}, repo.ErrNotFound
	}
	if err != nil {
		return model.DeliveryPlan{}, err
	}
	return p, nil
}

func (r *DeliveryPlanGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.DeliveryPlan, error) {
	var plans []model.DeliveryPlan
	err := r.db.WithContext(ctx).
		Where("order_item_id IN (?)",
			r.db.Model(&model.OrderItem{}).Select("id").Where("order_id = ?", orderID),
		).
		Order("order_item_id asc, delivery_sequence asc").
		Find(&plans).Error
	if err != nil {
		return []model.DeliveryPlan{}, err
	}
	return plans, nil
}

func (r *DeliveryPlanGormRepository) ListByOrderItemID(ctx context.Context, orderItemID int64) ([]model.DeliveryPlan, error) {
	var plans []model.DeliveryPlan
	err := r.db.WithContext(ctx).
		Where("order_item_id = ?", orderItemID).
		Order("delivery_sequence asc").
		Find(&plans).Error
	if err != nil {
		return []model.DeliveryPlan{}, err
	}
	return plans, nil
}

// fromのときだけtoへ。進んだ後に逆行させない。
func (r *DeliveryPlanGormRepository) AdvanceStatus(ctx context.Context, planID int64, from, to model.DeliveryPlanStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.DeliveryPlan{}).
		Where("id = ? AND status = ?", planID, from).
		Update("status", to)

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// キャンセルカスケード。明細の未発送（0,1）だけを集合で一括更新する。
// 読み→書きの2段にすると同時の発送処理と競合するので1発のUPDATEで行う。
// 更新件数は呼び出し側が在庫戻し量の計算に使う。
func (r *DeliveryPlanGormRepository) CancelPendingByOrderItemID(ctx context.Context, orderItemID int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.DeliveryPlan{}).
		Where("order_item_id = ?", orderItemID).
		Where("status IN ?", []model.DeliveryPlanStatus{model.DeliveryPlanPending, model.DeliveryPlanConfirmed}).
		Update("status", model.DeliveryPlanCancelled)

	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// 受取確認カスケード。発送済み（2）を配達完了（3）へ。
func (r *DeliveryPlanGormRepository) CompleteShippedByOrderID(ctx context.Context, orderID int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.DeliveryPlan{}).
		Where("order_item_id IN (?)",
			r.db.Model(&model.OrderItem{}).Select("id").Where("order_id = ?", orderID),
		).
		Where("status = ?", model.DeliveryPlanShipped).
		Update("status", model.DeliveryPlanCompleted)

	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ギフト受け取り確定後、未発送分の宛先を受取人に差し替える。
func (r *DeliveryPlanGormRepository) UpdateReceiverByOrderItemID(ctx context.Context, orderItemID int64, name, phone string) error {
	res := r.db.WithContext(ctx).Model(&model.DeliveryPlan{}).
		Where("order_item_id = ?", orderItemID).
		Where("status IN ?", []model.DeliveryPlanStatus{model.DeliveryPlanPending, model.DeliveryPlanConfirmed}).
		Updates(map[string]interface{}{
			"receiver_name":  name,
			"receiver_phone": phone,
		})
	return res.Error
}

// 需要予測の対象行を商品まで結合して返す。status∈{0,1}かつ開始日が[from, to]。
func (r *DeliveryPlanGormRepository) ListForForecast(ctx context.Context, from, to time.Time) ([]repo.ForecastRow, error) {
	var rows []repo.ForecastRow
	err := r.db.WithContext(ctx).Model(&model.DeliveryPlan{}).
		Select(`delivery_plans.id AS plan_id,
			delivery_plans.order_item_id,
			order_items.product_id,
			products.name AS product_name,
			order_items.quantity,
			delivery_plans.delivery_start_date,
			delivery_plans.delivery_end_date,
			delivery_plans.status`).
		Joins("JOIN order_items ON order_items.id = delivery_plans.order_item_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("delivery_plans.status IN ?", []model.DeliveryPlanStatus{model.DeliveryPlanPending, model.DeliveryPlanConfirmed}).
		Where("delivery_plans.delivery_start_date BETWEEN ? AND ?", from, to).
		Scan(&rows).Error
	if err != nil {
		return []repo.ForecastRow{}, err
	}
	return rows, nil
}
