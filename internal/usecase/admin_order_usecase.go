package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 注文ステータスの遷移表。ここに無い組み合わせは通常操作では拒否する。
// 支払い待ち→支払い済みは決済通知、支払い済み→発送済みは出荷処理、
// 発送済み→完了は受取確認（または管理者）のルート。
var orderStatusTransitions = map[model.OrderStatus]map[model.OrderStatus]bool{
	model.OrderStatusPendingPayment: {
		model.OrderStatusPaid:      true,
		model.OrderStatusCancelled: true,
	},
	model.OrderStatusPaid: {
		model.OrderStatusShipped:   true,
		model.OrderStatusCancelled: true,
	},
	model.OrderStatusShipped: {
		model.OrderStatusCompleted: true,
	},
}

func canTransitOrder(from, to model.OrderStatus) bool {
	next, ok := orderStatusTransitions[from]
	return ok && next[to]
}

// 配送予定の遷移表。0→1→2→3の一本道＋未発送（0,1）からのキャンセル。
var planStatusTransitions = map[model.DeliveryPlanStatus]map[model.DeliveryPlanStatus]bool{
	model.DeliveryPlanPending: {
		model.DeliveryPlanConfirmed: true,
		model.DeliveryPlanCancelled: true,
	},
	model.DeliveryPlanConfirmed: {
		model.DeliveryPlanShipped:   true,
		model.DeliveryPlanCancelled: true,
	},
	model.DeliveryPlanShipped: {
		model.DeliveryPlanCompleted: true,
	},
}

func canTransitPlan(from, to model.DeliveryPlanStatus) bool {
	next, ok := planStatusTransitions[from]
	return ok && next[to]
}

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
}

func NewAdminOrderUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo}
}

type AdminUpdateOrderStatusInput struct {
	Status int
	//遷移表に無い変更を強行するフラグ。監査ログには別アクションで残る。
	Override bool
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items, nil))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 管理者による注文ステータス更新。遷移表で守り、カスケードも通常操作と同じにする。
// overrideのときだけ表に無い遷移を通し、別アクションで監査ログに残す。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(in.Status)
	switch newStatus {
	case model.OrderStatusPendingPayment, model.OrderStatusPaid, model.OrderStatusShipped,
		model.OrderStatusCompleted, model.OrderStatusCancelled:
		// OK
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}

		action := model.AuditActionUpdateOrderStatus
		if !canTransitOrder(o.Status, newStatus) {
			if !in.Override {
				return NewHTTPError(http.StatusConflict, "illegal status transition")
			}
			action = model.AuditActionOverrideOrderStatus
		}

		// キャンセルに落とすときは未発送分の予定と在庫を戻す（ユーザーのキャンセルと同じカスケード）
		if newStatus == model.OrderStatusCancelled {
			if _, err := cancelPlansAndRestock(ctx, r, orderID, actorAdminUserID, o.Status); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		// 完了に進めるときは発送済みの予定も完了へ
		if newStatus == model.OrderStatusCompleted {
			if _, err := r.DeliveryPlans().CompleteShippedByOrderID(ctx, orderID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		beforeStatus := o.Status
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       action,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   fmt.Sprintf(`{"status":%d}`, beforeStatus),
			AfterJSON:    fmt.Sprintf(`{"status":%d}`, newStatus),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})
}

type AdminUpdateDeliveryPlanStatusInput struct {
	Status int
}

// 物流側の進行に合わせて配送予定を1件ずつ進める（0→1→2→3、未発送からの4）。
// 条件付きUPDATEで現在値を確認しながら進めるので、同時操作でも二重には進まない。
func (u *AdminOrderUsecase) UpdateDeliveryPlanStatus(ctx context.Context, actorAdminUserID int64, planID int64, in AdminUpdateDeliveryPlanStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if planID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.DeliveryPlanStatus(in.Status)
	switch newStatus {
	case model.DeliveryPlanConfirmed, model.DeliveryPlanShipped,
		model.DeliveryPlanCompleted, model.DeliveryPlanCancelled:
		// OK
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.DeliveryPlans().FindByID(ctx, planID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if p.Status == newStatus {
			return nil
		}
		if !canTransitPlan(p.Status, newStatus) {
			return NewHTTPError(http.StatusConflict, "illegal status transition")
		}

		ok, err := r.DeliveryPlans().AdvanceStatus(ctx, planID, p.Status, newStatus)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			//取得してから誰かが先に進めた
			return NewHTTPError(http.StatusConflict, "illegal status transition")
		}

		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateDeliveryStatus,
			ResourceType: model.AuditResourceDeliveryPlan,
			ResourceID:   planID,
			BeforeJSON:   fmt.Sprintf(`{"status":%d}`, p.Status),
			AfterJSON:    fmt.Sprintf(`{"status":%d}`, newStatus),
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})
}
