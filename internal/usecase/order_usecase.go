package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
)

// 配送予定の既定スケジュール。
// 支払い確定の翌日から配達に回し、開始から2日以内をお届け期限とする。
const (
	deliveryLeadDays   = 1
	deliveryWindowDays = 2
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
}

func NewOrderUsecase(tx repo.TransactionManager, addresses repo.AddressRepository) *OrderUsecase {
	return &OrderUsecase{tx: tx, addresses: addresses}
}

type PlaceOrderItemInput struct {
	ProductID             int64
	Quantity              int64
	SubscriptionProductID *int64
	GiftMessage           string
	GiftReceiverName      string
	GiftRelationship      string
}

type PlaceOrderInput struct {
	AddressID      int64
	IdempotencyKey string
	IsGift         bool
	GiftType       string
	GiftCard       string
	Items          []PlaceOrderItemInput
}

type OrderItemOutput struct {
	ID               int64  `json:"id"`
	ProductID        int64  `json:"product_id"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	Quantity         int64  `json:"quantity"`
	ReceiverID       *int64 `json:"receiver_id"`
	GiftStatus       int    `json:"gift_status"`
	GiftMessage      string `json:"gift_message,omitempty"`
	GiftReceiverName string `json:"gift_receiver_name,omitempty"`
	GiftRelationship string `json:"gift_relationship,omitempty"`
}

type DeliveryPlanOutput struct {
	ID                int64     `json:"id"`
	OrderItemID       int64     `json:"order_item_id"`
	DeliveryStartDate time.Time `json:"delivery_start_date"`
	DeliveryEndDate   time.Time `json:"delivery_end_date"`
	DeliverySequence  int       `json:"delivery_sequence"`
	Status            int       `json:"status"`
	ReceiverName      string    `json:"receiver_name"`
	ReceiverPhone     string    `json:"receiver_phone"`
}

type OrderOutput struct {
	ID              int64                `json:"id"`
	OrderNo         string               `json:"order_no"`
	UserID          int64                `json:"user_id"`
	Status          int                  `json:"status"`
	Amount          int64                `json:"amount"`
	IsGift          bool                 `json:"is_gift"`
	GiftType        string               `json:"gift_type,omitempty"`
	AddressSnapshot *string              `json:"address_snapshot"`
	CreatedAt       time.Time            `json:"created_at"`
	Items           []OrderItemOutput    `json:"items"`
	Plans           []DeliveryPlanOutput `json:"plans,omitempty"`
}

type ConfirmReceiptOutput struct {
	OrderID int64  `json:"order_id"`
	OrderNo string `json:"order_no"`
}

// 注文番号。人間が読める接頭辞＋UUID先頭。
func newOrderNo() string {
	return "FS-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.AddressID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid address_id")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "empty items")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid item")
		}
	}
	if in.IsGift && in.GiftType != string(model.GiftTypeDirect) && in.GiftType != string(model.GiftTypeLink) {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid gift_type")
	}

	//address_idの存在確認＋所有チェック
	addr, err := u.addresses.FindByID(ctx, in.AddressID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//所有チェック（他人の住所なら403）
	if addr.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	var out OrderOutput

	//注文処理はトランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(existing, items, nil)
			return nil
		}

		//在庫を確定時に再チェックして減らす
		orderItems := make([]model.OrderItem, 0, len(in.Items))
		var total int64 = 0

		for _, it := range in.Items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "invalid product")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "invalid product")
			}

			//定期便の場合は回数分の在庫を押さえる
			qty := it.Quantity
			if it.SubscriptionProductID != nil {
				sp, err := r.SubscriptionProducts().FindByID(ctx, *it.SubscriptionProductID)
				if errors.Is(err, repo.ErrNotFound) || (err == nil && !sp.IsActive) {
					return NewHTTPError(http.StatusBadRequest, "invalid subscription")
				}
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				qty = it.Quantity * int64(sp.TotalDeliveries)
			}

			//在庫減算（足りないなら false）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, qty)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}

			//スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:             it.ProductID,
				ProductNameSnapshot:   p.Name,
				UnitPriceSnapshot:     p.Price,
				Quantity:              it.Quantity,
				GiftStatus:            model.GiftStatusUnclaimed,
				GiftMessage:           it.GiftMessage,
				GiftReceiverName:      it.GiftReceiverName,
				GiftRelationship:      it.GiftRelationship,
				SubscriptionProductID: it.SubscriptionProductID,
			})

			total += p.Price * it.Quantity
		}

		now := time.Now()
		order := model.Order{
			OrderNo:        newOrderNo(),
			UserID:         userID,
			AddressID:      in.AddressID,
			Amount:         total,
			Status:         model.OrderStatusPendingPayment,
			IsGift:         in.IsGift,
			GiftType:       model.GiftType(in.GiftType),
			GiftCard:       in.GiftCard,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			//競合（同時で同じキーが入った等）はもう一回検索して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				items2, err3 := r.OrderItems().ListByOrderID(ctx, ex2.ID)
				if err3 != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				out = toOrderOutput(ex2, items2, nil)
				return nil
			}
			return NewHTTPError(http.StatusBadRequest, "idempotency conflict")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.ID = orderID
		out = toOrderOutput(order, orderItems, nil)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 決済ゲートウェイからの支払い確定通知。
// 注文を支払い済みへ進め、同じトランザクションで配送予定を作る。
// 通知の二重配送は0件更新で吸収する（2回目は何もしない）。
func (u *OrderUsecase) ConfirmPayment(ctx context.Context, orderNo string) (OrderOutput, error) {
	if strings.TrimSpace(orderNo) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_no")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByOrderNo(ctx, orderNo)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//住所が消えていたら空のスナップショットで確定させずに止める
		addr, err := u.addresses.FindByID(ctx, o.AddressID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "address missing")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		ok, err := r.Orders().MarkPaid(ctx, o.ID, addr.Snapshot())
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			//既に処理済み（または支払い待ち以外）。そのまま現状を返す。
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(o, items, nil)
			return nil
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//配送予定の展開。定期便は全N回分をここで作り切る。
		paidAt := time.Now()
		plans := make([]model.DeliveryPlan, 0, len(items))
		for _, it := range items {
			receiverName := addr.Name
			receiverPhone := addr.Phone
			if o.IsGift && it.GiftReceiverName != "" {
				receiverName = it.GiftReceiverName
				receiverPhone = ""
			}

			if it.SubscriptionProductID != nil {
				sp, err := r.SubscriptionProducts().FindByID(ctx, *it.SubscriptionProductID)
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				for seq := 1; seq <= sp.TotalDeliveries; seq++ {
					start := paidAt.AddDate(0, 0, deliveryLeadDays+(seq-1)*sp.IntervalDays)
					plans = append(plans, model.DeliveryPlan{
						OrderItemID:           it.ID,
						DeliveryStartDate:     start,
						DeliveryEndDate:       start.AddDate(0, 0, deliveryWindowDays),
						DeliverySequence:      seq,
						Status:                model.DeliveryPlanPending,
						SubscriptionProductID: it.SubscriptionProductID,
						ReceiverName:          receiverName,
						ReceiverPhone:         receiverPhone,
					})
				}
			} else {
				start := paidAt.AddDate(0, 0, deliveryLeadDays)
				plans = append(plans, model.DeliveryPlan{
					OrderItemID:       it.ID,
					DeliveryStartDate: start,
					DeliveryEndDate:   start.AddDate(0, 0, deliveryWindowDays),
					DeliverySequence:  1,
					Status:            model.DeliveryPlanPending,
					ReceiverName:      receiverName,
					ReceiverPhone:     receiverPhone,
				})
			}
		}

		if err := r.DeliveryPlans().CreateBulk(ctx, plans); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = model.OrderStatusPaid
		out = toOrderOutput(o, items, plans)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 受取確認。発送済みの注文だけ、所有者だけが確定できる。
// 注文の完了と発送済み予定の完了は同じトランザクションで落とす。
func (u *OrderUsecase) ConfirmReceipt(ctx context.Context, orderID int64, userID int64) (ConfirmReceiptOutput, error) {
	if userID <= 0 {
		return ConfirmReceiptOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return ConfirmReceiptOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out ConfirmReceiptOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}
		if o.Status != model.OrderStatusShipped {
			return NewHTTPError(http.StatusBadRequest, "order not in shipped state")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCompleted); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if _, err := r.DeliveryPlans().CompleteShippedByOrderID(ctx, orderID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = ConfirmReceiptOutput{OrderID: o.ID, OrderNo: o.OrderNo}
		return nil
	})

	if err != nil {
		return ConfirmReceiptOutput{}, err
	}
	return out, nil
}

// 注文キャンセル。発送前（支払い待ち・支払い済み）だけ許可する。
// 完了・キャンセル済みからの再キャンセルは拒否（管理者の強制変更は別経路）。
func (u *OrderUsecase) CancelOrder(ctx context.Context, orderID int64, userID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}
		if o.Status.IsTerminal() {
			return NewHTTPError(http.StatusBadRequest, "order already closed")
		}
		if o.Status == model.OrderStatusShipped {
			return NewHTTPError(http.StatusBadRequest, "order already shipped")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := cancelPlansAndRestock(ctx, r, orderID, userID, o.Status)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = model.OrderStatusCancelled
		out = toOrderOutput(o, items, nil)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// キャンセルのカスケード。明細ごとに未発送（0,1）の予定を落とし、
// 落ちた回数×数量だけ在庫を戻して調整履歴を残す。発送済み・配達完了の予定は触らない。
// 支払い待ちは予定が未展開なので、確保時の予約量（定期便はN回分）をそのまま戻す。
func cancelPlansAndRestock(ctx context.Context, r repo.TxRepos, orderID int64, actorUserID int64, fromStatus model.OrderStatus) ([]model.OrderItem, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		cancelled, err := r.DeliveryPlans().CancelPendingByOrderItemID(ctx, it.ID)
		if err != nil {
			return nil, err
		}

		restore := it.Quantity * cancelled
		if fromStatus == model.OrderStatusPendingPayment {
			restore = it.Quantity
			if it.SubscriptionProductID != nil {
				sp, err := r.SubscriptionProducts().FindByID(ctx, *it.SubscriptionProductID)
				if err != nil {
					return nil, err
				}
				restore = it.Quantity * int64(sp.TotalDeliveries)
			}
		}
		if restore == 0 {
			continue
		}

		if err := r.Inventory().IncreaseStock(ctx, it.ProductID, restore); err != nil {
			return nil, err
		}
		adj := model.InventoryAdjustment{
			ProductID:   it.ProductID,
			ActorUserID: actorUserID,
			OrderID:     &orderID,
			Delta:       restore,
			Reason:      "order cancelled",
		}
		if err := r.Inventory().CreateAdjustment(ctx, adj); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングはまず固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
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

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		plans, err := r.DeliveryPlans().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items, plans)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderItemOutput(it model.OrderItem) OrderItemOutput {
	return OrderItemOutput{
		ID:               it.ID,
		ProductID:        it.ProductID,
		Name:             it.ProductNameSnapshot,
		Price:            it.UnitPriceSnapshot,
		Quantity:         it.Quantity,
		ReceiverID:       it.ReceiverID,
		GiftStatus:       int(it.GiftStatus),
		GiftMessage:      it.GiftMessage,
		GiftReceiverName: it.GiftReceiverName,
		GiftRelationship: it.GiftRelationship,
	}
}

func toOrderOutput(o model.Order, items []model.OrderItem, plans []model.DeliveryPlan) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, toOrderItemOutput(it))
	}

	outPlans := make([]DeliveryPlanOutput, 0, len(plans))
	for _, p := range plans {
		outPlans = append(outPlans, DeliveryPlanOutput{
			ID:                p.ID,
			OrderItemID:       p.OrderItemID,
			DeliveryStartDate: p.DeliveryStartDate,
			DeliveryEndDate:   p.DeliveryEndDate,
			DeliverySequence:  p.DeliverySequence,
			Status:            int(p.Status),
			ReceiverName:      p.ReceiverName,
			ReceiverPhone:     p.ReceiverPhone,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		UserID:          o.UserID,
		Status:          int(o.Status),
		Amount:          o.Amount,
		IsGift:          o.IsGift,
		GiftType:        string(o.GiftType),
		AddressSnapshot: o.AddressSnapshot,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
		Plans:           outPlans,
	}
}
