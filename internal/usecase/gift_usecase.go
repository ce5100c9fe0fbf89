package usecase

import (
	"context"
	"errors"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type GiftUsecase struct {
	tx    repo.TransactionManager
	users repo.UserRepository
}

func NewGiftUsecase(tx repo.TransactionManager, users repo.UserRepository) *GiftUsecase {
	return &GiftUsecase{tx: tx, users: users}
}

type GiftClaimEvaluation struct {
	CanReceive bool   `json:"can_receive"`
	Message    string `json:"message,omitempty"`
}

// ギフトリンクを開いた人が受け取れるかの判定。読み取り専用で何度呼んでも安全。
// 判定は先勝ちの優先順で、最初に引っかかった理由を返す。
func (u *GiftUsecase) EvaluateClaim(ctx context.Context, orderID int64, userID int64) (GiftClaimEvaluation, error) {
	if userID <= 0 {
		return GiftClaimEvaluation{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return GiftClaimEvaluation{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out GiftClaimEvaluation

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.Status != model.OrderStatusPaid {
			out = GiftClaimEvaluation{CanReceive: false, Message: "order not in paid state"}
			return nil
		}
		if !o.IsGift {
			out = GiftClaimEvaluation{CanReceive: false, Message: "not a gift order"}
			return nil
		}
		if o.UserID == userID {
			out = GiftClaimEvaluation{CanReceive: false, Message: "cannot claim your own gift"}
			return nil
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//自分が既にどれかを受け取っていたら、未受け取りの明細が残っていても不可
		hasUnclaimed := false
		for _, it := range items {
			if it.ReceiverID != nil && *it.ReceiverID == userID {
				out = GiftClaimEvaluation{CanReceive: false, Message: "already claimed"}
				return nil
			}
			if it.ReceiverID == nil {
				hasUnclaimed = true
			}
		}

		if hasUnclaimed {
			out = GiftClaimEvaluation{CanReceive: true}
			return nil
		}

		out = GiftClaimEvaluation{CanReceive: false, Message: "fully claimed"}
		return nil
	})

	if err != nil {
		return GiftClaimEvaluation{}, err
	}
	return out, nil
}

// ギフト明細の受け取り確定。
// 本体はreceiver_idがnullの行だけを対象にした条件付きUPDATE1発で、
// 同時に開いた2人のうち負けた側は409（claim conflict）になる。
func (u *GiftUsecase) ClaimItem(ctx context.Context, orderID int64, itemID int64, userID int64) (OrderItemOutput, error) {
	if userID <= 0 {
		return OrderItemOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 || itemID <= 0 {
		return OrderItemOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderItemOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.Status != model.OrderStatusPaid {
			return NewHTTPError(http.StatusBadRequest, "order not in paid state")
		}
		if !o.IsGift {
			return NewHTTPError(http.StatusBadRequest, "not a gift order")
		}
		if o.UserID == userID {
			return NewHTTPError(http.StatusForbidden, "cannot claim your own gift")
		}

		it, err := r.OrderItems().FindByID(ctx, itemID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//別注文の明細IDを混ぜられても「存在しない扱い」
		if it.OrderID != orderID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		//同じ注文で既にどれかを受け取っている人は2つ目を取れない
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, other := range items {
			if other.ReceiverID != nil && *other.ReceiverID == userID {
				return NewHTTPError(http.StatusConflict, "already claimed")
			}
		}

		ok, err := r.OrderItems().ClaimIfUnclaimed(ctx, itemID, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			//先に誰かが確定していた
			return NewHTTPError(http.StatusConflict, "claim conflict")
		}

		//未発送の配送予定の宛先を受取人に差し替える
		receiverName := it.GiftReceiverName
		if user, err := u.users.FindByID(ctx, userID); err == nil && user != nil && user.Nickname != "" {
			receiverName = user.Nickname
		}
		if err := r.DeliveryPlans().UpdateReceiverByOrderItemID(ctx, itemID, receiverName, ""); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		claimed, err := r.OrderItems().FindByID(ctx, itemID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderItemOutput(claimed)
		return nil
	})

	if err != nil {
		return OrderItemOutput{}, err
	}
	return out, nil
}
