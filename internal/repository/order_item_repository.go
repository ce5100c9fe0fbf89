package repository

import (
	"context"

	"app/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	FindByID(ctx context.Context, itemID int64) (model.OrderItem, error)

	//receiver_idがまだnullのときだけ受取人を確定する条件付きUPDATE。
	//0件更新なら他の受取人が先に確定している（読み→書きの2段にしないこと）。
	ClaimIfUnclaimed(ctx context.Context, itemID int64, receiverID int64) (bool, error)
}
