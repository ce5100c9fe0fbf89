package usecase

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func assertHTTPError(t *testing.T, err error, wantStatus int) {
	t.Helper()
	he, ok := AsHTTPError(err)
	if assert.True(t, ok, "expected HTTPError, got %v", err) {
		assert.Equal(t, wantStatus, he.Status)
	}
}

func newOrderTestRepos() (*txReposStub, *OrderRepoMock, *OrderItemRepoMock, *DeliveryPlanRepoMock, *InventoryRepoMock, *ProductRepoMock, *SubscriptionProductRepoMock) {
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	plans := new(DeliveryPlanRepoMock)
	inventory := new(InventoryRepoMock)
	products := new(ProductRepoMock)
	subs := new(SubscriptionProductRepoMock)

	repos := &txReposStub{
		orders:        orders,
		orderItems:    items,
		deliveryPlans: plans,
		inventory:     inventory,
		products:      products,
		subscriptions: subs,
	}
	return repos, orders, items, plans, inventory, products, subs
}

func TestPlaceOrder_Validation(t *testing.T) {
	repos, _, _, _, _, _, _ := newOrderTestRepos()
	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, new(AddressRepoMock))
	ctx := context.Background()

	_, err := uc.PlaceOrder(ctx, 0, PlaceOrderInput{AddressID: 1, IdempotencyKey: "k", Items: []PlaceOrderItemInput{{ProductID: 1, Quantity: 1}}})
	assertHTTPError(t, err, http.StatusUnauthorized)

	_, err = uc.PlaceOrder(ctx, 1, PlaceOrderInput{AddressID: 1, IdempotencyKey: "k"})
	assertHTTPError(t, err, http.StatusBadRequest)

	_, err = uc.PlaceOrder(ctx, 1, PlaceOrderInput{AddressID: 1, IdempotencyKey: "", Items: []PlaceOrderItemInput{{ProductID: 1, Quantity: 1}}})
	assertHTTPError(t, err, http.StatusBadRequest)

	//ギフト種別はDIRECT/LINKのみ
	_, err = uc.PlaceOrder(ctx, 1, PlaceOrderInput{
		AddressID:      1,
		IdempotencyKey: "k",
		IsGift:         true,
		GiftType:       "SOMETHING",
		Items:          []PlaceOrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	assertHTTPError(t, err, http.StatusBadRequest)
}

func TestPlaceOrder_OtherUsersAddress(t *testing.T) {
	repos, _, _, _, _, _, _ := newOrderTestRepos()
	addresses := new(AddressRepoMock)
	addresses.On("FindByID", mock.Anything, int64(9)).Return(model.Address{ID: 9, UserID: 99}, nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, addresses)

	_, err := uc.PlaceOrder(context.Background(), 1, PlaceOrderInput{
		AddressID:      9,
		IdempotencyKey: "k",
		Items:          []PlaceOrderItemInput{{ProductID: 1, Quantity: 1}},
	})
	assertHTTPError(t, err, http.StatusForbidden)
}

func TestPlaceOrder_SameKeyReturnsSameOrder(t *testing.T) {
	repos, orders, items, _, _, _, _ := newOrderTestRepos()
	addresses := new(AddressRepoMock)
	addresses.On("FindByID", mock.Anything, int64(1)).Return(model.Address{ID: 1, UserID: 1}, nil)

	existing := model.Order{ID: 10, OrderNo: "FS-EXISTING", UserID: 1, Status: model.OrderStatusPendingPayment}
	orders.On("FindByIdempotencyKey", mock.Anything, int64(1), "same-key").Return(existing, true, nil)
	items.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, addresses)

	out, err := uc.PlaceOrder(context.Background(), 1, PlaceOrderInput{
		AddressID:      1,
		IdempotencyKey: "same-key",
		Items:          []PlaceOrderItemInput{{ProductID: 1, Quantity: 1}},
	})

	assert.NoError(t, err)
	assert.Equal(t, "FS-EXISTING", out.OrderNo)
	//新規作成は走らない
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPlaceOrder_OutOfStock(t *testing.T) {
	repos, orders, _, _, inventory, products, _ := newOrderTestRepos()
	addresses := new(AddressRepoMock)
	addresses.On("FindByID", mock.Anything, int64(1)).Return(model.Address{ID: 1, UserID: 1}, nil)

	orders.On("FindByIdempotencyKey", mock.Anything, int64(1), "k").Return(model.Order{}, false, nil)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "Rose Bouquet", Price: 3000, IsActive: true}, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(5), int64(3)).Return(false, nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, addresses)

	_, err := uc.PlaceOrder(context.Background(), 1, PlaceOrderInput{
		AddressID:      1,
		IdempotencyKey: "k",
		Items:          []PlaceOrderItemInput{{ProductID: 5, Quantity: 3}},
	})
	assertHTTPError(t, err, http.StatusBadRequest)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPlaceOrder_SubscriptionReservesAllDeliveries(t *testing.T) {
	repos, orders, items, _, inventory, products, subs := newOrderTestRepos()
	addresses := new(AddressRepoMock)
	addresses.On("FindByID", mock.Anything, int64(1)).Return(model.Address{ID: 1, UserID: 1}, nil)

	spID := int64(2)
	orders.On("FindByIdempotencyKey", mock.Anything, int64(1), "k").Return(model.Order{}, false, nil)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "Seasonal Set", Price: 2000, IsActive: true}, nil)
	subs.On("FindByID", mock.Anything, spID).Return(model.SubscriptionProduct{ID: spID, ProductID: 5, TotalDeliveries: 4, IntervalDays: 7, IsActive: true}, nil)
	//1個×4回分の在庫を押さえる
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(5), int64(4)).Return(true, nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(int64(100), nil)
	items.On("CreateBulk", mock.Anything, int64(100), mock.Anything).Return(nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, addresses)

	out, err := uc.PlaceOrder(context.Background(), 1, PlaceOrderInput{
		AddressID:      1,
		IdempotencyKey: "k",
		Items:          []PlaceOrderItemInput{{ProductID: 5, Quantity: 1, SubscriptionProductID: &spID}},
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(100), out.ID)
	assert.Equal(t, int(model.OrderStatusPendingPayment), out.Status)
	//金額は単価×数量（回数は配送予定側の話）
	assert.Equal(t, int64(2000), out.Amount)
	inventory.AssertExpectations(t)
}

func TestConfirmPayment_MaterializesSubscriptionPlans(t *testing.T) {
	repos, orders, items, plans, _, _, subs := newOrderTestRepos()
	addresses := new(AddressRepoMock)
	addresses.On("FindByID", mock.Anything, int64(1)).Return(model.Address{ID: 1, UserID: 1, Name: "山田花子", Phone: "090-0000-0000"}, nil)

	spID := int64(2)
	order := model.Order{ID: 10, OrderNo: "FS-ABC", UserID: 1, AddressID: 1, Status: model.OrderStatusPendingPayment}
	orders.On("FindByOrderNo", mock.Anything, "FS-ABC").Return(order, nil)
	orders.On("MarkPaid", mock.Anything, int64(10), mock.Anything).Return(true, nil)
	items.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{
		{ID: 21, OrderID: 10, ProductID: 5, Quantity: 1, SubscriptionProductID: &spID},
	}, nil)
	subs.On("FindByID", mock.Anything, spID).Return(model.SubscriptionProduct{ID: spID, TotalDeliveries: 3, IntervalDays: 7, IsActive: true}, nil)

	var created []model.DeliveryPlan
	plans.On("CreateBulk", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created, _ = args.Get(1).([]model.DeliveryPlan)
	}).Return(nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, addresses)

	out, err := uc.ConfirmPayment(context.Background(), "FS-ABC")
	assert.NoError(t, err)
	assert.Equal(t, int(model.OrderStatusPaid), out.Status)

	//定期便3回分が一度に展開される
	if assert.Len(t, created, 3) {
		for i, p := range created {
			assert.Equal(t, int64(21), p.OrderItemID)
			assert.Equal(t, i+1, p.DeliverySequence)
			assert.Equal(t, model.DeliveryPlanPending, p.Status)
			//お届け期限は開始から2日
			assert.Equal(t, p.DeliveryStartDate.AddDate(0, 0, 2), p.DeliveryEndDate)
			assert.Equal(t, "山田花子", p.ReceiverName)
		}
		//2回目以降は間隔日数ずつ後ろへ
		assert.True(t, created[1].DeliveryStartDate.Equal(created[0].DeliveryStartDate.AddDate(0, 0, 7)))
		assert.True(t, created[2].DeliveryStartDate.Equal(created[1].DeliveryStartDate.AddDate(0, 0, 7)))
	}
}

func TestConfirmPayment_GiftUsesReceiverSnapshot(t *testing.T) {
	repos, orders, items, plans, _, _, _ := newOrderTestRepos()
	addresses := new(AddressRepoMock)
	addresses.On("FindByID", mock.Anything, int64(1)).Return(model.Address{ID: 1, UserID: 1, Name: "山田花子", Phone: "090-0000-0000"}, nil)

	order := model.Order{ID: 10, OrderNo: "FS-GIFT", UserID: 1, AddressID: 1, Status: model.OrderStatusPendingPayment, IsGift: true, GiftType: model.GiftTypeLink}
	orders.On("FindByOrderNo", mock.Anything, "FS-GIFT").Return(order, nil)
	orders.On("MarkPaid", mock.Anything, int64(10), mock.Anything).Return(true, nil)
	items.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{
		{ID: 21, OrderID: 10, ProductID: 5, Quantity: 1, GiftReceiverName: "佐藤太郎"},
	}, nil)

	var created []model.DeliveryPlan
	plans.On("CreateBulk", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created, _ = args.Get(1).([]model.DeliveryPlan)
	}).Return(nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, addresses)

	_, err := uc.ConfirmPayment(context.Background(), "FS-GIFT")
	assert.NoError(t, err)
	if assert.Len(t, created, 1) {
		//ギフトは購入者ではなく受取人の名前で予定を作る
		assert.Equal(t, "佐藤太郎", created[0].ReceiverName)
		assert.Equal(t, "", created[0].ReceiverPhone)
	}
}

func TestConfirmPayment_DuplicateNotifyIsNoop(t *testing.T) {
	repos, orders, items, plans, _, _, _ := newOrderTestRepos()
	addresses := new(AddressRepoMock)
	addresses.On("FindByID", mock.Anything, int64(1)).Return(model.Address{ID: 1, UserID: 1}, nil)

	order := model.Order{ID: 10, OrderNo: "FS-ABC", UserID: 1, AddressID: 1, Status: model.OrderStatusPaid}
	orders.On("FindByOrderNo", mock.Anything, "FS-ABC").Return(order, nil)
	//既に支払い済みなので0件更新
	orders.On("MarkPaid", mock.Anything, int64(10), mock.Anything).Return(false, nil)
	items.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, addresses)

	out, err := uc.ConfirmPayment(context.Background(), "FS-ABC")
	assert.NoError(t, err)
	assert.Equal(t, "FS-ABC", out.OrderNo)
	//配送予定は二重には作らない
	plans.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything)
}

func TestConfirmPayment_MissingAddressRejected(t *testing.T) {
	repos, orders, _, plans, _, _, _ := newOrderTestRepos()
	addresses := new(AddressRepoMock)
	addresses.On("FindByID", mock.Anything, int64(9)).Return(model.Address{}, repo.ErrNotFound)

	order := model.Order{ID: 10, OrderNo: "FS-ABC", UserID: 1, AddressID: 9, Status: model.OrderStatusPendingPayment}
	orders.On("FindByOrderNo", mock.Anything, "FS-ABC").Return(order, nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, addresses)

	_, err := uc.ConfirmPayment(context.Background(), "FS-ABC")
	assertHTTPError(t, err, http.StatusInternalServerError)

	//住所が無いまま空のスナップショットで支払い済みにしない
	orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
	plans.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything)
}

func TestConfirmReceipt_Guards(t *testing.T) {
	repos, orders, _, _, _, _, _ := newOrderTestRepos()
	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, new(AddressRepoMock))
	ctx := context.Background()

	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, UserID: 7, Status: model.OrderStatusShipped}, nil).Once()
	_, err := uc.ConfirmReceipt(ctx, 1, 999)
	assertHTTPError(t, err, http.StatusForbidden)

	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, UserID: 7, Status: model.OrderStatusPaid}, nil).Once()
	_, err = uc.ConfirmReceipt(ctx, 1, 7)
	assertHTTPError(t, err, http.StatusBadRequest)

	orders.On("FindByID", mock.Anything, int64(2)).Return(model.Order{}, repo.ErrNotFound).Once()
	_, err = uc.ConfirmReceipt(ctx, 2, 7)
	assertHTTPError(t, err, http.StatusNotFound)
}

func TestConfirmReceipt_CompletesOrderAndShippedPlans(t *testing.T) {
	repos, orders, _, plans, _, _, _ := newOrderTestRepos()

	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, OrderNo: "FS-ABC", UserID: 7, Status: model.OrderStatusShipped}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(1), model.OrderStatusCompleted).Return(nil)
	plans.On("CompleteShippedByOrderID", mock.Anything, int64(1)).Return(int64(2), nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, new(AddressRepoMock))

	out, err := uc.ConfirmReceipt(context.Background(), 1, 7)
	assert.NoError(t, err)
	assert.Equal(t, "FS-ABC", out.OrderNo)
	orders.AssertExpectations(t)
	plans.AssertExpectations(t)
}

func TestCancelOrder_TerminalOrShippedRejected(t *testing.T) {
	repos, orders, _, _, _, _, _ := newOrderTestRepos()
	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, new(AddressRepoMock))
	ctx := context.Background()

	//完了・キャンセル済みはもう動かせない
	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, UserID: 7, Status: model.OrderStatusCompleted}, nil).Once()
	_, err := uc.CancelOrder(ctx, 1, 7)
	assertHTTPError(t, err, http.StatusBadRequest)

	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, UserID: 7, Status: model.OrderStatusCancelled}, nil).Once()
	_, err = uc.CancelOrder(ctx, 1, 7)
	assertHTTPError(t, err, http.StatusBadRequest)

	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, UserID: 7, Status: model.OrderStatusShipped}, nil).Once()
	_, err = uc.CancelOrder(ctx, 1, 7)
	assertHTTPError(t, err, http.StatusBadRequest)
}

func TestCancelOrder_CascadesAndRestocks(t *testing.T) {
	repos, orders, items, plans, inventory, _, _ := newOrderTestRepos()

	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, UserID: 7, Status: model.OrderStatusPaid}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(1), model.OrderStatusCancelled).Return(nil)
	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{
		{ID: 21, OrderID: 1, ProductID: 5, Quantity: 2},
		{ID: 22, OrderID: 1, ProductID: 6, Quantity: 1},
	}, nil)
	//明細ごとに未発送分を落とし、落ちた回数×数量だけ戻す
	plans.On("CancelPendingByOrderItemID", mock.Anything, int64(21)).Return(int64(1), nil)
	plans.On("CancelPendingByOrderItemID", mock.Anything, int64(22)).Return(int64(1), nil)
	inventory.On("IncreaseStock", mock.Anything, int64(5), int64(2)).Return(nil)
	inventory.On("IncreaseStock", mock.Anything, int64(6), int64(1)).Return(nil)

	var adjustments []model.InventoryAdjustment
	inventory.On("CreateAdjustment", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		adj, _ := args.Get(1).(model.InventoryAdjustment)
		adjustments = append(adjustments, adj)
	}).Return(nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, new(AddressRepoMock))

	out, err := uc.CancelOrder(context.Background(), 1, 7)
	assert.NoError(t, err)
	assert.Equal(t, int(model.OrderStatusCancelled), out.Status)
	inventory.AssertExpectations(t)
	plans.AssertExpectations(t)

	//調整履歴はキャンセルした本人の操作として残る
	if assert.Len(t, adjustments, 2) {
		assert.Equal(t, int64(7), adjustments[0].ActorUserID)
		assert.Equal(t, "order cancelled", adjustments[0].Reason)
	}
}

func TestCancelOrder_PendingSubscriptionRestoresFullReservation(t *testing.T) {
	repos, orders, items, plans, inventory, _, subs := newOrderTestRepos()

	//支払い待ちの定期便は注文時に1個×4回分を押さえている。
	//予定はまだ無いので、戻すのも押さえた4でなければならない。
	spID := int64(30)
	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, UserID: 7, Status: model.OrderStatusPendingPayment}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(1), model.OrderStatusCancelled).Return(nil)
	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{
		{ID: 21, OrderID: 1, ProductID: 5, Quantity: 1, SubscriptionProductID: &spID},
	}, nil)
	plans.On("CancelPendingByOrderItemID", mock.Anything, int64(21)).Return(int64(0), nil)
	subs.On("FindByID", mock.Anything, spID).Return(model.SubscriptionProduct{ID: spID, ProductID: 5, TotalDeliveries: 4, IntervalDays: 7, IsActive: true}, nil)
	inventory.On("IncreaseStock", mock.Anything, int64(5), int64(4)).Return(nil)
	inventory.On("CreateAdjustment", mock.Anything, mock.Anything).Return(nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, new(AddressRepoMock))

	_, err := uc.CancelOrder(context.Background(), 1, 7)
	assert.NoError(t, err)
	inventory.AssertExpectations(t)
}

func TestCancelOrder_PaidSubscriptionRestoresUnshippedOnly(t *testing.T) {
	repos, orders, items, plans, inventory, _, _ := newOrderTestRepos()

	//支払い済みの定期便（全4回、1回発送済み）。残り3回分だけ戻る。
	spID := int64(30)
	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, UserID: 7, Status: model.OrderStatusPaid}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(1), model.OrderStatusCancelled).Return(nil)
	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{
		{ID: 21, OrderID: 1, ProductID: 5, Quantity: 1, SubscriptionProductID: &spID},
	}, nil)
	plans.On("CancelPendingByOrderItemID", mock.Anything, int64(21)).Return(int64(3), nil)
	inventory.On("IncreaseStock", mock.Anything, int64(5), int64(3)).Return(nil)
	inventory.On("CreateAdjustment", mock.Anything, mock.Anything).Return(nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, new(AddressRepoMock))

	_, err := uc.CancelOrder(context.Background(), 1, 7)
	assert.NoError(t, err)
	inventory.AssertExpectations(t)
	plans.AssertExpectations(t)
}

func TestGetMyOrderDetail_OthersOrderHidden(t *testing.T) {
	repos, orders, _, _, _, _, _ := newOrderTestRepos()
	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, UserID: 7}, nil)

	uc := NewOrderUsecase(&txManagerStub{Repos: repos}, new(AddressRepoMock))

	//他人の注文は404（403で存在を漏らさない）
	_, err := uc.GetMyOrderDetail(context.Background(), 999, 1)
	assertHTTPError(t, err, http.StatusNotFound)
}
