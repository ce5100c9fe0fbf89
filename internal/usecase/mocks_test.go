package usecase

import (
	"context"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos
// =====================

// txManagerStub は WithinTx の中で渡す repos を固定して unit テストを回す
type txManagerStub struct {
	Repos repo.TxRepos
}

func (m *txManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.Repos)
}

type txReposStub struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	deliveryPlans repo.DeliveryPlanRepository
	inventory     repo.InventoryRepository
	products      repo.ProductRepository
	subscriptions repo.SubscriptionProductRepository
}

func (r *txReposStub) Orders() repo.OrderRepository                          { return r.orders }
func (r *txReposStub) OrderItems() repo.OrderItemRepository                  { return r.orderItems }
func (r *txReposStub) DeliveryPlans() repo.DeliveryPlanRepository            { return r.deliveryPlans }
func (r *txReposStub) Inventory() repo.InventoryRepository                   { return r.inventory }
func (r *txReposStub) Products() repo.ProductRepository                      { return r.products }
func (r *txReposStub) SubscriptionProducts() repo.SubscriptionProductRepository {
	return r.subscriptions
}

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByOrderNo(ctx context.Context, orderNo string) (model.Order, error) {
	args := m.Called(ctx, orderNo)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	total, _ := args.Get(1).(int64)
	return orders, total, args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	id, _ := args.Get(0).(int64)
	return id, args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) MarkPaid(ctx context.Context, orderID int64, addressSnapshot string) (bool, error) {
	args := m.Called(ctx, orderID, addressSnapshot)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	total, _ := args.Get(1).(int64)
	return orders, total, args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) FindByID(ctx context.Context, itemID int64) (model.OrderItem, error) {
	args := m.Called(ctx, itemID)
	it, _ := args.Get(0).(model.OrderItem)
	return it, args.Error(1)
}

func (m *OrderItemRepoMock) ClaimIfUnclaimed(ctx context.Context, itemID int64, receiverID int64) (bool, error) {
	args := m.Called(ctx, itemID, receiverID)
	return args.Bool(0), args.Error(1)
}

type DeliveryPlanRepoMock struct{ mock.Mock }

func (m *DeliveryPlanRepoMock) CreateBulk(ctx context.Context, plans []model.DeliveryPlan) error {
	args := m.Called(ctx, plans)
	return args.Error(0)
}

func (m *DeliveryPlanRepoMock) FindByID(ctx context.Context, planID int64) (model.DeliveryPlan, error) {
	args := m.Called(ctx, planID)
	p, _ := args.Get(0).(model.DeliveryPlan)
	return p, args.Error(1)
}

func (m *DeliveryPlanRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.DeliveryPlan, error) {
	args := m.Called(ctx, orderID)
	plans, _ := args.Get(0).([]model.DeliveryPlan)
	return plans, args.Error(1)
}

func (m *DeliveryPlanRepoMock) ListByOrderItemID(ctx context.Context, orderItemID int64) ([]model.DeliveryPlan, error) {
	args := m.Called(ctx, orderItemID)
	plans, _ := args.Get(0).([]model.DeliveryPlan)
	return plans, args.Error(1)
}

func (m *DeliveryPlanRepoMock) AdvanceStatus(ctx context.Context, planID int64, from, to model.DeliveryPlanStatus) (bool, error) {
	args := m.Called(ctx, planID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *DeliveryPlanRepoMock) CancelPendingByOrderItemID(ctx context.Context, orderItemID int64) (int64, error) {
	args := m.Called(ctx, orderItemID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *DeliveryPlanRepoMock) CompleteShippedByOrderID(ctx context.Context, orderID int64) (int64, error) {
	args := m.Called(ctx, orderID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *DeliveryPlanRepoMock) UpdateReceiverByOrderItemID(ctx context.Context, orderItemID int64, name, phone string) error {
	args := m.Called(ctx, orderItemID, name, phone)
	return args.Error(0)
}

func (m *DeliveryPlanRepoMock) ListForForecast(ctx context.Context, from, to time.Time) ([]repo.ForecastRow, error) {
	args := m.Called(ctx, from, to)
	rows, _ := args.Get(0).([]repo.ForecastRow)
	return rows, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	args := m.Called(ctx, adminUserID, productID, newStock, reason)
	return args.Error(0)
}

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	products, _ := args.Get(0).([]model.Product)
	total, _ := args.Get(1).(int64)
	return products, total, args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type SubscriptionProductRepoMock struct{ mock.Mock }

func (m *SubscriptionProductRepoMock) FindByID(ctx context.Context, id int64) (model.SubscriptionProduct, error) {
	args := m.Called(ctx, id)
	sp, _ := args.Get(0).(model.SubscriptionProduct)
	return sp, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type AddressRepoMock struct{ mock.Mock }

func (m *AddressRepoMock) Create(ctx context.Context, address model.Address) (model.Address, error) {
	args := m.Called(ctx, address)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *AddressRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	addrs, _ := args.Get(0).([]model.Address)
	return addrs, args.Error(1)
}

func (m *AddressRepoMock) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	args := m.Called(ctx, addressID)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *AddressRepoMock) FindDefaultByUserID(ctx context.Context, userID int64) (model.Address, error) {
	args := m.Called(ctx, userID)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}
