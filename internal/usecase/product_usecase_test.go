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

func TestProductDetail_InactiveHidden(t *testing.T) {
	products := new(ProductRepoMock)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "Rose Bouquet", IsActive: false}, nil)

	uc := NewProductUsecase(products, new(InventoryRepoMock), new(AuditRepoMock))

	//非公開商品は404
	_, err := uc.Detail(context.Background(), 5)
	assertHTTPError(t, err, http.StatusNotFound)
}

func TestProductDetail_NotFound(t *testing.T) {
	products := new(ProductRepoMock)
	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{}, repo.ErrNotFound)

	uc := NewProductUsecase(products, new(InventoryRepoMock), new(AuditRepoMock))

	_, err := uc.Detail(context.Background(), 5)
	assertHTTPError(t, err, http.StatusNotFound)
}

func TestProductList_InvalidSort(t *testing.T) {
	uc := NewProductUsecase(new(ProductRepoMock), new(InventoryRepoMock), new(AuditRepoMock))

	_, err := uc.List(context.Background(), ListProductsInput{Sort: "name_desc"})
	assertHTTPError(t, err, http.StatusBadRequest)
}

func TestAdminUpdateInventory_ReasonRequired(t *testing.T) {
	uc := NewProductUsecase(new(ProductRepoMock), new(InventoryRepoMock), new(AuditRepoMock))

	err := uc.AdminUpdateInventory(context.Background(), 99, 5, 10, "   ")
	assertHTTPError(t, err, http.StatusBadRequest)
}

func TestAdminUpdateInventory_Success(t *testing.T) {
	products := new(ProductRepoMock)
	inventory := new(InventoryRepoMock)
	audit := new(AuditRepoMock)

	products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Stock: 3, IsActive: true}, nil)
	inventory.On("SetStockWithAdjustment", mock.Anything, int64(99), int64(5), int64(10), "restock").Return(nil)

	var logged model.AuditLog
	audit.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		logged, _ = args.Get(1).(model.AuditLog)
	}).Return(nil)

	uc := NewProductUsecase(products, inventory, audit)

	err := uc.AdminUpdateInventory(context.Background(), 99, 5, 10, "restock")
	assert.NoError(t, err)

	assert.Equal(t, model.AuditActionUpdateStock, logged.Action)
	assert.Equal(t, `{"stock":3}`, logged.BeforeJSON)
	assert.Equal(t, `{"stock":10}`, logged.AfterJSON)
	inventory.AssertExpectations(t)
}
