package main

import (
	"log"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	//.envはローカル開発用。なければ環境変数をそのまま使う。
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Address{},
		&model.Product{},
		&model.SubscriptionProduct{},
		&model.Order{},
		&model.OrderItem{},
		&model.DeliveryPlan{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, cfg)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, auditRepo)
	orderUC := usecase.NewOrderUsecase(txManager, addressRepo)
	giftUC := usecase.NewGiftUsecase(txManager, userRepo)
	forecastUC := usecase.NewForecastUsecase(txManager)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:          handler.NewAuthHandler(authUC),
		Product:       handler.NewProductHandler(productUC),
		Order:         handler.NewOrderHandler(orderUC),
		Gift:          handler.NewGiftHandler(giftUC),
		Payment:       handler.NewPaymentHandler(orderUC),
		AdminProduct:  handler.NewAdminProductHandler(productUC),
		AdminOrder:    handler.NewAdminOrderHandler(adminOrderUC),
		AdminForecast: handler.NewAdminForecastHandler(forecastUC),
	}

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	if err := server.Start(addr, cfg, userRepo, handlers); err != nil {
		log.Fatal(err)
	}
}
