package server

import (
	"app/internal/config"
	"app/internal/handler"
	"app/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// 各ハンドラをまとめて受け取るための入れ物
type Handlers struct {
	Auth          *handler.AuthHandler
	Product       *handler.ProductHandler
	Order         *handler.OrderHandler
	Gift          *handler.GiftHandler
	Payment       *handler.PaymentHandler
	AdminProduct  *handler.AdminProductHandler
	AdminOrder    *handler.AdminOrderHandler
	AdminForecast *handler.AdminForecastHandler
}

func New(cfg config.Config, userRepo repository.UserRepository, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.Gift.RegisterRoutes(e, cfg, userRepo)
	h.Payment.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, cfg, userRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, userRepo)
	h.AdminForecast.RegisterRoutes(e, cfg, userRepo)

	return e
}

func Start(addr string, cfg config.Config, userRepo repository.UserRepository, h Handlers) error {
	e := New(cfg, userRepo, h)
	return e.Start(addr)
}
