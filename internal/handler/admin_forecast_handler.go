package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 需要予測の管理者API
type AdminForecastHandler struct {
	uc *usecase.ForecastUsecase
}

func NewAdminForecastHandler(uc *usecase.ForecastUsecase) *AdminForecastHandler {
	return &AdminForecastHandler{uc: uc}
}

func (h *AdminForecastHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/forecast", h.forecast)
	admin.GET("/forecast/export", h.export)
}

func (h *AdminForecastHandler) forecast(c echo.Context) error {
	windowDays := 0
	if v := c.QueryParam("window_days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid window_days"})
		}
		windowDays = d
	}

	out, err := h.uc.StockForecast(c.Request().Context(), windowDays)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminForecastHandler) export(c echo.Context) error {
	windowDays := 0
	if v := c.QueryParam("window_days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid window_days"})
		}
		windowDays = d
	}

	data, err := h.uc.ExportForecast(c.Request().Context(), windowDays)
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename=forecast.xlsx`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
