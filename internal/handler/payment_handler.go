package handler

import (
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 決済ゲートウェイからの非同期通知。
// 署名検証はゲートウェイ側アダプタの責務で、ここでは注文の確定だけを行う。
type PaymentHandler struct {
	uc *usecase.OrderUsecase
}

func NewPaymentHandler(uc *usecase.OrderUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type PaymentNotifyRequest struct {
	OrderNo string `json:"order_no"`
	TradeNo string `json:"trade_no"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/payments/notify", h.notify)
}

func (h *PaymentHandler) notify(c echo.Context) error {
	var req PaymentNotifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.ConfirmPayment(c.Request().Context(), req.OrderNo)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
