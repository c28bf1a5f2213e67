package handler

import (
	"errors"
	"net/http"
	"printroom-fulfillment/internal/service"

	"github.com/labstack/echo/v4"
)

func sellerIDFromContext(c echo.Context) (string, error) {
	sellerID, _ := c.Get("seller_id").(string)
	if sellerID == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing X-Seller-Id header")
	}
	return sellerID, nil
}

type OrderHandler struct {
	orderService   service.OrderService
	paymentService service.PaymentService
}

func NewOrderHandler(orderService service.OrderService, paymentService service.PaymentService) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
	}
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, err := sellerIDFromContext(c)
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListOrders(ctx, sellerID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, err := sellerIDFromContext(c)
	if err != nil {
		return err
	}

	order, err := h.orderService.GetOrder(ctx, sellerID, c.Param("orderID"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, err := sellerIDFromContext(c)
	if err != nil {
		return err
	}

	order, err := h.paymentService.ManualCancel(ctx, sellerID, c.Param("orderID"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		if errors.Is(err, service.ErrOrderNotCancellable) {
			return echo.NewHTTPError(http.StatusConflict, "order can no longer be cancelled")
		}
		return err
	}

	return c.JSON(http.StatusOK, service.OrderToResponse(order, nil))
}
