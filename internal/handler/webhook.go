package handler

import (
	"io"
	"log/slog"
	"net/http"
	"printroom-fulfillment/internal/service"

	"github.com/labstack/echo/v4"
)

type WebhookHandler struct {
	paymentService     service.PaymentService
	fulfillmentService service.FulfillmentService
}

func NewWebhookHandler(paymentService service.PaymentService, fulfillmentService service.FulfillmentService) *WebhookHandler {
	return &WebhookHandler{
		paymentService:     paymentService,
		fulfillmentService: fulfillmentService,
	}
}

// ProcessorWebhook accepts payment-processor events. Signature and parse
// failures get a 4xx; anything past verification is acknowledged with 200 so
// the processor never retries a settled payment over a business-level issue.
func (h *WebhookHandler) ProcessorWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.paymentService.HandleWebhook(ctx, c.Request().Header, body); err != nil {
		slog.WarnContext(ctx, "processor webhook rejected", "error", err)
		return c.NoContent(http.StatusBadRequest)
	}

	return c.NoContent(http.StatusOK)
}

func (h *WebhookHandler) VendorWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.fulfillmentService.HandleWebhook(ctx, c.Request().Header, body); err != nil {
		slog.WarnContext(ctx, "vendor webhook rejected", "error", err)
		return c.NoContent(http.StatusBadRequest)
	}

	return c.NoContent(http.StatusOK)
}
