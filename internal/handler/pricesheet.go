package handler

import (
	"net/http"
	"printroom-fulfillment/internal/dto"
	"printroom-fulfillment/internal/service"

	"github.com/labstack/echo/v4"
)

type PriceSheetHandler struct {
	priceSheetService service.PriceSheetService
}

func NewPriceSheetHandler(priceSheetService service.PriceSheetService) *PriceSheetHandler {
	return &PriceSheetHandler{
		priceSheetService: priceSheetService,
	}
}

func (h *PriceSheetHandler) CreateSheet(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, err := sellerIDFromContext(c)
	if err != nil {
		return err
	}

	var req dto.CreatePriceSheetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := h.priceSheetService.CreateSheet(ctx, sellerID, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *PriceSheetHandler) ListSheets(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, err := sellerIDFromContext(c)
	if err != nil {
		return err
	}

	resp, err := h.priceSheetService.ListSheets(ctx, sellerID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
