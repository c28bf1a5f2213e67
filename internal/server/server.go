package server

import (
	"log/slog"
	"printroom-fulfillment/internal/handler"
	custommw "printroom-fulfillment/internal/middleware"
	"printroom-fulfillment/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo              *echo.Echo
	webhookHandler    *handler.WebhookHandler
	checkoutHandler   *handler.CheckoutHandler
	orderHandler      *handler.OrderHandler
	priceSheetHandler *handler.PriceSheetHandler
}

func NewServer(
	paymentService service.PaymentService,
	fulfillmentService service.FulfillmentService,
	checkoutService service.CheckoutService,
	orderService service.OrderService,
	priceSheetService service.PriceSheetService,
) *Server {
	e := echo.New()

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.InfoContext(c.Request().Context(), "request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"request_id", v.RequestID,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:              e,
		webhookHandler:    handler.NewWebhookHandler(paymentService, fulfillmentService),
		checkoutHandler:   handler.NewCheckoutHandler(checkoutService),
		orderHandler:      handler.NewOrderHandler(orderService, paymentService),
		priceSheetHandler: handler.NewPriceSheetHandler(priceSheetService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- storefront checkout --------
	checkout := api.Group("/checkout", custommw.SellerMiddleware())
	checkout.POST("/quote", s.checkoutHandler.Quote)
	checkout.POST("", s.checkoutHandler.Checkout)

	// -------- seller --------
	seller := api.Group("", custommw.SellerMiddleware())
	seller.GET("/orders", s.orderHandler.ListOrders)
	seller.GET("/orders/:orderID", s.orderHandler.GetOrder)
	seller.POST("/orders/:orderID/cancel", s.orderHandler.CancelOrder)
	seller.GET("/price-sheets", s.priceSheetHandler.ListSheets)
	seller.POST("/price-sheets", s.priceSheetHandler.CreateSheet)

	// -------- webhooks --------
	webhooks := api.Group("/webhooks")
	webhooks.POST("/processor", s.webhookHandler.ProcessorWebhook)
	webhooks.POST("/vendor", s.webhookHandler.VendorWebhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
