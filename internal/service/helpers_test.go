package service

import (
	"context"
	"fmt"
	"printroom-fulfillment/internal/client"
	"printroom-fulfillment/internal/model"
	"printroom-fulfillment/internal/repository"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Order{},
		&model.OrderItem{},
		&model.PriceSheet{},
		&model.PriceSheetItem{},
		&model.WebhookEvent{},
	))

	return db
}

// fakeProcessorClient records refunds and checkout sessions instead of
// calling out.
type fakeProcessorClient struct {
	refunds        []string
	sessions       []*client.CreateCheckoutSessionParams
	refundErr      error
	signatureErr   error
	sessionCounter int
}

func (f *fakeProcessorClient) CreateCheckoutSession(ctx context.Context, params *client.CreateCheckoutSessionParams) (*client.CheckoutSessionResult, error) {
	f.sessionCounter++
	f.sessions = append(f.sessions, params)
	return &client.CheckoutSessionResult{
		SessionID:   fmt.Sprintf("cs_test_%d", f.sessionCounter),
		CheckoutURL: fmt.Sprintf("https://checkout.example.com/cs_test_%d", f.sessionCounter),
	}, nil
}

func (f *fakeProcessorClient) RefundPayment(ctx context.Context, paymentIntentID string) (*client.RefundResult, error) {
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	f.refunds = append(f.refunds, paymentIntentID)
	return &client.RefundResult{RefundID: "re_test_1", Status: "succeeded"}, nil
}

func (f *fakeProcessorClient) VerifyWebhookSignature(header string, body []byte) error {
	return f.signatureErr
}

// fakeVendorClient records submissions and cancels; err fields force failures.
type fakeVendorClient struct {
	createdOrders []*client.VendorCreateOrderRequest
	cancels       []string
	createErr     error
	cancelErr     error
	signatureErr  error
	quoteOptions  []*client.VendorQuoteOption
	orderCounter  int
}

func (f *fakeVendorClient) CreateOrder(ctx context.Context, req *client.VendorCreateOrderRequest) (*client.VendorOrderResult, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.orderCounter++
	f.createdOrders = append(f.createdOrders, req)
	return &client.VendorOrderResult{
		VendorOrderID: fmt.Sprintf("vnd_%d", f.orderCounter),
		Status:        "InProgress",
	}, nil
}

func (f *fakeVendorClient) Quote(ctx context.Context, req *client.VendorQuoteRequest) ([]*client.VendorQuoteOption, error) {
	if f.quoteOptions != nil {
		return f.quoteOptions, nil
	}
	return []*client.VendorQuoteOption{
		{
			ShippingMethod: "Standard",
			Currency:       "USD",
			ItemsCents:     1000,
			ShippingCents:  595,
			TaxCents:       200,
			TotalCents:     1795,
		},
	}, nil
}

func (f *fakeVendorClient) CancelOrder(ctx context.Context, vendorOrderID string) error {
	f.cancels = append(f.cancels, vendorOrderID)
	return f.cancelErr
}

func (f *fakeVendorClient) VerifyWebhookSignature(header string, body []byte) error {
	return f.signatureErr
}

func seedOrder(t *testing.T, db *gorm.DB, mutate func(*model.Order)) *model.Order {
	t.Helper()

	order := &model.Order{
		ID:              "ord_1",
		SellerID:        "seller-1",
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		ShipName:        "Ada Lovelace",
		ShipLine1:       "12 Analytical Way",
		ShipCity:        "London",
		ShipPostcode:    "N1 9GU",
		ShipCountry:     "GB",
		Currency:        "USD",
		SubtotalCents:   4500,
		ShippingCents:   595,
		TaxCents:        400,
		TotalCents:      5495,
		VendorCostCents: 1500,
		ProfitCents:     3000,
		Status:          model.StatusPendingPayment,
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, db.Create(order).Error)

	return order
}

func seedOrderItems(t *testing.T, db *gorm.DB, orderID string) []*model.OrderItem {
	t.Helper()

	items := []*model.OrderItem{
		{
			OrderID:        orderID,
			PhotoID:        "photo-1",
			SKU:            "GLOBAL-FAP-16X24",
			ProductName:    "Fine Art Print",
			ProductSize:    "16x24",
			Quantity:       2,
			UnitPriceCents: 1500,
			UnitCostCents:  500,
			LineCostCents:  1000,
			LineTotalCents: 3000,
		},
		{
			OrderID:        orderID,
			PhotoID:        "photo-2",
			SKU:            "GLOBAL-CAN-10X10",
			ProductName:    "Canvas",
			ProductSize:    "10x10",
			Quantity:       1,
			UnitPriceCents: 1500,
			UnitCostCents:  500,
			LineCostCents:  500,
			LineTotalCents: 1500,
		},
	}
	require.NoError(t, db.Create(&items).Error)

	return items
}

func reloadOrder(t *testing.T, db *gorm.DB, orderID string) *model.Order {
	t.Helper()

	var order model.Order
	require.NoError(t, db.Where("id = ?", orderID).First(&order).Error)
	return &order
}

func newLedger(db *gorm.DB) (LedgerService, repository.OrderRepository) {
	orderRepo := repository.NewOrderRepository(db)
	return NewLedgerService(orderRepo), orderRepo
}
