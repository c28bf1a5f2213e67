package service

import (
	"context"
	"errors"
	"fmt"
	"printroom-fulfillment/internal/client"
	"printroom-fulfillment/internal/dto"
	"printroom-fulfillment/internal/model"
	"printroom-fulfillment/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultCurrency = "USD"

var ErrPriceSheetNotFound = errors.New("price sheet not found")

type CheckoutService interface {
	// Quote prices a cart against the vendor's quote API, one option per
	// shipping method.
	Quote(ctx context.Context, req *dto.QuoteRequest) (*dto.QuoteResponse, error)

	// Checkout resolves cart items against the seller's price sheet, creates
	// the PENDING_PAYMENT order with its items, and opens a processor
	// checkout session carrying the order id as metadata.
	Checkout(ctx context.Context, sellerID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	db              *gorm.DB
	processorClient client.ProcessorClient
	vendorClient    client.VendorClient
	serviceBaseURL  string
	orderRepo       repository.OrderRepository
	priceSheetRepo  repository.PriceSheetRepository
}

func NewCheckoutService(
	db *gorm.DB,
	processorClient client.ProcessorClient,
	vendorClient client.VendorClient,
	serviceBaseURL string,
	orderRepo repository.OrderRepository,
	priceSheetRepo repository.PriceSheetRepository,
) CheckoutService {
	return &checkoutServiceImpl{
		db:              db,
		processorClient: processorClient,
		vendorClient:    vendorClient,
		serviceBaseURL:  serviceBaseURL,
		orderRepo:       orderRepo,
		priceSheetRepo:  priceSheetRepo,
	}
}

func (s *checkoutServiceImpl) Quote(ctx context.Context, req *dto.QuoteRequest) (*dto.QuoteResponse, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("quote requires at least one item")
	}

	options, err := s.vendorClient.Quote(ctx, &client.VendorQuoteRequest{
		DestinationCountry: req.Country,
		ShippingMethod:     req.ShippingMethod,
		Currency:           defaultCurrency,
		Items:              cartToVendorItems(req.Items),
	})
	if err != nil {
		return nil, fmt.Errorf("vendor quote: %w", err)
	}

	resp := &dto.QuoteResponse{Options: make([]*dto.QuoteOption, len(options))}
	for i, opt := range options {
		resp.Options[i] = &dto.QuoteOption{
			ShippingMethod: opt.ShippingMethod,
			Shipping:       FormatCents(opt.ShippingCents),
			Tax:            FormatCents(opt.TaxCents),
			Total:          FormatCents(opt.TotalCents),
			Currency:       opt.Currency,
		}
	}

	return resp, nil
}

func (s *checkoutServiceImpl) Checkout(ctx context.Context, sellerID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("checkout requires at least one item")
	}

	skus := make([]string, len(req.Items))
	quantityBySKU := make(map[string]int32)
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item quantity must be positive")
		}
		skus[i] = item.Sku
		quantityBySKU[item.Sku] += item.Quantity
	}

	sheet, err := s.resolveSheet(ctx, sellerID, req.PriceSheetID)
	if err != nil {
		return nil, err
	}

	sheetItems, err := s.priceSheetRepo.FindItemsBySKUs(ctx, sheet.ID, skus)
	if err != nil {
		return nil, fmt.Errorf("load price sheet items: %w", err)
	}
	priceBySKU := make(map[string]*model.PriceSheetItem, len(sheetItems))
	for _, item := range sheetItems {
		priceBySKU[item.SKU] = item
	}
	for _, sku := range skus {
		if _, ok := priceBySKU[sku]; !ok {
			return nil, fmt.Errorf("sku %s not priced on sheet %s", sku, sheet.ID)
		}
	}

	// one quote up front to capture the vendor cost basis and shipping/tax
	quotes, err := s.vendorClient.Quote(ctx, &client.VendorQuoteRequest{
		DestinationCountry: req.Address.Country,
		ShippingMethod:     req.ShippingMethod,
		Currency:           defaultCurrency,
		Items:              cartToVendorItems(req.Items),
	})
	if err != nil {
		return nil, fmt.Errorf("vendor quote: %w", err)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("vendor returned no quote for shipping method %q", req.ShippingMethod)
	}
	quote := quotes[0]

	orderID := "ord_" + uuid.NewString()

	var subtotal int64
	var totalCopies int64
	orderItems := make([]*model.OrderItem, len(req.Items))
	for i, cartItem := range req.Items {
		priced := priceBySKU[cartItem.Sku]
		lineTotal := priced.RetailPriceCents * int64(cartItem.Quantity)
		subtotal += lineTotal
		totalCopies += int64(cartItem.Quantity)

		orderItems[i] = &model.OrderItem{
			OrderID:        orderID,
			PhotoID:        cartItem.PhotoID,
			SKU:            cartItem.Sku,
			ProductName:    priced.ProductName,
			ProductSize:    priced.ProductSize,
			Quantity:       cartItem.Quantity,
			UnitPriceCents: priced.RetailPriceCents,
			LineTotalCents: lineTotal,
		}
	}

	spreadUnitCosts(orderItems, quote.ItemsCents, totalCopies)

	total := subtotal + quote.ShippingCents + quote.TaxCents

	order := &model.Order{
		ID:              orderID,
		SellerID:        sellerID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ShipName:        req.Address.Name,
		ShipLine1:       req.Address.Line1,
		ShipLine2:       req.Address.Line2,
		ShipCity:        req.Address.City,
		ShipState:       req.Address.State,
		ShipPostcode:    req.Address.Postcode,
		ShipCountry:     req.Address.Country,
		Currency:        defaultCurrency,
		SubtotalCents:   subtotal,
		ShippingCents:   quote.ShippingCents,
		TaxCents:        quote.TaxCents,
		TotalCents:      total,
		VendorCostCents: quote.ItemsCents,
		ProfitCents:     total - quote.ItemsCents - quote.ShippingCents - quote.TaxCents,
		Status:          model.StatusPendingPayment,
	}

	lineItems := make([]client.CheckoutLineItem, len(orderItems))
	for i, item := range orderItems {
		lineItems[i] = client.CheckoutLineItem{
			Name:            item.ProductName,
			Sku:             item.SKU,
			UnitAmountCents: item.UnitPriceCents,
			Quantity:        item.Quantity,
		}
	}

	session, err := s.processorClient.CreateCheckoutSession(ctx, &client.CreateCheckoutSessionParams{
		OrderID:       orderID,
		CustomerEmail: req.CustomerEmail,
		Currency:      defaultCurrency,
		LineItems:     lineItems,
		SuccessURL:    fmt.Sprintf("%s/checkout/success?order_id=%s", s.serviceBaseURL, orderID),
		CancelURL:     fmt.Sprintf("%s/checkout/cancelled", s.serviceBaseURL),
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	order.ProcessorSessionID = session.SessionID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.CheckoutResponse{
		OrderID:     orderID,
		CheckoutURL: session.CheckoutURL,
	}, nil
}

func (s *checkoutServiceImpl) resolveSheet(ctx context.Context, sellerID, sheetID string) (*model.PriceSheet, error) {
	var sheet *model.PriceSheet
	var err error

	if sheetID != "" {
		sheet, err = s.priceSheetRepo.FindSheet(ctx, sellerID, sheetID)
	} else {
		sheet, err = s.priceSheetRepo.FindDefaultSheet(ctx, sellerID)
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPriceSheetNotFound
		}
		return nil, fmt.Errorf("load price sheet: %w", err)
	}

	return sheet, nil
}

func cartToVendorItems(items []*dto.CartItem) []client.VendorLineItem {
	vendorItems := make([]client.VendorLineItem, len(items))
	for i, item := range items {
		vendorItems[i] = client.VendorLineItem{
			Sku:        item.Sku,
			Copies:     item.Quantity,
			Attributes: vendorAttributesForSKU(item.Sku),
		}
	}
	return vendorItems
}

// spreadUnitCosts distributes the quoted vendor item cost across line items
// per copy. The remainder cents land on the first line's LineCostCents, so
// the line-level costs always sum back to the quoted amount even when it
// does not divide evenly by the copy count.
func spreadUnitCosts(items []*model.OrderItem, itemsCents, totalCopies int64) {
	if totalCopies == 0 || len(items) == 0 {
		return
	}
	perCopy := itemsCents / totalCopies
	remainder := itemsCents - perCopy*totalCopies

	for _, item := range items {
		item.UnitCostCents = perCopy
		item.LineCostCents = perCopy * int64(item.Quantity)
	}
	items[0].LineCostCents += remainder
}

// FormatCents renders a minor-unit amount as a two-decimal string at the API
// boundary.
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
