package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"printroom-fulfillment/internal/client"
	"printroom-fulfillment/internal/model"
	"printroom-fulfillment/internal/repository"
	"time"

	"gorm.io/gorm"
)

type FulfillmentService interface {
	// SubmitOrder sends a PAID order to the print vendor and moves it to
	// PROCESSING. Any vendor or network error propagates to the caller,
	// which owns the compensating refund.
	SubmitOrder(ctx context.Context, orderID string) error

	// HandleWebhook verifies and applies a vendor status callback. Only
	// signature and parse failures return an error; business conditions
	// (unknown order, unknown stage, stale event) are logged and acked.
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error

	// CancelVendorOrder is best-effort: a vendor-side failure is logged and
	// swallowed because the local ledger is authoritative.
	CancelVendorOrder(ctx context.Context, vendorOrderID string)
}

type fulfillmentServiceImpl struct {
	vendorClient client.VendorClient
	ledger       LedgerService
	orderRepo    repository.OrderRepository
}

func NewFulfillmentService(
	vendorClient client.VendorClient,
	ledger LedgerService,
	orderRepo repository.OrderRepository,
) FulfillmentService {
	return &fulfillmentServiceImpl{
		vendorClient: vendorClient,
		ledger:       ledger,
		orderRepo:    orderRepo,
	}
}

func (s *fulfillmentServiceImpl) SubmitOrder(ctx context.Context, orderID string) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	if order.Status != model.StatusPaid {
		// replayed submission for an already submitted order is a no-op
		if order.Status == model.StatusProcessing {
			return nil
		}
		return fmt.Errorf("order %s not submittable in status %s", orderID, order.Status)
	}

	items, err := s.orderRepo.GetOrderItems(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("order %s has no items", orderID)
	}

	lineItems := make([]client.VendorLineItem, len(items))
	for i, item := range items {
		lineItems[i] = client.VendorLineItem{
			Sku:        item.SKU,
			Copies:     item.Quantity,
			Attributes: vendorAttributesForSKU(item.SKU),
			AssetURL:   fmt.Sprintf("photos/%s", item.PhotoID),
		}
	}

	result, err := s.vendorClient.CreateOrder(ctx, &client.VendorCreateOrderRequest{
		MerchantReference: order.ID,
		Currency:          order.Currency,
		Recipient: client.VendorAddress{
			Name:     order.ShipName,
			Line1:    order.ShipLine1,
			Line2:    order.ShipLine2,
			City:     order.ShipCity,
			State:    order.ShipState,
			Postcode: order.ShipPostcode,
			Country:  order.ShipCountry,
		},
		Items: lineItems,
	})
	if err != nil {
		return fmt.Errorf("submit order to vendor: %w", err)
	}

	applied, err := s.ledger.MarkProcessing(ctx, orderID, result.VendorOrderID, result.Status)
	if err != nil {
		return fmt.Errorf("mark order processing: %w", err)
	}
	if !applied {
		slog.WarnContext(ctx, "order left PAID before submission was recorded",
			"order_id", orderID, "vendor_order_id", result.VendorOrderID)
	}

	return nil
}

func (s *fulfillmentServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if err := s.vendorClient.VerifyWebhookSignature(headers.Get(client.VendorSignatureHeader), body); err != nil {
		return fmt.Errorf("verify vendor webhook signature: %w", err)
	}

	var event model.VendorWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode vendor webhook payload: %w", err)
	}
	if event.OrderID == "" {
		return fmt.Errorf("vendor webhook missing order id")
	}

	if !event.Stage.Known() {
		slog.WarnContext(ctx, "unknown vendor stage, ignoring event",
			"vendor_order_id", event.OrderID, "stage", string(event.Stage))
		return nil
	}

	order, err := s.orderRepo.FindByVendorOrderID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// stale reference the vendor cannot correct; ack so it stops retrying
			slog.WarnContext(ctx, "vendor webhook for unknown order",
				"vendor_order_id", event.OrderID)
			return nil
		}
		return fmt.Errorf("find order by vendor order id: %w", err)
	}

	switch event.Stage {
	case model.VendorStageCancelled:
		_, err = s.ledger.MarkCancelled(ctx, order.ID, event.Status)

	case model.VendorStageComplete:
		if shipment, ok := firstShipmentWithTracking(event.Shipments); ok {
			_, err = s.ledger.MarkShipped(ctx, order.ID,
				shipment.TrackingNumber, shipment.TrackingURL,
				dispatchTime(shipment), event.Status)
		} else {
			_, err = s.ledger.MarkDelivered(ctx, order.ID, event.Status)
		}

	case model.VendorStageInProgress:
		shipment, ok := firstShipmentWithTracking(event.Shipments)
		if !ok {
			return nil
		}
		_, err = s.ledger.MarkShipped(ctx, order.ID,
			shipment.TrackingNumber, shipment.TrackingURL,
			dispatchTime(shipment), event.Status)
	}

	if err != nil {
		return fmt.Errorf("apply vendor stage %s: %w", event.Stage, err)
	}

	return nil
}

func (s *fulfillmentServiceImpl) CancelVendorOrder(ctx context.Context, vendorOrderID string) {
	if vendorOrderID == "" {
		return
	}
	if err := s.vendorClient.CancelOrder(ctx, vendorOrderID); err != nil {
		slog.ErrorContext(ctx, "vendor cancel failed, proceeding with local cancellation",
			"vendor_order_id", vendorOrderID, "error", err)
	}
}

func firstShipmentWithTracking(shipments []model.VendorShipment) (*model.VendorShipment, bool) {
	for i := range shipments {
		if shipments[i].TrackingNumber != "" {
			return &shipments[i], true
		}
	}
	return nil, false
}

func dispatchTime(shipment *model.VendorShipment) time.Time {
	if shipment.DispatchDate != "" {
		if t, err := time.Parse(time.RFC3339, shipment.DispatchDate); err == nil {
			return t
		}
	}
	return time.Now()
}
