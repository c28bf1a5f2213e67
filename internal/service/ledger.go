package service

import (
	"context"
	"printroom-fulfillment/internal/model"
	"printroom-fulfillment/internal/repository"
	"time"
)

// PaidTotals carries the authoritative amounts from the processor's checkout
// session. They overwrite the quoted amounts because the processor may
// recalculate tax and shipping at checkout time.
type PaidTotals struct {
	SubtotalCents int64
	ShippingCents int64
	TaxCents      int64
	TotalCents    int64
}

// LedgerService owns every status write for an order. All transitions are
// guarded read-modify-write updates keyed on the current status, so webhook
// replays and concurrent deliveries collapse into no-ops instead of
// regressions. Each method reports whether the transition was applied.
type LedgerService interface {
	MarkPaid(ctx context.Context, orderID, txnID string, vendorCostCents int64, totals PaidTotals) (bool, error)
	MarkCheckoutExpired(ctx context.Context, orderID string) (bool, error)
	MarkProcessing(ctx context.Context, orderID, vendorOrderID, vendorStatus string) (bool, error)
	MarkFailed(ctx context.Context, orderID, reason string) (bool, error)
	MarkShipped(ctx context.Context, orderID, trackingNumber, trackingURL string, shippedAt time.Time, vendorStatus string) (bool, error)
	MarkDelivered(ctx context.Context, orderID, vendorStatus string) (bool, error)
	MarkCancelled(ctx context.Context, orderID, vendorStatus string) (bool, error)
	MarkRefunded(ctx context.Context, orderID string) (bool, error)
}

type ledgerServiceImpl struct {
	orderRepo repository.OrderRepository
}

func NewLedgerService(orderRepo repository.OrderRepository) LedgerService {
	return &ledgerServiceImpl{
		orderRepo: orderRepo,
	}
}

// nonTerminalStatuses are the states the unconditional CANCELLED branch may
// leave from.
var nonTerminalStatuses = []model.OrderStatus{
	model.StatusPendingPayment,
	model.StatusPaid,
	model.StatusProcessing,
	model.StatusShipped,
}

// refundableStatuses are the post-payment states a confirmed processor refund
// may leave from. CANCELLED and REFUNDED stay terminal.
var refundableStatuses = []model.OrderStatus{
	model.StatusPaid,
	model.StatusProcessing,
	model.StatusShipped,
	model.StatusDelivered,
	model.StatusFailed,
}

func (s *ledgerServiceImpl) MarkPaid(ctx context.Context, orderID, txnID string, vendorCostCents int64, totals PaidTotals) (bool, error) {
	now := time.Now()
	return s.orderRepo.Transition(ctx, orderID,
		[]model.OrderStatus{model.StatusPendingPayment},
		model.StatusPaid,
		map[string]interface{}{
			"processor_txn_id": txnID,
			"subtotal_cents":   totals.SubtotalCents,
			"shipping_cents":   totals.ShippingCents,
			"tax_cents":        totals.TaxCents,
			"total_cents":      totals.TotalCents,
			"profit_cents":     totals.TotalCents - vendorCostCents - totals.ShippingCents - totals.TaxCents,
			"paid_at":          &now,
		})
}

func (s *ledgerServiceImpl) MarkCheckoutExpired(ctx context.Context, orderID string) (bool, error) {
	now := time.Now()
	return s.orderRepo.Transition(ctx, orderID,
		[]model.OrderStatus{model.StatusPendingPayment},
		model.StatusCancelled,
		map[string]interface{}{
			"cancelled_at": &now,
		})
}

func (s *ledgerServiceImpl) MarkProcessing(ctx context.Context, orderID, vendorOrderID, vendorStatus string) (bool, error) {
	return s.orderRepo.Transition(ctx, orderID,
		[]model.OrderStatus{model.StatusPaid},
		model.StatusProcessing,
		map[string]interface{}{
			"vendor_order_id": vendorOrderID,
			"vendor_status":   vendorStatus,
		})
}

func (s *ledgerServiceImpl) MarkFailed(ctx context.Context, orderID, reason string) (bool, error) {
	return s.orderRepo.Transition(ctx, orderID,
		[]model.OrderStatus{model.StatusPaid},
		model.StatusFailed,
		map[string]interface{}{
			"failure_reason": reason,
		})
}

func (s *ledgerServiceImpl) MarkShipped(ctx context.Context, orderID, trackingNumber, trackingURL string, shippedAt time.Time, vendorStatus string) (bool, error) {
	// allowed from any pre-SHIPPED rank; guards against a late InProgress
	// webhook regressing an already shipped order
	var from []model.OrderStatus
	for _, status := range []model.OrderStatus{model.StatusPaid, model.StatusProcessing} {
		if status.Advances(model.StatusShipped) {
			from = append(from, status)
		}
	}

	return s.orderRepo.Transition(ctx, orderID, from,
		model.StatusShipped,
		map[string]interface{}{
			"tracking_number": trackingNumber,
			"tracking_url":    trackingURL,
			"shipped_at":      &shippedAt,
			"vendor_status":   vendorStatus,
		})
}

func (s *ledgerServiceImpl) MarkDelivered(ctx context.Context, orderID, vendorStatus string) (bool, error) {
	now := time.Now()

	var from []model.OrderStatus
	for _, status := range []model.OrderStatus{model.StatusProcessing, model.StatusShipped} {
		if status.Advances(model.StatusDelivered) {
			from = append(from, status)
		}
	}

	return s.orderRepo.Transition(ctx, orderID, from,
		model.StatusDelivered,
		map[string]interface{}{
			"delivered_at":  &now,
			"vendor_status": vendorStatus,
		})
}

func (s *ledgerServiceImpl) MarkCancelled(ctx context.Context, orderID, vendorStatus string) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"cancelled_at": &now,
	}
	if vendorStatus != "" {
		updates["vendor_status"] = vendorStatus
	}

	return s.orderRepo.Transition(ctx, orderID, nonTerminalStatuses,
		model.StatusCancelled, updates)
}

func (s *ledgerServiceImpl) MarkRefunded(ctx context.Context, orderID string) (bool, error) {
	now := time.Now()
	return s.orderRepo.Transition(ctx, orderID, refundableStatuses,
		model.StatusRefunded,
		map[string]interface{}{
			"refunded_at": &now,
		})
}
