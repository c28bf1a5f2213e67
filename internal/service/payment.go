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

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
)

type PaymentService interface {
	// HandleWebhook verifies and dispatches a processor webhook. The returned
	// error covers signature and parse failures only; business-level outcomes
	// (unknown order, duplicate event, fulfillment failure) are absorbed so
	// the processor sees a 2xx and does not retry a settled payment.
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error

	// ManualCancel is the seller-initiated cancel path. If payment was
	// captured the order is refunded and ends REFUNDED, otherwise CANCELLED.
	ManualCancel(ctx context.Context, sellerID, orderID string) (*model.Order, error)
}

type paymentServiceImpl struct {
	processorClient  client.ProcessorClient
	fulfillment      FulfillmentService
	ledger           LedgerService
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
}

func NewPaymentService(
	processorClient client.ProcessorClient,
	fulfillment FulfillmentService,
	ledger LedgerService,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
) PaymentService {
	return &paymentServiceImpl{
		processorClient:  processorClient,
		fulfillment:      fulfillment,
		ledger:           ledger,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
	}
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if err := s.processorClient.VerifyWebhookSignature(headers.Get(client.SignatureHeader), body); err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	var event model.ProcessorEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode webhook payload: %w", err)
	}

	if event.ID != "" {
		seen, err := s.webhookEventRepo.Exists(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("check webhook event dedup: %w", err)
		}
		if seen {
			slog.InfoContext(ctx, "duplicate processor event, skipping",
				"event_id", event.ID, "event_type", event.Type)
			return nil
		}
	}

	switch event.Type {
	case "checkout.session.completed":
		if err := s.handleCheckoutCompleted(ctx, &event); err != nil {
			return err
		}
	case "checkout.session.expired":
		if err := s.handleCheckoutExpired(ctx, &event); err != nil {
			return err
		}
	case "charge.refunded":
		if err := s.handleChargeRefunded(ctx, &event); err != nil {
			return err
		}
	default:
		// unrecognized event types are acknowledged and ignored
		return nil
	}

	if event.ID != "" {
		if err := s.webhookEventRepo.MarkProcessed(ctx, event.ID, event.Type); err != nil {
			slog.ErrorContext(ctx, "record processed webhook event",
				"event_id", event.ID, "error", err)
		}
	}

	return nil
}

func (s *paymentServiceImpl) handleCheckoutCompleted(ctx context.Context, event *model.ProcessorEvent) error {
	var session model.ProcessorSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	orderID := session.Metadata.OrderID
	if orderID == "" {
		return fmt.Errorf("checkout session %s missing order_id metadata", session.ID)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.WarnContext(ctx, "checkout completed for unknown order",
				"order_id", orderID, "session_id", session.ID)
			return nil
		}
		return fmt.Errorf("find order: %w", err)
	}

	// The session amounts are authoritative: the processor may recalculate
	// shipping and tax during checkout.
	totals := PaidTotals{
		SubtotalCents: session.AmountSubtotal,
		ShippingCents: session.TotalDetails.AmountShipping,
		TaxCents:      session.TotalDetails.AmountTax,
		TotalCents:    session.AmountTotal,
	}

	applied, err := s.ledger.MarkPaid(ctx, orderID, session.PaymentIntent, order.VendorCostCents, totals)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if !applied {
		// already paid (webhook replay) or already terminal; nothing to do,
		// and no duplicate vendor submission
		slog.InfoContext(ctx, "checkout completed event is stale, skipping",
			"order_id", orderID, "status", string(order.Status))
		return nil
	}

	if err := s.fulfillment.SubmitOrder(ctx, orderID); err != nil {
		s.compensateSubmissionFailure(ctx, orderID, session.PaymentIntent, err)
	}

	return nil
}

// compensateSubmissionFailure refunds the captured payment and parks the order
// in FAILED. The guarded MarkFailed doubles as the refund gate: only the
// writer that actually moved the order issues the refund, so a racing manual
// cancel cannot cause a second one.
func (s *paymentServiceImpl) compensateSubmissionFailure(ctx context.Context, orderID, paymentIntentID string, cause error) {
	slog.ErrorContext(ctx, "vendor submission failed, refunding",
		"order_id", orderID, "error", cause)

	applied, err := s.ledger.MarkFailed(ctx, orderID, cause.Error())
	if err != nil {
		slog.ErrorContext(ctx, "mark order failed", "order_id", orderID, "error", err)
		return
	}
	if !applied {
		return
	}

	if _, err := s.processorClient.RefundPayment(ctx, paymentIntentID); err != nil {
		// order stays FAILED with the reason persisted; an operator must
		// reconcile the refund by hand
		slog.ErrorContext(ctx, "compensating refund failed, manual reconciliation required",
			"order_id", orderID, "payment_intent", paymentIntentID, "error", err)
	}
}

func (s *paymentServiceImpl) handleCheckoutExpired(ctx context.Context, event *model.ProcessorEvent) error {
	var session model.ProcessorSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	orderID := session.Metadata.OrderID
	if orderID == "" {
		return fmt.Errorf("checkout session %s missing order_id metadata", session.ID)
	}

	applied, err := s.ledger.MarkCheckoutExpired(ctx, orderID)
	if err != nil {
		return fmt.Errorf("mark checkout expired: %w", err)
	}
	if !applied {
		slog.WarnContext(ctx, "checkout expired for unknown or already-transitioned order",
			"order_id", orderID, "session_id", session.ID)
	}

	return nil
}

func (s *paymentServiceImpl) handleChargeRefunded(ctx context.Context, event *model.ProcessorEvent) error {
	var charge model.ProcessorCharge
	if err := json.Unmarshal(event.Data.Object, &charge); err != nil {
		return fmt.Errorf("decode charge: %w", err)
	}
	if charge.PaymentIntent == "" {
		return fmt.Errorf("charge %s missing payment intent", charge.ID)
	}

	order, err := s.orderRepo.FindByProcessorTxnID(ctx, charge.PaymentIntent)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.WarnContext(ctx, "refund event for unknown payment",
				"payment_intent", charge.PaymentIntent)
			return nil
		}
		return fmt.Errorf("find order by payment intent: %w", err)
	}

	if _, err := s.ledger.MarkRefunded(ctx, order.ID); err != nil {
		return fmt.Errorf("mark order refunded: %w", err)
	}

	return nil
}

func (s *paymentServiceImpl) ManualCancel(ctx context.Context, sellerID, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.SellerID != sellerID {
		return nil, ErrOrderNotFound
	}

	switch order.Status {
	case model.StatusPendingPayment, model.StatusPaid, model.StatusProcessing:
	default:
		return nil, ErrOrderNotCancellable
	}

	s.fulfillment.CancelVendorOrder(ctx, order.VendorOrderID)

	if order.ProcessorTxnID != "" {
		// payment captured: the guarded REFUNDED transition gates the refund
		// call so a racing webhook cannot double-refund
		applied, err := s.ledger.MarkRefunded(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("mark order refunded: %w", err)
		}
		if applied {
			if _, err := s.processorClient.RefundPayment(ctx, order.ProcessorTxnID); err != nil {
				slog.ErrorContext(ctx, "refund on manual cancel failed, manual reconciliation required",
					"order_id", order.ID, "payment_intent", order.ProcessorTxnID, "error", err)
			}
		}
	} else {
		if _, err := s.ledger.MarkCancelled(ctx, order.ID, ""); err != nil {
			return nil, fmt.Errorf("mark order cancelled: %w", err)
		}
	}

	return s.orderRepo.FindByID(ctx, orderID)
}
