package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"printroom-fulfillment/internal/model"
	"printroom-fulfillment/internal/repository"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type paymentFixture struct {
	db        *gorm.DB
	processor *fakeProcessorClient
	vendor    *fakeVendorClient
	payment   PaymentService
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	db := newTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	ledger := NewLedgerService(orderRepo)

	processor := &fakeProcessorClient{}
	vendor := &fakeVendorClient{}

	fulfillment := NewFulfillmentService(vendor, ledger, orderRepo)
	payment := NewPaymentService(processor, fulfillment, ledger, orderRepo, webhookEventRepo)

	return &paymentFixture{
		db:        db,
		processor: processor,
		vendor:    vendor,
		payment:   payment,
	}
}

func processorEventBody(t *testing.T, eventID, eventType string, object interface{}) []byte {
	t.Helper()

	raw, err := json.Marshal(object)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]interface{}{
		"id":      eventID,
		"type":    eventType,
		"created": 1756600000,
		"data":    map[string]json.RawMessage{"object": raw},
	})
	require.NoError(t, err)

	return body
}

func checkoutSession(orderID string) model.ProcessorSession {
	return model.ProcessorSession{
		ID:             "cs_test_1",
		PaymentIntent:  "pi_123",
		PaymentStatus:  "paid",
		Currency:       "usd",
		AmountSubtotal: 4500,
		AmountTotal:    5600,
		TotalDetails: model.ProcessorTotalDetails{
			AmountShipping: 650,
			AmountTax:      450,
		},
		Metadata: model.ProcessorMetadata{OrderID: orderID},
	}
}

func TestPayment_CheckoutCompleted_PaysAndSubmits(t *testing.T) {
	f := newPaymentFixture(t)
	seedOrder(t, f.db, nil)
	seedOrderItems(t, f.db, "ord_1")

	body := processorEventBody(t, "evt_1", "checkout.session.completed", checkoutSession("ord_1"))
	require.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{}, body))

	order := reloadOrder(t, f.db, "ord_1")
	assert.Equal(t, model.StatusProcessing, order.Status)
	assert.Equal(t, "pi_123", order.ProcessorTxnID)
	assert.NotEmpty(t, order.VendorOrderID)
	assert.NotNil(t, order.PaidAt)
	assert.Equal(t, order.SubtotalCents+order.ShippingCents+order.TaxCents, order.TotalCents)

	require.Len(t, f.vendor.createdOrders, 1)
	assert.Equal(t, "ord_1", f.vendor.createdOrders[0].MerchantReference)
}

func TestPayment_CheckoutCompleted_ReplaySubmitsOnce(t *testing.T) {
	f := newPaymentFixture(t)
	seedOrder(t, f.db, nil)
	seedOrderItems(t, f.db, "ord_1")

	session := checkoutSession("ord_1")
	require.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{},
		processorEventBody(t, "evt_1", "checkout.session.completed", session)))

	paidAt := reloadOrder(t, f.db, "ord_1").PaidAt

	// same event redelivered with a fresh event id: state guard catches it
	require.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{},
		processorEventBody(t, "evt_2", "checkout.session.completed", session)))

	assert.Len(t, f.vendor.createdOrders, 1)
	assert.Equal(t, paidAt, reloadOrder(t, f.db, "ord_1").PaidAt)

	// identical event id redelivered: dedup table catches it before dispatch
	require.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{},
		processorEventBody(t, "evt_1", "checkout.session.completed", session)))
	assert.Len(t, f.vendor.createdOrders, 1)
}

func TestPayment_SubmissionFailure_RefundsOnceAndFails(t *testing.T) {
	f := newPaymentFixture(t)
	f.vendor.createErr = fmt.Errorf("vendor create order: connection reset")
	seedOrder(t, f.db, nil)
	seedOrderItems(t, f.db, "ord_1")

	body := processorEventBody(t, "evt_1", "checkout.session.completed", checkoutSession("ord_1"))

	// fulfillment failure must not surface as a webhook error
	require.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{}, body))

	order := reloadOrder(t, f.db, "ord_1")
	assert.Equal(t, model.StatusFailed, order.Status)
	require.NotNil(t, order.FailureReason)
	assert.Contains(t, *order.FailureReason, "connection reset")

	require.Len(t, f.processor.refunds, 1)
	assert.Equal(t, "pi_123", f.processor.refunds[0])

	// redelivery cannot issue a second refund: the order already left PAID
	require.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{},
		processorEventBody(t, "evt_2", "checkout.session.completed", checkoutSession("ord_1"))))
	assert.Len(t, f.processor.refunds, 1)
}

func TestPayment_SubmissionFailure_RefundFailureIsSwallowed(t *testing.T) {
	f := newPaymentFixture(t)
	f.vendor.createErr = fmt.Errorf("vendor unreachable")
	f.processor.refundErr = fmt.Errorf("processor unavailable")
	seedOrder(t, f.db, nil)
	seedOrderItems(t, f.db, "ord_1")

	body := processorEventBody(t, "evt_1", "checkout.session.completed", checkoutSession("ord_1"))
	require.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{}, body))

	// order stays FAILED for operator reconciliation
	assert.Equal(t, model.StatusFailed, reloadOrder(t, f.db, "ord_1").Status)
	assert.Empty(t, f.processor.refunds)
}

func TestPayment_CheckoutExpired_Cancels(t *testing.T) {
	f := newPaymentFixture(t)
	seedOrder(t, f.db, nil)

	body := processorEventBody(t, "evt_1", "checkout.session.expired", checkoutSession("ord_1"))
	require.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{}, body))

	order := reloadOrder(t, f.db, "ord_1")
	assert.Equal(t, model.StatusCancelled, order.Status)
	assert.NotNil(t, order.CancelledAt)
}

func TestPayment_CheckoutExpired_UnknownOrderWarnsAndAcks(t *testing.T) {
	f := newPaymentFixture(t)

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	body := processorEventBody(t, "evt_1", "checkout.session.expired", checkoutSession("ord_missing"))
	assert.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{}, body))

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "ord_missing")
}

func TestPayment_CheckoutExpired_PaidOrderUntouched(t *testing.T) {
	f := newPaymentFixture(t)
	seedOrder(t, f.db, func(o *model.Order) {
		o.Status = model.StatusPaid
		o.ProcessorTxnID = "pi_123"
	})

	body := processorEventBody(t, "evt_1", "checkout.session.expired", checkoutSession("ord_1"))
	require.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{}, body))

	order := reloadOrder(t, f.db, "ord_1")
	assert.Equal(t, model.StatusPaid, order.Status)
	assert.Nil(t, order.CancelledAt)
}

func TestPayment_ChargeRefunded_MarksRefunded(t *testing.T) {
	f := newPaymentFixture(t)
	seedOrder(t, f.db, func(o *model.Order) {
		o.Status = model.StatusProcessing
		o.ProcessorTxnID = "pi_123"
		o.VendorOrderID = "vnd_1"
	})

	body := processorEventBody(t, "evt_1", "charge.refunded", model.ProcessorCharge{
		ID:            "ch_1",
		PaymentIntent: "pi_123",
		Refunded:      true,
	})
	require.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{}, body))

	order := reloadOrder(t, f.db, "ord_1")
	assert.Equal(t, model.StatusRefunded, order.Status)
	assert.NotNil(t, order.RefundedAt)
	assert.Nil(t, order.CancelledAt)
}

func TestPayment_UnknownOrder_IsAcknowledged(t *testing.T) {
	f := newPaymentFixture(t)

	body := processorEventBody(t, "evt_1", "checkout.session.completed", checkoutSession("ord_missing"))
	assert.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{}, body))
	assert.Empty(t, f.vendor.createdOrders)
}

func TestPayment_UnknownEventType_IsAcknowledged(t *testing.T) {
	f := newPaymentFixture(t)

	body := processorEventBody(t, "evt_1", "invoice.created", map[string]string{"id": "in_1"})
	assert.NoError(t, f.payment.HandleWebhook(context.Background(), http.Header{}, body))
}

func TestPayment_BadSignature_Rejected(t *testing.T) {
	f := newPaymentFixture(t)
	f.processor.signatureErr = errors.New("signature mismatch")
	seedOrder(t, f.db, nil)

	body := processorEventBody(t, "evt_1", "checkout.session.completed", checkoutSession("ord_1"))
	err := f.payment.HandleWebhook(context.Background(), http.Header{}, body)
	require.Error(t, err)

	// no state mutation before verification
	assert.Equal(t, model.StatusPendingPayment, reloadOrder(t, f.db, "ord_1").Status)
}

func TestPayment_ManualCancel_CapturedPaymentRefunds(t *testing.T) {
	f := newPaymentFixture(t)
	f.vendor.cancelErr = errors.New("vendor cancel rejected")
	seedOrder(t, f.db, func(o *model.Order) {
		o.Status = model.StatusPaid
		o.ProcessorTxnID = "pi_123"
		o.VendorOrderID = "vnd_1"
	})

	order, err := f.payment.ManualCancel(context.Background(), "seller-1", "ord_1")
	require.NoError(t, err)

	// vendor cancel attempted, its failure tolerated
	assert.Equal(t, []string{"vnd_1"}, f.vendor.cancels)

	assert.Equal(t, model.StatusRefunded, order.Status)
	assert.NotNil(t, order.RefundedAt)
	assert.Equal(t, []string{"pi_123"}, f.processor.refunds)
}

func TestPayment_ManualCancel_PendingPaymentCancels(t *testing.T) {
	f := newPaymentFixture(t)
	seedOrder(t, f.db, nil)

	order, err := f.payment.ManualCancel(context.Background(), "seller-1", "ord_1")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCancelled, order.Status)
	assert.NotNil(t, order.CancelledAt)
	assert.Empty(t, f.processor.refunds)
	assert.Empty(t, f.vendor.cancels)
}

func TestPayment_ManualCancel_WrongSellerOrTerminal(t *testing.T) {
	f := newPaymentFixture(t)
	seedOrder(t, f.db, func(o *model.Order) {
		o.Status = model.StatusShipped
	})

	_, err := f.payment.ManualCancel(context.Background(), "seller-2", "ord_1")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.payment.ManualCancel(context.Background(), "seller-1", "ord_1")
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
}
