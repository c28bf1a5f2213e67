package service

import (
	"context"
	"printroom-fulfillment/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_MarkPaid_FromPendingPayment(t *testing.T) {
	db := newTestDB(t)
	ledger, _ := newLedger(db)
	seedOrder(t, db, nil)

	totals := PaidTotals{SubtotalCents: 4500, ShippingCents: 650, TaxCents: 450, TotalCents: 5600}
	applied, err := ledger.MarkPaid(context.Background(), "ord_1", "pi_123", 1500, totals)
	require.NoError(t, err)
	assert.True(t, applied)

	order := reloadOrder(t, db, "ord_1")
	assert.Equal(t, model.StatusPaid, order.Status)
	assert.Equal(t, "pi_123", order.ProcessorTxnID)
	require.NotNil(t, order.PaidAt)

	// charged amounts overwrite the quoted ones
	assert.Equal(t, int64(5600), order.TotalCents)
	assert.Equal(t, order.SubtotalCents+order.ShippingCents+order.TaxCents, order.TotalCents)
	assert.Equal(t, order.TotalCents-order.VendorCostCents-order.ShippingCents-order.TaxCents, order.ProfitCents)
}

func TestLedger_MarkPaid_ReplayIsNoOp(t *testing.T) {
	db := newTestDB(t)
	ledger, _ := newLedger(db)
	seedOrder(t, db, nil)

	totals := PaidTotals{SubtotalCents: 4500, ShippingCents: 595, TaxCents: 400, TotalCents: 5495}
	applied, err := ledger.MarkPaid(context.Background(), "ord_1", "pi_123", 1500, totals)
	require.NoError(t, err)
	require.True(t, applied)

	firstPaidAt := reloadOrder(t, db, "ord_1").PaidAt

	applied, err = ledger.MarkPaid(context.Background(), "ord_1", "pi_123", 1500, totals)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, firstPaidAt, reloadOrder(t, db, "ord_1").PaidAt)
}

func TestLedger_MarkCheckoutExpired(t *testing.T) {
	db := newTestDB(t)
	ledger, _ := newLedger(db)
	seedOrder(t, db, nil)

	applied, err := ledger.MarkCheckoutExpired(context.Background(), "ord_1")
	require.NoError(t, err)
	assert.True(t, applied)

	order := reloadOrder(t, db, "ord_1")
	assert.Equal(t, model.StatusCancelled, order.Status)
	assert.NotNil(t, order.CancelledAt)
	assert.Nil(t, order.RefundedAt)
}

func TestLedger_MarkProcessing_RequiresPaid(t *testing.T) {
	db := newTestDB(t)
	ledger, _ := newLedger(db)
	seedOrder(t, db, nil)

	applied, err := ledger.MarkProcessing(context.Background(), "ord_1", "vnd_1", "InProgress")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, model.StatusPendingPayment, reloadOrder(t, db, "ord_1").Status)
	assert.Empty(t, reloadOrder(t, db, "ord_1").VendorOrderID)
}

func TestLedger_ForwardChain(t *testing.T) {
	db := newTestDB(t)
	ledger, _ := newLedger(db)
	seedOrder(t, db, func(o *model.Order) {
		o.Status = model.StatusPaid
	})

	ctx := context.Background()

	applied, err := ledger.MarkProcessing(ctx, "ord_1", "vnd_1", "InProgress")
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, "vnd_1", reloadOrder(t, db, "ord_1").VendorOrderID)

	shippedAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	applied, err = ledger.MarkShipped(ctx, "ord_1", "1Z999", "https://track.example/1Z999", shippedAt, "Complete")
	require.NoError(t, err)
	require.True(t, applied)

	order := reloadOrder(t, db, "ord_1")
	assert.Equal(t, model.StatusShipped, order.Status)
	assert.Equal(t, "1Z999", order.TrackingNumber)
	require.NotNil(t, order.ShippedAt)
	assert.True(t, shippedAt.Equal(*order.ShippedAt))

	applied, err = ledger.MarkDelivered(ctx, "ord_1", "Complete")
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, model.StatusDelivered, reloadOrder(t, db, "ord_1").Status)
}

func TestLedger_NoRegressionFromShipped(t *testing.T) {
	db := newTestDB(t)
	ledger, _ := newLedger(db)
	now := time.Now()
	seedOrder(t, db, func(o *model.Order) {
		o.Status = model.StatusShipped
		o.VendorOrderID = "vnd_1"
		o.TrackingNumber = "1Z999"
		o.ShippedAt = &now
	})

	// a late InProgress/processing event must not move the order back
	applied, err := ledger.MarkProcessing(context.Background(), "ord_1", "vnd_1", "InProgress")
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = ledger.MarkShipped(context.Background(), "ord_1", "1Z000", "", time.Now(), "InProgress")
	require.NoError(t, err)
	assert.False(t, applied)

	order := reloadOrder(t, db, "ord_1")
	assert.Equal(t, model.StatusShipped, order.Status)
	assert.Equal(t, "1Z999", order.TrackingNumber)
}

func TestLedger_MarkFailed_OnlyFromPaid(t *testing.T) {
	db := newTestDB(t)
	ledger, _ := newLedger(db)
	seedOrder(t, db, func(o *model.Order) {
		o.Status = model.StatusPaid
	})

	applied, err := ledger.MarkFailed(context.Background(), "ord_1", "vendor unreachable")
	require.NoError(t, err)
	require.True(t, applied)

	order := reloadOrder(t, db, "ord_1")
	assert.Equal(t, model.StatusFailed, order.Status)
	require.NotNil(t, order.FailureReason)
	assert.Equal(t, "vendor unreachable", *order.FailureReason)

	// second writer loses the race
	applied, err = ledger.MarkFailed(context.Background(), "ord_1", "other reason")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "vendor unreachable", *reloadOrder(t, db, "ord_1").FailureReason)
}

func TestLedger_MarkCancelled_FromNonTerminalOnly(t *testing.T) {
	cases := []struct {
		status  model.OrderStatus
		applied bool
	}{
		{model.StatusPendingPayment, true},
		{model.StatusPaid, true},
		{model.StatusProcessing, true},
		{model.StatusShipped, true},
		{model.StatusDelivered, false},
		{model.StatusCancelled, false},
		{model.StatusRefunded, false},
		{model.StatusFailed, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			db := newTestDB(t)
			ledger, _ := newLedger(db)
			seedOrder(t, db, func(o *model.Order) {
				o.Status = tc.status
			})

			applied, err := ledger.MarkCancelled(context.Background(), "ord_1", "Cancelled")
			require.NoError(t, err)
			assert.Equal(t, tc.applied, applied)
		})
	}
}

func TestLedger_MarkRefunded_PostPaymentOnly(t *testing.T) {
	cases := []struct {
		status  model.OrderStatus
		applied bool
	}{
		{model.StatusPendingPayment, false},
		{model.StatusPaid, true},
		{model.StatusProcessing, true},
		{model.StatusShipped, true},
		{model.StatusDelivered, true},
		{model.StatusFailed, true},
		{model.StatusCancelled, false},
		{model.StatusRefunded, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			db := newTestDB(t)
			ledger, _ := newLedger(db)
			seedOrder(t, db, func(o *model.Order) {
				o.Status = tc.status
			})

			applied, err := ledger.MarkRefunded(context.Background(), "ord_1")
			require.NoError(t, err)
			assert.Equal(t, tc.applied, applied)

			if tc.applied {
				order := reloadOrder(t, db, "ord_1")
				assert.NotNil(t, order.RefundedAt)
				assert.Nil(t, order.CancelledAt)
			}
		})
	}
}
