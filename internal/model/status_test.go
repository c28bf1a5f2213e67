package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_Advances(t *testing.T) {
	assert.True(t, StatusPendingPayment.Advances(StatusPaid))
	assert.True(t, StatusPaid.Advances(StatusShipped))
	assert.True(t, StatusProcessing.Advances(StatusDelivered))

	// no regressions along the chain
	assert.False(t, StatusShipped.Advances(StatusProcessing))
	assert.False(t, StatusDelivered.Advances(StatusShipped))
	assert.False(t, StatusPaid.Advances(StatusPaid))

	// branch states are outside the chain
	assert.False(t, StatusCancelled.Advances(StatusShipped))
	assert.False(t, StatusPaid.Advances(StatusRefunded))
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	for _, s := range []OrderStatus{StatusDelivered, StatusCancelled, StatusRefunded, StatusFailed} {
		assert.True(t, s.IsTerminal(), string(s))
	}
	for _, s := range []OrderStatus{StatusPendingPayment, StatusPaid, StatusProcessing, StatusShipped} {
		assert.False(t, s.IsTerminal(), string(s))
	}
}
