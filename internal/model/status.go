package model

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	StatusPaid           OrderStatus = "PAID"
	StatusProcessing     OrderStatus = "PROCESSING"
	StatusShipped        OrderStatus = "SHIPPED"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
	StatusRefunded       OrderStatus = "REFUNDED"
	StatusFailed         OrderStatus = "FAILED"
)

// statusRank is a total order over the forward fulfillment chain. Terminal
// branch states (CANCELLED, REFUNDED, FAILED) sit outside the chain and are
// handled by IsTerminal instead.
var statusRank = map[OrderStatus]int{
	StatusPendingPayment: 0,
	StatusPaid:           1,
	StatusProcessing:     2,
	StatusShipped:        3,
	StatusDelivered:      4,
}

func (s OrderStatus) Rank() (int, bool) {
	r, ok := statusRank[s]
	return r, ok
}

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusRefunded, StatusFailed:
		return true
	}
	return false
}

// Advances reports whether moving from s to next is a forward move on the
// fulfillment chain. A webhook replayed against an order already at (or past)
// the target state must be a no-op, never a regression.
func (s OrderStatus) Advances(next OrderStatus) bool {
	cur, ok := s.Rank()
	if !ok {
		return false
	}
	nxt, ok := next.Rank()
	if !ok {
		return false
	}
	return nxt > cur
}
