package model

import "time"

type Order struct {
	ID       string `gorm:"primaryKey;size:64;not null"` // ord_<uuid>
	SellerID string `gorm:"size:64;index;not null"`

	CustomerName  string `gorm:"size:128;not null"`
	CustomerEmail string `gorm:"size:128;index;not null"`

	ShipName     string `gorm:"size:128"`
	ShipLine1    string `gorm:"size:256"`
	ShipLine2    string `gorm:"size:256"`
	ShipCity     string `gorm:"size:128"`
	ShipState    string `gorm:"size:64"`
	ShipPostcode string `gorm:"size:32"`
	ShipCountry  string `gorm:"size:2"` // ISO 3166-1 alpha-2

	Currency string `gorm:"size:8;not null"`
	// All amounts are minor units (cents).
	SubtotalCents   int64 `gorm:"not null"`
	ShippingCents   int64 `gorm:"not null"`
	TaxCents        int64 `gorm:"not null"`
	TotalCents      int64 `gorm:"not null"`
	VendorCostCents int64 `gorm:"not null"`
	// ProfitCents = TotalCents - VendorCostCents - ShippingCents - TaxCents;
	// shipping and tax are pass-through, not margin.
	ProfitCents int64 `gorm:"not null"`

	Status OrderStatus `gorm:"size:32;index;not null"`

	ProcessorSessionID string `gorm:"size:128;index"`
	ProcessorTxnID     string `gorm:"size:128;index"` // payment intent id
	VendorOrderID      string `gorm:"size:128;index"`
	VendorStatus       string `gorm:"size:64"`

	TrackingNumber string `gorm:"size:128"`
	TrackingURL    string `gorm:"size:512"`

	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
	RefundedAt  *time.Time

	FailureReason *string `gorm:"size:512"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → order.id; items are deleted only when the order row is removed
	// administratively, never as part of the order lifecycle.
	OrderID string `gorm:"size:64;index;not null"`

	PhotoID     string `gorm:"size:64;index;not null"`
	SKU         string `gorm:"size:64;not null"`
	ProductName string `gorm:"size:128;not null"`
	ProductSize string `gorm:"size:64"`

	Quantity       int32 `gorm:"not null"`
	UnitPriceCents int64 `gorm:"not null"`
	UnitCostCents  int64 `gorm:"not null"`
	// LineCostCents carries the spread remainder, so it can exceed
	// Quantity * UnitCostCents by up to the remainder cents.
	LineCostCents  int64 `gorm:"not null"`
	LineTotalCents int64 `gorm:"not null"` // Quantity * UnitPriceCents

	CreatedAt time.Time
}

type PriceSheet struct {
	ID       string `gorm:"primaryKey;size:64;not null"`
	SellerID string `gorm:"size:64;index;not null"`
	Name     string `gorm:"size:128;not null"`
	// at most one default sheet per seller, enforced in the repository
	IsDefault bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type PriceSheetItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → price_sheet.id
	PriceSheetID string `gorm:"size:64;index;not null"`

	SKU              string `gorm:"size:64;index;not null"`
	ProductName      string `gorm:"size:128;not null"`
	ProductSize      string `gorm:"size:64"`
	RetailPriceCents int64  `gorm:"not null"`

	CreatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;uniqueIndex;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
