package model

// VendorStage is the vendor's coarse order lifecycle label.
type VendorStage string

const (
	VendorStageInProgress VendorStage = "InProgress"
	VendorStageComplete   VendorStage = "Complete"
	VendorStageCancelled  VendorStage = "Cancelled"
)

func (s VendorStage) Known() bool {
	switch s {
	case VendorStageInProgress, VendorStageComplete, VendorStageCancelled:
		return true
	}
	return false
}

type VendorShipment struct {
	ID             string `json:"id"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
	DispatchDate   string `json:"dispatch_date"` // RFC 3339
}

// VendorWebhookEvent is the payload of the vendor's status callback.
type VendorWebhookEvent struct {
	OrderID   string           `json:"order_id"`
	Stage     VendorStage      `json:"stage"`
	Status    string           `json:"status"`
	Shipments []VendorShipment `json:"shipments"`
}
