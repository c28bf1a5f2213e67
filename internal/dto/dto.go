package dto

type CartItem struct {
	PhotoID  string `json:"photo_id"`
	Sku      string `json:"sku"`
	Quantity int32  `json:"quantity"`
}

type ShippingAddress struct {
	Name     string `json:"name"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

type QuoteRequest struct {
	Country        string      `json:"country"`
	ShippingMethod string      `json:"shipping_method"`
	Items          []*CartItem `json:"items"`
}

type QuoteOption struct {
	ShippingMethod string `json:"shipping_method"`
	Shipping       string `json:"shipping"`
	Tax            string `json:"tax"`
	Total          string `json:"total"`
	Currency       string `json:"currency"`
}

type QuoteResponse struct {
	Options []*QuoteOption `json:"options"`
}

type CheckoutRequest struct {
	PriceSheetID   string          `json:"price_sheet_id"` // empty = seller default
	CustomerName   string          `json:"customer_name"`
	CustomerEmail  string          `json:"customer_email"`
	ShippingMethod string          `json:"shipping_method"`
	Address        ShippingAddress `json:"address"`
	Items          []*CartItem     `json:"items"`
}

type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	CheckoutURL string `json:"checkout_url"`
}

type OrderItemResponse struct {
	PhotoID     string `json:"photo_id"`
	Sku         string `json:"sku"`
	ProductName string `json:"product_name"`
	ProductSize string `json:"product_size"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type OrderResponse struct {
	OrderID        string               `json:"order_id"`
	Status         string               `json:"status"`
	CustomerName   string               `json:"customer_name"`
	CustomerEmail  string               `json:"customer_email"`
	Currency       string               `json:"currency"`
	Subtotal       string               `json:"subtotal"`
	Shipping       string               `json:"shipping"`
	Tax            string               `json:"tax"`
	Total          string               `json:"total"`
	Profit         string               `json:"profit"`
	TrackingNumber string               `json:"tracking_number,omitempty"`
	TrackingURL    string               `json:"tracking_url,omitempty"`
	FailureReason  string               `json:"failure_reason,omitempty"`
	Items          []*OrderItemResponse `json:"items,omitempty"`
}

type PriceSheetItemRequest struct {
	Sku         string `json:"sku"`
	ProductName string `json:"product_name"`
	ProductSize string `json:"product_size"`
	RetailPrice string `json:"retail_price"` // decimal string, e.g. "24.50"
}

type CreatePriceSheetRequest struct {
	Name      string                   `json:"name"`
	IsDefault bool                     `json:"is_default"`
	Items     []*PriceSheetItemRequest `json:"items"`
}

type PriceSheetResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}
