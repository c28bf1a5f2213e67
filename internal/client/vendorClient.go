package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"printroom-fulfillment/internal/config"
	"time"

	"github.com/shopspring/decimal"
)

const VendorSignatureHeader = "X-Vendor-Signature"

type VendorAddress struct {
	Name     string `json:"name"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postal_or_zip_code"`
	Country  string `json:"country_code"`
}

type VendorLineItem struct {
	Sku        string            `json:"sku"`
	Copies     int32             `json:"copies"`
	Attributes map[string]string `json:"attributes,omitempty"`
	AssetURL   string            `json:"asset_url,omitempty"`
}

type VendorCreateOrderRequest struct {
	MerchantReference string           `json:"merchant_reference"`
	ShippingMethod    string           `json:"shipping_method"`
	Currency          string           `json:"currency"`
	Recipient         VendorAddress    `json:"recipient"`
	Items             []VendorLineItem `json:"items"`
}

type VendorOrderResult struct {
	VendorOrderID string
	Status        string
}

type VendorQuoteRequest struct {
	DestinationCountry string           `json:"destination_country"`
	ShippingMethod     string           `json:"shipping_method,omitempty"`
	Currency           string           `json:"currency"`
	Items              []VendorLineItem `json:"items"`
}

// VendorQuoteOption is one shipping-method pricing row of a quote response,
// converted to minor units.
type VendorQuoteOption struct {
	ShippingMethod string
	Currency       string
	ItemsCents     int64
	ShippingCents  int64
	TaxCents       int64
	TotalCents     int64
}

type VendorClient interface {
	CreateOrder(ctx context.Context, req *VendorCreateOrderRequest) (*VendorOrderResult, error)
	Quote(ctx context.Context, req *VendorQuoteRequest) ([]*VendorQuoteOption, error)
	CancelOrder(ctx context.Context, vendorOrderID string) error
	// VerifyWebhookSignature is a no-op when no webhook secret is configured.
	// Production deployments refuse to start without a secret (see cmd/api).
	VerifyWebhookSignature(header string, body []byte) error
}

type vendorClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	apiKey        string
	webhookSecret string
}

func NewVendorClient(cfg *config.Vendor) VendorClient {
	return &vendorClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    cfg.BaseApiURL,
		apiKey:        cfg.ApiKey,
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *vendorClientImpl) CreateOrder(ctx context.Context, req *VendorCreateOrderRequest) (*VendorOrderResult, error) {
	var result struct {
		Order struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"order"`
	}
	if err := c.postJSON(ctx, "/v1/orders", req, &result); err != nil {
		return nil, fmt.Errorf("vendor create order: %w", err)
	}

	if result.Order.ID == "" {
		return nil, fmt.Errorf("vendor create order: empty order id in response")
	}

	return &VendorOrderResult{
		VendorOrderID: result.Order.ID,
		Status:        result.Order.Status,
	}, nil
}

func (c *vendorClientImpl) Quote(ctx context.Context, req *VendorQuoteRequest) ([]*VendorQuoteOption, error) {
	// vendor quote amounts arrive as decimal strings, e.g. "15.49"
	var result struct {
		Quotes []struct {
			ShippingMethod string `json:"shipping_method"`
			CostSummary    struct {
				Items     vendorAmount `json:"items"`
				Shipping  vendorAmount `json:"shipping"`
				Tax       vendorAmount `json:"tax"`
				TotalCost vendorAmount `json:"total_cost"`
			} `json:"cost_summary"`
		} `json:"quotes"`
	}
	if err := c.postJSON(ctx, "/v1/quotes", req, &result); err != nil {
		return nil, fmt.Errorf("vendor quote: %w", err)
	}

	options := make([]*VendorQuoteOption, 0, len(result.Quotes))
	for _, q := range result.Quotes {
		items, err := q.CostSummary.Items.Cents()
		if err != nil {
			return nil, fmt.Errorf("vendor quote items amount: %w", err)
		}
		shipping, err := q.CostSummary.Shipping.Cents()
		if err != nil {
			return nil, fmt.Errorf("vendor quote shipping amount: %w", err)
		}
		tax, err := q.CostSummary.Tax.Cents()
		if err != nil {
			return nil, fmt.Errorf("vendor quote tax amount: %w", err)
		}
		total, err := q.CostSummary.TotalCost.Cents()
		if err != nil {
			return nil, fmt.Errorf("vendor quote total amount: %w", err)
		}

		options = append(options, &VendorQuoteOption{
			ShippingMethod: q.ShippingMethod,
			Currency:       q.CostSummary.TotalCost.Currency,
			ItemsCents:     items,
			ShippingCents:  shipping,
			TaxCents:       tax,
			TotalCents:     total,
		})
	}

	return options, nil
}

func (c *vendorClientImpl) CancelOrder(ctx context.Context, vendorOrderID string) error {
	url := fmt.Sprintf("%s/v1/orders/%s/actions/cancel", c.baseApiURL, vendorOrderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vendor cancel request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vendor cancel failed: status=%d body=%s", resp.StatusCode, string(b))
	}

	return nil
}

func (c *vendorClientImpl) VerifyWebhookSignature(header string, body []byte) error {
	if c.webhookSecret == "" {
		return nil
	}
	if header == "" {
		return fmt.Errorf("missing vendor signature header")
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(header), []byte(expected)) {
		return fmt.Errorf("vendor signature mismatch")
	}

	return nil
}

func (c *vendorClientImpl) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+path,
		bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vendor error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode vendor response: %w", err)
	}

	return nil
}

type vendorAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (a vendorAmount) Cents() (int64, error) {
	if a.Amount == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(a.Amount)
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// SignVendorPayload produces an X-Vendor-Signature header value for body.
func SignVendorPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
