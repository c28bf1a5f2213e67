package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"printroom-fulfillment/internal/config"
	"strconv"
	"strings"
	"time"
)

const SignatureHeader = "Processor-Signature"

// signatureTolerance bounds how old a signed webhook timestamp may be.
const signatureTolerance = 5 * time.Minute

type CheckoutLineItem struct {
	Name            string
	Sku             string
	UnitAmountCents int64
	Quantity        int32
}

type CreateCheckoutSessionParams struct {
	OrderID       string
	CustomerEmail string
	Currency      string
	LineItems     []CheckoutLineItem
	SuccessURL    string
	CancelURL     string
}

type CheckoutSessionResult struct {
	SessionID   string
	CheckoutURL string
}

type RefundResult struct {
	RefundID string
	Status   string
}

type ProcessorClient interface {
	CreateCheckoutSession(ctx context.Context, params *CreateCheckoutSessionParams) (*CheckoutSessionResult, error)
	RefundPayment(ctx context.Context, paymentIntentID string) (*RefundResult, error)
	VerifyWebhookSignature(header string, body []byte) error
}

type processorClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	secretKey     string
	webhookSecret string
}

func NewProcessorClient(cfg *config.Processor) ProcessorClient {
	return &processorClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    cfg.BaseApiURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *processorClientImpl) CreateCheckoutSession(ctx context.Context, params *CreateCheckoutSessionParams) (*CheckoutSessionResult, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("currency", strings.ToLower(params.Currency))
	form.Set("customer_email", params.CustomerEmail)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("metadata[order_id]", params.OrderID)

	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", strings.ToLower(params.Currency))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmountCents, 10))
		form.Set(prefix+"[quantity]", strconv.FormatInt(int64(item.Quantity), 10))
	}

	var result struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.postForm(ctx, "/v1/checkout/sessions", form, &result); err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSessionResult{
		SessionID:   result.ID,
		CheckoutURL: result.URL,
	}, nil
}

func (c *processorClientImpl) RefundPayment(ctx context.Context, paymentIntentID string) (*RefundResult, error) {
	form := url.Values{}
	form.Set("payment_intent", paymentIntentID)

	var result struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.postForm(ctx, "/v1/refunds", form, &result); err != nil {
		return nil, fmt.Errorf("refund payment: %w", err)
	}

	return &RefundResult{
		RefundID: result.ID,
		Status:   result.Status,
	}, nil
}

func (c *processorClientImpl) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("processor error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode processor response: %w", err)
	}

	return nil
}

// VerifyWebhookSignature checks the Processor-Signature header against the raw
// request body. The header format is "t=<unix>,v1=<hex hmac>" with the HMAC
// computed over "<t>.<body>".
func (c *processorClientImpl) VerifyWebhookSignature(header string, body []byte) error {
	return verifySignedPayload(c.webhookSecret, header, body, time.Now())
}

func verifySignedPayload(secret, header string, body []byte, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("webhook secret not configured")
	}
	if header == "" {
		return fmt.Errorf("missing signature header")
	}

	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}

	if ts == "" || len(sigs) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed signature timestamp")
	}
	if now.Sub(time.Unix(unix, 0)) > signatureTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range sigs {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}

	return fmt.Errorf("signature mismatch")
}

// SignPayload produces a Processor-Signature header value for body at ts.
// Used by tests and local webhook replay tooling.
func SignPayload(secret string, body []byte, ts time.Time) string {
	unix := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(unix))
	mac.Write([]byte("."))
	mac.Write(body)
	return fmt.Sprintf("t=%s,v1=%s", unix, hex.EncodeToString(mac.Sum(nil)))
}
