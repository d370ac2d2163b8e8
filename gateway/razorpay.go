package gateway

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
	"time"

	"go.uber.org/zap"
)

// Razorpay talks to the Razorpay REST API. One instance is shared by all
// workers; it holds no per-request state.
type Razorpay struct {
	keyID     string
	keySecret string
	baseURL   string
	currency  string
	testMode  bool
	client    *http.Client
	logger    *zap.Logger
}

func NewRazorpay(keyID, keySecret, baseURL, currency string, testMode bool, logger *zap.Logger) *Razorpay {
	return &Razorpay{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		currency:  currency,
		testMode:  testMode,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateIntent registers the amount to collect and returns the gateway order
// id the client completes payment against.
func (r *Razorpay) CreateIntent(ctx context.Context, amountMinor int64, orderNumber string, notes map[string]string) (*Intent, error) {
	if r.testMode {
		if notes == nil {
			notes = map[string]string{}
		}
		notes["mode"] = "test"
	}
	payload := map[string]interface{}{
		"amount":   amountMinor,
		"currency": r.currency,
		"receipt":  orderNumber,
		"notes":    notes,
	}

	var resp struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := r.post(ctx, "/v1/orders", payload, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("gateway returned empty order id")
	}

	r.logger.Info("gateway intent created",
		zap.String("order_number", orderNumber),
		zap.String("gateway_order_id", resp.ID),
		zap.Int64("amount", amountMinor))

	return &Intent{GatewayOrderID: resp.ID, Amount: resp.Amount, Currency: resp.Currency}, nil
}

// VerifySignature recomputes the HMAC the gateway signs its callbacks with
// and compares it in constant time. The secret never leaves the server.
func (r *Razorpay) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(r.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Refund issues a refund against an already-captured payment.
func (r *Razorpay) Refund(ctx context.Context, gatewayPaymentID string, amountMinor int64, notes map[string]string) (*RefundResult, error) {
	payload := map[string]interface{}{
		"amount": amountMinor,
		"notes":  notes,
	}

	var resp struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/v1/payments/%s/refund", gatewayPaymentID)
	if err := r.post(ctx, path, payload, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("gateway returned empty refund id")
	}

	r.logger.Info("gateway refund issued",
		zap.String("gateway_payment_id", gatewayPaymentID),
		zap.String("refund_id", resp.ID))

	return &RefundResult{RefundID: resp.ID}, nil
}

func (r *Razorpay) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: gateway answered %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr razorpayError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Description != "" {
			return fmt.Errorf("gateway error (%d): %s", resp.StatusCode, apiErr.Error.Description)
		}
		return fmt.Errorf("gateway error (%d): %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse gateway response: %v", err)
	}
	return nil
}
