package razorpay

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

	"github.com/thriftshop/storefront/pkg/logger"
)

type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) KeyID() string {
	return c.config.KeyID
}

func (c *Client) Currency() string {
	return c.config.Currency
}

// CreateOrder registers an order with the gateway before checkout opens.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.Amount <= 0 || req.Receipt == "" {
		return nil, ErrInvalidRequest
	}
	if req.Currency == "" {
		req.Currency = c.config.Currency
	}

	body, err := c.doRequest(ctx, http.MethodPost, "orders", req)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order response: %w", err)
	}
	return &order, nil
}

// FetchOrder reads an order back, mostly to reconcile its status.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "orders/"+orderID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gateway order: %w", err)
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order response: %w", err)
	}
	return &order, nil
}

// VerifySignature checks the checkout callback signature, an HMAC-SHA256 of
// "order_id|payment_id" keyed with the key secret.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return hmac.Equal([]byte(Sign(c.config.KeySecret, orderID, paymentID)), []byte(signature))
}

// Sign computes the callback signature for orderID and paymentID.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := fmt.Sprintf("%s/%s", c.config.BaseURL, endpoint)
	logger.Debug("Payment gateway request", map[string]interface{}{
		"method": method,
		"url":    url,
	})

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.config.KeyID, c.config.KeySecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		var errResp ErrorResponse
		detail := string(body)
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Description != "" {
			detail = errResp.Error.Code + ": " + errResp.Error.Description
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, detail)
		case http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, detail)
		default:
			return nil, fmt.Errorf("%w: status %d: %s", ErrPaymentFailed, resp.StatusCode, detail)
		}
	}

	return body, nil
}
