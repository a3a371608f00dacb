package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// CreatePaymentOrder turns the authenticated user's cart into a pending
// order and a payment-gateway order.
func (c *Client) CreatePaymentOrder(ctx context.Context, req CheckoutRequest) (*PaymentOrder, error) {
	var po PaymentOrder
	if err := c.doRequest(ctx, http.MethodPost, "/orders/payment", nil, req, &po); err != nil {
		return nil, err
	}
	return &po, nil
}

func (c *Client) CreateGuestOrder(ctx context.Context, req GuestOrderRequest) (*PaymentOrder, error) {
	var po PaymentOrder
	if err := c.doRequest(ctx, http.MethodPost, "/orders/guest", nil, req, &po); err != nil {
		return nil, err
	}
	return &po, nil
}

func (c *Client) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*Order, error) {
	var o Order
	if err := c.doRequest(ctx, http.MethodPost, "/orders/verify-payment", nil, req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// PendingOrder looks an order up by number and buyer email, for guests.
func (c *Client) PendingOrder(ctx context.Context, orderNumber, email string) (*Order, error) {
	q := url.Values{}
	q.Set("order_number", orderNumber)
	q.Set("email", email)

	var o Order
	if err := c.doRequest(ctx, http.MethodGet, "/orders/pending", q, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var resp struct {
		Orders []Order `json:"orders"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/orders", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

func (c *Client) ShippingMethods(ctx context.Context) ([]ShippingMethod, error) {
	var resp struct {
		Methods []ShippingMethod `json:"methods"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/shipping/methods", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Methods, nil
}

func (c *Client) CalculateShipping(ctx context.Context, req ShippingQuoteRequest) (*ShippingQuote, error) {
	var q ShippingQuote
	if err := c.doRequest(ctx, http.MethodPost, "/shipping/calculate", nil, req, &q); err != nil {
		return nil, err
	}
	return &q, nil
}
