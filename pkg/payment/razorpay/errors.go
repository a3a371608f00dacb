package razorpay

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request parameters")

	ErrPaymentFailed = errors.New("payment gateway request failed")

	ErrNetworkError = errors.New("network error")

	ErrUnauthorized = errors.New("unauthorized: invalid API key")
)
