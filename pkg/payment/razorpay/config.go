package razorpay

const DefaultBaseURL = "https://api.razorpay.com/v1"

type Config struct {
	// KeyID is the public key id, also handed to the checkout widget.
	KeyID string

	// KeySecret authenticates API calls and signs payment callbacks.
	KeySecret string

	BaseURL string

	// Currency is the ISO code orders are created in, e.g. INR.
	Currency string
}

func (c *Config) Validate() error {
	if c.KeyID == "" || c.KeySecret == "" {
		return ErrInvalidRequest
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
	return nil
}
