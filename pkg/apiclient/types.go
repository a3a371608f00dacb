package apiclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString decodes a JSON string or number into its string form. null and
// absent decode to "".
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

func (s FlexString) String() string { return string(s) }

// FlexFloat decodes a JSON number or numeric string. Anything else decodes to 0.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(n)
	return nil
}

// NamedRef is a brand or category reference embedded in a product.
type NamedRef struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
	Slug string     `json:"slug"`
}

// Product is the catalog representation of a single garment.
type Product struct {
	ID            FlexString `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description,omitempty"`
	Brand         *NamedRef  `json:"brand,omitempty"`
	Category      *NamedRef  `json:"category,omitempty"`
	Size          string     `json:"size"`
	Color         string     `json:"color"`
	Material      string     `json:"material"`
	Era           string     `json:"era"`
	Gender        string     `json:"gender"`
	Condition     string     `json:"condition"`
	Price         FlexFloat  `json:"price"`
	OriginalPrice FlexFloat  `json:"original_price,omitempty"`
	IsAvailable   bool       `json:"is_available"`
	IsFeatured    bool       `json:"is_featured"`
	Quantity      int        `json:"quantity"`
	Tags          []string   `json:"tags,omitempty"`
	PrimaryImage  string     `json:"primary_image"`
}

// CartEntry is one raw line of a cart payload. Servers and older cached
// shadows disagree on which fields are present; normalization in the
// storefront package resolves them.
type CartEntry struct {
	ID        FlexString `json:"id,omitempty"`
	ProductID FlexString `json:"product_id,omitempty"`
	Product   *Product   `json:"product,omitempty"`
	Key       string     `json:"key,omitempty"`
	Price     FlexFloat  `json:"price,omitempty"`
	Quantity  int        `json:"quantity,omitempty"`
	Title     string     `json:"title,omitempty"`
	Image     string     `json:"image,omitempty"`
	Size      string     `json:"size,omitempty"`
	Color     string     `json:"color,omitempty"`
}

// CartSnapshot is the authoritative cart returned by every cart endpoint.
// Totals are informational; clients derive their own.
type CartSnapshot struct {
	Items      []CartEntry `json:"items"`
	TotalItems int         `json:"total_items"`
	TotalPrice FlexFloat   `json:"total_price"`
}

// UnmarshalJSON accepts both the envelope object and a bare array of entries.
func (c *CartSnapshot) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []CartEntry
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*c = CartSnapshot{Items: items}
		return nil
	}
	type envelope CartSnapshot
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*c = CartSnapshot(env)
	return nil
}

type WishlistItem struct {
	ID        FlexString `json:"id"`
	ProductID FlexString `json:"product_id"`
	Product   *Product   `json:"product,omitempty"`
}

type Wishlist struct {
	Items []WishlistItem `json:"items"`
	Count int            `json:"count"`
}

type Profile struct {
	ID    FlexString `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  string     `json:"role,omitempty"`
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PriceRange struct {
	Min FlexFloat `json:"min"`
	Max FlexFloat `json:"max"`
}

// FilterOptions lists the values each catalog facet can take.
type FilterOptions struct {
	Brands     []NamedRef `json:"brands"`
	Categories []NamedRef `json:"categories"`
	Sizes      []string   `json:"sizes"`
	Conditions []string   `json:"conditions"`
	Genders    []string   `json:"genders"`
	Materials  []string   `json:"materials"`
	Eras       []string   `json:"eras"`
	Colors     []string   `json:"colors"`
	PriceRange PriceRange `json:"price_range"`
}

type ProductPage struct {
	Results  []Product `json:"results"`
	Count    int64     `json:"count"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type ShippingMethod struct {
	ID             FlexString `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	CostMultiplier FlexFloat  `json:"cost_multiplier"`
	EstimatedDays  string     `json:"estimated_days"`
}

type ItemQuantity struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ShippingQuoteRequest struct {
	Items            []ItemQuantity `json:"items"`
	ShippingAddress  Address        `json:"shipping_address"`
	ShippingMethodID string         `json:"shipping_method_id"`
}

type ShippingQuote struct {
	Zone         string    `json:"zone"`
	Method       string    `json:"method"`
	Subtotal     FlexFloat `json:"subtotal"`
	ShippingCost FlexFloat `json:"shipping_cost"`
	FreeShipping bool      `json:"free_shipping"`
	Total        FlexFloat `json:"total"`
}

type CheckoutRequest struct {
	ShippingAddress  Address `json:"shipping_address"`
	ShippingMethodID string  `json:"shipping_method_id"`
}

type GuestOrderRequest struct {
	Email            string         `json:"email"`
	Name             string         `json:"name"`
	Items            []ItemQuantity `json:"items"`
	ShippingAddress  Address        `json:"shipping_address"`
	ShippingMethodID string         `json:"shipping_method_id"`
}

// PaymentOrder is what the client hands to the payment gateway checkout.
type PaymentOrder struct {
	OrderNumber    string    `json:"order_number"`
	GatewayOrderID string    `json:"gateway_order_id"`
	Amount         FlexFloat `json:"amount"`
	Currency       string    `json:"currency"`
	KeyID          string    `json:"key_id"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

type OrderLine struct {
	ProductID FlexString `json:"product_id"`
	Title     string     `json:"title"`
	Price     FlexFloat  `json:"price"`
	Quantity  int        `json:"quantity"`
}

type Order struct {
	ID           FlexString  `json:"id"`
	OrderNumber  string      `json:"order_number"`
	Email        string      `json:"email"`
	Status       string      `json:"status"`
	Subtotal     FlexFloat   `json:"subtotal"`
	ShippingCost FlexFloat   `json:"shipping_cost"`
	Total        FlexFloat   `json:"total"`
	Items        []OrderLine `json:"items"`
}

// Event types pushed on the events stream.
const (
	EventCartUpdated  = "cart.updated"
	EventStockChanged = "stock.changed"
)

type Event struct {
	Type      string     `json:"type"`
	ProductID FlexString `json:"product_id,omitempty"`
	Quantity  int        `json:"quantity,omitempty"`
}
