// Package storefront holds the shopper-side state of the vintage store:
// cart, wishlist, session and catalog filters, and reconciles the server
// cart with the locally persisted guest cart.
package storefront

import (
	"math"

	"github.com/thriftshop/storefront/pkg/apiclient"
)

// CartLine is one purchasable unit in the cart. The JSON form doubles as the
// persisted shadow format and is readable as an apiclient.CartEntry.
type CartLine struct {
	Key       string  `json:"key"`
	EntryID   string  `json:"id,omitempty"`
	ProductID string  `json:"product_id,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Title     string  `json:"title,omitempty"`
	Image     string  `json:"image,omitempty"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
}

func (l CartLine) LineTotal() float64 {
	return l.Price * float64(l.Quantity)
}

// Cart aggregates are computed from Lines on every call.
type Cart struct {
	Lines []CartLine
}

func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is rounded to cents.
func (c Cart) Subtotal() float64 {
	var total float64
	for _, l := range c.Lines {
		total += l.LineTotal()
	}
	return math.Round(total*100) / 100
}

func (c Cart) Find(key string) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.Key == key {
			return l, true
		}
	}
	return CartLine{}, false
}

func (c Cart) FindProduct(productID string) (CartLine, bool) {
	if productID == "" {
		return CartLine{}, false
	}
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ProductRef identifies a product being added or saved, with the display
// fields captured at that moment.
type ProductRef struct {
	ID    string
	Slug  string
	Title string
	Image string
	Size  string
	Color string
	Price float64
}

func RefFromProduct(p apiclient.Product) ProductRef {
	return ProductRef{
		ID:    p.ID.String(),
		Slug:  p.Slug,
		Title: p.Title,
		Image: p.PrimaryImage,
		Size:  p.Size,
		Color: p.Color,
		Price: float64(p.Price),
	}
}

type ProductSnapshot struct {
	Title string  `json:"title"`
	Slug  string  `json:"slug"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

type WishlistEntry struct {
	ID        string
	ProductID string
	Product   ProductSnapshot
}

type Profile struct {
	ID    string
	Name  string
	Email string
}

type Session struct {
	Token string
	User  Profile
}

// CatalogMeta is the facet metadata loaded once at startup.
type CatalogMeta struct {
	Filters    apiclient.FilterOptions
	Brands     []apiclient.NamedRef
	Categories []apiclient.NamedRef
}

// State is an immutable snapshot of everything the store owns.
type State struct {
	Cart     Cart
	Wishlist []WishlistEntry
	Session  *Session
	Filters  FilterSet
	Catalog  CatalogMeta

	// SessionPending is set when a stored token could not be validated
	// because the server was unreachable. The token is kept.
	SessionPending bool
}

func (s State) Authenticated() bool {
	return s.Session != nil && s.Session.Token != ""
}

// UserID is "" for guests.
func (s State) UserID() string {
	if s.Session == nil {
		return ""
	}
	return s.Session.User.ID
}

func (s State) InWishlist(productID string) bool {
	for _, w := range s.Wishlist {
		if w.ProductID == productID {
			return true
		}
	}
	return false
}
