package storefront

import (
	"context"
	"strings"

	"github.com/thriftshop/storefront/pkg/apiclient"
)

func (s *Store) cartItems() []apiclient.ItemQuantity {
	lines := s.Snapshot().Cart.Lines
	items := make([]apiclient.ItemQuantity, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			continue
		}
		items = append(items, apiclient.ItemQuantity{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return items
}

func (s *Store) ShippingMethods(ctx context.Context) ([]apiclient.ShippingMethod, error) {
	methods, err := s.api.ShippingMethods(ctx)
	if err != nil {
		return nil, s.surface("shipping methods", err)
	}
	return methods, nil
}

// QuoteShipping prices the current cart for an address and method.
func (s *Store) QuoteShipping(ctx context.Context, addr apiclient.Address, methodID string) (*apiclient.ShippingQuote, error) {
	items := s.cartItems()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	q, err := s.api.CalculateShipping(ctx, apiclient.ShippingQuoteRequest{
		Items:            items,
		ShippingAddress:  addr,
		ShippingMethodID: methodID,
	})
	if err != nil {
		return nil, s.surface("calculate shipping", err)
	}
	return q, nil
}

// Checkout creates a payment-gateway order. Authenticated users check out
// their server cart; guests must pass contact details and check out the
// local cart.
func (s *Store) Checkout(ctx context.Context, addr apiclient.Address, methodID string, guest *GuestContact) (*apiclient.PaymentOrder, error) {
	st := s.Snapshot()
	if st.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	if st.Authenticated() {
		po, err := s.api.CreatePaymentOrder(ctx, apiclient.CheckoutRequest{
			ShippingAddress:  addr,
			ShippingMethodID: methodID,
		})
		if err != nil {
			return nil, s.surface("checkout", err)
		}
		return po, nil
	}

	if guest == nil || strings.TrimSpace(guest.Email) == "" {
		s.notify(NoticeError, CodeEmailRequired, "An email address is required for guest checkout.")
		return nil, ErrEmailRequired
	}
	po, err := s.api.CreateGuestOrder(ctx, apiclient.GuestOrderRequest{
		Email:            guest.Email,
		Name:             guest.Name,
		Items:            s.cartItems(),
		ShippingAddress:  addr,
		ShippingMethodID: methodID,
	})
	if err != nil {
		return nil, s.surface("guest checkout", err)
	}
	return po, nil
}

// GuestContact identifies a buyer without an account.
type GuestContact struct {
	Email string
	Name  string
}

// ConfirmPayment verifies the gateway callback with the server. On success
// the server has emptied the buyer's cart, so the local cart follows.
func (s *Store) ConfirmPayment(ctx context.Context, req apiclient.VerifyPaymentRequest) (*apiclient.Order, error) {
	order, err := s.api.VerifyPayment(ctx, req)
	if err != nil {
		return nil, s.surface("verify payment", err)
	}

	if s.Snapshot().Authenticated() {
		if err := s.SyncCart(ctx); err != nil {
			s.log.Warn("Cart sync after payment failed", map[string]interface{}{"error": err.Error()})
		}
	} else {
		s.Dispatch(CartCleared{})
		s.persistCart(ctx)
	}

	s.log.Info("Payment confirmed", map[string]interface{}{
		"order_number": order.OrderNumber,
		"total":        float64(order.Total),
	})
	return order, nil
}

func (s *Store) PendingOrder(ctx context.Context, orderNumber, email string) (*apiclient.Order, error) {
	o, err := s.api.PendingOrder(ctx, orderNumber, email)
	if err != nil {
		return nil, s.surface("pending order", err)
	}
	return o, nil
}
