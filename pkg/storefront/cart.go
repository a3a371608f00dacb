package storefront

import (
	"context"
	"fmt"

	"github.com/thriftshop/storefront/pkg/apiclient"
)

// AddToCart adds quantity units of a product. An invalid quantity becomes 1.
// Guests get a local line; authenticated users get the server's snapshot.
func (s *Store) AddToCart(ctx context.Context, ref ProductRef, quantity int) error {
	if ref.ID == "" {
		return ErrInvalidProduct
	}
	if quantity < 1 {
		quantity = 1
	}

	if !s.Snapshot().Authenticated() {
		s.Dispatch(GuestLineAdded{Line: CartLine{
			Key:       productKey(ref.ID),
			ProductID: ref.ID,
			Price:     ref.Price,
			Quantity:  quantity,
			Title:     ref.Title,
			Image:     ref.Image,
			Size:      ref.Size,
			Color:     ref.Color,
		}})
		s.persistCart(ctx)
		s.log.Debug("Added line to guest cart", map[string]interface{}{
			"product_id": ref.ID,
			"quantity":   quantity,
		})
		return nil
	}

	return s.mutateCart(ctx, MutationAdd, "", func(ctx context.Context) (*apiclient.CartSnapshot, error) {
		return s.api.AddToCart(ctx, ref.ID, quantity)
	})
}

// UpdateQuantity sets the quantity of the line with key. Quantities below 1
// are rejected; use RemoveFromCart. A quantity above stock is reported, not
// clamped.
func (s *Store) UpdateQuantity(ctx context.Context, key string, quantity int) error {
	if quantity < 1 {
		s.notify(NoticeError, CodeInvalidQuantity, "Quantity must be at least 1.")
		return ErrInvalidQuantity
	}
	st := s.Snapshot()
	line, ok := st.Cart.Find(key)
	if !ok {
		return fmt.Errorf("update %q: %w", key, ErrLineNotFound)
	}

	if !st.Authenticated() {
		s.Dispatch(GuestLineQuantitySet{Key: key, Quantity: quantity})
		s.persistCart(ctx)
		return nil
	}

	if line.EntryID == "" {
		// Line never reached the server; adding creates it with this quantity.
		return s.mutateCart(ctx, MutationUpdateQuantity, key, func(ctx context.Context) (*apiclient.CartSnapshot, error) {
			return s.api.AddToCart(ctx, line.ProductID, quantity)
		})
	}
	return s.mutateCart(ctx, MutationUpdateQuantity, key, func(ctx context.Context) (*apiclient.CartSnapshot, error) {
		return s.api.UpdateCartItem(ctx, line.EntryID, quantity)
	})
}

// RemoveFromCart removes the line with key. When the server call fails the
// line is still removed locally; a later sync may bring it back.
func (s *Store) RemoveFromCart(ctx context.Context, key string) error {
	st := s.Snapshot()
	line, ok := st.Cart.Find(key)
	if !ok {
		return fmt.Errorf("remove %q: %w", key, ErrLineNotFound)
	}

	if !st.Authenticated() || line.EntryID == "" {
		s.Dispatch(LineRemoved{Key: key})
		s.persistCart(ctx)
		return nil
	}

	return s.mutateCart(ctx, MutationRemove, key, func(ctx context.Context) (*apiclient.CartSnapshot, error) {
		return s.api.RemoveCartItem(ctx, line.EntryID)
	})
}

// ClearCart empties the cart only after the server confirms.
func (s *Store) ClearCart(ctx context.Context) error {
	if !s.Snapshot().Authenticated() {
		s.Dispatch(CartCleared{})
		s.persistCart(ctx)
		return nil
	}
	return s.mutateCart(ctx, MutationClear, "", s.api.ClearCart)
}

// SyncCart overwrites the cart with the server's. Guests have nothing to
// sync.
func (s *Store) SyncCart(ctx context.Context) error {
	if !s.Snapshot().Authenticated() {
		return nil
	}
	return s.mutateCart(ctx, MutationSync, "", s.api.GetCart)
}

// mutateCart runs a server cart call and applies the outcome according to
// the policy of kind. key names the line a fallback acts on.
func (s *Store) mutateCart(
	ctx context.Context,
	kind MutationKind,
	key string,
	call func(ctx context.Context) (*apiclient.CartSnapshot, error),
) error {
	epoch := s.currentEpoch()
	fields := map[string]interface{}{"mutation": kind.String(), "key": key}

	snap, err := call(ctx)
	if err != nil {
		if PolicyFor(kind) == OptimisticWithFallback && !apiclient.IsUnauthorized(err) {
			if fallback := fallbackAction(kind, key); fallback != nil {
				if s.dispatchInEpoch(epoch, fallback) {
					s.persistCart(ctx)
					fields["error"] = err.Error()
					s.log.Warn("Server rejected cart mutation, applied locally", fields)
					s.notify(NoticeWarning, CodeRemovedLocally, "Removed from your cart. We'll sync with the store when you're back online.")
				}
				return nil
			}
		}
		return s.surface(kind.String(), err)
	}

	lines := NormalizeCart(snap.Items)
	if s.dispatchInEpoch(epoch, CartReplaced{Lines: lines}) {
		s.persistCart(ctx)
	}
	fields["lines"] = len(lines)
	s.log.Debug("Cart replaced from server snapshot", fields)
	return nil
}

func fallbackAction(kind MutationKind, key string) Action {
	switch kind {
	case MutationRemove:
		return LineRemoved{Key: key}
	default:
		return nil
	}
}
