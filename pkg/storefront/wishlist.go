package storefront

import (
	"context"

	"github.com/thriftshop/storefront/pkg/apiclient"
)

func (s *Store) requireLogin(op string) error {
	if s.Snapshot().Authenticated() {
		return nil
	}
	s.log.Debug("Rejected unauthenticated wishlist call", map[string]interface{}{"operation": op})
	s.notify(NoticeInfo, CodeLoginRequired, "Please log in to use your wishlist.")
	return ErrLoginRequired
}

// LoadWishlist replaces the wishlist with the server's.
func (s *Store) LoadWishlist(ctx context.Context) error {
	if !s.Snapshot().Authenticated() {
		return ErrLoginRequired
	}
	return s.mutateWishlist(ctx, MutationSync, s.api.GetWishlist)
}

// AddToWishlist saves a product. Saving a product twice keeps one entry.
func (s *Store) AddToWishlist(ctx context.Context, ref ProductRef) error {
	if err := s.requireLogin("wishlist_add"); err != nil {
		return err
	}
	if ref.ID == "" {
		return ErrInvalidProduct
	}
	return s.mutateWishlist(ctx, MutationWishlistAdd, func(ctx context.Context) (*apiclient.Wishlist, error) {
		return s.api.AddToWishlist(ctx, ref.ID)
	})
}

func (s *Store) RemoveFromWishlist(ctx context.Context, productID string) error {
	if err := s.requireLogin("wishlist_remove"); err != nil {
		return err
	}
	return s.mutateWishlist(ctx, MutationWishlistRemove, func(ctx context.Context) (*apiclient.Wishlist, error) {
		return s.api.RemoveFromWishlist(ctx, productID)
	})
}

// ToggleWishlist adds the product when absent and removes it otherwise.
func (s *Store) ToggleWishlist(ctx context.Context, ref ProductRef) error {
	if s.Snapshot().InWishlist(ref.ID) {
		return s.RemoveFromWishlist(ctx, ref.ID)
	}
	return s.AddToWishlist(ctx, ref)
}

func (s *Store) mutateWishlist(ctx context.Context, kind MutationKind, call func(ctx context.Context) (*apiclient.Wishlist, error)) error {
	epoch := s.currentEpoch()
	w, err := call(ctx)
	if err != nil {
		return s.surface(kind.String(), err)
	}
	entries := normalizeWishlist(w.Items)
	s.dispatchInEpoch(epoch, WishlistReplaced{Entries: entries})
	s.log.Debug("Wishlist replaced", map[string]interface{}{
		"mutation": kind.String(),
		"entries":  len(entries),
	})
	return nil
}
