package storefront

import (
	"context"
	"errors"

	"github.com/thriftshop/storefront/pkg/apiclient"
)

// WatchCartEvents syncs the cart whenever the server reports a cart or
// stock change, until ctx is done or the stream drops.
func (s *Store) WatchCartEvents(ctx context.Context) error {
	if !s.Snapshot().Authenticated() {
		return ErrLoginRequired
	}

	stream, err := s.api.SubscribeEvents(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	for ev := range stream.Events() {
		switch ev.Type {
		case apiclient.EventCartUpdated, apiclient.EventStockChanged:
			s.log.Debug("Cart event received", map[string]interface{}{
				"type":       ev.Type,
				"product_id": ev.ProductID.String(),
			})
			if err := s.SyncCart(ctx); err != nil && errors.Is(err, ErrSessionExpired) {
				return err
			}
		}
	}

	err = stream.Err()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
