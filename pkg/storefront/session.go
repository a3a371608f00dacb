package storefront

import (
	"context"
	"fmt"

	"github.com/thriftshop/storefront/pkg/apiclient"
	"github.com/thriftshop/storefront/pkg/localcache"
)

// Initialize runs once at startup: catalog metadata, then either the guest
// cart from the shadow or validation of the stored token followed by a
// merge of the server cart with the shadow.
func (s *Store) Initialize(ctx context.Context) error {
	s.loadCatalogMeta(ctx)

	token, err := localcache.LoadToken(ctx, s.cache)
	if err != nil {
		s.log.Error("Failed to read stored token", err)
		token = ""
	}
	shadow := s.loadShadow(ctx)

	if token == "" {
		s.Dispatch(CartReplaced{Lines: shadow})
		s.log.Info("Initialized guest session", map[string]interface{}{
			"cart_lines": len(shadow),
		})
		return nil
	}

	s.api.SetToken(token)
	s.Dispatch(SessionPendingSet{Pending: true})

	var profile *apiclient.Profile
	err = s.tokenRetry.Do(ctx, func(ctx context.Context) error {
		p, err := s.api.Profile(ctx)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			// The gateway hook has already torn the session down; this
			// covers gateways that do not fire it.
			s.HandleUnauthorized()
			return ErrSessionExpired
		}
		s.log.Error("Could not validate stored token", err, map[string]interface{}{
			"attempts": s.tokenRetry.Attempts,
		})
		s.Dispatch(CartReplaced{Lines: shadow})
		s.notify(NoticeError, CodeSessionUnverified, "We couldn't confirm your login. Showing your saved cart for now.")
		return fmt.Errorf("validate session: %w", err)
	}

	return s.startSession(ctx, token, *profile, shadow)
}

// Login authenticates, persists the token and merges the current cart with
// the user's server cart.
func (s *Store) Login(ctx context.Context, email, password string) error {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return s.surface("login", err)
	}
	local := s.Snapshot().Cart.Lines
	if err := s.startSession(ctx, resp.Token, resp.User, local); err != nil {
		return err
	}
	s.notify(NoticeInfo, CodeWelcome, "Welcome back, "+firstNonEmpty(resp.User.Name, resp.User.Email)+".")
	return nil
}

func (s *Store) Register(ctx context.Context, req apiclient.RegisterRequest) error {
	resp, err := s.api.Register(ctx, req)
	if err != nil {
		return s.surface("register", err)
	}
	local := s.Snapshot().Cart.Lines
	if err := s.startSession(ctx, resp.Token, resp.User, local); err != nil {
		return err
	}
	s.notify(NoticeInfo, CodeWelcome, "Welcome, "+firstNonEmpty(resp.User.Name, resp.User.Email)+".")
	return nil
}

// Logout ends the session locally even when the server call fails.
func (s *Store) Logout(ctx context.Context) error {
	if s.Snapshot().Authenticated() {
		if err := s.api.Logout(ctx); err != nil {
			s.log.Warn("Server logout failed, ending session locally", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.api.ClearToken()
	s.Dispatch(SessionEnded{})

	var firstErr error
	if err := localcache.SaveToken(ctx, s.cache, ""); err != nil {
		s.log.Error("Failed to remove stored token", err)
		firstErr = err
	}
	if err := s.discardShadow(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	s.log.Info("Logged out", nil)
	s.notify(NoticeInfo, CodeLoggedOut, "You have been logged out.")
	return firstErr
}

func (s *Store) startSession(ctx context.Context, token string, p apiclient.Profile, local []CartLine) error {
	s.api.SetToken(token)
	if err := localcache.SaveToken(ctx, s.cache, token); err != nil {
		s.log.Error("Failed to persist token", err)
	}

	s.Dispatch(SessionStarted{Session: Session{
		Token: token,
		User:  Profile{ID: p.ID.String(), Name: p.Name, Email: p.Email},
	}})
	epoch := s.currentEpoch()
	s.log.Info("Session started", map[string]interface{}{
		"user_id":     p.ID.String(),
		"local_lines": len(local),
	})

	snap, err := s.api.GetCart(ctx)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return s.surface("load cart", err)
		}
		s.dispatchInEpoch(epoch, CartReplaced{Lines: local})
		s.persistCart(ctx)
		_ = s.surface("load cart", err)
	} else {
		server := NormalizeCart(snap.Items)
		merged := MergeCarts(local, server)
		merged = s.pushLocalLines(ctx, merged, server)
		if !s.dispatchInEpoch(epoch, CartReplaced{Lines: merged}) {
			return ErrSessionExpired
		}
		s.persistCart(ctx)
		s.log.Info("Merged carts", map[string]interface{}{
			"local":  len(local),
			"server": len(server),
			"merged": len(merged),
		})
	}

	if err := s.LoadWishlist(ctx); err != nil && apiclient.IsUnauthorized(err) {
		return err
	}
	return nil
}

// pushLocalLines writes the merged cart back to the server. Lines the server
// has never seen are added; collided lines whose merged quantity differs from
// the server's are updated. A collided line the server rejects falls back to
// the server quantity so both sides agree. Entry ids are adopted from the last
// snapshot.
func (s *Store) pushLocalLines(ctx context.Context, merged, server []CartLine) []CartLine {
	serverQty := make(map[string]int, len(server))
	for _, l := range server {
		if l.EntryID != "" {
			serverQty[l.EntryID] = l.Quantity
		}
	}

	var last *apiclient.CartSnapshot
	failed := 0
	for i, l := range merged {
		if l.ProductID == "" {
			continue
		}
		var (
			snap *apiclient.CartSnapshot
			err  error
		)
		if l.EntryID == "" {
			snap, err = s.api.AddToCart(ctx, l.ProductID, l.Quantity)
		} else if qty, ok := serverQty[l.EntryID]; ok && qty != l.Quantity {
			snap, err = s.api.UpdateCartItem(ctx, l.EntryID, l.Quantity)
			if err != nil {
				merged[i].Quantity = qty
			}
		} else {
			continue
		}
		if err != nil {
			failed++
			s.log.Warn("Could not push merged line to server cart", map[string]interface{}{
				"product_id": l.ProductID,
				"error":      err.Error(),
			})
			if apiclient.IsUnauthorized(err) {
				return merged
			}
			continue
		}
		last = snap
	}
	if failed > 0 {
		s.notify(NoticeWarning, CodeCartMergeIncomplete, "Some items from your guest cart could not be saved to your account.")
	}
	if last == nil {
		return merged
	}
	return MergeCarts(merged, NormalizeCart(last.Items))[:len(merged)]
}

func (s *Store) loadShadow(ctx context.Context) []CartLine {
	entries, err := localcache.LoadList[apiclient.CartEntry](ctx, s.cache, localcache.GuestCartKey)
	if err != nil {
		s.log.Error("Failed to read cart shadow", err)
		return nil
	}
	return NormalizeCart(entries)
}

func (s *Store) persistCart(ctx context.Context) {
	lines := s.Snapshot().Cart.Lines
	if err := localcache.SaveList(ctx, s.cache, localcache.GuestCartKey, lines); err != nil {
		s.log.Error("Failed to persist cart shadow", err, map[string]interface{}{
			"lines": len(lines),
		})
	}
}

func (s *Store) discardShadow(ctx context.Context) error {
	if err := s.cache.Delete(ctx, localcache.GuestCartKey); err != nil {
		s.log.Error("Failed to discard cart shadow", err)
		return err
	}
	return nil
}
