package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/thriftshop/storefront/pkg/apiclient"
	"github.com/thriftshop/storefront/pkg/localcache"
	"github.com/thriftshop/storefront/pkg/logger"
	"github.com/thriftshop/storefront/pkg/retry"
)

// Gateway is the subset of the API client the store depends on.
// *apiclient.Client implements it.
type Gateway interface {
	SetToken(token string)
	ClearToken()
	OnUnauthorized(fn func())

	GetCart(ctx context.Context) (*apiclient.CartSnapshot, error)
	AddToCart(ctx context.Context, productID string, quantity int) (*apiclient.CartSnapshot, error)
	UpdateCartItem(ctx context.Context, entryID string, quantity int) (*apiclient.CartSnapshot, error)
	RemoveCartItem(ctx context.Context, entryID string) (*apiclient.CartSnapshot, error)
	ClearCart(ctx context.Context) (*apiclient.CartSnapshot, error)

	GetWishlist(ctx context.Context) (*apiclient.Wishlist, error)
	AddToWishlist(ctx context.Context, productID string) (*apiclient.Wishlist, error)
	RemoveFromWishlist(ctx context.Context, productID string) (*apiclient.Wishlist, error)

	ListProducts(ctx context.Context, query url.Values) (*apiclient.ProductPage, error)
	GetProduct(ctx context.Context, slug string) (*apiclient.Product, error)
	GetFilterOptions(ctx context.Context) (*apiclient.FilterOptions, error)
	ListBrands(ctx context.Context) ([]apiclient.NamedRef, error)
	ListCategories(ctx context.Context) ([]apiclient.NamedRef, error)

	Login(ctx context.Context, email, password string) (*apiclient.AuthResponse, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (*apiclient.AuthResponse, error)
	Profile(ctx context.Context) (*apiclient.Profile, error)
	Logout(ctx context.Context) error

	CreatePaymentOrder(ctx context.Context, req apiclient.CheckoutRequest) (*apiclient.PaymentOrder, error)
	CreateGuestOrder(ctx context.Context, req apiclient.GuestOrderRequest) (*apiclient.PaymentOrder, error)
	VerifyPayment(ctx context.Context, req apiclient.VerifyPaymentRequest) (*apiclient.Order, error)
	PendingOrder(ctx context.Context, orderNumber, email string) (*apiclient.Order, error)
	ShippingMethods(ctx context.Context) ([]apiclient.ShippingMethod, error)
	CalculateShipping(ctx context.Context, req apiclient.ShippingQuoteRequest) (*apiclient.ShippingQuote, error)

	SubscribeEvents(ctx context.Context) (*apiclient.EventStream, error)
}

// Options configures a Store. Zero values get defaults.
type Options struct {
	Cache    localcache.KV
	Notifier Notifier
	Logger   *logger.Logger

	// TokenRetry governs stored-token validation at startup. Its Retryable
	// predicate is always replaced by apiclient.IsTransient.
	TokenRetry retry.Policy

	// LoginRedirect runs after the session is torn down by a 401.
	LoginRedirect func()
}

// DefaultTokenRetry is three attempts starting at 500ms.
var DefaultTokenRetry = retry.Policy{Attempts: 3, BaseDelay: 500 * time.Millisecond}

// Store is the single writer of shopper state. Network calls run without
// the lock held; each completed call replaces the relevant slice, so the
// last response to land wins.
type Store struct {
	api      Gateway
	cache    localcache.KV
	notifier Notifier
	log      *logger.Logger

	tokenRetry    retry.Policy
	loginRedirect func()

	mu          sync.Mutex
	state       State
	epoch       uint64
	subscribers map[int]func(State)
	nextSubID   int
}

func New(api Gateway, opts Options) *Store {
	s := &Store{
		api:           api,
		cache:         opts.Cache,
		notifier:      opts.Notifier,
		log:           opts.Logger,
		tokenRetry:    opts.TokenRetry,
		loginRedirect: opts.LoginRedirect,
		state:         State{Filters: FilterSet{}},
		subscribers:   make(map[int]func(State)),
	}
	if s.cache == nil {
		s.cache = localcache.NewMemory()
	}
	if s.notifier == nil {
		s.notifier = NotifierFunc(func(Notice) {})
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	if s.tokenRetry.Attempts == 0 {
		s.tokenRetry.Attempts = DefaultTokenRetry.Attempts
		s.tokenRetry.BaseDelay = DefaultTokenRetry.BaseDelay
	}
	s.tokenRetry.Retryable = apiclient.IsTransient

	api.OnUnauthorized(s.HandleUnauthorized)
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive every new state. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Dispatch applies actions in order as one transition.
func (s *Store) Dispatch(actions ...Action) State {
	s.mu.Lock()
	next := s.reduceLocked(actions...)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// dispatchInEpoch applies actions only if no session transition happened
// since epoch was read. A response for a session that has since ended is
// dropped.
func (s *Store) dispatchInEpoch(epoch uint64, actions ...Action) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.log.Debug("Dropping stale response", map[string]interface{}{
			"epoch":   epoch,
			"current": s.epoch,
		})
		return false
	}
	next := s.reduceLocked(actions...)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return true
}

func (s *Store) reduceLocked(actions ...Action) State {
	for _, a := range actions {
		switch a.(type) {
		case SessionStarted, SessionEnded:
			s.epoch++
		}
		s.state = Reduce(s.state, a)
	}
	return s.state
}

func (s *Store) subscribersLocked() []func(State) {
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func (s *Store) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Store) notify(level NoticeLevel, code, msg string) {
	s.notifier.Notify(Notice{Level: level, Code: code, Message: msg})
}

// surface converts a failed call into a notice and a store error.
func (s *Store) surface(op string, err error) error {
	fields := map[string]interface{}{"operation": op}

	switch {
	case apiclient.IsUnauthorized(err):
		// Teardown and notice already happened in HandleUnauthorized.
		s.log.Warn("Operation rejected, session ended", fields)
		return fmt.Errorf("%s: %w", op, ErrSessionExpired)

	case errors.Is(err, apiclient.ErrInsufficientStock):
		msg := apiclient.Message(err)
		if msg == "" {
			msg = "The requested quantity exceeds available stock."
		}
		s.log.Info("Quantity exceeds stock", fields)
		s.notify(NoticeError, CodeQuantityExceeds, msg)
		return fmt.Errorf("%s: %w: %s", op, ErrQuantityExceedsStock, msg)

	case errors.Is(err, apiclient.ErrInvalidCredentials):
		s.notify(NoticeError, CodeInvalidCredentials, ErrInvalidCredentials.Error())
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)

	case errors.Is(err, apiclient.ErrNetwork):
		s.log.Error("Network failure", err, fields)
		s.notify(NoticeError, CodeNetwork, "We couldn't reach the store. Check your connection and try again.")
		return fmt.Errorf("%s: %w", op, err)

	default:
		s.log.Error("Operation failed", err, fields)
		msg := apiclient.Message(err)
		if msg == "" {
			msg = "Something went wrong. Please try again."
		}
		s.notify(NoticeError, CodeRequestFailed, msg)
		return fmt.Errorf("%s: %w", op, err)
	}
}

// HandleUnauthorized tears the session down after the server rejected the
// token. It is idempotent and is registered on the gateway in New.
func (s *Store) HandleUnauthorized() {
	s.mu.Lock()
	hadSession := s.state.Session != nil || s.state.SessionPending
	var (
		next State
		subs []func(State)
	)
	if hadSession {
		next = s.reduceLocked(SessionEnded{})
		subs = s.subscribersLocked()
	}
	s.mu.Unlock()

	s.api.ClearToken()
	ctx := context.Background()
	if err := localcache.SaveToken(ctx, s.cache, ""); err != nil {
		s.log.Error("Failed to discard stored token", err)
	}
	if !hadSession {
		return
	}

	for _, fn := range subs {
		fn(next)
	}
	_ = s.discardShadow(ctx)

	s.log.Warn("Session expired", nil)
	s.notify(NoticeWarning, CodeSessionExpired, "Your session has expired. Please log in again.")
	if s.loginRedirect != nil {
		s.loginRedirect()
	}
}
