package storefront

import (
	"errors"
	"sync"
)

var (
	ErrLoginRequired        = errors.New("please log in to continue")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrQuantityExceedsStock = errors.New("quantity exceeds available stock")
	ErrLineNotFound         = errors.New("cart line not found")
	ErrInvalidProduct       = errors.New("product reference has no id")
	ErrSessionExpired       = errors.New("session expired")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrEmailRequired        = errors.New("an email address is required for guest checkout")
)

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// Notice codes
const (
	CodeSessionExpired      = "session_expired"
	CodeSessionUnverified   = "session_unverified"
	CodeLoginRequired       = "login_required"
	CodeEmailRequired       = "email_required"
	CodeInvalidQuantity     = "invalid_quantity"
	CodeQuantityExceeds     = "quantity_exceeds_stock"
	CodeInvalidCredentials  = "invalid_credentials"
	CodeNetwork             = "network_error"
	CodeRequestFailed       = "request_failed"
	CodeRemovedLocally      = "removed_locally"
	CodeCartMergeIncomplete = "cart_merge_incomplete"
	CodeWelcome             = "welcome"
	CodeLoggedOut           = "logged_out"
)

// Notice is a user-facing message produced by a store operation.
type Notice struct {
	Level   NoticeLevel
	Code    string
	Message string
}

// Notifier receives notices. Implementations must not call back into the
// Store synchronously.
type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// NoticeRecorder keeps every notice it receives.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *NoticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *NoticeRecorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Has reports whether a notice with code was recorded.
func (r *NoticeRecorder) Has(code string) bool {
	for _, n := range r.Notices() {
		if n.Code == code {
			return true
		}
	}
	return false
}

func (r *NoticeRecorder) Reset() {
	r.mu.Lock()
	r.notices = nil
	r.mu.Unlock()
}
