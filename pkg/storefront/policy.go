package storefront

// MutationKind names a state-changing operation that talks to the server.
type MutationKind int

const (
	MutationAdd MutationKind = iota
	MutationUpdateQuantity
	MutationRemove
	MutationClear
	MutationSync
	MutationWishlistAdd
	MutationWishlistRemove
)

func (k MutationKind) String() string {
	switch k {
	case MutationAdd:
		return "add"
	case MutationUpdateQuantity:
		return "update_quantity"
	case MutationRemove:
		return "remove"
	case MutationClear:
		return "clear"
	case MutationSync:
		return "sync"
	case MutationWishlistAdd:
		return "wishlist_add"
	case MutationWishlistRemove:
		return "wishlist_remove"
	default:
		return "unknown"
	}
}

// MutationPolicy decides what happens locally when the server call fails.
type MutationPolicy int

const (
	// AuthoritativeOnly applies nothing locally unless the server confirms.
	AuthoritativeOnly MutationPolicy = iota
	// OptimisticWithFallback applies the change locally when the server call
	// fails for any reason other than an ended session.
	OptimisticWithFallback
)

func (p MutationPolicy) String() string {
	if p == OptimisticWithFallback {
		return "optimistic_with_fallback"
	}
	return "authoritative_only"
}

// PolicyFor returns the failure policy of a mutation kind. Unknown kinds
// are authoritative.
func PolicyFor(k MutationKind) MutationPolicy {
	switch k {
	case MutationRemove:
		return OptimisticWithFallback
	default:
		return AuthoritativeOnly
	}
}
