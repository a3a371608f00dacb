package storefront

// Action is a state transition request handled by Reduce.
type Action interface {
	isAction()
}

type (
	// CartReplaced installs an authoritative line list.
	CartReplaced struct{ Lines []CartLine }

	// GuestLineAdded adds a local line, incrementing an existing line with
	// the same key or product.
	GuestLineAdded struct{ Line CartLine }

	GuestLineQuantitySet struct {
		Key      string
		Quantity int
	}

	LineRemoved struct{ Key string }

	CartCleared struct{}

	SessionStarted struct{ Session Session }

	// SessionEnded clears auth, cart and wishlist together.
	SessionEnded struct{}

	WishlistReplaced struct{ Entries []WishlistEntry }

	FiltersReplaced struct{ Filters FilterSet }

	FacetSet struct {
		Facet  Facet
		Values []string
	}

	FacetCleared struct{ Facet Facet }

	CatalogLoaded struct{ Meta CatalogMeta }

	SessionPendingSet struct{ Pending bool }
)

func (CartReplaced) isAction()         {}
func (GuestLineAdded) isAction()       {}
func (GuestLineQuantitySet) isAction() {}
func (LineRemoved) isAction()          {}
func (CartCleared) isAction()          {}
func (SessionStarted) isAction()       {}
func (SessionEnded) isAction()         {}
func (WishlistReplaced) isAction()     {}
func (FiltersReplaced) isAction()      {}
func (FacetSet) isAction()             {}
func (FacetCleared) isAction()         {}
func (CatalogLoaded) isAction()        {}
func (SessionPendingSet) isAction()    {}

// Reduce returns the state that results from applying a to s. It has no
// side effects and never modifies slices or maps reachable from s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case CartReplaced:
		s.Cart = Cart{Lines: cloneLines(a.Lines)}

	case GuestLineAdded:
		lines := cloneLines(s.Cart.Lines)
		idx := -1
		for i, l := range lines {
			if l.Key == a.Line.Key || (a.Line.ProductID != "" && l.ProductID == a.Line.ProductID) {
				idx = i
				break
			}
		}
		if idx >= 0 {
			lines[idx].Quantity += a.Line.Quantity
		} else {
			lines = append(lines, a.Line)
		}
		s.Cart = Cart{Lines: lines}

	case GuestLineQuantitySet:
		if a.Quantity < 1 {
			break
		}
		lines := cloneLines(s.Cart.Lines)
		for i := range lines {
			if lines[i].Key == a.Key {
				lines[i].Quantity = a.Quantity
			}
		}
		s.Cart = Cart{Lines: lines}

	case LineRemoved:
		lines := make([]CartLine, 0, len(s.Cart.Lines))
		for _, l := range s.Cart.Lines {
			if l.Key != a.Key {
				lines = append(lines, l)
			}
		}
		s.Cart = Cart{Lines: lines}

	case CartCleared:
		s.Cart = Cart{}

	case SessionStarted:
		sess := a.Session
		s.Session = &sess
		s.SessionPending = false

	case SessionEnded:
		s.Session = nil
		s.SessionPending = false
		s.Cart = Cart{}
		s.Wishlist = nil

	case WishlistReplaced:
		s.Wishlist = append([]WishlistEntry(nil), a.Entries...)

	case FiltersReplaced:
		s.Filters = a.Filters.Clone()

	case FacetSet:
		f := s.Filters.Clone()
		if len(a.Values) == 0 {
			delete(f, a.Facet)
		} else {
			f[a.Facet] = append([]string(nil), a.Values...)
		}
		s.Filters = f

	case FacetCleared:
		f := s.Filters.Clone()
		delete(f, a.Facet)
		s.Filters = f

	case CatalogLoaded:
		s.Catalog = a.Meta

	case SessionPendingSet:
		s.SessionPending = a.Pending
	}
	return s
}

func cloneLines(lines []CartLine) []CartLine {
	if len(lines) == 0 {
		return nil
	}
	return append([]CartLine(nil), lines...)
}
