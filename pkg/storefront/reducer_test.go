package storefront

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thriftshop/storefront/pkg/apiclient"
)

func sumLines(lines []CartLine) (int, float64) {
	n, total := 0, 0.0
	for _, l := range lines {
		n += l.Quantity
		total += l.Price * float64(l.Quantity)
	}
	return n, math.Round(total*100) / 100
}

func TestReduce_DerivedAggregatesTrackLines(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	prices := []float64{12.5, 30, 45, 7.99, 100}

	s := State{}
	for step := 0; step < 500; step++ {
		pid := strconv.Itoa(rng.Intn(len(prices)) + 1)
		key := productKey(pid)
		switch rng.Intn(4) {
		case 0:
			s = Reduce(s, GuestLineAdded{Line: CartLine{Key: key, ProductID: pid, Price: prices[rng.Intn(len(prices))], Quantity: rng.Intn(3) + 1}})
		case 1:
			s = Reduce(s, GuestLineQuantitySet{Key: key, Quantity: rng.Intn(5)})
		case 2:
			s = Reduce(s, LineRemoved{Key: key})
		case 3:
			if rng.Intn(10) == 0 {
				s = Reduce(s, CartCleared{})
			}
		}

		wantCount, wantTotal := sumLines(s.Cart.Lines)
		require.Equal(t, wantCount, s.Cart.ItemCount(), "step %d", step)
		require.InDelta(t, wantTotal, s.Cart.Subtotal(), 0.001, "step %d", step)

		seen := map[string]bool{}
		for _, l := range s.Cart.Lines {
			require.False(t, seen[l.Key], "duplicate key %s at step %d", l.Key, step)
			seen[l.Key] = true
			require.GreaterOrEqual(t, l.Quantity, 1)
		}
	}
}

func TestReduce_GuestAddIncrementsExistingLine(t *testing.T) {
	s := Reduce(State{}, GuestLineAdded{Line: CartLine{Key: "product:1", ProductID: "1", Price: 10, Quantity: 1}})
	s = Reduce(s, GuestLineAdded{Line: CartLine{Key: "product:1", ProductID: "1", Price: 10, Quantity: 2}})

	require.Len(t, s.Cart.Lines, 1)
	assert.Equal(t, 3, s.Cart.Lines[0].Quantity)
	assert.Equal(t, 3, s.Cart.ItemCount())
	assert.Equal(t, 30.0, s.Cart.Subtotal())
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	before := State{
		Cart:    Cart{Lines: []CartLine{{Key: "product:1", ProductID: "1", Quantity: 1}}},
		Filters: FilterSet{FacetSize: {"m"}},
	}
	_ = Reduce(before, GuestLineQuantitySet{Key: "product:1", Quantity: 4})
	_ = Reduce(before, LineRemoved{Key: "product:1"})
	_ = Reduce(before, FacetSet{Facet: FacetSize, Values: []string{"l"}})
	_ = Reduce(before, FacetCleared{Facet: FacetSize})

	assert.Equal(t, 1, before.Cart.Lines[0].Quantity)
	assert.Len(t, before.Cart.Lines, 1)
	assert.Equal(t, []string{"m"}, before.Filters[FacetSize])
}

func TestReduce_SessionEndedClearsEverything(t *testing.T) {
	s := State{
		Cart:           Cart{Lines: []CartLine{{Key: "entry:1", Quantity: 2}}},
		Wishlist:       []WishlistEntry{{ProductID: "3"}},
		Session:        &Session{Token: "tok"},
		SessionPending: true,
	}
	s = Reduce(s, SessionEnded{})

	assert.Nil(t, s.Session)
	assert.False(t, s.Authenticated())
	assert.True(t, s.Cart.IsEmpty())
	assert.Empty(t, s.Wishlist)
	assert.False(t, s.SessionPending)
}

func TestReduce_QuantityBelowOneIgnored(t *testing.T) {
	s := Reduce(State{}, GuestLineAdded{Line: CartLine{Key: "product:1", ProductID: "1", Quantity: 2}})
	s = Reduce(s, GuestLineQuantitySet{Key: "product:1", Quantity: 0})
	assert.Equal(t, 2, s.Cart.Lines[0].Quantity)
}

func TestNormalizeCart(t *testing.T) {
	tests := []struct {
		name  string
		entry apiclient.CartEntry
		want  CartLine
		drop  bool
	}{
		{
			name:  "entry id wins over product id",
			entry: apiclient.CartEntry{ID: "11", ProductID: "4", Price: 20, Quantity: 2},
			want:  CartLine{Key: "entry:11", EntryID: "11", ProductID: "4", Price: 20, Quantity: 2},
		},
		{
			name:  "nested product id and price fallback",
			entry: apiclient.CartEntry{Product: &apiclient.Product{ID: "9", Title: "Flannel", Price: 18.5, PrimaryImage: "f.jpg"}},
			want:  CartLine{Key: "product:9", ProductID: "9", Price: 18.5, Quantity: 1, Title: "Flannel", Image: "f.jpg"},
		},
		{
			name:  "own price preferred over product price",
			entry: apiclient.CartEntry{ProductID: "9", Price: 15, Quantity: 1, Product: &apiclient.Product{ID: "9", Price: 18.5}},
			want:  CartLine{Key: "product:9", ProductID: "9", Price: 15, Quantity: 1},
		},
		{
			name:  "raw key fallback",
			entry: apiclient.CartEntry{Key: "legacy-5", Price: 3},
			want:  CartLine{Key: "raw:legacy-5", Price: 3, Quantity: 1},
		},
		{
			name:  "no identity is dropped",
			entry: apiclient.CartEntry{Price: 10, Quantity: 1},
			drop:  true,
		},
		{
			name:  "negative quantity defaults to one",
			entry: apiclient.CartEntry{ProductID: "2", Price: 5, Quantity: -3},
			want:  CartLine{Key: "product:2", ProductID: "2", Price: 5, Quantity: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCart([]apiclient.CartEntry{tt.entry})
			if tt.drop {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestNormalizeCart_DuplicateKeysCollapse(t *testing.T) {
	got := NormalizeCart([]apiclient.CartEntry{
		{ID: "1", ProductID: "5", Quantity: 2},
		{ID: "1", ProductID: "5", Quantity: 7},
		{ProductID: "6", Quantity: 1},
	})
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Quantity)
	assert.Equal(t, "product:6", got[1].Key)
}

func TestMergeCarts(t *testing.T) {
	t.Run("disjoint carts are concatenated local first", func(t *testing.T) {
		local := []CartLine{{Key: "product:1", ProductID: "1", Price: 45, Quantity: 1}}
		server := []CartLine{{Key: "entry:20", EntryID: "20", ProductID: "2", Price: 30, Quantity: 2}}

		merged := MergeCarts(local, server)
		require.Len(t, merged, 2)
		assert.Equal(t, "1", merged[0].ProductID)
		assert.Equal(t, 1, merged[0].Quantity)
		assert.Equal(t, "2", merged[1].ProductID)
		assert.Equal(t, 2, merged[1].Quantity)
		assert.Equal(t, 3, Cart{Lines: merged}.ItemCount())
	})

	t.Run("local wins on product collision and adopts entry id", func(t *testing.T) {
		local := []CartLine{{Key: "product:1", ProductID: "1", Price: 40, Quantity: 3}}
		server := []CartLine{{Key: "entry:20", EntryID: "20", ProductID: "1", Price: 45, Quantity: 1}}

		merged := MergeCarts(local, server)
		require.Len(t, merged, 1)
		assert.Equal(t, 3, merged[0].Quantity)
		assert.Equal(t, 40.0, merged[0].Price)
		assert.Equal(t, "20", merged[0].EntryID)
		assert.Equal(t, "entry:20", merged[0].Key)
	})

	t.Run("same entry key is not duplicated", func(t *testing.T) {
		local := []CartLine{{Key: "entry:20", EntryID: "20", ProductID: "1", Quantity: 2}}
		server := []CartLine{{Key: "entry:20", EntryID: "20", ProductID: "1", Quantity: 1}}

		merged := MergeCarts(local, server)
		require.Len(t, merged, 1)
		assert.Equal(t, 2, merged[0].Quantity)
	})

	t.Run("empty local takes server cart", func(t *testing.T) {
		server := []CartLine{{Key: "entry:1", EntryID: "1", ProductID: "1", Quantity: 1}}
		assert.Equal(t, server, MergeCarts(nil, server))
	})
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, OptimisticWithFallback, PolicyFor(MutationRemove))
	for _, k := range []MutationKind{MutationAdd, MutationUpdateQuantity, MutationClear, MutationSync, MutationWishlistAdd, MutationWishlistRemove, MutationKind(99)} {
		assert.Equal(t, AuthoritativeOnly, PolicyFor(k), k.String())
	}
}

func TestFilterSet_Query(t *testing.T) {
	f := FilterSet{
		FacetSize:      {"m", "l"},
		FacetCondition: {"excellent"},
		FacetPrice:     {"20-50"},
		FacetFeatured:  {"true"},
		FacetEra:       {},
	}
	q := f.Query()
	assert.Equal(t, []string{"m", "l"}, q["size"])
	assert.Equal(t, "excellent", q.Get("condition"))
	assert.Equal(t, "20", q.Get("min_price"))
	assert.Equal(t, "50", q.Get("max_price"))
	assert.Equal(t, "true", q.Get("featured"))
	assert.False(t, q.Has("era"))

	open := FilterSet{FacetPrice: {"100-"}}.Query()
	assert.Equal(t, "100", open.Get("min_price"))
	assert.False(t, open.Has("max_price"))
}
