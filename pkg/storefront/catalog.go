package storefront

import (
	"context"
	"strings"
	"time"

	"github.com/thriftshop/storefront/pkg/apiclient"
	"github.com/thriftshop/storefront/pkg/localcache"
)

// MaxRecentlyViewed caps the recently viewed list.
const MaxRecentlyViewed = 10

// ViewedProduct is one entry of the recently viewed list.
type ViewedProduct struct {
	ID       string    `json:"id"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	Price    float64   `json:"price"`
	Image    string    `json:"image"`
	ViewedAt time.Time `json:"viewed_at"`
}

// loadCatalogMeta never fails; unavailable metadata is left empty.
func (s *Store) loadCatalogMeta(ctx context.Context) {
	meta := CatalogMeta{}

	if f, err := s.api.GetFilterOptions(ctx); err != nil {
		s.log.Warn("Filter options unavailable, using empty defaults", map[string]interface{}{"error": err.Error()})
	} else {
		meta.Filters = *f
	}
	if b, err := s.api.ListBrands(ctx); err != nil {
		s.log.Warn("Brands unavailable, using empty defaults", map[string]interface{}{"error": err.Error()})
	} else {
		meta.Brands = b
	}
	if c, err := s.api.ListCategories(ctx); err != nil {
		s.log.Warn("Categories unavailable, using empty defaults", map[string]interface{}{"error": err.Error()})
	} else {
		meta.Categories = c
	}

	if meta.Brands == nil {
		meta.Brands = []apiclient.NamedRef{}
	}
	if meta.Categories == nil {
		meta.Categories = []apiclient.NamedRef{}
	}
	s.Dispatch(CatalogLoaded{Meta: meta})
}

func (s *Store) SetFilters(f FilterSet) {
	s.Dispatch(FiltersReplaced{Filters: f})
}

// SetFacet selects values for a facet; no values clears it.
func (s *Store) SetFacet(facet Facet, values ...string) {
	s.Dispatch(FacetSet{Facet: facet, Values: values})
}

func (s *Store) ClearFacet(facet Facet) {
	s.Dispatch(FacetCleared{Facet: facet})
}

// ListProducts fetches a catalog page constrained by the current filters.
func (s *Store) ListProducts(ctx context.Context, opts ListOptions) (*apiclient.ProductPage, error) {
	q := opts.apply(s.Snapshot().Filters.Query())
	page, err := s.api.ListProducts(ctx, q)
	if err != nil {
		return nil, s.surface("list products", err)
	}
	return page, nil
}

// ViewProduct fetches a product by slug and records it as recently viewed.
func (s *Store) ViewProduct(ctx context.Context, slug string) (*apiclient.Product, error) {
	p, err := s.api.GetProduct(ctx, slug)
	if err != nil {
		return nil, s.surface("view product", err)
	}
	if err := s.RecordView(ctx, RefFromProduct(*p)); err != nil {
		s.log.Warn("Failed to record view", map[string]interface{}{"error": err.Error()})
	}
	return p, nil
}

// RecordView moves ref to the front of the viewer's recently viewed list.
func (s *Store) RecordView(ctx context.Context, ref ProductRef) error {
	if ref.ID == "" {
		return ErrInvalidProduct
	}
	key := localcache.ScopedKey(localcache.RecentlyViewedBase, s.Snapshot().UserID())
	items, err := localcache.LoadList[ViewedProduct](ctx, s.cache, key)
	if err != nil {
		return err
	}

	updated := make([]ViewedProduct, 0, MaxRecentlyViewed)
	updated = append(updated, ViewedProduct{
		ID:       ref.ID,
		Slug:     ref.Slug,
		Title:    ref.Title,
		Price:    ref.Price,
		Image:    ref.Image,
		ViewedAt: time.Now().UTC(),
	})
	for _, it := range items {
		if len(updated) == MaxRecentlyViewed {
			break
		}
		if it.ID != ref.ID {
			updated = append(updated, it)
		}
	}
	return localcache.SaveList(ctx, s.cache, key, updated)
}

// RecentlyViewed returns the viewer's list, most recent first.
func (s *Store) RecentlyViewed(ctx context.Context) []ViewedProduct {
	key := localcache.ScopedKey(localcache.RecentlyViewedBase, s.Snapshot().UserID())
	items, err := localcache.LoadList[ViewedProduct](ctx, s.cache, key)
	if err != nil {
		s.log.Error("Failed to read recently viewed", err)
	}
	return items
}

// SaveSizePreference remembers the size the viewer picks for a category.
func (s *Store) SaveSizePreference(ctx context.Context, category, size string) error {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return nil
	}
	key := localcache.ScopedKey(localcache.SizePreferencesBase, s.Snapshot().UserID())
	prefs, err := localcache.LoadMap[string](ctx, s.cache, key)
	if err != nil {
		return err
	}
	if size = strings.TrimSpace(size); size == "" {
		delete(prefs, category)
	} else {
		prefs[category] = size
	}
	return localcache.SaveMap(ctx, s.cache, key, prefs)
}

func (s *Store) SizePreferences(ctx context.Context) map[string]string {
	key := localcache.ScopedKey(localcache.SizePreferencesBase, s.Snapshot().UserID())
	prefs, err := localcache.LoadMap[string](ctx, s.cache, key)
	if err != nil {
		s.log.Error("Failed to read size preferences", err)
	}
	return prefs
}
