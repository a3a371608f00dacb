package storefront

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Facet names a filterable product attribute.
type Facet string

const (
	FacetCategory  Facet = "category"
	FacetSize      Facet = "size"
	FacetCondition Facet = "condition"
	FacetPrice     Facet = "price" // bracket "min-max", either side may be empty
	FacetMaterial  Facet = "material"
	FacetEra       Facet = "era"
	FacetColor     Facet = "color"
	FacetFeatured  Facet = "featured"
	FacetBrand     Facet = "brand"
)

// FilterSet maps a facet to its selected values. An absent facet is
// unconstrained.
type FilterSet map[Facet][]string

func (f FilterSet) Clone() FilterSet {
	if f == nil {
		return FilterSet{}
	}
	out := make(FilterSet, len(f))
	for k, v := range f {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (f FilterSet) Has(facet Facet) bool {
	return len(f[facet]) > 0
}

// Query renders the set as catalog list parameters.
func (f FilterSet) Query() url.Values {
	q := url.Values{}
	facets := make([]string, 0, len(f))
	for k := range f {
		facets = append(facets, string(k))
	}
	sort.Strings(facets)

	for _, name := range facets {
		facet := Facet(name)
		values := f[facet]
		if len(values) == 0 {
			continue
		}
		switch facet {
		case FacetPrice:
			lo, hi := parsePriceBracket(values[0])
			if lo != "" {
				q.Set("min_price", lo)
			}
			if hi != "" {
				q.Set("max_price", hi)
			}
		case FacetFeatured:
			if b, err := strconv.ParseBool(values[0]); err == nil && b {
				q.Set("featured", "true")
			}
		default:
			for _, v := range values {
				if v = strings.TrimSpace(v); v != "" {
					q.Add(name, v)
				}
			}
		}
	}
	return q
}

func parsePriceBracket(s string) (string, string) {
	lo, hi, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found {
		return strings.TrimSpace(lo), ""
	}
	return strings.TrimSpace(lo), strings.TrimSpace(hi)
}

// ListOptions are the non-facet catalog list parameters.
type ListOptions struct {
	Search   string
	Ordering string
	Page     int
	PageSize int
}

func (o ListOptions) apply(q url.Values) url.Values {
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Ordering != "" {
		q.Set("ordering", o.Ordering)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return q
}
