package storefront

import (
	"strings"

	"github.com/thriftshop/storefront/pkg/apiclient"
)

const (
	entryKeyPrefix   = "entry:"
	productKeyPrefix = "product:"
	rawKeyPrefix     = "raw:"
)

func entryKey(id string) string   { return entryKeyPrefix + id }
func productKey(id string) string { return productKeyPrefix + id }

// NormalizeCart maps raw cart entries into lines. Identity resolves as
// cart-entry id, then product id (flat or nested), then the entry's own key.
// Entries with no identity are dropped; a repeated key keeps its first line.
func NormalizeCart(entries []apiclient.CartEntry) []CartLine {
	lines := make([]CartLine, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		line, ok := normalizeEntry(e)
		if !ok {
			continue
		}
		if _, dup := seen[line.Key]; dup {
			continue
		}
		seen[line.Key] = struct{}{}
		lines = append(lines, line)
	}
	return lines
}

func normalizeEntry(e apiclient.CartEntry) (CartLine, bool) {
	productID := strings.TrimSpace(e.ProductID.String())
	if productID == "" && e.Product != nil {
		productID = strings.TrimSpace(e.Product.ID.String())
	}
	entryID := strings.TrimSpace(e.ID.String())

	var key string
	switch {
	case entryID != "":
		key = entryKey(entryID)
	case productID != "":
		key = productKey(productID)
	case strings.TrimSpace(e.Key) != "":
		key = strings.TrimSpace(e.Key)
		if !strings.Contains(key, ":") {
			key = rawKeyPrefix + key
		}
	default:
		return CartLine{}, false
	}

	price := float64(e.Price)
	if price <= 0 && e.Product != nil {
		price = float64(e.Product.Price)
	}
	if price < 0 {
		price = 0
	}

	qty := e.Quantity
	if qty < 1 {
		qty = 1
	}

	line := CartLine{
		Key:       key,
		EntryID:   entryID,
		ProductID: productID,
		Price:     price,
		Quantity:  qty,
		Title:     e.Title,
		Image:     e.Image,
		Size:      e.Size,
		Color:     e.Color,
	}
	if p := e.Product; p != nil {
		line.Title = firstNonEmpty(line.Title, p.Title)
		line.Image = firstNonEmpty(line.Image, p.PrimaryImage)
		line.Size = firstNonEmpty(line.Size, p.Size)
		line.Color = firstNonEmpty(line.Color, p.Color)
	}
	return line, true
}

// linesAsEntries converts persisted lines back to raw entries so the
// shadow goes through the same normalization as server data.
func linesAsEntries(lines []CartLine) []apiclient.CartEntry {
	out := make([]apiclient.CartEntry, 0, len(lines))
	for _, l := range lines {
		out = append(out, apiclient.CartEntry{
			ID:        apiclient.FlexString(l.EntryID),
			ProductID: apiclient.FlexString(l.ProductID),
			Key:       l.Key,
			Price:     apiclient.FlexFloat(l.Price),
			Quantity:  l.Quantity,
			Title:     l.Title,
			Image:     l.Image,
			Size:      l.Size,
			Color:     l.Color,
		})
	}
	return out
}

// MergeCarts combines the local cart with the server cart after login.
// Lines collide when their keys or product ids match; the local line wins
// but takes the server's entry id. Server lines with no local counterpart
// are appended in server order.
func MergeCarts(local, server []CartLine) []CartLine {
	merged := make([]CartLine, len(local), len(local)+len(server))
	copy(merged, local)

	byKey := make(map[string]int, len(merged))
	byProduct := make(map[string]int, len(merged))
	for i, l := range merged {
		byKey[l.Key] = i
		if l.ProductID != "" {
			byProduct[l.ProductID] = i
		}
	}

	for _, s := range server {
		i, hit := byKey[s.Key]
		if !hit && s.ProductID != "" {
			i, hit = byProduct[s.ProductID]
		}
		if hit {
			if merged[i].EntryID == "" && s.EntryID != "" {
				delete(byKey, merged[i].Key)
				merged[i].EntryID = s.EntryID
				merged[i].Key = s.Key
				byKey[s.Key] = i
			}
			continue
		}
		merged = append(merged, s)
		byKey[s.Key] = len(merged) - 1
		if s.ProductID != "" {
			byProduct[s.ProductID] = len(merged) - 1
		}
	}
	return merged
}

func normalizeWishlist(items []apiclient.WishlistItem) []WishlistEntry {
	entries := make([]WishlistEntry, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		productID := it.ProductID.String()
		if productID == "" && it.Product != nil {
			productID = it.Product.ID.String()
		}
		if productID == "" {
			continue
		}
		if _, dup := seen[productID]; dup {
			continue
		}
		seen[productID] = struct{}{}

		entry := WishlistEntry{ID: it.ID.String(), ProductID: productID}
		if p := it.Product; p != nil {
			entry.Product = ProductSnapshot{
				Title: p.Title,
				Slug:  p.Slug,
				Price: float64(p.Price),
				Image: p.PrimaryImage,
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
