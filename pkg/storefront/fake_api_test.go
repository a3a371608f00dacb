package storefront

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thriftshop/storefront/pkg/apiclient"
	"github.com/thriftshop/storefront/pkg/localcache"
	"github.com/thriftshop/storefront/pkg/logger"
	"github.com/thriftshop/storefront/pkg/retry"
)

type fakeProduct struct {
	ID    int
	Title string
	Price float64
	Stock int
}

type fakeLine struct {
	EntryID   int
	ProductID int
	Quantity  int
}

type fakeUser struct {
	ID       int
	Name     string
	Email    string
	Password string
}

// fakeAPI is an in-memory storefront API speaking the same JSON as the
// real server.
type fakeAPI struct {
	mu        sync.Mutex
	products  map[int]fakeProduct
	users     map[string]fakeUser
	tokens    map[string]int
	carts     map[int][]fakeLine
	wishlists map[int][]int
	nextEntry int

	calls    map[string]int
	failures map[string][]int

	catalogDown bool
	lastQuery   url.Values
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		products: map[int]fakeProduct{
			1: {ID: 1, Title: "Levi's 501 Jeans", Price: 45, Stock: 3},
			2: {ID: 2, Title: "Harley Davidson Tee", Price: 30, Stock: 5},
			3: {ID: 3, Title: "Wool Cardigan", Price: 25.5, Stock: 1},
		},
		users: map[string]fakeUser{
			"ada@example.com": {ID: 7, Name: "Ada", Email: "ada@example.com", Password: "secret123"},
		},
		tokens:    map[string]int{},
		carts:     map[int][]fakeLine{},
		wishlists: map[int][]int{},
		nextEntry: 100,
		calls:     map[string]int{},
		failures:  map[string][]int{},
	}
}

// failNext makes the next len(statuses) calls to route answer with those
// statuses.
func (f *fakeAPI) failNext(route string, statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = append(f.failures[route], statuses...)
}

func (f *fakeAPI) callCount(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func (f *fakeAPI) issueToken(userID int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok := fmt.Sprintf("tok-%d-%d", userID, len(f.tokens)+1)
	f.tokens[tok] = userID
	return tok
}

func (f *fakeAPI) revokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = map[string]int{}
}

func (f *fakeAPI) seedCart(userID int, lines ...fakeLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range lines {
		if lines[i].EntryID == 0 {
			f.nextEntry++
			lines[i].EntryID = f.nextEntry
		}
	}
	f.carts[userID] = append(f.carts[userID], lines...)
}

func (f *fakeAPI) serverCart(userID int) []fakeLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeLine(nil), f.carts[userID]...)
}

func (f *fakeAPI) routes() *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(route string, auth bool, h func(w http.ResponseWriter, r *http.Request, userID int)) {
		mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls[route]++
			if q := f.failures[route]; len(q) > 0 {
				status := q[0]
				f.failures[route] = q[1:]
				code := "INTERNAL_SERVER_ERROR"
				if status == http.StatusUnauthorized {
					code = apiclient.CodeTokenExpired
				}
				writeJSON(w, status, map[string]string{"error": code, "message": http.StatusText(status)})
				return
			}
			userID := 0
			if auth {
				tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
				id, ok := f.tokens[tok]
				if !ok {
					writeJSON(w, http.StatusUnauthorized, map[string]string{"error": apiclient.CodeTokenExpired, "message": "token expired"})
					return
				}
				userID = id
			}
			h(w, r, userID)
		})
	}

	handle("GET /api/v1/products/filters", false, func(w http.ResponseWriter, r *http.Request, _ int) {
		if f.catalogDown {
			writeJSON(w, http.StatusInternalServerError, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"sizes":      []string{"xs", "s", "m", "l", "xl"},
			"conditions": []string{"excellent", "very_good", "good", "fair"},
		})
	})
	handle("GET /api/v1/brands", false, func(w http.ResponseWriter, r *http.Request, _ int) {
		if f.catalogDown {
			writeJSON(w, http.StatusInternalServerError, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"brands": []map[string]string{{"id": "1", "name": "Levi's", "slug": "levis"}}})
	})
	handle("GET /api/v1/categories", false, func(w http.ResponseWriter, r *http.Request, _ int) {
		if f.catalogDown {
			writeJSON(w, http.StatusInternalServerError, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"categories": []map[string]string{{"id": "1", "name": "Denim", "slug": "denim"}}})
	})
	handle("GET /api/v1/products", false, func(w http.ResponseWriter, r *http.Request, _ int) {
		f.lastQuery = r.URL.Query()
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": []interface{}{}, "count": 0})
	})
	handle("GET /api/v1/products/{slug}", false, func(w http.ResponseWriter, r *http.Request, _ int) {
		id, _ := strconv.Atoi(strings.TrimPrefix(r.PathValue("slug"), "p-"))
		p, ok := f.products[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "PRODUCT_NOT_FOUND"})
			return
		}
		writeJSON(w, http.StatusOK, f.productJSON(p))
	})

	handle("POST /api/v1/auth/login", false, func(w http.ResponseWriter, r *http.Request, _ int) {
		var req struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		u, ok := f.users[req.Email]
		if !ok || u.Password != req.Password {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": apiclient.CodeInvalidCredentials, "message": "invalid email or password"})
			return
		}
		tok := fmt.Sprintf("tok-%d-%d", u.ID, len(f.tokens)+1)
		f.tokens[tok] = u.ID
		writeJSON(w, http.StatusOK, map[string]interface{}{"token": tok, "user": map[string]interface{}{"id": u.ID, "name": u.Name, "email": u.Email}})
	})
	handle("GET /api/v1/auth/profile", true, func(w http.ResponseWriter, r *http.Request, userID int) {
		for _, u := range f.users {
			if u.ID == userID {
				writeJSON(w, http.StatusOK, map[string]interface{}{"user": map[string]interface{}{"id": u.ID, "name": u.Name, "email": u.Email}})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, nil)
	})
	handle("POST /api/v1/auth/logout", true, func(w http.ResponseWriter, r *http.Request, userID int) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		delete(f.tokens, tok)
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	})

	handle("GET /api/v1/cart", true, func(w http.ResponseWriter, r *http.Request, userID int) {
		writeJSON(w, http.StatusOK, f.cartJSON(userID))
	})
	handle("POST /api/v1/cart/items", true, func(w http.ResponseWriter, r *http.Request, userID int) {
		var req struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		pid, _ := strconv.Atoi(req.ProductID)
		p, ok := f.products[pid]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "PRODUCT_NOT_FOUND"})
			return
		}
		lines := f.carts[userID]
		for i := range lines {
			if lines[i].ProductID == pid {
				if lines[i].Quantity+req.Quantity > p.Stock {
					f.stockError(w, p)
					return
				}
				lines[i].Quantity += req.Quantity
				writeJSON(w, http.StatusOK, f.cartJSON(userID))
				return
			}
		}
		if req.Quantity > p.Stock {
			f.stockError(w, p)
			return
		}
		f.nextEntry++
		f.carts[userID] = append(lines, fakeLine{EntryID: f.nextEntry, ProductID: pid, Quantity: req.Quantity})
		writeJSON(w, http.StatusOK, f.cartJSON(userID))
	})
	handle("PUT /api/v1/cart/items/{id}", true, func(w http.ResponseWriter, r *http.Request, userID int) {
		var req struct {
			Quantity int `json:"quantity"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		id, _ := strconv.Atoi(r.PathValue("id"))
		lines := f.carts[userID]
		for i := range lines {
			if lines[i].EntryID == id {
				p := f.products[lines[i].ProductID]
				if req.Quantity > p.Stock {
					f.stockError(w, p)
					return
				}
				lines[i].Quantity = req.Quantity
				writeJSON(w, http.StatusOK, f.cartJSON(userID))
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "CART_ITEM_NOT_FOUND"})
	})
	handle("DELETE /api/v1/cart/items/{id}", true, func(w http.ResponseWriter, r *http.Request, userID int) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		var kept []fakeLine
		for _, l := range f.carts[userID] {
			if l.EntryID != id {
				kept = append(kept, l)
			}
		}
		f.carts[userID] = kept
		writeJSON(w, http.StatusOK, f.cartJSON(userID))
	})
	handle("DELETE /api/v1/cart", true, func(w http.ResponseWriter, r *http.Request, userID int) {
		delete(f.carts, userID)
		writeJSON(w, http.StatusOK, f.cartJSON(userID))
	})

	handle("GET /api/v1/wishlist", true, func(w http.ResponseWriter, r *http.Request, userID int) {
		writeJSON(w, http.StatusOK, f.wishlistJSON(userID))
	})
	handle("POST /api/v1/wishlist/{id}", true, func(w http.ResponseWriter, r *http.Request, userID int) {
		pid, _ := strconv.Atoi(r.PathValue("id"))
		for _, existing := range f.wishlists[userID] {
			if existing == pid {
				writeJSON(w, http.StatusOK, f.wishlistJSON(userID))
				return
			}
		}
		f.wishlists[userID] = append(f.wishlists[userID], pid)
		writeJSON(w, http.StatusCreated, f.wishlistJSON(userID))
	})
	handle("DELETE /api/v1/wishlist/{id}", true, func(w http.ResponseWriter, r *http.Request, userID int) {
		pid, _ := strconv.Atoi(r.PathValue("id"))
		var kept []int
		found := false
		for _, existing := range f.wishlists[userID] {
			if existing == pid {
				found = true
				continue
			}
			kept = append(kept, existing)
		}
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "WISHLIST_ITEM_NOT_FOUND", "message": "Item not in wishlist"})
			return
		}
		f.wishlists[userID] = kept
		writeJSON(w, http.StatusOK, f.wishlistJSON(userID))
	})

	return mux
}

func (f *fakeAPI) stockError(w http.ResponseWriter, p fakeProduct) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error":   apiclient.CodeInsufficientStock,
		"message": fmt.Sprintf("Only %d unit(s) of %s are available.", p.Stock, p.Title),
	})
}

func (f *fakeAPI) productJSON(p fakeProduct) map[string]interface{} {
	return map[string]interface{}{
		"id":            p.ID,
		"title":         p.Title,
		"slug":          fmt.Sprintf("p-%d", p.ID),
		"price":         fmt.Sprintf("%.2f", p.Price),
		"quantity":      p.Stock,
		"is_available":  p.Stock > 0,
		"primary_image": fmt.Sprintf("https://img.example.com/%d.jpg", p.ID),
	}
}

// cartJSON leaves the line price empty so clients fall back to the nested
// product price.
func (f *fakeAPI) cartJSON(userID int) map[string]interface{} {
	items := []map[string]interface{}{}
	for _, l := range f.carts[userID] {
		items = append(items, map[string]interface{}{
			"id":         l.EntryID,
			"product_id": l.ProductID,
			"quantity":   l.Quantity,
			"product":    f.productJSON(f.products[l.ProductID]),
		})
	}
	return map[string]interface{}{"items": items}
}

func (f *fakeAPI) wishlistJSON(userID int) map[string]interface{} {
	items := []map[string]interface{}{}
	for i, pid := range f.wishlists[userID] {
		items = append(items, map[string]interface{}{
			"id":         i + 1,
			"product_id": pid,
			"product":    f.productJSON(f.products[pid]),
		})
	}
	return map[string]interface{}{"items": items, "count": len(items)}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type testEnv struct {
	api       *fakeAPI
	client    *apiclient.Client
	cache     *localcache.Memory
	notices   *NoticeRecorder
	redirects int
	store     *Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	api := newFakeAPI()
	srv := httptest.NewServer(api.routes())
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api/v1"}, apiclient.WithLogger(logger.Nop()))
	require.NoError(t, err)

	env := &testEnv{
		api:     api,
		client:  client,
		cache:   localcache.NewMemory(),
		notices: &NoticeRecorder{},
	}
	env.store = New(client, Options{
		Cache:         env.cache,
		Notifier:      env.notices,
		Logger:        logger.Nop(),
		TokenRetry:    retry.Policy{Attempts: 3, BaseDelay: time.Millisecond},
		LoginRedirect: func() { env.redirects++ },
	})
	return env
}

func product(id int, title string, price float64) ProductRef {
	return ProductRef{ID: strconv.Itoa(id), Slug: fmt.Sprintf("p-%d", id), Title: title, Price: price}
}
