package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api/v1"})
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Config{BaseURL: "not a url"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_DefaultTimeout(t *testing.T) {
	c, err := New(Config{BaseURL: "http://localhost:8080/api/v1/"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.GetConfig().Timeout)
	assert.Equal(t, "http://localhost:8080/api/v1", c.GetConfig().BaseURL)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth atomic.Value
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": []interface{}{}})
	})

	_, err := c.GetCart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", gotAuth.Load())

	c.SetToken("tok-123")
	_, err = c.GetCart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth.Load())
}

func TestClient_UnauthorizedFiresHandler(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": CodeTokenExpired, "message": "token expired"})
	})

	var fired int32
	c.OnUnauthorized(func() { atomic.AddInt32(&fired, 1) })

	t.Run("no token means no teardown", func(t *testing.T) {
		_, err := c.GetWishlist(context.Background())
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
	})

	t.Run("any endpoint with a token triggers the handler", func(t *testing.T) {
		c.SetToken("stale")
		_, err := c.GetWishlist(context.Background())
		assert.ErrorIs(t, err, ErrUnauthorized)
		_, err = c.ListProducts(context.Background(), nil)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, int32(2), atomic.LoadInt32(&fired))
	})
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]string
		want   error
	}{
		{"insufficient stock", http.StatusBadRequest, map[string]string{"error": CodeInsufficientStock, "message": "Only 3 unit(s) of Denim Jacket are available."}, ErrInsufficientStock},
		{"invalid credentials", http.StatusUnauthorized, map[string]string{"error": CodeInvalidCredentials}, ErrInvalidCredentials},
		{"validation", http.StatusBadRequest, map[string]string{"error": "VALIDATION_INVALID_INPUT"}, ErrValidation},
		{"not found", http.StatusNotFound, map[string]string{"error": "PRODUCT_NOT_FOUND"}, ErrNotFound},
		{"unavailable", http.StatusServiceUnavailable, nil, ErrNetwork},
		{"internal", http.StatusInternalServerError, map[string]string{"error": "INTERNAL_SERVER_ERROR"}, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			c.SetToken("tok")

			var fired bool
			c.OnUnauthorized(func() { fired = true })

			_, err := c.AddToCart(context.Background(), "1", 5)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, fired)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Profile(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, IsTransient(err))
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.GetCart(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_CartRequests(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/cart/items":
			var req map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "7", req["product_id"])
			assert.Equal(t, float64(2), req["quantity"])
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"items": []map[string]interface{}{
					{"id": 11, "product_id": 7, "price": "19.50", "quantity": 2},
				},
				"total_items": 2,
				"total_price": 39,
			})
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/cart/items/11":
			writeJSON(w, http.StatusOK, map[string]interface{}{"items": []interface{}{}})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	})

	snap, err := c.AddToCart(context.Background(), "7", 2)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, FlexString("11"), snap.Items[0].ID)
	assert.Equal(t, FlexString("7"), snap.Items[0].ProductID)
	assert.Equal(t, FlexFloat(19.5), snap.Items[0].Price)

	_, err = c.UpdateCartItem(context.Background(), "11", 3)
	require.NoError(t, err)
}

func TestCartSnapshot_BareArray(t *testing.T) {
	var snap CartSnapshot
	require.NoError(t, json.Unmarshal([]byte(`[{"product_id":"3","quantity":1}]`), &snap))
	require.Len(t, snap.Items, 1)
	assert.Equal(t, FlexString("3"), snap.Items[0].ProductID)
}

func TestFlexFloat(t *testing.T) {
	var v struct {
		A FlexFloat `json:"a"`
		B FlexFloat `json:"b"`
		C FlexFloat `json:"c"`
		D FlexFloat `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12.5","b":3,"c":"abc","d":null}`), &v))
	assert.Equal(t, FlexFloat(12.5), v.A)
	assert.Equal(t, FlexFloat(3), v.B)
	assert.Equal(t, FlexFloat(0), v.C)
	assert.Equal(t, FlexFloat(0), v.D)
}

func TestMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "WISHLIST_ITEM_NOT_FOUND", "message": "Item not in wishlist"})
	})
	c.SetToken("tok")
	_, err := c.RemoveFromWishlist(context.Background(), "4")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Item not in wishlist", Message(err))
}

func TestSubscribeEvents_StreamEndedByServer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteJSON(Event{Type: EventCartUpdated})
		conn.Close()
	})
	c.SetToken("tok")

	stream, err := c.SubscribeEvents(context.Background())
	require.NoError(t, err)

	ev, ok := <-stream.Events()
	require.True(t, ok)
	assert.Equal(t, EventCartUpdated, ev.Type)

	_, ok = <-stream.Events()
	assert.False(t, ok)
	assert.ErrorIs(t, stream.Err(), ErrNetwork)

	select {
	case <-stream.done:
	case <-time.After(time.Second):
		t.Fatal("reader did not finish after the server closed the stream")
	}
}
