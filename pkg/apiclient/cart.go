package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) GetCart(ctx context.Context) (*CartSnapshot, error) {
	var snap CartSnapshot
	if err := c.doRequest(ctx, http.MethodGet, "/cart", nil, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AddToCart adds quantity units of a product; the server increments an
// existing line for the same product.
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (*CartSnapshot, error) {
	req := struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}{productID, quantity}

	var snap CartSnapshot
	if err := c.doRequest(ctx, http.MethodPost, "/cart/items", nil, req, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, entryID string, quantity int) (*CartSnapshot, error) {
	req := struct {
		Quantity int `json:"quantity"`
	}{quantity}

	var snap CartSnapshot
	if err := c.doRequest(ctx, http.MethodPut, "/cart/items/"+url.PathEscape(entryID), nil, req, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, entryID string) (*CartSnapshot, error) {
	var snap CartSnapshot
	if err := c.doRequest(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(entryID), nil, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) ClearCart(ctx context.Context) (*CartSnapshot, error) {
	var snap CartSnapshot
	if err := c.doRequest(ctx, http.MethodDelete, "/cart", nil, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) GetWishlist(ctx context.Context) (*Wishlist, error) {
	var w Wishlist
	if err := c.doRequest(ctx, http.MethodGet, "/wishlist", nil, nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// AddToWishlist is idempotent on the server.
func (c *Client) AddToWishlist(ctx context.Context, productID string) (*Wishlist, error) {
	var w Wishlist
	if err := c.doRequest(ctx, http.MethodPost, "/wishlist/"+url.PathEscape(productID), nil, nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) (*Wishlist, error) {
	var w Wishlist
	if err := c.doRequest(ctx, http.MethodDelete, "/wishlist/"+url.PathEscape(productID), nil, nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}
