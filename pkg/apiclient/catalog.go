package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// ListProducts fetches one page of the catalog. query carries filter, search,
// ordering and paging parameters as the server names them.
func (c *Client) ListProducts(ctx context.Context, query url.Values) (*ProductPage, error) {
	var page ProductPage
	if err := c.doRequest(ctx, http.MethodGet, "/products", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetProduct(ctx context.Context, slug string) (*Product, error) {
	var p Product
	if err := c.doRequest(ctx, http.MethodGet, "/products/"+url.PathEscape(slug), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetFilterOptions(ctx context.Context) (*FilterOptions, error) {
	var f FilterOptions
	if err := c.doRequest(ctx, http.MethodGet, "/products/filters", nil, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) ListBrands(ctx context.Context) ([]NamedRef, error) {
	var resp struct {
		Brands []NamedRef `json:"brands"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/brands", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Brands, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]NamedRef, error) {
	var resp struct {
		Categories []NamedRef `json:"categories"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/categories", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}
