package apiclient

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a token. The token is not installed on
// the client; callers decide when the session starts.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var resp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile fetches the current user, validating the installed token.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var resp struct {
		User Profile `json:"user"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/auth/profile", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}
