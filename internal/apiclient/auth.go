package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// CSRFCookie primes the jar with a fresh XSRF-TOKEN.
func (c *Client) CSRFCookie(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/sanctum/csrf-cookie", nil, nil)
}

// Register creates an account. The server also starts a session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := c.CSRFCookie(ctx); err != nil {
		return nil, err
	}
	return c.userCall(ctx, http.MethodPost, "/api/v2/register", req)
}

// Login starts a session for the given credentials.
func (c *Client) Login(ctx context.Context, creds Credentials) (*User, error) {
	if err := c.CSRFCookie(ctx); err != nil {
		return nil, err
	}
	return c.userCall(ctx, http.MethodPost, "/api/v2/login", creds)
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v2/logout", nil, nil)
}

// User returns the account behind the current session.
func (c *Client) User(ctx context.Context) (*User, error) {
	return c.userCall(ctx, http.MethodGet, "/api/v2/user", nil)
}

// LiveDetails reports the live status of a YouTube video.
func (c *Client) LiveDetails(ctx context.Context, videoID string) (*LiveDetails, error) {
	var details LiveDetails
	path := "/api/v2/youtube/video/" + url.PathEscape(videoID) + "/live-details"
	if err := c.do(ctx, http.MethodGet, path, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) userCall(ctx context.Context, method, path string, body any) (*User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, body, &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}
