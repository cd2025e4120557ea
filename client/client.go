// Package client is the Go client for the Darasa auth API. It persists the
// issued session token plus a snapshot of the user locally, and re-derives
// session validity from the server on every start.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")

	defaultTimeout = 15 * time.Second
)

type Client struct {
	baseURL string
	http    *http.Client
	cache   SessionCache
}

func New(baseURL string, cache SessionCache) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		cache:   cache,
	}
}

type (
	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}
)

// Login authenticates and caches the issued session.
// The cache is left untouched when authentication fails.
func (c *Client) Login(ctx context.Context, email, password string) (user.User, error) {
	var out loginResponse
	status, err := c.post(ctx, "/functions/login", "", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return user.User{}, err
	}
	switch {
	case status == http.StatusOK:
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return user.User{}, ErrInvalidCredentials
	default:
		return user.User{}, errors.Errorf("login failed with status %d", status)
	}

	if err := c.cache.Save(Session{Token: out.Token, User: out.User}); err != nil {
		return user.User{}, err
	}
	return out.User, nil
}

// ValidateSession re-derives session validity from the server. A nil user
// with a nil error means "no session"; the cached snapshot is never returned.
func (c *Client) ValidateSession(ctx context.Context) (*user.User, error) {
	sess, err := c.cache.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/functions/session", nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	res, err := c.http.Do(req)
	if err != nil {
		// cannot re-derive validity; treat as no session
		_ = c.cache.Clear()
		return nil, nil
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		_ = c.cache.Clear()
		return nil, nil
	}

	var usr user.User
	if err := json.NewDecoder(res.Body).Decode(&usr); err != nil {
		_ = c.cache.Clear()
		return nil, nil
	}

	// refresh the snapshot with the authoritative copy
	_ = c.cache.Save(Session{Token: sess.Token, User: usr})
	return &usr, nil
}

// Logout is fail-open: the remote invalidation is best-effort and the local
// cache is always cleared.
func (c *Client) Logout(ctx context.Context) error {
	sess, err := c.cache.Load()
	if err == nil && sess != nil {
		_, _ = c.post(ctx, "/functions/logout", sess.Token, nil, nil)
	}
	return c.cache.Clear()
}

// CurrentUser returns the cached snapshot, if any. Callers needing the
// authoritative profile must use ValidateSession.
func (c *Client) CurrentUser() (*user.User, error) {
	sess, err := c.cache.Load()
	if err != nil || sess == nil {
		return nil, err
	}
	return &sess.User, nil
}

func (c *Client) post(ctx context.Context, path, token string, in, out interface{}) (int, error) {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return 0, errors.Wrap(err, "encoding request body")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return 0, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "sending request")
	}
	defer func() { _ = res.Body.Close() }()

	if out != nil && res.StatusCode == http.StatusOK {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, errors.Wrap(err, "decoding response body")
		}
	}
	return res.StatusCode, nil
}
