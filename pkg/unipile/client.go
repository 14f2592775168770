package unipile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.unipile.com/v1"

// APIError is a non-2xx response from the Unipile API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unipile: API error (%d): %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiKey    string
	accountID string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Unipile LinkedIn client bound to one account.
func NewClient(apiKey, accountID string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		accountID: accountID,
		baseURL:   defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(4), 8),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchTalent implements Client.
func (c *httpClient) SearchTalent(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	if params.AccountID == "" {
		params.AccountID = c.accountID
	}
	var out SearchResponse
	if err := c.do(ctx, http.MethodPost, "/linkedin/search", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserProfile implements Client.
func (c *httpClient) GetUserProfile(ctx context.Context, providerID string) (*ProfileResponse, error) {
	var out ProfileResponse
	path := fmt.Sprintf("/users/%s?account_id=%s", providerID, c.accountID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserPosts implements Client.
func (c *httpClient) GetUserPosts(ctx context.Context, providerID string) (*ActivityResponse, error) {
	return c.activity(ctx, providerID, "posts")
}

// GetUserComments implements Client.
func (c *httpClient) GetUserComments(ctx context.Context, providerID string) (*ActivityResponse, error) {
	return c.activity(ctx, providerID, "comments")
}

// GetUserReactions implements Client.
func (c *httpClient) GetUserReactions(ctx context.Context, providerID string) (*ActivityResponse, error) {
	return c.activity(ctx, providerID, "reactions")
}

func (c *httpClient) activity(ctx context.Context, providerID, kind string) (*ActivityResponse, error) {
	var out ActivityResponse
	path := fmt.Sprintf("/users/%s/%s?account_id=%s", providerID, kind, c.accountID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "unipile: rate limit wait")
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "unipile: marshal request")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return eris.Wrap(err, "unipile: create request")
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "unipile: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return eris.Wrap(err, "unipile: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "unipile: unmarshal response")
	}
	return nil
}
