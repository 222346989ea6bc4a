package assetclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/assetdesk/internal/assets"
	"github.com/muurk/assetdesk/internal/loginform"
	"github.com/muurk/assetdesk/internal/logging"
	"github.com/muurk/assetdesk/internal/urls"
	"github.com/muurk/assetdesk/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for reads
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	maxBody = 4 << 20
)

// Client talks to an assetdesk server's asset endpoints. The same
// HTTPClient (and cookie jar) is shared with the login controller so any
// session the server sets carries over.
type Client struct {
	// BaseURL is the server root (e.g., "https://assets.example.com")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed reads
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff
	MaxRetryDelay time.Duration
}

// NewClient creates a client for baseURL with a cookie jar.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: scheme and host required", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HTTPClient:    &http.Client{Timeout: timeout, Jar: jar},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}, nil
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	return urls.Join(c.BaseURL, path)
}

// ListOptions selects one page of the asset list.
type ListOptions struct {
	Path     string // default /assets
	Query    string
	Page     int
	PageSize int
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Query != "" {
		q.Set("query", o.Query)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	return q
}

// ListAssets fetches one page of assets as JSON. Transport failures and 5xx
// responses are retried with exponential backoff.
func (c *Client) ListAssets(ctx context.Context, opts ListOptions) (assets.Page, error) {
	path := opts.Path
	if path == "" {
		path = urls.Assets
	}
	target := c.URL(path)
	if q := opts.values().Encode(); q != "" {
		target += "?" + q
	}

	var lastErr error
	delay := c.RetryDelay
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return assets.Page{}, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.MaxRetryDelay {
				delay = c.MaxRetryDelay
			}
		}

		page, err := c.listAttempt(ctx, target)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return assets.Page{}, err
		}
		logging.Debug("Retrying asset list", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return assets.Page{}, lastErr
}

func (c *Client) listAttempt(ctx context.Context, target string) (assets.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return assets.Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var page assets.Page
	if err := c.do(req, &page); err != nil {
		return assets.Page{}, err
	}
	return page, nil
}

// WriteResult is the server's reply to a create, edit or delete.
type WriteResult struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	ID      int    `json:"id"`
}

// CreateAsset posts a new asset.
func (c *Client) CreateAsset(ctx context.Context, a assets.Asset) (WriteResult, error) {
	return c.post(ctx, a.ToFormData())
}

// UpdateAsset posts an edit of asset a.ID.
func (c *Client) UpdateAsset(ctx context.Context, a assets.Asset) (WriteResult, error) {
	if a.ID < 1 {
		return WriteResult{}, errors.New("asset ID required for update")
	}
	form := a.ToFormData()
	form.Set("action", "edit")
	form.Set("id", strconv.Itoa(a.ID))
	return c.post(ctx, form)
}

// GetAsset fetches asset id.
func (c *Client) GetAsset(ctx context.Context, id int) (assets.Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(urls.AssetEntry)+"?id="+strconv.Itoa(id), nil)
	if err != nil {
		return assets.Asset{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	var a assets.Asset
	if err := c.do(req, &a); err != nil {
		return assets.Asset{}, err
	}
	return a, nil
}

// DeleteAsset deletes asset id.
func (c *Client) DeleteAsset(ctx context.Context, id int) (WriteResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.URL(urls.AssetEntry)+"?id="+strconv.Itoa(id), nil)
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	var res WriteResult
	if err := c.do(req, &res); err != nil {
		return WriteResult{}, err
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, form url.Values) (WriteResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(urls.AssetEntry), strings.NewReader(form.Encode()))
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var res WriteResult
	if err := c.do(req, &res); err != nil {
		return WriteResult{}, err
	}
	return res, nil
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return loginform.NewNetworkError("request to "+req.URL.Host+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return loginform.NewNetworkError("failed to read response body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", req.URL.Path, err)
	}
	return nil
}
