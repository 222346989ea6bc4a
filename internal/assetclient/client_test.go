package assetclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/assetdesk/internal/assets"
	"github.com/muurk/assetdesk/internal/server"
)

func sample(serial string) assets.Asset {
	return assets.Asset{
		SerialNumber:        serial,
		Name:                "ThinkPad X1",
		Category:            "Laptop",
		Brand:               "Lenovo",
		Department:          "IT",
		Location:            "HQ-3",
		Supplier:            "Acme",
		Recipient:           "Alice",
		RecipientDepartment: "Finance",
		OrderDate:           "2024-04-02",
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, err := server.New(server.DefaultConfig(), assets.NewMemoryStore())
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(baseURL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	c.RetryDelay = time.Millisecond
	return c
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("https://assets.example.com/", 0)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.BaseURL != "https://assets.example.com" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
	if c.HTTPClient.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.HTTPClient.Timeout, DefaultTimeout)
	}
	if c.HTTPClient.Jar == nil {
		t.Error("client should carry a cookie jar")
	}

	for _, bad := range []string{"", "assets.example.com", "ftp://x", "http://"} {
		if _, err := NewClient(bad, 0); err == nil {
			t.Errorf("NewClient(%q) should fail", bad)
		}
	}
}

func TestClient_AssetLifecycle(t *testing.T) {
	ts := newServer(t)
	c := newClient(t, ts.URL)
	ctx := context.Background()

	created, err := c.CreateAsset(ctx, sample("SN-1"))
	if err != nil {
		t.Fatalf("CreateAsset() error = %v", err)
	}
	if created.Action != "create" || created.ID < 1 {
		t.Fatalf("CreateAsset() = %+v", created)
	}

	if _, err := c.CreateAsset(ctx, sample("ZX-9000")); err != nil {
		t.Fatalf("CreateAsset() error = %v", err)
	}

	page, err := c.ListAssets(ctx, ListOptions{Query: "sn-1"})
	if err != nil {
		t.Fatalf("ListAssets() error = %v", err)
	}
	if page.Total != 1 || page.Assets[0].SerialNumber != "SN-1" {
		t.Fatalf("ListAssets(sn-1) = %+v", page)
	}

	edit := page.Assets[0]
	edit.Location = "HQ-4"
	if res, err := c.UpdateAsset(ctx, edit); err != nil || res.Action != "edit" {
		t.Fatalf("UpdateAsset() = %+v, %v", res, err)
	}

	got, err := c.GetAsset(ctx, edit.ID)
	if err != nil {
		t.Fatalf("GetAsset() error = %v", err)
	}
	if got != edit {
		t.Errorf("GetAsset() = %+v, want %+v", got, edit)
	}

	page, err = c.ListAssets(ctx, ListOptions{Page: 1, PageSize: 1})
	if err != nil {
		t.Fatalf("ListAssets() error = %v", err)
	}
	if page.Total != 2 || page.Pages != 2 || len(page.Assets) != 1 {
		t.Errorf("paged list = %+v", page)
	}

	if _, err := c.DeleteAsset(ctx, created.ID); err != nil {
		t.Fatalf("DeleteAsset() error = %v", err)
	}
	if _, err := c.DeleteAsset(ctx, created.ID); !IsNotFound(err) {
		t.Errorf("second DeleteAsset() error = %v, want not found", err)
	}
	if _, err := c.GetAsset(ctx, created.ID); !IsNotFound(err) {
		t.Errorf("GetAsset() of deleted asset error = %v, want not found", err)
	}
}

func TestClient_ValidationRejected(t *testing.T) {
	ts := newServer(t)
	c := newClient(t, ts.URL)

	bad := sample("SN-3")
	bad.OrderDate = "02/04/2024"
	_, err := c.CreateAsset(context.Background(), bad)
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("CreateAsset() error = %v, want 400", err)
	}
	if IsRetryable(err) {
		t.Error("400 should not be retryable")
	}

	if _, err := c.UpdateAsset(context.Background(), sample("SN-4")); err == nil {
		t.Error("UpdateAsset without an ID should fail")
	}
}

func TestClient_ListRetries(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "Failed to load assets", http.StatusInternalServerError)
			return
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"assets":[],"total":0,"page":1,"pages":0,"pageSize":20}`))
	}))
	defer ts.Close()

	page, err := newClient(t, ts.URL).ListAssets(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("ListAssets() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if page.PageSize != 20 {
		t.Errorf("PageSize = %d", page.PageSize)
	}
}

func TestClient_ListGivesUp(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL).ListAssets(context.Background(), ListOptions{})
	if err == nil {
		t.Fatal("ListAssets() should fail")
	}
	if got := calls.Load(); got != DefaultMaxRetries+1 {
		t.Errorf("calls = %d, want %d", got, DefaultMaxRetries+1)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &APIError{StatusCode: 502}, true},
		{"not found", &APIError{StatusCode: 404}, false},
		{"plain error", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_PathPrefix(t *testing.T) {
	srv, err := server.New(server.DefaultConfig(), assets.NewMemoryStore())
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/desk/", http.StripPrefix("/desk", srv.Handler()))
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := newClient(t, ts.URL+"/desk/")
	if got, want := c.URL("/assets"), ts.URL+"/desk/assets"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}

	ctx := context.Background()
	if _, err := c.CreateAsset(ctx, sample("SN-1")); err != nil {
		t.Fatalf("CreateAsset() error = %v", err)
	}
	page, err := c.ListAssets(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListAssets() error = %v", err)
	}
	if page.Total != 1 {
		t.Errorf("Total = %d, want 1", page.Total)
	}
}
