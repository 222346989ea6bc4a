package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/bcrypt"

	"github.com/muurk/assetdesk/internal/assets"
	"github.com/muurk/assetdesk/internal/loginform"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Account = Account{Username: "admin", PasswordHash: string(hash)}
	return cfg
}

func newTestServer(t *testing.T, cfg *Config, store assets.Store) *httptest.Server {
	t.Helper()
	if store == nil {
		store = assets.NewMemoryStore()
	}
	srv, err := New(cfg, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv.clock = func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) }
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postForm(t *testing.T, ts *httptest.Server, path string, form url.Values, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func TestLoginPageCarriesFormContract(t *testing.T) {
	cfg := testConfig(t)
	cfg.CSRFToken = "tok-789"
	ts := newTestServer(t, cfg, nil)

	resp, err := ts.Client().Get(ts.URL + "/login")
	if err != nil {
		t.Fatalf("GET /login: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if id := resp.Header.Get(RequestIDHeader); id == "" {
		t.Error("Response should carry a request ID")
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, id := range []string{"login-form", "username", "password", "error-message", "loading"} {
		if doc.Find("#"+id).Length() != 1 {
			t.Errorf("Login page should have exactly one #%s", id)
		}
	}
	if token, _ := doc.Find(`meta[name="csrf-token"]`).Attr("content"); token != "tok-789" {
		t.Errorf("csrf-token meta = %q, want tok-789", token)
	}
	if label := strings.TrimSpace(doc.Find(`#login-form button[type="submit"]`).Text()); label != "Sign in" {
		t.Errorf("Submit label = %q, want Sign in", label)
	}
}

func TestLoginPageWithoutToken(t *testing.T) {
	ts := newTestServer(t, testConfig(t), nil)

	page, err := loginform.FetchPage(context.Background(), ts.Client(), ts.URL+"/login")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page.CSRFToken != "" {
		t.Errorf("CSRFToken = %q, want empty", page.CSRFToken)
	}
	if !page.HasForm() {
		t.Errorf("Page missing %v", page.Missing)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		csrf       string
		header     string
		username   string
		password   string
		wantStatus int
		wantBody   string
	}{
		{"accepted", "", "", "admin", "s3cret", 200, "OK"},
		{"wrong password", "", "", "admin", "nope", 401, "Invalid credentials"},
		{"unknown user", "", "", "root", "s3cret", 401, "Invalid credentials"},
		{"missing password", "", "", "admin", "", 400, "Username and password are required"},
		{"csrf ok", "tok", "tok", "admin", "s3cret", 200, "OK"},
		{"csrf mismatch", "tok", "other", "admin", "s3cret", 403, "Invalid CSRF token"},
		{"csrf missing", "tok", "", "admin", "s3cret", 403, "Invalid CSRF token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.CSRFToken = tt.csrf
			ts := newTestServer(t, cfg, nil)

			header := http.Header{}
			if tt.header != "" {
				header.Set(loginform.CSRFHeader, tt.header)
			}
			resp := postForm(t, ts, "/login", url.Values{"username": {tt.username}, "password": {tt.password}}, header)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if body := strings.TrimSpace(readBody(t, resp)); body != tt.wantBody {
				t.Errorf("Body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestLoginWithoutAccountRejects(t *testing.T) {
	ts := newTestServer(t, DefaultConfig(), nil)
	resp := postForm(t, ts, "/login", url.Values{"username": {"admin"}, "password": {"admin"}}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", resp.StatusCode)
	}
}

// A browser submitting the form without the login script.
func TestLoginNativeFormPost(t *testing.T) {
	cfg := testConfig(t)
	cfg.CSRFToken = "tok-789"
	ts := newTestServer(t, cfg, nil)

	client := ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	tests := []struct {
		name         string
		form         url.Values
		wantStatus   int
		wantLocation string
		wantError    string
	}{
		{
			name:         "accepted",
			form:         url.Values{"username": {"admin"}, "password": {"s3cret"}, "csrf_token": {"tok-789"}},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/assets",
		},
		{
			name:       "csrf field missing",
			form:       url.Values{"username": {"admin"}, "password": {"s3cret"}},
			wantStatus: http.StatusForbidden,
			wantError:  "Invalid CSRF token",
		},
		{
			name:       "wrong password",
			form:       url.Values{"username": {"admin"}, "password": {"nope"}, "csrf_token": {"tok-789"}},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid credentials",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, ts.URL+"/login", strings.NewReader(tt.form.Encode()))
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("POST /login: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("Status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantLocation != "" {
				if loc := resp.Header.Get("Location"); loc != tt.wantLocation {
					t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
				}
				return
			}

			doc, err := goquery.NewDocumentFromReader(resp.Body)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			banner := doc.Find("#error-message")
			if _, hidden := banner.Attr("hidden"); hidden {
				t.Error("Error banner should be visible")
			}
			if msg := strings.TrimSpace(banner.Text()); msg != tt.wantError {
				t.Errorf("Error banner = %q, want %q", msg, tt.wantError)
			}
			if v, _ := doc.Find(`#username`).Attr("value"); v != "admin" {
				t.Errorf("Username should be kept, got %q", v)
			}
		})
	}
}

func TestLoginPageLoadsScript(t *testing.T) {
	cfg := testConfig(t)
	cfg.CSRFToken = "tok-789"
	ts := newTestServer(t, cfg, nil)

	resp, err := ts.Client().Get(ts.URL + "/login")
	if err != nil {
		t.Fatalf("GET /login: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, _ := doc.Find(`#login-form input[name="csrf_token"]`).Attr("value"); v != "tok-789" {
		t.Errorf("csrf_token field = %q, want tok-789", v)
	}
	if next, _ := doc.Find("#login-form").Attr("data-success"); next != "/assets" {
		t.Errorf("data-success = %q, want /assets", next)
	}
	src, ok := doc.Find("script").Attr("src")
	if !ok {
		t.Fatal("Login page should load its script")
	}

	resp, err = ts.Client().Get(ts.URL + src)
	if err != nil {
		t.Fatalf("GET %s: %v", src, err)
	}
	defer resp.Body.Close()
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Script status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "X-CSRF-Token") {
		t.Error("Script should send the CSRF header")
	}
}

// The login controller against the real handler, as the CLI runs it.
type recordingNav struct{ path string }

func (n *recordingNav) Navigate(path string) { n.path = path }

type nopField struct{ v string }

func (f *nopField) Value() string { return f.v }
func (f *nopField) SetInvalid(bool) {}
func (nopField) Label() string     { return "Sign in" }
func (nopField) SetLabel(string)   {}
func (nopField) SetDisabled(bool)  {}
func (nopField) Show()             {}
func (nopField) Hide()             {}

type textBanner struct{ text string }

func (b *textBanner) Show(m string) { b.text = m }
func (b *textBanner) Hide()         { b.text = "" }

func TestLoginControllerAgainstServer(t *testing.T) {
	cfg := testConfig(t)
	cfg.CSRFToken = "tok-e2e"
	ts := newTestServer(t, cfg, nil)

	run := func(password string) (*recordingNav, *textBanner, loginform.Outcome) {
		nav := &recordingNav{}
		banner := &textBanner{}
		ctrl, err := loginform.New(loginform.Config{
			Elements: loginform.Elements{
				Username: &nopField{v: "admin"},
				Password: &nopField{v: password},
				Submit:   nopField{},
				Loading:  nopField{},
				Error:    banner,
			},
			Navigator: nav,
			Tokens:    &loginform.MetaTokenSource{Client: ts.Client(), PageURL: ts.URL + "/login"},
			Client:    ts.Client(),
			Options:   loginform.Options{BaseURL: ts.URL, AfterFunc: func(time.Duration, func()) loginform.Timer { return time.NewTimer(time.Hour) }},
		})
		if err != nil {
			t.Fatalf("loginform.New: %v", err)
		}
		return nav, banner, ctrl.Submit(context.Background())
	}

	nav, _, out := run("s3cret")
	if !out.OK() || nav.path != "/assets" {
		t.Errorf("Good login: outcome %+v, navigated to %q", out, nav.path)
	}

	nav, banner, out := run("wrong")
	if out.OK() || nav.path != "" {
		t.Errorf("Bad login should not navigate, got %q", nav.path)
	}
	if banner.text != "Invalid credentials" {
		t.Errorf("Banner = %q, want Invalid credentials", banner.text)
	}
}

func TestRootRedirects(t *testing.T) {
	ts := newTestServer(t, testConfig(t), nil)
	client := ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	resp, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Errorf("GET / = %d Location %q, want 303 /login", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func assetForm(name string) url.Values {
	a := assets.Asset{
		SerialNumber: "SN-" + name, Name: name, Category: "Laptop", Brand: "Lenovo",
		Department: "IT", Location: "HQ", Supplier: "JD", Recipient: "Li", RecipientDepartment: "IT",
	}
	return a.ToFormData()
}

func getPage(t *testing.T, ts *httptest.Server, rawQuery string) assets.Page {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + "/assets/list?" + rawQuery)
	if err != nil {
		t.Fatalf("GET /assets/list: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d", resp.StatusCode)
	}
	var page assets.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return page
}

func TestAssetLifecycle(t *testing.T) {
	ts := newTestServer(t, testConfig(t), nil)

	resp := postForm(t, ts, "/assets", assetForm("ThinkPad"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Create status = %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var created writeResult
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Message != "success" || created.Action != "create" || created.ID == 0 {
		t.Errorf("Create result = %+v", created)
	}

	postForm(t, ts, "/asset-entry", assetForm("MacBook"), nil)

	page := getPage(t, ts, "")
	if page.Total != 2 || page.PageSize != assets.DefaultPageSize {
		t.Errorf("List = %+v", page)
	}
	if page.Assets[0].CreatedAt != "2025-03-04" {
		t.Errorf("CreatedAt = %q, want server date", page.Assets[0].CreatedAt)
	}

	if got := getPage(t, ts, "query=macbok"); got.Total != 1 || got.Assets[0].Name != "MacBook" {
		t.Errorf("Fuzzy search = %+v", got)
	}

	edit := assetForm("ThinkPad X1")
	edit.Set("action", "edit")
	edit.Set("id", "1")
	if resp := postForm(t, ts, "/assets", edit, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("Edit status = %d", resp.StatusCode)
	}
	if got := getPage(t, ts, "query=x1"); got.Total != 1 {
		t.Errorf("Edited asset not found: %+v", got)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/assets?id=1", nil)
	del, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusOK {
		t.Errorf("Delete status = %d", del.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/assets?id=1", nil)
	del, err = ts.Client().Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNotFound {
		t.Errorf("Second delete status = %d, want 404", del.StatusCode)
	}
}

func TestGetAsset(t *testing.T) {
	ts := newTestServer(t, testConfig(t), nil)
	postForm(t, ts, "/asset-entry", assetForm("ThinkPad"), nil)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantName   string
	}{
		{"found", "id=1", http.StatusOK, "ThinkPad"},
		{"unknown id", "id=99", http.StatusNotFound, ""},
		{"bad id", "id=abc", http.StatusBadRequest, ""},
		{"missing id", "", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ts.Client().Get(ts.URL + "/asset-entry?" + tt.query)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("Status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantName == "" {
				return
			}
			var a assets.Asset
			if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if a.ID != 1 || a.Name != tt.wantName {
				t.Errorf("Asset = %+v", a)
			}
		})
	}
}

func TestSaveAssetRejectsBadInput(t *testing.T) {
	ts := newTestServer(t, testConfig(t), nil)

	missing := assetForm("x")
	missing.Del(assets.FieldBrand)
	badDate := assetForm("y")
	badDate.Set(assets.FieldOrderDate, "03/04/2025")
	badID := assetForm("z")
	badID.Set("action", "edit")
	badID.Set("id", "abc")
	unknown := assetForm("w")
	unknown.Set("action", "archive")
	notFound := assetForm("v")
	notFound.Set("action", "edit")
	notFound.Set("id", "99")

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantBody   string
	}{
		{"missing brand", missing, 400, "brand is required"},
		{"bad date", badDate, 400, "order date must be YYYY-MM-DD"},
		{"bad id", badID, 400, "Invalid asset ID"},
		{"unknown action", unknown, 400, "Unknown action"},
		{"edit missing asset", notFound, 404, "Asset not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postForm(t, ts, "/assets", tt.form, nil)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if body := readBody(t, resp); !strings.Contains(body, tt.wantBody) {
				t.Errorf("Body = %q, want it to contain %q", body, tt.wantBody)
			}
		})
	}
}

func TestAssetListHTML(t *testing.T) {
	store := assets.NewMemoryStore(assets.Asset{ID: 1, Name: "<Router>", CreatedAt: "2024-01-01"})
	ts := newTestServer(t, testConfig(t), store)

	resp, err := ts.Client().Get(ts.URL + "/assets")
	if err != nil {
		t.Fatalf("GET /assets: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %s, want text/html", ct)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Find("tbody tr td").Eq(2).Text(); got != "<Router>" {
		t.Errorf("Name cell = %q, want escaped <Router>", got)
	}
}

func TestAssetListJSONByAccept(t *testing.T) {
	ts := newTestServer(t, testConfig(t), nil)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/assets?page=2", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var page assets.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Page != 2 || page.Total != 0 {
		t.Errorf("Page = %+v", page)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	good := write("good.yaml", "port: 9090\ncsrf_token: abc\naccount:\n  username: admin\n  password_hash: $2a$04$abcdefghijklmnopqrstuu5Jv5zYjG8qQ0bG1Q4m8xkYbq8qyX9a2\n")
	cfg, err := LoadConfig(good)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 9090 || cfg.CSRFToken != "abc" || cfg.Account.Username != "admin" {
		t.Errorf("Config = %+v", cfg)
	}

	empty := write("empty.yaml", "")
	if cfg, err := LoadConfig(empty); err != nil || cfg.Port != DefaultPort {
		t.Errorf("Empty config = %+v, %v; want defaults", cfg, err)
	}

	for name, body := range map[string]string{
		"unknown.yaml": "prot: 80\n",
		"halftls.yaml": "cert: /tmp/c.pem\n",
		"nohash.yaml":  "account:\n  username: admin\n",
		"badport.yaml": "port: 70000\n",
	} {
		if _, err := LoadConfig(write(name, body)); err == nil {
			t.Errorf("LoadConfig(%s) should fail", name)
		}
	}
}

func TestAuthenticator(t *testing.T) {
	hash, err := HashPassword("pa55")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	auth, err := NewAuthenticator(Account{Username: "ops", PasswordHash: hash})
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	if !auth.Check("ops", "pa55") {
		t.Error("Check should accept the right password")
	}
	if auth.Check("ops", "pa56") || auth.Check("OPS", "pa55") {
		t.Error("Check should reject wrong credentials")
	}

	if _, err := NewAuthenticator(Account{Username: "ops", PasswordHash: "plaintext"}); err == nil {
		t.Error("Plain text password_hash should be rejected")
	}
	if _, err := HashPassword(""); err == nil {
		t.Error("Empty password should not be hashed")
	}
}
