package loginform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/muurk/assetdesk/internal/logging"
	"github.com/muurk/assetdesk/internal/version"
)

const maxPageSize = 1 << 20

// Page is what the client learns from the server's login page.
type Page struct {
	CSRFToken   string   // content of meta[name="csrf-token"], "" if absent
	SubmitLabel string   // text of the form's submit button
	Missing     []string // contract ids the page does not carry
}

// HasForm reports whether the page carries the whole login form contract.
func (p *Page) HasForm() bool { return len(p.Missing) == 0 }

// ParsePage reads the login form contract out of an HTML document.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(r, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse login page: %w", err)
	}

	page := &Page{}
	if token, ok := doc.Find(`meta[name="` + CSRFMetaName + `"]`).Attr("content"); ok {
		page.CSRFToken = token
	}

	form := doc.Find("#" + FormID)
	submit := form.Find(`button[type="submit"], input[type="submit"]`).First()
	page.SubmitLabel = strings.TrimSpace(submit.Text())
	if page.SubmitLabel == "" {
		page.SubmitLabel = strings.TrimSpace(submit.AttrOr("value", ""))
	}

	for _, id := range []string{FormID, UsernameID, PasswordID, ErrorMessageID, LoadingID} {
		if doc.Find("#"+id).Length() == 0 {
			page.Missing = append(page.Missing, id)
		}
	}
	return page, nil
}

// FetchPage GETs pageURL and parses it.
func FetchPage(ctx context.Context, client Doer, pageURL string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch login page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return ParsePage(resp.Body)
}

// MetaTokenSource reads the CSRF token from the login page's meta tag on
// every call. Any failure yields the empty token.
type MetaTokenSource struct {
	Client  Doer
	PageURL string
}

// Token fetches the page and returns the meta tag content.
func (s *MetaTokenSource) Token(ctx context.Context) string {
	page, err := FetchPage(ctx, s.Client, s.PageURL)
	if err != nil {
		logging.Debug("No CSRF token from login page", zap.String("url", s.PageURL), zap.Error(err))
		return ""
	}
	return page.CSRFToken
}
