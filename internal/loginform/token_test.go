package loginform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const loginPage = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="csrf-token" content="tok-abc">
  <title>Sign in</title>
</head>
<body>
  <form id="login-form">
    <input id="username" name="username">
    <input id="password" name="password" type="password">
    <button type="submit">Sign in</button>
    <div id="loading" hidden>Loading...</div>
    <div id="error-message" hidden></div>
  </form>
</body>
</html>`

func TestParsePage(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		wantToken   string
		wantLabel   string
		wantMissing []string
	}{
		{
			name:      "full contract",
			html:      loginPage,
			wantToken: "tok-abc",
			wantLabel: "Sign in",
		},
		{
			name:      "no meta tag",
			html:      strings.Replace(loginPage, `<meta name="csrf-token" content="tok-abc">`, "", 1),
			wantToken: "",
			wantLabel: "Sign in",
		},
		{
			name:        "input submit and missing banner",
			html:        `<form id="login-form"><input id="username"><input id="password"><input type="submit" value="Go"><p id="loading"></p></form>`,
			wantLabel:   "Go",
			wantMissing: []string{ErrorMessageID},
		},
		{
			name:        "no form",
			html:        `<html><body><p>maintenance</p></body></html>`,
			wantMissing: []string{FormID, UsernameID, PasswordID, ErrorMessageID, LoadingID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ParsePage(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("ParsePage: %v", err)
			}
			if page.CSRFToken != tt.wantToken {
				t.Errorf("CSRFToken = %q, want %q", page.CSRFToken, tt.wantToken)
			}
			if page.SubmitLabel != tt.wantLabel {
				t.Errorf("SubmitLabel = %q, want %q", page.SubmitLabel, tt.wantLabel)
			}
			if strings.Join(page.Missing, ",") != strings.Join(tt.wantMissing, ",") {
				t.Errorf("Missing = %v, want %v", page.Missing, tt.wantMissing)
			}
			if page.HasForm() != (len(tt.wantMissing) == 0) {
				t.Errorf("HasForm() = %v", page.HasForm())
			}
		})
	}
}

func TestMetaTokenSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(loginPage))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	src := &MetaTokenSource{Client: server.Client(), PageURL: server.URL + "/login"}
	if got := src.Token(context.Background()); got != "tok-abc" {
		t.Errorf("Token() = %q, want tok-abc", got)
	}

	missing := &MetaTokenSource{Client: server.Client(), PageURL: server.URL + "/elsewhere"}
	if got := missing.Token(context.Background()); got != "" {
		t.Errorf("Token() for a 404 page = %q, want empty", got)
	}
}

func TestStaticToken(t *testing.T) {
	if got := StaticToken("x").Token(context.Background()); got != "x" {
		t.Errorf("Token() = %q, want x", got)
	}
}
