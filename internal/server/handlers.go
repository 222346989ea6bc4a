package server

import (
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
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

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"dec": func(i int) int { return i - 1 },
}).ParseFS(templateFS, "templates/*.html"))

// Login responses. The client shows the body text to the user.
const (
	msgLoginOK            = "OK"
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidCSRF        = "Invalid CSRF token"
	msgMissingCredentials = "Username and password are required"
)

type loginPage struct {
	CSRFToken      string
	CSRFField      string
	Action         string
	SuccessPath    string
	Script         string
	SubmitLabel    string
	Version        string
	FormID         string
	UsernameID     string
	PasswordID     string
	LoadingID      string
	ErrorMessageID string

	Username string
	Error    string
}

func (s *Server) renderLoginPage(w http.ResponseWriter, status int, username, message string) {
	data := loginPage{
		CSRFToken:      s.config.CSRFToken,
		CSRFField:      loginform.CSRFField,
		Action:         urls.Login,
		SuccessPath:    urls.Assets,
		Script:         urls.LoginScript,
		SubmitLabel:    loginform.DefaultSubmitLabel,
		Version:        version.Version,
		FormID:         loginform.FormID,
		UsernameID:     loginform.UsernameID,
		PasswordID:     loginform.PasswordID,
		LoadingID:      loginform.LoadingID,
		ErrorMessageID: loginform.ErrorMessageID,
		Username:       username,
		Error:          message,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, "login.html", data); err != nil {
		logging.Error("Failed to render login page", zap.Error(err))
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderLoginPage(w, http.StatusOK, "", "")
}

// nativeFormPost reports whether r is a browser submitting the login form
// itself, without the script. Those posts carry no CSRF header and ask for
// an HTML page back.
func nativeFormPost(r *http.Request) bool {
	if _, ok := r.Header[http.CanonicalHeaderKey(loginform.CSRFHeader)]; ok {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// handleLogin checks credentials. Script and CLI clients get a plain text
// body; a native form post is redirected to the asset list on success and
// shown the login page again on failure.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	native := nativeFormPost(r)
	fail := func(status int, username, message string) {
		if native {
			s.renderLoginPage(w, status, username, message)
			return
		}
		http.Error(w, message, status)
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	if token := s.config.CSRFToken; token != "" {
		got := r.Header.Get(loginform.CSRFHeader)
		if native {
			got = r.PostForm.Get(loginform.CSRFField)
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logging.Warn("Login rejected: CSRF token mismatch",
				zap.String("remote_addr", r.RemoteAddr),
				zap.Bool("native_form", native),
			)
			fail(http.StatusForbidden, username, msgInvalidCSRF)
			return
		}
	}

	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		fail(http.StatusBadRequest, username, msgMissingCredentials)
		return
	}

	ok := s.auth.Check(username, password)
	logging.LogLoginAttempt(r.RemoteAddr, username, ok)
	if !ok {
		fail(http.StatusUnauthorized, username, msgInvalidCredentials)
		return
	}

	if native {
		http.Redirect(w, r, urls.Assets, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(msgLoginOK))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, urls.Login, http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return r.URL.Path == urls.AssetsList || strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	page, pageSize, query := assets.ParsePaging(r.URL.Query())

	result, err := s.assets.Query(r.Context(), query, page, pageSize)
	if err != nil {
		logging.Error("Failed to list assets", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		http.Error(w, "Failed to load assets", http.StatusInternalServerError)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, result)
		return
	}

	data := struct {
		Path  string
		Query string
		Page  assets.Page
	}{Path: r.URL.Path, Query: query, Page: result}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "assets.html", data); err != nil {
		logging.Error("Failed to render asset list", zap.Error(err))
	}
}

type writeResult struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	ID      int    `json:"id,omitempty"`
}

// handleSaveAsset creates an asset, or edits one when action=edit.
func (s *Server) handleSaveAsset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	a := assets.Normalize(assets.FromForm(r.PostForm), s.now())
	if err := assets.Validate(a); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	action := r.PostForm.Get("action")
	switch action {
	case "edit":
		id, err := strconv.Atoi(r.PostForm.Get("id"))
		if err != nil || id < 1 {
			http.Error(w, "Invalid asset ID", http.StatusBadRequest)
			return
		}
		a.ID = id
		if err := s.assets.Update(r.Context(), a); err != nil {
			s.storeError(w, r, "update", err)
			return
		}
	case "", "create":
		action = "create"
		created, err := s.assets.Create(r.Context(), a)
		if err != nil {
			s.storeError(w, r, "create", err)
			return
		}
		a = created
	default:
		http.Error(w, "Unknown action "+strconv.Quote(action), http.StatusBadRequest)
		return
	}

	logging.Info("Asset saved", zap.String("action", action), zap.Int("id", a.ID))
	writeJSON(w, http.StatusOK, writeResult{Message: "success", Action: action, ID: a.ID})
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id < 1 {
		http.Error(w, "Invalid asset ID", http.StatusBadRequest)
		return
	}
	a, err := s.assets.Get(r.Context(), id)
	if err != nil {
		s.storeError(w, r, "load", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id < 1 {
		http.Error(w, "Invalid asset ID", http.StatusBadRequest)
		return
	}
	if err := s.assets.Delete(r.Context(), id); err != nil {
		s.storeError(w, r, "delete", err)
		return
	}

	logging.Info("Asset deleted", zap.Int("id", id))
	writeJSON(w, http.StatusOK, writeResult{Message: "success", Action: "delete", ID: id})
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, assets.ErrNotFound) {
		http.Error(w, "Asset not found", http.StatusNotFound)
		return
	}
	logging.Error("Asset store failure",
		zap.String("op", op),
		zap.String("request_id", RequestID(r.Context())),
		zap.Error(err),
	)
	http.Error(w, "Failed to "+op+" asset", http.StatusInternalServerError)
}

func (s *Server) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}
