package loginform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/assetdesk/internal/logging"
	"github.com/muurk/assetdesk/internal/urls"
	"github.com/muurk/assetdesk/internal/version"
)

// Defaults for Options fields left empty.
const (
	DefaultSubmitLabel     = "Sign in"
	DefaultWorkingLabel    = "Signing in..."
	DefaultFallbackMessage = "Login failed, please try again"
	DefaultNetworkMessage  = "Network error, please try again later"
	DefaultErrorDisplay    = 5 * time.Second
	DefaultTimeout         = 30 * time.Second

	maxErrorBody = 4096
)

// State is the controller's UI state.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Timer is a pending auto-hide. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options tunes the controller. Zero values select the defaults.
//
// A rejected login shows the server's response body as the error message.
// Only the first 4096 bytes are read and surrounding whitespace is trimmed;
// an empty result falls back to FallbackMessage.
type Options struct {
	BaseURL         string // scheme://host[:port] of the asset server, may carry a path prefix
	LoginPath       string // default /login
	SuccessPath     string // default /assets
	WorkingLabel    string
	FallbackMessage string // shown when a rejection has no body
	NetworkMessage  string
	ErrorDisplay    time.Duration
	AfterFunc       AfterFunc
}

// Config wires a controller to its element handles and collaborators.
type Config struct {
	Elements  Elements
	Navigator Navigator
	Tokens    TokenSource // nil sends an empty X-CSRF-Token
	Client    Doer        // nil uses an http.Client with DefaultTimeout
	Options   Options
}

// Outcome is the result of one Submit call.
type Outcome struct {
	State  State  // state the form was left in
	Target string // navigation target, set on success
	Err    error  // *ValidationError, *RequestError or ErrSubmitInFlight
}

// OK reports whether the attempt navigated.
func (o Outcome) OK() bool { return o.Err == nil && o.Target != "" }

// Controller drives a login form: it validates the fields, posts the
// credentials and updates the element handles while the request runs.
type Controller struct {
	elems     Elements
	nav       Navigator
	tokens    TokenSource
	client    Doer
	loginURL  string
	target    string
	idleLabel string
	working   string
	fallback  string
	network   string
	display   time.Duration
	afterFunc AfterFunc

	mu         sync.Mutex
	state      State
	generation uint64
	hide       Timer
}

// New creates a controller. Every element handle and the navigator are
// required.
func New(cfg Config) (*Controller, error) {
	if missing := cfg.Elements.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("login form incomplete: missing %s", strings.Join(missing, ", "))
	}
	if cfg.Navigator == nil {
		return nil, errors.New("login form incomplete: missing navigator")
	}

	opts := cfg.Options
	loginPath := firstNonEmpty(opts.LoginPath, urls.Login)
	loginURL, err := resolve(opts.BaseURL, loginPath)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		elems:     cfg.Elements,
		nav:       cfg.Navigator,
		tokens:    cfg.Tokens,
		client:    cfg.Client,
		loginURL:  loginURL,
		target:    firstNonEmpty(opts.SuccessPath, urls.Assets),
		idleLabel: firstNonEmpty(cfg.Elements.Submit.Label(), DefaultSubmitLabel),
		working:   firstNonEmpty(opts.WorkingLabel, DefaultWorkingLabel),
		fallback:  firstNonEmpty(opts.FallbackMessage, DefaultFallbackMessage),
		network:   firstNonEmpty(opts.NetworkMessage, DefaultNetworkMessage),
		display:   opts.ErrorDisplay,
		afterFunc: opts.AfterFunc,
	}
	if c.tokens == nil {
		c.tokens = StaticToken("")
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultTimeout}
	}
	if c.display <= 0 {
		c.display = DefaultErrorDisplay
	}
	if c.afterFunc == nil {
		c.afterFunc = realAfterFunc
	}
	return c, nil
}

func resolve(base, path string) (string, error) {
	if base == "" {
		return path, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: scheme and host required", base)
	}
	if _, err := url.Parse(path); err != nil {
		return "", fmt.Errorf("invalid login path %q: %w", path, err)
	}
	// A path prefix on base (a reverse proxy mount) is kept.
	return urls.Join(base, path), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// LoginURL returns the absolute login endpoint.
func (c *Controller) LoginURL() string { return c.loginURL }

// State returns the current UI state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit runs one login attempt and blocks until it completes. Callers on
// a UI loop run it on their own goroutine.
func (c *Controller) Submit(ctx context.Context) (out Outcome) {
	username, password, gen, err := c.begin()
	if err != nil {
		return Outcome{State: c.State(), Err: err}
	}

	c.elems.Submit.SetDisabled(true)
	c.elems.Submit.SetLabel(c.working)
	c.elems.Loading.Show()
	c.elems.Error.Hide()

	defer func() {
		c.elems.Submit.SetDisabled(false)
		c.elems.Submit.SetLabel(c.idleLabel)
		c.elems.Loading.Hide()
		out.State = c.finish(gen, out.Err != nil)
	}()

	if err := c.post(ctx, username, password); err != nil {
		c.showError(gen, err.Message)
		return Outcome{Err: err}
	}

	c.nav.Navigate(c.target)
	return Outcome{Target: c.target}
}

// begin validates the fields and claims the in-flight slot.
func (c *Controller) begin() (username, password string, gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return "", "", 0, ErrSubmitInFlight
	}

	username = c.elems.Username.Value()
	password = c.elems.Password.Value()

	var empty []string
	for _, f := range []struct {
		name  string
		value string
		field Field
	}{
		{UsernameID, username, c.elems.Username},
		{PasswordID, password, c.elems.Password},
	} {
		blank := strings.TrimSpace(f.value) == ""
		f.field.SetInvalid(blank)
		if blank {
			empty = append(empty, f.name)
		}
	}
	if len(empty) > 0 {
		return "", "", 0, &ValidationError{Fields: empty}
	}

	if c.hide != nil {
		c.hide.Stop()
		c.hide = nil
	}
	c.generation++
	c.state = StateSubmitting
	return username, password, c.generation, nil
}

func (c *Controller) finish(gen uint64, failed bool) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return c.state
	}
	if failed && c.hide != nil {
		c.state = StateError
	} else {
		c.state = StateIdle
	}
	return c.state
}

func (c *Controller) post(ctx context.Context, username, password string) *RequestError {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		logging.Warn("Login request could not be built", zap.String("url", c.loginURL), zap.Error(err))
		return NewNetworkError(c.network, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(CSRFHeader, c.tokens.Token(ctx))
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logging.Warn("Login request failed",
			zap.String("url", c.loginURL),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return NewNetworkError(c.network, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		logging.Debug("Login accepted", zap.Int("status", resp.StatusCode))
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		logging.Debug("Could not read login error body", zap.Error(err))
	}
	body := strings.TrimSpace(string(data))
	message := body
	if message == "" {
		message = c.fallback
	}
	logging.Debug("Login rejected", zap.Int("status", resp.StatusCode), zap.String("body", body))
	return NewHTTPError(resp.StatusCode, body, message)
}

// showError displays message and schedules its removal. A later attempt
// bumps the generation, which cancels the hide belonging to this one.
func (c *Controller) showError(gen uint64, message string) {
	c.elems.Error.Show(message)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return
	}
	c.hide = c.afterFunc(c.display, func() {
		c.mu.Lock()
		current := c.generation == gen
		if current {
			c.hide = nil
			if c.state == StateError {
				c.state = StateIdle
			}
		}
		c.mu.Unlock()
		if current {
			c.elems.Error.Hide()
		}
	})
}

// Close cancels a pending banner hide.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hide != nil {
		c.hide.Stop()
		c.hide = nil
	}
}
