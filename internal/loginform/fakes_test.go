package loginform

import (
	"net/http"
	"sync"
	"time"
)

type fakeField struct {
	value   string
	invalid bool
	marks   int
}

func (f *fakeField) Value() string { return f.value }

func (f *fakeField) SetInvalid(invalid bool) {
	f.invalid = invalid
	if invalid {
		f.marks++
	}
}

type fakeButton struct {
	label    string
	disabled bool
	labels   []string // every label set, in order
}

func (b *fakeButton) Label() string { return b.label }

func (b *fakeButton) SetLabel(label string) {
	b.label = label
	b.labels = append(b.labels, label)
}

func (b *fakeButton) SetDisabled(disabled bool) { b.disabled = disabled }

type fakeIndicator struct {
	visible bool
	shown   int
}

func (i *fakeIndicator) Show() {
	i.visible = true
	i.shown++
}

func (i *fakeIndicator) Hide() { i.visible = false }

type fakeBanner struct {
	mu      sync.Mutex
	text    string
	visible bool
	hides   int
}

func (b *fakeBanner) Show(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = message
	b.visible = true
}

func (b *fakeBanner) Hide() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = ""
	b.visible = false
	b.hides++
}

func (b *fakeBanner) snapshot() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.visible
}

type fakeNavigator struct {
	paths []string
}

func (n *fakeNavigator) Navigate(path string) { n.paths = append(n.paths, path) }

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// manualClock hands out timers that only fire when told to.
type manualClock struct {
	timers []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance fires every live timer due within d.
func (c *manualClock) Advance(d time.Duration) {
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.delay <= d {
			t.fired = true
			t.fn()
		}
	}
}

type form struct {
	username *fakeField
	password *fakeField
	submit   *fakeButton
	loading  *fakeIndicator
	banner   *fakeBanner
	nav      *fakeNavigator
	clock    *manualClock
}

func newForm(username, password string) *form {
	return &form{
		username: &fakeField{value: username},
		password: &fakeField{value: password},
		submit:   &fakeButton{label: "Sign in"},
		loading:  &fakeIndicator{},
		banner:   &fakeBanner{},
		nav:      &fakeNavigator{},
		clock:    &manualClock{},
	}
}

func (f *form) elements() Elements {
	return Elements{
		Username: f.username,
		Password: f.password,
		Submit:   f.submit,
		Loading:  f.loading,
		Error:    f.banner,
	}
}

func (f *form) config(client Doer, baseURL string, tokens TokenSource) Config {
	return Config{
		Elements:  f.elements(),
		Navigator: f.nav,
		Tokens:    tokens,
		Client:    client,
		Options: Options{
			BaseURL:   baseURL,
			AfterFunc: f.clock.AfterFunc,
		},
	}
}
