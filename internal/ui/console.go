package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/muurk/assetdesk/internal/loginform"
)

// ConsoleForm is a line-oriented login form. Values are supplied up front
// (flags, prompts or stdin) and every state change the controller makes is
// reported as a line on the writer.
type ConsoleForm struct {
	mu       sync.Mutex
	out      io.Writer
	username string
	password string
	label    string
	disabled bool
	loading  bool
	banner   string
	invalid  map[string]bool
}

// NewConsoleForm creates a form holding the given credentials.
func NewConsoleForm(out io.Writer, username, password string) *ConsoleForm {
	return &ConsoleForm{
		out:      out,
		username: username,
		password: password,
		label:    loginform.DefaultSubmitLabel,
		invalid:  make(map[string]bool),
	}
}

// Elements returns the handles a loginform.Controller drives.
func (f *ConsoleForm) Elements() loginform.Elements {
	return loginform.Elements{
		Username: consoleField{f, loginform.UsernameID},
		Password: consoleField{f, loginform.PasswordID},
		Submit:   consoleButton{f},
		Loading:  consoleIndicator{f},
		Error:    consoleBanner{f},
	}
}

// Banner returns the currently displayed error, or "" when hidden.
func (f *ConsoleForm) Banner() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banner
}

// Busy reports whether the loading indicator is visible.
func (f *ConsoleForm) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Invalid reports whether the field with the given id is marked invalid.
func (f *ConsoleForm) Invalid(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalid[id]
}

func (f *ConsoleForm) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(f.out, format, args...)
}

type consoleField struct {
	form *ConsoleForm
	id   string
}

func (c consoleField) Value() string {
	c.form.mu.Lock()
	defer c.form.mu.Unlock()
	if c.id == loginform.PasswordID {
		return c.form.password
	}
	return c.form.username
}

func (c consoleField) SetInvalid(invalid bool) {
	c.form.mu.Lock()
	changed := c.form.invalid[c.id] != invalid
	c.form.invalid[c.id] = invalid
	c.form.mu.Unlock()
	if changed && invalid {
		c.form.printf("%s\n", ErrorMessageStyle.Render(FailureMarker+" "+c.id+" is required"))
	}
}

type consoleButton struct{ form *ConsoleForm }

func (b consoleButton) Label() string {
	b.form.mu.Lock()
	defer b.form.mu.Unlock()
	return b.form.label
}

func (b consoleButton) SetLabel(label string) {
	b.form.mu.Lock()
	defer b.form.mu.Unlock()
	b.form.label = label
}

func (b consoleButton) SetDisabled(disabled bool) {
	b.form.mu.Lock()
	defer b.form.mu.Unlock()
	b.form.disabled = disabled
}

type consoleIndicator struct{ form *ConsoleForm }

// Show prints the button label as the busy line; the controller sets the
// working label before showing the indicator.
func (i consoleIndicator) Show() {
	i.form.mu.Lock()
	i.form.loading = true
	label := i.form.label
	i.form.mu.Unlock()
	i.form.printf("%s\n", BusyStyle.Render(BusyMarker+" "+label))
}

func (i consoleIndicator) Hide() {
	i.form.mu.Lock()
	defer i.form.mu.Unlock()
	i.form.loading = false
}

type consoleBanner struct{ form *ConsoleForm }

func (b consoleBanner) Show(message string) {
	b.form.mu.Lock()
	b.form.banner = message
	b.form.mu.Unlock()
	b.form.printf("%s\n", ErrorMessageStyle.Render(FailureMarker+" "+message))
}

func (b consoleBanner) Hide() {
	b.form.mu.Lock()
	defer b.form.mu.Unlock()
	b.form.banner = ""
}
