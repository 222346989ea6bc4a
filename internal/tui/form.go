package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/assetdesk/internal/loginform"
)

// redrawMsg asks the program to re-render after an element changed off the
// event loop (controller goroutine or banner timer).
type redrawMsg struct{}

// formState is the page the controller drives. The Bubble Tea model renders
// it; the controller mutates it from its own goroutine.
type formState struct {
	mu       sync.Mutex
	username string
	password string
	label    string
	disabled bool
	loading  bool
	banner   string
	invalid  map[string]bool
	target   string
	send     func(tea.Msg)
}

func newFormState(label string) *formState {
	if label == "" {
		label = loginform.DefaultSubmitLabel
	}
	return &formState{label: label, invalid: make(map[string]bool)}
}

// view is a consistent copy for rendering.
type formView struct {
	label    string
	disabled bool
	loading  bool
	banner   string
	invalid  map[string]bool
}

func (s *formState) view() formView {
	s.mu.Lock()
	defer s.mu.Unlock()
	invalid := make(map[string]bool, len(s.invalid))
	for k, v := range s.invalid {
		invalid[k] = v
	}
	return formView{
		label:    s.label,
		disabled: s.disabled,
		loading:  s.loading,
		banner:   s.banner,
		invalid:  invalid,
	}
}

// snapshot captures the input values the controller will read.
func (s *formState) snapshot(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.password = password
}

func (s *formState) setSend(send func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = send
}

// update applies f under the lock and requests a redraw.
func (s *formState) update(f func()) {
	s.mu.Lock()
	f()
	send := s.send
	s.mu.Unlock()
	if send != nil {
		send(redrawMsg{})
	}
}

func (s *formState) elements() loginform.Elements {
	return loginform.Elements{
		Username: field{s, loginform.UsernameID},
		Password: field{s, loginform.PasswordID},
		Submit:   button{s},
		Loading:  indicator{s},
		Error:    banner{s},
	}
}

func (s *formState) Navigate(path string) {
	s.update(func() { s.target = path })
}

type field struct {
	s  *formState
	id string
}

func (f field) Value() string {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.id == loginform.PasswordID {
		return f.s.password
	}
	return f.s.username
}

func (f field) SetInvalid(invalid bool) {
	f.s.update(func() { f.s.invalid[f.id] = invalid })
}

type button struct{ s *formState }

func (b button) Label() string {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return b.s.label
}

func (b button) SetLabel(label string) {
	b.s.update(func() { b.s.label = label })
}

func (b button) SetDisabled(disabled bool) {
	b.s.update(func() { b.s.disabled = disabled })
}

type indicator struct{ s *formState }

func (i indicator) Show() { i.s.update(func() { i.s.loading = true }) }
func (i indicator) Hide() { i.s.update(func() { i.s.loading = false }) }

type banner struct{ s *formState }

func (b banner) Show(message string) { b.s.update(func() { b.s.banner = message }) }
func (b banner) Hide()               { b.s.update(func() { b.s.banner = "" }) }
