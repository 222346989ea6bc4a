package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/assetdesk/internal/loginform"
)

type submitDoneMsg struct {
	outcome loginform.Outcome
}

const (
	focusUsername = iota
	focusPassword
	focusButton
	focusCount
)

// loginKeyMap defines key bindings for the login screen
type loginKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k loginKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Submit, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k loginKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Submit, k.Quit}}
}

func newLoginKeyMap() loginKeyMap {
	return loginKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "sign in"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// LoginConfig configures the login screen.
type LoginConfig struct {
	Server      string // shown in the header
	Username    string // prefilled username
	SubmitLabel string // idle button label, usually read from the login page
	Tokens      loginform.TokenSource
	Client      loginform.Doer
	Options     loginform.Options
}

// LoginModel is the interactive login form.
type LoginModel struct {
	ctx   context.Context
	ctrl  *loginform.Controller
	state *formState

	Inputs  []textinput.Model
	Focus   int
	Spinner spinner.Model
	Help    help.Model

	// spinning is set while a tick chain is running.
	spinning bool

	Keys    loginKeyMap
	Server  string

	Width  int
	Height int

	// Results, read after the program exits.
	Target    string
	Cancelled bool
	LastErr   error
}

// NewLoginModel builds the form and its controller.
func NewLoginModel(ctx context.Context, cfg LoginConfig) (LoginModel, error) {
	state := newFormState(cfg.SubmitLabel)
	ctrl, err := loginform.New(loginform.Config{
		Elements:  state.elements(),
		Navigator: state,
		Tokens:    cfg.Tokens,
		Client:    cfg.Client,
		Options:   cfg.Options,
	})
	if err != nil {
		return LoginModel{}, err
	}

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 128
	username.Width = 32
	username.SetValue(cfg.Username)

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 256
	password.Width = 32
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := LoginModel{
		ctx:     ctx,
		ctrl:    ctrl,
		state:   state,
		Inputs:  []textinput.Model{username, password},
		Spinner: s,
		Help:    help.New(),
		Keys:    newLoginKeyMap(),
		Server:  cfg.Server,
	}
	if cfg.Username != "" {
		m.Focus = focusPassword
	}
	m.applyFocus()
	return m, nil
}

// Init implements tea.Model
func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

// Close stops the controller's pending banner timer.
func (m LoginModel) Close() {
	if m.ctrl != nil {
		m.ctrl.Close()
	}
}

// Update implements tea.Model
func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case redrawMsg:
		// The controller shows the indicator from its own goroutine, so
		// the tick chain starts on the redraw that first sees it.
		if m.state.view().loading && !m.spinning {
			m.spinning = true
			return m, m.Spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.state.view().loading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case submitDoneMsg:
		m.LastErr = msg.outcome.Err
		if msg.outcome.OK() {
			m.Target = msg.outcome.Target
			return m, tea.Quit
		}
		var verr *loginform.ValidationError
		if errors.As(msg.outcome.Err, &verr) && len(verr.Fields) > 0 {
			if verr.Fields[0] == loginform.PasswordID {
				m.Focus = focusPassword
			} else {
				m.Focus = focusUsername
			}
			return m, m.applyFocus()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			m.Cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Next):
			m.Focus = (m.Focus + 1) % focusCount
			return m, m.applyFocus()
		case key.Matches(msg, m.Keys.Prev):
			m.Focus = (m.Focus + focusCount - 1) % focusCount
			return m, m.applyFocus()
		case key.Matches(msg, m.Keys.Submit):
			return m, m.submit()
		}
	}

	if m.Focus < len(m.Inputs) {
		var cmd tea.Cmd
		m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

// submit hands the current values to the controller. A disabled button
// swallows the request.
func (m LoginModel) submit() tea.Cmd {
	if m.state.view().disabled {
		return nil
	}
	m.state.snapshot(m.Inputs[focusUsername].Value(), m.Inputs[focusPassword].Value())

	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg { return submitDoneMsg{outcome: ctrl.Submit(ctx)} }
}

func (m *LoginModel) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.Inputs {
		if i == m.Focus {
			cmd = m.Inputs[i].Focus()
		} else {
			m.Inputs[i].Blur()
		}
	}
	return cmd
}

// View implements tea.Model
func (m LoginModel) View() string {
	v := m.state.view()

	var b strings.Builder
	b.WriteString(TitleStyle.Render("  Sign in to the asset register"))
	b.WriteString("\n")

	labels := []string{"Username", "Password"}
	ids := []string{loginform.UsernameID, loginform.PasswordID}
	for i, input := range m.Inputs {
		style := LabelStyle
		if v.invalid[ids[i]] {
			style = InvalidLabelStyle
		}
		b.WriteString("  " + style.Render(labels[i]) + " " + input.View() + "\n\n")
	}

	btn := ButtonStyle
	switch {
	case v.disabled:
		btn = DisabledButtonStyle
	case m.Focus == focusButton:
		btn = FocusedButtonStyle
	}
	row := btn.Render(v.label)
	if v.loading {
		row = lipgloss.JoinHorizontal(lipgloss.Center, row, "  ", m.Spinner.View())
	}
	b.WriteString("  " + lipgloss.NewStyle().MarginLeft(11).Render(row) + "\n")

	if v.banner != "" {
		b.WriteString("\n  " + BannerStyle.Render(v.banner) + "\n")
	}

	return RenderApplicationContainer(b.String(), m.Server, m.Help.View(m.Keys), m.Width, m.Height)
}

// LoginResult is what RunLogin reports once the screen closes.
type LoginResult struct {
	Target    string // navigation target, empty unless the login succeeded
	Username  string
	Cancelled bool
	Err       error // last attempt's error, if any
}

// RunLogin shows the login screen until the user signs in or quits.
func RunLogin(ctx context.Context, cfg LoginConfig, opts ...tea.ProgramOption) (LoginResult, error) {
	m, err := NewLoginModel(ctx, cfg)
	if err != nil {
		return LoginResult{}, err
	}
	defer m.Close()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(m, opts...)
	m.state.setSend(p.Send)
	defer m.state.setSend(nil)

	final, err := p.Run()
	if err != nil {
		return LoginResult{}, err
	}
	fm := final.(LoginModel)
	return LoginResult{
		Target:    fm.Target,
		Username:  fm.Inputs[focusUsername].Value(),
		Cancelled: fm.Cancelled,
		Err:       fm.LastErr,
	}, nil
}
