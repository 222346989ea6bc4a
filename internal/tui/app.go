package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/assetdesk/internal/loginform"
	"github.com/muurk/assetdesk/internal/urls"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenPicker Screen = "picker"
	ScreenLogin  Screen = "login"
)

// AppModel chains the server picker and the login screen.
type AppModel struct {
	CurrentScreen Screen
	Picker        PickerModel
	Login         LoginModel
	Chosen        *Choice
	Err           error

	ctx       context.Context
	base      LoginConfig
	tokensFor func(pageURL string) loginform.TokenSource
	sender    *sender
	width     int
	height    int
}

// sender lets the login screen created mid-run reach the program.
type sender struct{ send func(tea.Msg) }

// NewAppModel starts on the picker; cfg supplies everything for the login
// screen except the server, which comes from the choice. tokensFor, when
// set, builds the token source for the chosen server's login page.
func NewAppModel(ctx context.Context, scan ScanFunc, cfg LoginConfig, tokensFor func(pageURL string) loginform.TokenSource) AppModel {
	return AppModel{
		CurrentScreen: ScreenPicker,
		Picker:        NewPickerModel(ctx, scan),
		ctx:           ctx,
		base:          cfg,
		tokensFor:     tokensFor,
		sender:        &sender{},
	}
}

// Init implements tea.Model
func (m AppModel) Init() tea.Cmd {
	return m.Picker.Init()
}

// Update routes messages to the current screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = size.Width, size.Height
	}

	switch m.CurrentScreen {
	case ScreenPicker:
		updated, cmd := m.Picker.Update(msg)
		m.Picker = updated.(PickerModel)
		if m.Picker.Quit {
			return m, tea.Quit
		}
		if m.Picker.Chosen != nil {
			return m.toLogin(*m.Picker.Chosen)
		}
		return m, cmd

	case ScreenLogin:
		updated, cmd := m.Login.Update(msg)
		m.Login = updated.(LoginModel)
		return m, cmd
	}
	return m, nil
}

func (m AppModel) toLogin(choice Choice) (tea.Model, tea.Cmd) {
	cfg := m.base
	cfg.Server = choice.BaseURL
	cfg.Options.BaseURL = choice.BaseURL
	if choice.LoginPath != "" {
		cfg.Options.LoginPath = choice.LoginPath
	}
	if m.tokensFor != nil {
		cfg.Tokens = m.tokensFor(urls.Join(choice.BaseURL, firstNonEmpty(choice.LoginPath, urls.Login)))
	}

	login, err := NewLoginModel(m.ctx, cfg)
	if err != nil {
		m.Err = err
		return m, tea.Quit
	}
	if m.sender != nil && m.sender.send != nil {
		login.state.setSend(m.sender.send)
	}
	login.Width, login.Height = m.width, m.height

	m.Chosen = &choice
	m.Login = login
	m.CurrentScreen = ScreenLogin
	return m, login.Init()
}

// View renders the current screen
func (m AppModel) View() string {
	if m.CurrentScreen == ScreenLogin {
		return m.Login.View()
	}
	return m.Picker.View()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// AppResult is what RunApp reports once the program exits.
type AppResult struct {
	Choice *Choice
	LoginResult
}

// RunApp shows the picker, then the login screen for the chosen server.
func RunApp(ctx context.Context, m AppModel, opts ...tea.ProgramOption) (AppResult, error) {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(m, opts...)
	m.sender.send = p.Send

	final, err := p.Run()
	if err != nil {
		return AppResult{}, err
	}
	fm := final.(AppModel)
	if fm.Err != nil {
		return AppResult{}, fm.Err
	}
	if fm.CurrentScreen != ScreenLogin {
		return AppResult{LoginResult: LoginResult{Cancelled: true}}, nil
	}
	fm.Login.Close()
	fm.Login.state.setSend(nil)
	return AppResult{
		Choice: fm.Chosen,
		LoginResult: LoginResult{
			Target:    fm.Login.Target,
			Username:  fm.Login.Inputs[focusUsername].Value(),
			Cancelled: fm.Login.Cancelled,
			Err:       fm.Login.LastErr,
		},
	}, nil
}
