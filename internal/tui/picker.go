package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/assetdesk/internal/discovery"
)

// ScanFunc finds servers on the network.
type ScanFunc func(ctx context.Context) ([]*discovery.Instance, error)

type scanStartMsg struct{}
type scanCompleteMsg struct {
	instances []*discovery.Instance
	err       error
}

// Choice is the server the user picked.
type Choice struct {
	Name      string
	BaseURL   string
	LoginPath string
}

// pickerKeyMap defines key bindings for the server list
type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// manualKeyMap defines key bindings for manual URL entry
type manualKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

func (m manualKeyMap) ShortHelp() []key.Binding  { return []key.Binding{m.Confirm, m.Cancel} }
func (m manualKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{m.ShortHelp()} }

// serverItem wraps an Instance for use with bubbles/list
type serverItem struct {
	inst *discovery.Instance
}

func (s serverItem) FilterValue() string { return s.inst.Name + " " + s.inst.IP }
func (s serverItem) Title() string       { return s.inst.Name }

func (s serverItem) Description() string {
	v := s.inst.GetMetadata(discovery.TXTVersion)
	if v == "" {
		v = "unknown"
	}
	return fmt.Sprintf("%s • version %s", s.inst.BaseURL(), v)
}

// PickerModel lists servers found over mDNS and accepts a typed URL.
type PickerModel struct {
	Scanning   bool
	List       list.Model
	Err        error
	ManualMode bool
	URLInput   textinput.Model
	InputErr   string

	Spinner    spinner.Model
	Help       help.Model
	Keys       pickerKeyMap
	ManualKeys manualKeyMap

	Width  int
	Height int

	Chosen *Choice
	Quit   bool

	ctx  context.Context
	scan ScanFunc
}

// NewPickerModel creates a picker that scans with scan.
func NewPickerModel(ctx context.Context, scan ScanFunc) PickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "https://assets.example.com"
	input.CharLimit = 256
	input.Width = 40

	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "assetdesk servers"
	l.SetShowStatusBar(false)
	l.Styles.Title = TitleStyle

	return PickerModel{
		List:     l,
		URLInput: input,
		Spinner:  s,
		Help:     help.New(),
		Keys: pickerKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "enter URL")),
			Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		},
		ManualKeys: manualKeyMap{
			Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
			Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		},
		ctx:  ctx,
		scan: scan,
	}
}

// Init starts the first scan.
func (m PickerModel) Init() tea.Cmd {
	return m.startScan()
}

func (m PickerModel) startScan() tea.Cmd {
	ctx, scan := m.ctx, m.scan
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		func() tea.Msg {
			instances, err := scan(ctx)
			return scanCompleteMsg{instances: instances, err: err}
		},
		m.Spinner.Tick,
	)
}

// Update implements tea.Model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManual(msg)
		}
		if m.Scanning {
			if key.Matches(msg, m.Keys.Quit) {
				m.Quit = true
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.Keys.Quit) && m.List.FilterState() != list.Filtering:
			m.Quit = true
			return m, nil
		case key.Matches(msg, m.Keys.Enter):
			if item, ok := m.List.SelectedItem().(serverItem); ok {
				m.Chosen = &Choice{
					Name:      item.inst.Name,
					BaseURL:   item.inst.BaseURL(),
					LoginPath: item.inst.LoginPath(),
				}
			}
			return m, nil
		case key.Matches(msg, m.Keys.Rescan):
			m.List.SetItems(nil)
			m.Err = nil
			return m, m.startScan()
		case key.Matches(msg, m.Keys.Manual):
			m.ManualMode = true
			m.InputErr = ""
			m.URLInput.SetValue("")
			return m, m.URLInput.Focus()
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case scanStartMsg:
		m.Scanning = true
		return m, nil

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.instances))
		for i, inst := range msg.instances {
			items[i] = serverItem{inst: inst}
		}
		m.List.SetItems(items)
		return m, nil

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if !m.Scanning {
		m.List, cmd = m.List.Update(msg)
	}
	return m, cmd
}

func (m PickerModel) updateManual(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ManualKeys.Cancel):
		m.ManualMode = false
		m.URLInput.Blur()
		return m, nil
	case key.Matches(msg, m.ManualKeys.Confirm):
		raw := strings.TrimRight(strings.TrimSpace(m.URLInput.Value()), "/")
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			m.InputErr = "Enter a full URL such as https://assets.example.com"
			return m, nil
		}
		m.Chosen = &Choice{Name: u.Host, BaseURL: raw}
		m.ManualMode = false
		m.URLInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.URLInput, cmd = m.URLInput.Update(msg)
	return m, cmd
}

// View renders the picker
func (m PickerModel) View() string {
	var content, helpText string
	switch {
	case m.ManualMode:
		content = "\n  " + SubtitleStyle.Render("Enter the server URL") + "\n\n  URL: " + m.URLInput.View() + "\n"
		if m.InputErr != "" {
			content += "\n  " + BannerStyle.Render(m.InputErr) + "\n"
		}
		helpText = m.Help.View(m.ManualKeys)
	case m.Scanning:
		content = lipgloss.Place(max(m.Width-4, MinTerminalWidth), 0, lipgloss.Center, lipgloss.Top,
			lipgloss.JoinVertical(lipgloss.Center,
				"",
				TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR SERVERS"),
				SubtitleStyle.Render("Browsing "+discovery.ServiceType+" on the local network..."),
				"",
			))
		helpText = m.Help.View(m.Keys)
	case m.Err != nil:
		content = "\n  " + BannerStyle.Render(fmt.Sprintf("Scan failed: %v", m.Err)) + "\n\n" + troubleshooting
		helpText = m.Help.View(m.Keys)
	case len(m.List.Items()) == 0:
		content = "\n  " + lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠ No servers found on your network") +
			"\n\n" + troubleshooting
		helpText = m.Help.View(m.Keys)
	default:
		content = m.List.View()
		helpText = m.Help.View(m.Keys)
	}
	return RenderApplicationContainer(content, "", helpText, m.Width, m.Height)
}

const troubleshooting = `  Troubleshooting:
    • Start the server with --advertise
    • Make sure you are on the same network segment
    • Allow mDNS (UDP port 5353) through the firewall
    • Press m to type the server URL instead
`
