package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/assetdesk/internal/assetclient"
	"github.com/muurk/assetdesk/internal/config"
	"github.com/muurk/assetdesk/internal/discovery"
	"github.com/muurk/assetdesk/internal/logging"
	"github.com/muurk/assetdesk/internal/loginform"
	"github.com/muurk/assetdesk/internal/tui"
	"github.com/muurk/assetdesk/internal/ui"
	"github.com/muurk/assetdesk/internal/urls"
)

// Login command flags
var (
	serverURL     string
	profileName   string
	username      string
	passwordStdin bool
	noTUI         bool
	useDiscovery  bool
	listQuery     string
	listPage      int
	listPageSize  int
)

// Discover command flags
var (
	discoverTimeout int
	discoverSave    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server URL (e.g. http://assets.local:8080), overrides the profile")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Saved profile to use (default profile when empty)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(discoverCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and list assets",
	Long: `Sign in to an assetdesk server through its login form.

On a terminal the interactive form is shown. The password is never saved;
for scripts pass it on stdin with --password-stdin.

After a successful login the first page of the asset register is printed
and the profile is saved with the username and login time.`,
	Example: `  # Sign in to the default profile
  assetdesk login

  # Sign in to a server that is not saved yet
  assetdesk login --server http://192.168.1.20:8080 --username alice

  # Pick a server found on the local network
  assetdesk login --discover

  # Script-friendly login
  echo "$PASSWORD" | assetdesk login --profile office --username alice --password-stdin`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&username, "username", "u", "", "Username (default from the profile)")
	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	loginCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Use line output even on a terminal")
	loginCmd.Flags().BoolVar(&useDiscovery, "discover", false, "Choose the server from an mDNS scan")
	loginCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Search the asset list after login")
	loginCmd.Flags().IntVar(&listPage, "page", 1, "Asset list page")
	loginCmd.Flags().IntVar(&listPageSize, "page-size", 0, "Asset list page size (server default when 0)")
}

// target is the server a login runs against.
type target struct {
	profile     string
	baseURL     string
	loginPath   string
	successPath string
	username    string
}

func (t target) loginURL() string {
	path := t.loginPath
	if path == "" {
		path = urls.Login
	}
	return urls.Join(t.baseURL, path)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reg, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	interactive := !noTUI && !passwordStdin && (reg.Preferences == nil || reg.Preferences.Interactive) &&
		ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout)

	t, err := resolveTarget(reg)
	if err != nil {
		return err
	}
	if t == nil || useDiscovery {
		if !interactive {
			if useDiscovery {
				return errors.New("--discover needs a terminal; run 'assetdesk discover' and pass --server")
			}
			return errors.New("no server configured: pass --server, or run 'assetdesk discover --save'")
		}
		return runDiscoverLogin(ctx, reg)
	}
	if username != "" {
		t.username = username
	}

	client, err := assetclient.NewClient(t.baseURL, reg.RequestTimeout())
	if err != nil {
		return err
	}

	page, err := loginform.FetchPage(ctx, client.HTTPClient, t.loginURL())
	if err != nil {
		return reportLoginError(t.baseURL, loginform.NewNetworkError("cannot load the login page", err))
	}
	if !page.HasForm() {
		return fmt.Errorf("%s is not an assetdesk login page (missing %s)", t.loginURL(), strings.Join(page.Missing, ", "))
	}
	logging.Debug("Login page loaded",
		zap.String("url", t.loginURL()),
		zap.Bool("csrf", page.CSRFToken != ""),
		zap.String("submit_label", page.SubmitLabel),
	)

	opts := loginform.Options{
		BaseURL:      t.baseURL,
		LoginPath:    t.loginPath,
		SuccessPath:  t.successPath,
		ErrorDisplay: reg.ErrorDisplay(),
	}
	tokens := &loginform.MetaTokenSource{Client: client.HTTPClient, PageURL: t.loginURL()}

	var dest, user string
	if interactive {
		res, err := tui.RunLogin(ctx, tui.LoginConfig{
			Server:      t.baseURL,
			Username:    t.username,
			SubmitLabel: page.SubmitLabel,
			Tokens:      tokens,
			Client:      client.HTTPClient,
			Options:     opts,
		})
		if err != nil {
			return fmt.Errorf("login screen error: %w", err)
		}
		if res.Target == "" {
			if res.Err != nil {
				return reportLoginError(t.baseURL, res.Err)
			}
			fmt.Println("Login cancelled.")
			return nil
		}
		dest, user = res.Target, res.Username
	} else {
		dest, user, err = consoleLogin(ctx, client, t, page.SubmitLabel, tokens, opts)
		if err != nil {
			return err
		}
	}

	if t.profile != "" {
		reg.SetServer(t.profile, t.baseURL, "")
		reg.TouchLogin(t.profile, user, time.Now())
		if err := reg.Save(); err != nil {
			logging.Warn("Failed to save profile", zap.String("profile", t.profile), zap.Error(err))
		}
	}

	return listAfterLogin(ctx, client, dest, t.baseURL, user)
}

// resolveTarget picks the server from --server or the saved profiles. It
// returns nil when nothing is configured.
func resolveTarget(reg *config.Registry) (*target, error) {
	if serverURL != "" {
		u, err := url.Parse(serverURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid --server %q: scheme and host required", serverURL)
		}
		t := &target{profile: profileName, baseURL: strings.TrimRight(serverURL, "/")}
		if t.profile == "" {
			t.profile = u.Host
		}
		if p := reg.GetServer(t.profile); p != nil {
			t.username, t.loginPath, t.successPath = p.Username, p.LoginPath, p.SuccessPath
		}
		return t, nil
	}

	name, p := reg.ResolveServer(profileName)
	if p == nil {
		if profileName != "" {
			return nil, fmt.Errorf("profile %q not found, see 'assetdesk config show'", profileName)
		}
		return nil, nil
	}
	return &target{
		profile:     name,
		baseURL:     p.BaseURL,
		loginPath:   p.LoginPath,
		successPath: p.SuccessPath,
		username:    p.Username,
	}, nil
}

// consoleLogin drives the login form line by line.
func consoleLogin(ctx context.Context, client *assetclient.Client, t *target, label string, tokens loginform.TokenSource, opts loginform.Options) (dest, user string, err error) {
	user = t.username
	var password string
	if passwordStdin {
		password, err = readLine(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
	} else {
		if user == "" {
			fmt.Fprint(os.Stderr, "Username: ")
			if user, err = readLine(os.Stdin); err != nil {
				return "", "", fmt.Errorf("failed to read username: %w", err)
			}
		}
		if password, err = promptPassword(); err != nil {
			return "", "", err
		}
	}

	form := ui.NewConsoleForm(os.Stderr, user, password)
	elems := form.Elements()
	if label != "" {
		elems.Submit.SetLabel(label)
	}

	ctrl, err := loginform.New(loginform.Config{
		Elements:  elems,
		Navigator: loginform.NavigatorFunc(func(path string) { dest = path }),
		Tokens:    tokens,
		Client:    client.HTTPClient,
		Options:   opts,
	})
	if err != nil {
		return "", "", err
	}
	defer ctrl.Close()

	out := ctrl.Submit(ctx)
	if !out.OK() {
		return "", "", reportLoginError(t.baseURL, out.Err)
	}
	return dest, user, nil
}

func promptPassword() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("stdin is not a terminal: use --password-stdin")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func reportLoginError(server string, err error) error {
	tips := append(loginform.TroubleshootingTips(err), "Server: "+server, "Guide: "+urls.TroubleshootingLogin)
	ui.NewPrinter(os.Stderr).PrintError("Login failed", errors.New(loginform.ShortMessage(err)), tips)
	return errReported
}

func listAfterLogin(ctx context.Context, client *assetclient.Client, dest, server, user string) error {
	p := ui.NewPrinter(os.Stdout)
	p.PrintSuccess("Signed in", map[string]string{
		"Server": server,
		"User":   user,
	})

	page, err := client.ListAssets(ctx, assetclient.ListOptions{
		Path:     dest,
		Query:    listQuery,
		Page:     listPage,
		PageSize: listPageSize,
	})
	if err != nil {
		return fmt.Errorf("failed to list assets: %w", err)
	}
	p.Println(ui.RenderAssetTable(page))
	return nil
}

// runDiscoverLogin shows the server picker, then the login form for the
// chosen server, and saves the choice as a profile.
func runDiscoverLogin(ctx context.Context, reg *config.Registry) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}
	httpClient := &http.Client{Timeout: reg.RequestTimeout(), Jar: jar}

	scan := func(ctx context.Context) ([]*discovery.Instance, error) {
		s := discovery.NewScanner()
		s.Timeout = reg.DiscoverTimeout()
		return s.Scan(ctx)
	}
	tokensFor := func(pageURL string) loginform.TokenSource {
		return &loginform.MetaTokenSource{Client: httpClient, PageURL: pageURL}
	}

	m := tui.NewAppModel(ctx, scan, tui.LoginConfig{
		Username: username,
		Client:   httpClient,
		Options:  loginform.Options{ErrorDisplay: reg.ErrorDisplay()},
	}, tokensFor)

	res, err := tui.RunApp(ctx, m)
	if err != nil {
		return fmt.Errorf("login screen error: %w", err)
	}
	if res.Target == "" {
		if res.Err != nil && res.Choice != nil {
			return reportLoginError(res.Choice.BaseURL, res.Err)
		}
		fmt.Println("Login cancelled.")
		return nil
	}

	choice := res.Choice
	profile := reg.SetServer(choice.Name, choice.BaseURL, res.Username)
	profile.DiscoveredAs = choice.Name
	if choice.LoginPath != "" && choice.LoginPath != urls.Login {
		profile.LoginPath = choice.LoginPath
	}
	reg.TouchLogin(choice.Name, res.Username, time.Now())
	if err := reg.Save(); err != nil {
		logging.Warn("Failed to save profile", zap.String("profile", choice.Name), zap.Error(err))
	}

	client, err := assetclient.NewClient(choice.BaseURL, reg.RequestTimeout())
	if err != nil {
		return err
	}
	client.HTTPClient = httpClient
	return listAfterLogin(ctx, client, res.Target, choice.BaseURL, res.Username)
}

// discoverCmd finds servers on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find assetdesk servers on the network",
	Long: `Find assetdesk servers using mDNS/DNS-SD discovery.

Servers started with --advertise announce themselves as ` + discovery.ServiceType + `.
With --save every server found is stored as a profile named after its
instance name.`,
	Example: `  # Scan with the configured timeout
  assetdesk discover

  # Longer scan, saving what is found
  assetdesk discover --timeout 15 --save`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&discoverTimeout, "timeout", 0, "Scan timeout in seconds (default from preferences)")
	discoverCmd.Flags().BoolVar(&discoverSave, "save", false, "Save found servers as profiles")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	reg, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	s := discovery.NewScanner()
	s.Timeout = reg.DiscoverTimeout()
	if discoverTimeout > 0 {
		s.Timeout = time.Duration(discoverTimeout) * time.Second
	}

	fmt.Printf("Scanning for assetdesk servers (timeout: %s)...\n\n", s.Timeout)
	instances, err := s.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(instances) == 0 {
		fmt.Println("No servers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Start the server with 'assetdesk-server serve --advertise'")
		fmt.Println("  - Make sure you are on the same network segment")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --server to give the URL directly if discovery fails")
		return nil
	}

	fmt.Printf("Found %d server(s):\n\n", len(instances))
	for i, inst := range instances {
		fmt.Printf("%d. %s\n", i+1, inst)
		fmt.Printf("   URL:     %s\n", inst.BaseURL())
		fmt.Printf("   Login:   %s\n", inst.LoginPath())
		fmt.Println()

		if discoverSave {
			profile := reg.SetServer(inst.Name, inst.BaseURL(), "")
			profile.DiscoveredAs = inst.Name
			if inst.LoginPath() != urls.Login {
				profile.LoginPath = inst.LoginPath()
			}
		}
	}

	if discoverSave {
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Printf("Saved %d profile(s). Default profile: %s\n", len(instances), reg.DefaultServer)
		return nil
	}

	fmt.Println("Use 'assetdesk login --server <url>' to sign in")
	fmt.Println("Use 'assetdesk discover --save' to keep these servers as profiles")
	return nil
}
