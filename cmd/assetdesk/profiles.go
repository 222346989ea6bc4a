package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/assetdesk/internal/config"
	"github.com/muurk/assetdesk/internal/ui"
)

var (
	profileUsername    string
	profileMakeDefault bool
	profileForce       bool
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetServerCmd)
	configCmd.AddCommand(configRemoveCmd)
	rootCmd.AddCommand(configCmd)

	configSetServerCmd.Flags().StringVarP(&profileUsername, "username", "u", "", "Username to prefill at login")
	configSetServerCmd.Flags().BoolVar(&profileMakeDefault, "default", false, "Make this the default profile")
	configSetServerCmd.Flags().BoolVarP(&profileForce, "yes", "y", false, "Overwrite an existing profile without asking")
	configRemoveCmd.Flags().BoolVarP(&profileForce, "yes", "y", false, "Remove without asking")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage saved server profiles",
	Long: `Manage the saved server profiles.

Profiles live in ~/.config/assetdesk/config.yaml (or $ASSETDESK_CONFIG).
Passwords are never stored.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show profiles and preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		path, _ := config.GetConfigPath()

		p := ui.NewPrinter(os.Stdout)
		p.PrintHeader("Profiles", "assetdesk config show", map[string]string{"File": path})

		if len(reg.Servers) == 0 {
			p.Println("No profiles saved. Add one with 'assetdesk config set-server NAME URL'.")
			return nil
		}
		for _, name := range reg.Names() {
			s := reg.GetServer(name)
			marker := " "
			if name == reg.DefaultServer {
				marker = "*"
			}
			p.Println(fmt.Sprintf("%s %s", marker, ui.ResultKeyStyle.Render(name)))
			p.Println("    URL:        " + s.BaseURL)
			if s.Username != "" {
				p.Println("    Username:   " + s.Username)
			}
			if s.LoginPath != "" {
				p.Println("    Login path: " + s.LoginPath)
			}
			if s.DiscoveredAs != "" {
				p.Println("    mDNS name:  " + s.DiscoveredAs)
			}
			if !s.LastLogin.IsZero() {
				p.Println("    Last login: " + s.LastLogin.Local().Format("2006-01-02 15:04"))
			}
		}
		p.Newline()
		p.Println(fmt.Sprintf("Discover timeout %s, error display %s, request timeout %s",
			reg.DiscoverTimeout(), reg.ErrorDisplay(), reg.RequestTimeout()))
		return nil
	},
}

var configSetServerCmd = &cobra.Command{
	Use:   "set-server NAME URL",
	Short: "Add or update a server profile",
	Example: `  # Save the office server and make it the default
  assetdesk config set-server office https://assets.example.com --username alice --default`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, raw := args[0], args[1]
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid URL %q: use http://host[:port] or https://host[:port]", raw)
		}

		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if existing := reg.GetServer(name); existing != nil && existing.BaseURL != "" && !profileForce {
			q := fmt.Sprintf("Profile %q points at %s. Replace it?", name, existing.BaseURL)
			if !ui.Confirm(os.Stdin, os.Stdout, q) {
				fmt.Println("Unchanged.")
				return nil
			}
		}

		reg.SetServer(name, raw, profileUsername)
		if profileMakeDefault {
			reg.DefaultServer = name
		}
		if err := reg.Save(); err != nil {
			return err
		}
		ui.NewPrinter(os.Stdout).PrintSuccess("Profile saved", map[string]string{
			"Name":    name,
			"URL":     reg.GetServer(name).BaseURL,
			"Default": fmt.Sprint(reg.DefaultServer == name),
		})
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a server profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if reg.GetServer(name) == nil {
			return fmt.Errorf("profile %q not found", name)
		}
		if !profileForce && !ui.Confirm(os.Stdin, os.Stdout, fmt.Sprintf("Remove profile %q?", name)) {
			fmt.Println("Unchanged.")
			return nil
		}
		reg.RemoveServer(name)
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Printf("Removed profile %s\n", name)
		return nil
	},
}
