// Assetdesk-server serves the asset register and its login page.
//
// It renders the login form the assetdesk client (or a browser) signs in
// through, checks credentials against a bcrypt hashed account, and serves
// the asset list and entry endpoints over an in-memory or PostgreSQL store.
// It can announce itself on the local network over mDNS.
//
// Usage:
//
//	assetdesk-server serve [flags]
//
// See 'assetdesk-server serve --help' for available options.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/assetdesk/internal/assets"
	"github.com/muurk/assetdesk/internal/assets/postgres"
	"github.com/muurk/assetdesk/internal/logging"
	"github.com/muurk/assetdesk/internal/server"
	"github.com/muurk/assetdesk/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "assetdesk-server",
	Short: "Assetdesk asset register server",
	Long: `A standalone HTTP server for the assetdesk asset register.

Serves the login page and credential check used by the 'assetdesk' client,
plus the asset list and asset entry endpoints. Assets are kept in memory
unless a PostgreSQL database URL is configured.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	configPath   string
	certPath     string
	keyPath      string
	host         string
	port         int
	logLevel     string
	databaseURL  string
	advertise    bool
	instanceName string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the assetdesk server.

Settings come from the YAML file given with --config; flags override it.
TLS is enabled when both --cert and --key are given. With --database-url
the schema is migrated on startup and assets are stored in PostgreSQL.`,
	Example: `  # In-memory register on :8080
  assetdesk-server serve --config server.yaml

  # PostgreSQL-backed, announced on the LAN
  assetdesk-server serve --config server.yaml \
    --database-url postgres://assetdesk@localhost/assetdesk --advertise

  # HTTPS with your own certificate
  assetdesk-server serve --config server.yaml --cert fullchain.pem --key privkey.pem --port 8443`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config file")
	serveCmd.Flags().StringVar(&certPath, "cert", "", "Path to TLS certificate file")
	serveCmd.Flags().StringVar(&keyPath, "key", "", "Path to TLS private key file")
	serveCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", server.DefaultPort, "Listen port")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (in-memory store when empty)")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the server over mDNS")
	serveCmd.Flags().StringVar(&instanceName, "name", "", "mDNS instance name (default: assetdesk on <hostname>)")

	migrateCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL")
	migrateCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config file")
}

// loadConfig reads --config and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	config := server.DefaultConfig()
	if configPath != "" {
		var err error
		if config, err = server.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("cert") {
		config.CertPath = certPath
	}
	if flags.Changed("key") {
		config.KeyPath = keyPath
	}
	if flags.Changed("host") {
		config.Host = host
	}
	if flags.Changed("port") {
		config.Port = port
	}
	if flags.Changed("log-level") || config.LogLevel == "" {
		config.LogLevel = logLevel
	}
	if flags.Changed("database-url") {
		config.DatabaseURL = databaseURL
	}
	if flags.Changed("advertise") {
		config.Advertise = advertise
	}
	if flags.Changed("name") {
		config.InstanceName = instanceName
	}

	if config.CertPath != "" {
		if _, err := os.Stat(config.CertPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("certificate file not found: %s", config.CertPath)
		}
	}
	if config.KeyPath != "" {
		if _, err := os.Stat(config.KeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("private key file not found: %s", config.KeyPath)
		}
	}
	return config, config.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := logging.Initialize(config.LogLevel); err != nil {
		return err
	}
	defer logging.Sync()

	store, closeStore, err := openStore(cmd.Context(), config.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := server.New(config, store)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

// openStore returns the PostgreSQL store, migrated to the latest schema,
// or the in-memory store when databaseURL is empty.
func openStore(ctx context.Context, databaseURL string) (assets.Store, func(), error) {
	if databaseURL == "" {
		logging.Info("Using in-memory asset store")
		return assets.NewMemoryStore(), func() {}, nil
	}

	if err := migrateUp(databaseURL); err != nil {
		return nil, nil, err
	}
	store, pool, err := postgres.Open(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	logging.Info("Using PostgreSQL asset store")
	return store, pool.Close, nil
}

func migrateUp(databaseURL string) error {
	m, err := postgres.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logging.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
}

func init() {
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := migrateDatabaseURL()
			if err != nil {
				return err
			}
			if err := migrateUp(url); err != nil {
				return err
			}
			fmt.Println("✓ Schema is up to date")
			return nil
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops the assets table)",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := migrateDatabaseURL()
			if err != nil {
				return err
			}
			return withMigrator(url, func(m *postgres.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				fmt.Println("✓ All migrations rolled back")
				return nil
			})
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := migrateDatabaseURL()
			if err != nil {
				return err
			}
			return withMigrator(url, func(m *postgres.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Printf("Schema version %d", v)
				if dirty {
					fmt.Print(" (dirty: a migration failed part way)")
				}
				fmt.Println()
				return nil
			})
		},
	})
}

func migrateDatabaseURL() (string, error) {
	url := databaseURL
	if url == "" && configPath != "" {
		config, err := server.LoadConfig(configPath)
		if err != nil {
			return "", err
		}
		url = config.DatabaseURL
	}
	if url == "" {
		return "", errors.New("no database: pass --database-url or a --config with database_url")
	}
	return url, nil
}

func withMigrator(databaseURL string, f func(m *postgres.Migrator) error) error {
	m, err := postgres.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return f(m)
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a password for the config file's account.password_hash",
	Long: `Read a password and print its bcrypt hash.

On a terminal the password is prompted for without echo; otherwise the
first line of stdin is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		fd := int(os.Stdin.Fd())
		if term.IsTerminal(fd) {
			fmt.Fprint(os.Stderr, "Password: ")
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(b)
		} else {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password from stdin: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		hash, err := server.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("assetdesk-server %s (commit: %s)\n", version.Version, version.Commit)
	},
}
