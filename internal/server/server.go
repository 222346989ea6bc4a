package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/assetdesk/internal/assets"
	"github.com/muurk/assetdesk/internal/discovery"
	"github.com/muurk/assetdesk/internal/logging"
	"github.com/muurk/assetdesk/internal/urls"
	"github.com/muurk/assetdesk/internal/version"
)

const shutdownTimeout = 10 * time.Second

// Server serves the login page, the login check and the asset register.
type Server struct {
	config    *Config
	assets    *assets.Cache
	auth      *Authenticator
	tlsConfig *tls.Config
	clock     func() time.Time

	httpServer *http.Server
	listener   net.Listener
	advert     *discovery.Advertisement
}

// New creates a new Server instance over store.
func New(config *Config, store assets.Store) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	auth, err := NewAuthenticator(config.Account)
	if err != nil {
		return nil, err
	}
	if !auth.Configured() {
		logging.Warn("No account configured, every login will be rejected")
	}

	var tlsConfig *tls.Config
	if config.TLSEnabled() {
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	s := &Server{
		config:    config,
		assets:    assets.NewCache(store),
		auth:      auth,
		tlsConfig: tlsConfig,
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the routed and logged HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+urls.Login, s.handleLoginPage)
	mux.HandleFunc("POST "+urls.Login, s.handleLogin)
	mux.Handle("GET "+urls.LoginScript, http.FileServerFS(staticFS))
	mux.HandleFunc("GET "+urls.Assets, s.handleListAssets)
	mux.HandleFunc("GET "+urls.AssetsList, s.handleListAssets)
	mux.HandleFunc("GET "+urls.AssetEntry, s.handleGetAsset)
	mux.HandleFunc("POST "+urls.Assets, s.handleSaveAsset)
	mux.HandleFunc("POST "+urls.AssetEntry, s.handleSaveAsset)
	mux.HandleFunc("DELETE "+urls.Assets, s.handleDeleteAsset)
	mux.HandleFunc("DELETE "+urls.AssetEntry, s.handleDeleteAsset)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	return withRequestLogging(mux)
}

// Listen binds the listen address. Start calls it when needed; tests call
// it directly to learn the chosen port.
func (s *Server) Listen() (net.Addr, error) {
	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}
	s.listener = listener
	return listener.Addr(), nil
}

// Start loads the asset cache, starts serving and blocks until a shutdown
// signal or a serve error.
func (s *Server) Start() error {
	ctx := context.Background()
	if err := s.assets.Reload(ctx); err != nil {
		return err
	}

	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}
	addr := s.listener.Addr()

	logging.Info("Starting assetdesk server",
		zap.String("addr", addr.String()),
		zap.String("version", version.Version),
		zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
		zap.Bool("csrf", s.config.CSRFToken != ""),
	)

	if s.config.Advertise {
		if err := s.advertise(addr); err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		return s.Shutdown(ctx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) advertise(addr net.Addr) error {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("cannot advertise non-TCP address %s", addr)
	}
	name := s.config.InstanceName
	if name == "" {
		host, _ := os.Hostname()
		name = "assetdesk on " + host
	}
	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
	}

	advert, err := discovery.Advertise(name, tcp.Port, map[string]string{
		discovery.TXTPath:    urls.Login,
		discovery.TXTVersion: version.Version,
		discovery.TXTScheme:  scheme,
	})
	if err != nil {
		return err
	}
	s.advert = advert
	logging.Info("Advertising over mDNS",
		zap.String("instance", name),
		zap.String("service", discovery.ServiceType),
		zap.String("port", strconv.Itoa(tcp.Port)),
	)
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if s.advert != nil {
		s.advert.Shutdown()
		s.advert = nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
		err = s.httpServer.Close()
	} else if err == nil {
		logging.Info("All connections closed gracefully")
	}

	logging.Sync()
	return err
}
