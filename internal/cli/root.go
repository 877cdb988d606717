package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/cassette/internal/cassette/client"
	"github.com/tessro/cassette/internal/config"
	cerrors "github.com/tessro/cassette/internal/errors"
	"github.com/tessro/cassette/internal/logging"
	"github.com/tessro/cassette/internal/session"
)

var (
	cfgFile   string
	jsonOut   bool
	verbose   bool
	serverURL string

	cfg       *config.Config
	logger    = logging.Discard()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "cassette",
	Short: "Save and restore Spotify playback from the command line",
	Long: `Cassette stores snapshots of your Spotify playback (what was playing and
how far in) and resumes them later on any of your devices.

This CLI talks to a cassette server. Log in through the web UI once, then
import the session cookie with 'cassette session import'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.cassetterc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "cassette server URL (overrides server.url)")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if serverURL != "" {
		cfg.Server.URL = serverURL
	}
	cfg.Server.URL = session.NormalizeURL(cfg.Server.URL)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", cerrors.ErrInvalidConfig, err)
	}

	logger, logCloser, err = logging.Setup(cfg.Log, verbose)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	return nil
}

// Execute runs the root command and returns its error for main to print.
func Execute() error {
	return rootCmd.Execute()
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

// apiSession ties a client to the session file it was seeded from.
type apiSession struct {
	*client.Client
	storage *session.Storage
}

// openSession builds a client for the configured server, seeded with the
// stored cookies.
func openSession() (*apiSession, error) {
	storage, err := session.NewStorage(cfg.Session.File)
	if err != nil {
		return nil, err
	}

	stored, err := storage.LoadFor(cfg.Server.URL)
	if err != nil {
		return nil, err
	}

	hc := &http.Client{}
	if cfg.Server.Timeout > 0 {
		hc.Timeout = time.Duration(cfg.Server.Timeout) * time.Second
	}

	c, err := client.New(cfg.Server.URL,
		client.WithHTTPClient(hc),
		client.WithLogger(logger),
		client.WithCookies(stored.HTTPCookies()),
		client.WithReferer(cfg.Server.SendReferer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cerrors.ErrNotConfigured, err)
	}

	return &apiSession{Client: c, storage: storage}, nil
}

// handshake fetches a CSRF token and installs it. Every mutating request
// must be preceded by it.
func (s *apiSession) handshake(ctx context.Context) error {
	token, err := s.FetchCSRFToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch CSRF token: %w", err)
	}
	if token == "" {
		return cerrors.ErrNoCSRFToken
	}
	s.SetCSRFToken(token)
	logger.Debug("csrf token installed")
	return nil
}

// save writes the jar's cookies back so server-issued cookies (CSRF,
// consent) survive to the next run.
func (s *apiSession) save() {
	cookies := s.Cookies()
	if len(cookies) == 0 {
		return
	}
	if err := s.storage.Save(session.FromCookies(s.BaseURL(), cookies)); err != nil {
		logger.Warn("failed to save session", "path", s.storage.Path(), "error", err)
	}
}

// withSession runs fn against a fresh session and saves cookies
// afterwards, whether or not fn succeeded.
func withSession(ctx context.Context, fn func(ctx context.Context, s *apiSession) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.save()

	logger.Debug("session opened", slog.String("url", s.BaseURL()), slog.Int("cookies", len(s.Cookies())))
	return cerrors.Classify(fn(ctx, s))
}
