// Lmsadmin is an administration client for the LMS REST backend.
//
// It signs in against the backend, keeps the session on disk and exposes
// the admin operations most often run outside the web console: course and
// listing creation wizards, bulk user uploads and enrollments, the activity
// feed and the quality assurance registers.
//
// Usage:
//
//	lmsadmin [command] [flags]
//
// Configuration is read from <config dir>/lmsadmin/config.yaml, a .env file
// in the working directory and LMSADMIN_* environment variables.
// See 'lmsadmin --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/apiclient"
	"github.com/muurk/lmsadmin/internal/config"
	"github.com/muurk/lmsadmin/internal/logging"
	"github.com/muurk/lmsadmin/internal/session"
	"github.com/muurk/lmsadmin/internal/version"
)

func main() {
	defer logging.Sync()

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}

// Global flags
var (
	configPath   string
	baseURL      string
	outputFormat string
	logLevel     string
	verbose      bool
)

// Resolved in PersistentPreRunE
var (
	settings *config.Settings
	store    *session.FileStore
	svc      *api.Service
)

var rootCmd = &cobra.Command{
	Use:   "lmsadmin",
	Short: "LMS administration client",
	Long: `A command line client for administering the LMS backend.

Sign in once with 'lmsadmin login'; the session is stored in the config
directory and access tokens are refreshed automatically.

Interactive commands (courses create, listings create, activity -i) open a
full-screen terminal UI. Everything else prints plain output that can be
piped, with --format json for scripting.`,
	Version:           version.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <config dir>/lmsadmin/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "Output format (detailed, compact, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default from LMSADMIN_LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show raw backend responses")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lmsadmin %s\n", version.Full())
	},
}

// setup loads .env, logging, settings and the session, then wires the API
// service used by every command.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}

	s, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if baseURL != "" {
		s.BaseURL = baseURL
	}
	if outputFormat == "" {
		outputFormat = s.Output
	}
	if err := validateFormat(outputFormat); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	settings = s

	if settings.SessionFile == "" {
		p, err := config.GetSessionPath()
		if err != nil {
			return fmt.Errorf("failed to get session path: %w", err)
		}
		settings.SessionFile = p
	}
	store = session.NewFileStore(settings.SessionFile)
	if err := store.Init(); err != nil {
		return err
	}

	client := apiclient.NewClient(settings.BaseURL, store)
	client.SetTimeout(settings.Timeout)
	if settings.UserAgent != "" {
		client.SetUserAgent(settings.UserAgent)
	}
	if token := os.Getenv(config.EnvPrefix + "_CSRF_TOKEN"); token != "" {
		client.SetCSRFToken(token)
	}
	client.OnSessionExpired = func(error) {
		fmt.Fprintln(os.Stderr, "Your session has expired. Run 'lmsadmin login' to sign in again.")
	}

	svc = api.New(client)
	logging.Debug("client configured",
		zap.String("base_url", settings.BaseURL),
		zap.Duration("timeout", settings.Timeout),
		zap.String("session_file", settings.SessionFile),
		zap.Bool("authenticated", store.Get().Authenticated()),
	)
	return nil
}
