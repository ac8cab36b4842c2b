package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/muurk/lmsadmin/internal/config"
	"github.com/muurk/lmsadmin/internal/logging"
)

var configInitForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	// Replaces the root setup: these commands must run while the file is
	// missing or invalid, and they never talk to the backend.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		return logging.Initialize(logLevel)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	Long: `Write a config file with default settings.

The file goes to --config when given, otherwise to the default location in
the user config directory. Pass --base-url to point the new file at your
backend. An existing file is left alone unless --force is set.`,
	Example: `  lmsadmin config init --base-url https://lms.example.com
  lmsadmin config init --config ./lmsadmin.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	s := config.NewSettings()
	if baseURL != "" {
		s.BaseURL = baseURL
	}
	if err := s.Validate(); err != nil {
		return err
	}

	if configInitForce {
		err = s.Save(path)
	} else {
		err = config.CreateConfig(path, s)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
	return nil
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Long: `Show the settings every other command runs with: defaults, then the
config file, then LMSADMIN_* environment variables and flags.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	s, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if baseURL != "" {
		s.BaseURL = baseURL
	}

	format := outputFormat
	if format == "" {
		format = s.Output
	}
	if err := validateFormat(format); err != nil {
		return err
	}
	return printSettings(cmd.OutOrStdout(), format, path, s)
}

func printSettings(w io.Writer, format, path string, s *config.Settings) error {
	if format == "json" {
		return printJSON(w, s)
	}
	fmt.Fprintf(w, "Config file:     %s\n", path)
	fmt.Fprintf(w, "Base URL:        %s\n", s.BaseURL)
	fmt.Fprintf(w, "Timeout:         %s\n", s.Timeout)
	fmt.Fprintf(w, "Page size:       %d\n", s.PageSize)
	fmt.Fprintf(w, "Max attachments: %d\n", s.MaxAttachments)
	fmt.Fprintf(w, "Output:          %s\n", s.Output)
	fmt.Fprintf(w, "Session file:    %s\n", s.SessionFile)
	if s.UserAgent != "" {
		fmt.Fprintf(w, "User agent:      %s\n", s.UserAgent)
	}
	return nil
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return path, nil
}
