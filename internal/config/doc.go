// Package config provides client configuration for lmsadmin.
//
// Settings are resolved with viper from three layers, later layers winning:
// built-in defaults, a YAML configuration file, and LMSADMIN_* environment
// variables. A .env file in the working directory can be loaded into the
// environment first with LoadDotEnv.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/lmsadmin/config.yaml or $HOME/.config/lmsadmin/config.yaml
//   - macOS: $HOME/.config/lmsadmin/config.yaml
//   - Windows: %LOCALAPPDATA%\lmsadmin\config.yaml
//
// LMSADMIN_CONFIG_DIR overrides the directory. The persisted session
// (see package session) lives next to the config file as session.yaml.
//
// # Keys
//
//	base_url         REST backend root (default http://localhost:9090)
//	timeout          per-request timeout (default 30s)
//	page_size        default list page size (default 10)
//	max_attachments  wizard attachment cap (default 10)
//	output           detailed, compact or json (default detailed)
//
// # Usage Example
//
//	if err := config.LoadDotEnv(); err != nil {
//	    return err
//	}
//	settings, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	client := apiclient.NewClient(settings.BaseURL, store)
//
// # Security
//
// Passwords are never stored. Tokens live only in the session file, which is
// written with 0600 permissions.
package config
