package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName     = "lmsadmin"
	configFile  = "config.yaml"
	sessionFile = "session.yaml"

	// EnvPrefix is prepended to every environment override (LMSADMIN_BASE_URL, ...).
	EnvPrefix = "LMSADMIN"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/lmsadmin or $HOME/.config/lmsadmin
//   - macOS: $HOME/.config/lmsadmin (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\lmsadmin
//
// LMSADMIN_CONFIG_DIR overrides all of the above.
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// GetSessionPath returns the default location of the persisted session file.
func GetSessionPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, sessionFile), nil
}

// EnsureDir creates dir with user-only permissions (0700) if it doesn't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// newViper builds a viper instance with defaults and environment binding.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	d := NewSettings()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("max_attachments", d.MaxAttachments)
	v.SetDefault("output", d.Output)
	v.SetDefault("user_agent", "")
	v.SetDefault("session_file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves Settings. If path is empty the default config path is used.
// A missing config file is not an error; defaults and environment apply.
func Load(path string) (*Settings, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// Only an existing but unreadable file is fatal.
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if s.SessionFile == "" {
		if dir := filepath.Dir(path); dir != "" {
			s.SessionFile = filepath.Join(dir, sessionFile)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that Settings are usable by the API client.
func (s *Settings) Validate() error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q: must be an absolute http(s) URL", s.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url %q: scheme must be http or https", s.BaseURL)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be positive", s.Timeout)
	}
	if s.PageSize <= 0 {
		return fmt.Errorf("invalid page_size %d: must be positive", s.PageSize)
	}
	if s.MaxAttachments <= 0 {
		return fmt.Errorf("invalid max_attachments %d: must be positive", s.MaxAttachments)
	}
	valid := false
	for _, f := range OutputFormats {
		if s.Output == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid output %q: must be one of %s", s.Output, strings.Join(OutputFormats, ", "))
	}
	return nil
}

// Save writes s to path as YAML.
// Performs an atomic write to prevent corruption on crash.
func (s *Settings) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to ensure config directory exists: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# lmsadmin configuration file
#
# Every key can be overridden with an LMSADMIN_<KEY> environment variable,
# e.g. LMSADMIN_BASE_URL=https://lms.example.com
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// CreateConfig writes s to path unless a configuration file already exists.
func CreateConfig(path string, s *Settings) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return s.Save(path)
}
