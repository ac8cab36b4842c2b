package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	t.Setenv("LMSADMIN_CONFIG_DIR", "")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "lmsadmin") {
		t.Errorf("GetConfigDir() = %v, should contain 'lmsadmin'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_Override(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LMSADMIN_CONFIG_DIR", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if got != dir {
		t.Errorf("GetConfigDir() = %v, want %v", got, dir)
	}

	sessionPath, err := GetSessionPath()
	if err != nil {
		t.Fatalf("GetSessionPath() error = %v", err)
	}
	if sessionPath != filepath.Join(dir, "session.yaml") {
		t.Errorf("GetSessionPath() = %v, want %v", sessionPath, filepath.Join(dir, "session.yaml"))
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %v, want %v", s.BaseURL, DefaultBaseURL)
	}
	if s.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", s.Timeout, DefaultTimeout)
	}
	if s.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %v, want %v", s.PageSize, DefaultPageSize)
	}
	if s.MaxAttachments != DefaultMaxAttachments {
		t.Errorf("MaxAttachments = %v, want %v", s.MaxAttachments, DefaultMaxAttachments)
	}
	if s.SessionFile != filepath.Join(filepath.Dir(path), "session.yaml") {
		t.Errorf("SessionFile = %v, want next to config", s.SessionFile)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := "base_url: https://lms.example.com\ntimeout: 5s\npage_size: 25\noutput: compact\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LMSADMIN_PAGE_SIZE", "50")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.BaseURL != "https://lms.example.com" {
		t.Errorf("BaseURL = %v, want https://lms.example.com", s.BaseURL)
	}
	if s.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", s.Timeout)
	}
	if s.PageSize != 50 {
		t.Errorf("PageSize = %v, want 50 (env override)", s.PageSize)
	}
	if s.Output != "compact" {
		t.Errorf("Output = %v, want compact", s.Output)
	}
}

func TestLoad_InvalidBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("LMSADMIN_BASE_URL", "not a url")

	if _, err := Load(path); err == nil {
		t.Error("Load() with invalid base_url should fail")
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr bool
	}{
		{"defaults", func(s *Settings) {}, false},
		{"ftp scheme", func(s *Settings) { s.BaseURL = "ftp://example.com" }, true},
		{"zero timeout", func(s *Settings) { s.Timeout = 0 }, true},
		{"negative page size", func(s *Settings) { s.PageSize = -1 }, true},
		{"zero attachments", func(s *Settings) { s.MaxAttachments = 0 }, true},
		{"unknown output", func(s *Settings) { s.Output = "xml" }, true},
		{"json output", func(s *Settings) { s.Output = "json" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings()
			tt.mutate(s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := NewSettings()
	s.BaseURL = "https://lms.example.org"
	s.PageSize = 25
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after Save()")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.BaseURL != s.BaseURL || loaded.PageSize != 25 {
		t.Errorf("Load() = %+v, want base_url %s page_size 25", loaded, s.BaseURL)
	}
}

func TestCreateConfig_Exists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := CreateConfig(path, NewSettings()); err != nil {
		t.Fatalf("CreateConfig() error = %v", err)
	}
	if err := CreateConfig(path, NewSettings()); err == nil {
		t.Error("CreateConfig() should refuse to overwrite an existing file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LMSADMIN_TEST_DOTENV=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LMSADMIN_TEST_DOTENV", "")
	os.Unsetenv("LMSADMIN_TEST_DOTENV")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("LMSADMIN_TEST_DOTENV"); got != "from-file" {
		t.Errorf("LMSADMIN_TEST_DOTENV = %q, want from-file", got)
	}
}

func TestValidPageSize(t *testing.T) {
	for _, size := range []int{10, 25, 50} {
		if !ValidPageSize(size) {
			t.Errorf("ValidPageSize(%d) = false, want true", size)
		}
	}
	if ValidPageSize(20) {
		t.Error("ValidPageSize(20) = true, want false")
	}
}
