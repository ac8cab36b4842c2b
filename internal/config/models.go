package config

import "time"

// Settings holds the client configuration resolved from defaults, the config
// file and LMSADMIN_* environment variables (in increasing precedence).
type Settings struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`               // REST backend root, e.g. https://lms.example.com
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`                 // Per-request transport timeout
	PageSize       int           `mapstructure:"page_size" yaml:"page_size"`             // Default list page size (10, 25 or 50)
	MaxAttachments int           `mapstructure:"max_attachments" yaml:"max_attachments"` // Wizard attachment cap
	Output         string        `mapstructure:"output" yaml:"output"`                   // detailed, compact or json
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent,omitempty"` // Overrides the default User-Agent
	SessionFile    string        `mapstructure:"session_file" yaml:"session_file,omitempty"`
}

// Defaults
const (
	DefaultBaseURL        = "http://localhost:9090"
	DefaultTimeout        = 30 * time.Second
	DefaultPageSize       = 10
	DefaultMaxAttachments = 10
	DefaultOutput         = "detailed"
)

// PageSizes are the page sizes offered by list screens.
var PageSizes = []int{10, 25, 50}

// OutputFormats are the accepted values for Settings.Output.
var OutputFormats = []string{"detailed", "compact", "json"}

// NewSettings returns Settings populated with default values.
func NewSettings() *Settings {
	return &Settings{
		BaseURL:        DefaultBaseURL,
		Timeout:        DefaultTimeout,
		PageSize:       DefaultPageSize,
		MaxAttachments: DefaultMaxAttachments,
		Output:         DefaultOutput,
	}
}

// ValidPageSize reports whether size is one of PageSizes.
func ValidPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}
