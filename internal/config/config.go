package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileEnv names the environment variable pointing at an optional YAML
// config file. Environment variables and flags override file values.
const FileEnv = "PARROTOPS_CONFIG"

type Config struct {
	ListenAddr     string
	SheetID        string
	SheetsEndpoint string
	AuthVerify     bool
	AuthCacheTTL   time.Duration
	JournalPath    string
	LogLevel       string
	LogFormat      string
	LogFile        string

	// Used by the CLI when talking to a running server.
	APIURL   string
	APIToken string
}

// Defaults registers the default value of every key on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("GOOGLE_SHEET_ID", "")
	v.SetDefault("SHEETS_ENDPOINT", "")
	v.SetDefault("AUTH_VERIFY", true)
	v.SetDefault("AUTH_CACHE_TTL", 5*time.Minute)
	v.SetDefault("JOURNAL_PATH", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("API_URL", "http://localhost:8080")
	v.SetDefault("API_TOKEN", "")
}

// Load reads configuration from the environment, the optional config file
// and any flags already bound on v. A nil v uses a fresh instance.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	Defaults(v)
	v.AutomaticEnv()

	if path := v.GetString(FileEnv); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		ListenAddr:     v.GetString("LISTEN_ADDR"),
		SheetID:        strings.TrimSpace(v.GetString("GOOGLE_SHEET_ID")),
		SheetsEndpoint: v.GetString("SHEETS_ENDPOINT"),
		AuthVerify:     v.GetBool("AUTH_VERIFY"),
		AuthCacheTTL:   v.GetDuration("AUTH_CACHE_TTL"),
		JournalPath:    v.GetString("JOURNAL_PATH"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		LogFile:        v.GetString("LOG_FILE"),
		APIURL:         strings.TrimRight(v.GetString("API_URL"), "/"),
		APIToken:       v.GetString("API_TOKEN"),
	}
	if cfg.AuthCacheTTL <= 0 {
		cfg.AuthCacheTTL = 5 * time.Minute
	}
	return cfg, nil
}

// ValidateServer reports settings the server cannot start without.
func (c *Config) ValidateServer() error {
	if c.SheetID == "" {
		return errors.New("GOOGLE_SHEET_ID is required")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}
