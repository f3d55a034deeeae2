package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix               = "DIYETKENT"
	defaultHTTPAddress      = "127.0.0.1:8520"
	defaultDatabasePath     = "diyetkent.db"
	defaultLogLevel         = "info"
	defaultTokenTTLMinutes  = 12 * 60
	defaultRemoteTimeoutSec = 15
	defaultNotePollSeconds  = 5
	defaultApptPollSeconds  = 30
)

// AppConfig captures runtime configuration for the desktop core service.
type AppConfig struct {
	HTTPAddress       string
	DatabasePath      string
	LogLevel          string
	SigningSecret     string
	TokenTTL          time.Duration
	RemoteBaseURL     string
	RemoteAPIKey      string
	RemoteTimeout     time.Duration
	NotePollInterval  time.Duration
	ApptPollInterval  time.Duration
	NotificationsOn   bool
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("auth.token_ttl_minutes", defaultTokenTTLMinutes)
	configViper.SetDefault("remote.timeout_seconds", defaultRemoteTimeoutSec)
	configViper.SetDefault("alarm.note_poll_seconds", defaultNotePollSeconds)
	configViper.SetDefault("alarm.appointment_poll_seconds", defaultApptPollSeconds)
	configViper.SetDefault("notifications.enabled", true)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:      configViper.GetString("http.address"),
		DatabasePath:     configViper.GetString("database.path"),
		LogLevel:         configViper.GetString("log.level"),
		SigningSecret:    configViper.GetString("auth.signing_secret"),
		TokenTTL:         time.Duration(configViper.GetInt("auth.token_ttl_minutes")) * time.Minute,
		RemoteBaseURL:    configViper.GetString("remote.base_url"),
		RemoteAPIKey:     configViper.GetString("remote.api_key"),
		RemoteTimeout:    time.Duration(configViper.GetInt("remote.timeout_seconds")) * time.Second,
		NotePollInterval: time.Duration(configViper.GetInt("alarm.note_poll_seconds")) * time.Second,
		ApptPollInterval: time.Duration(configViper.GetInt("alarm.appointment_poll_seconds")) * time.Second,
		NotificationsOn:  configViper.GetBool("notifications.enabled"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.NotePollInterval <= 0 || c.ApptPollInterval <= 0 {
		return fmt.Errorf("alarm poll intervals must be positive")
	}
	// remote.base_url is optional: an empty value runs the client offline-only.
	if c.RemoteBaseURL != "" && c.RemoteTimeout <= 0 {
		return fmt.Errorf("remote.timeout_seconds must be positive")
	}
	return nil
}
