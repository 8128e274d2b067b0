package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix               = "LISTBOT"
	defaultHTTPAddress      = "0.0.0.0:3000"
	defaultDatabasePath     = "./data/database.sqlite"
	defaultLogLevel         = "info"
	defaultVariant          = "grocery"
	defaultConfirmMode      = "payload"
	defaultConfirmTTLMinute = 15
	defaultRateLimit        = 20.0
	defaultRateBurst        = 40
)

// AppConfig captures runtime configuration for the bot server.
type AppConfig struct {
	HTTPAddress          string
	VerifyToken          string
	Variant              string
	DatabasePath         string
	LogLevel             string
	ConfirmMode          string
	ConfirmSigningSecret string
	ConfirmTTL           time.Duration
	RateLimit            float64
	RateBurst            int
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
	configViper.SetDefault("http.port", "")
	configViper.SetDefault("http.rate_limit", defaultRateLimit)
	configViper.SetDefault("http.rate_burst", defaultRateBurst)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("bot.variant", defaultVariant)
	configViper.SetDefault("confirm.mode", defaultConfirmMode)
	configViper.SetDefault("confirm.ttl_minutes", defaultConfirmTTLMinute)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	address, err := resolveAddress(configViper.GetString("http.address"), configViper.GetString("http.port"))
	if err != nil {
		return AppConfig{}, err
	}

	cfg := AppConfig{
		HTTPAddress:          address,
		VerifyToken:          configViper.GetString("slack.verify_token"),
		Variant:              strings.ToLower(strings.TrimSpace(configViper.GetString("bot.variant"))),
		DatabasePath:         configViper.GetString("database.path"),
		LogLevel:             configViper.GetString("log.level"),
		ConfirmMode:          strings.ToLower(strings.TrimSpace(configViper.GetString("confirm.mode"))),
		ConfirmSigningSecret: configViper.GetString("confirm.signing_secret"),
		ConfirmTTL:           time.Duration(configViper.GetInt("confirm.ttl_minutes")) * time.Minute,
		RateLimit:            configViper.GetFloat64("http.rate_limit"),
		RateBurst:            configViper.GetInt("http.rate_burst"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

// resolveAddress lets a bare port override the port of the listen address.
func resolveAddress(address, port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		return address, nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return "", fmt.Errorf("http.address %q: %w", address, err)
	}
	return net.JoinHostPort(host, port), nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.VerifyToken) == "" {
		return fmt.Errorf("slack.verify_token is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if c.ConfirmMode == "token" && strings.TrimSpace(c.ConfirmSigningSecret) == "" {
		return fmt.Errorf("confirm.signing_secret is required when confirm.mode is token")
	}
	if c.ConfirmTTL <= 0 {
		return fmt.Errorf("confirm.ttl_minutes must be positive")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("http.rate_limit and http.rate_burst must be positive")
	}
	return nil
}
