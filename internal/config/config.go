// Package config loads server settings from an optional YAML file and
// GATEPASS_* environment variables.  Environment values win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GATEPASS_"

type SMSConfig struct {
	Provider string // "log" | "http"
	BaseURL  string
	APIKey   string
	Sender   string
	Timeout  time.Duration
}

type ReportsConfig struct {
	Dir     string // local sink directory, used when Bucket is empty
	BaseURL string // public base of share links for the local sink

	Bucket           string
	Prefix           string
	Endpoint         string
	Region           string
	AccessKeyID      string
	SecretAccessKey  string
	URLExpiryMinutes int
}

type Config struct {
	HTTPAddr string
	GRPCAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/gatepass.db"

	// Secret is the root key for credential signing and field sealing.
	Secret    string
	JWTSecret string

	CredentialValidityHours int
	ScanDebounceMS          int
	QRSize                  int
	Timezone                string

	// Log retention
	RetentionDays      int // 0 = keep forever
	PruneIntervalHours int // how often the pruner runs (default 6)

	RedisURL string // empty = in-process scan guard
	Tracing  bool

	SMS     SMSConfig
	Reports ReportsConfig
}

var (
	ErrMissingSecret    = errors.New("secret is required in prod")
	ErrMissingJWTSecret = errors.New("jwt_secret is required in prod")
	ErrInvalidEnv       = errors.New("env must be dev or prod")
	ErrInvalidProvider  = errors.New("sms.provider must be log or http")
	ErrMissingSMSURL    = errors.New("sms.base_url and sms.api_key are required for the http provider")
	ErrInvalidTimezone  = errors.New("timezone is not a known IANA zone")
)

// Load reads path (if non-empty) and then the environment.  It returns the
// merged config and every problem found; a nil slice means the config is
// usable.
func Load(path string) (*Config, []error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("load config file %s: %w", path, err)}
		}
	}

	l := loader{k: k}
	cfg := &Config{
		HTTPAddr: l.str("http_addr", ":8080"),
		GRPCAddr: l.str("grpc_addr", ":9090"),
		Env:      strings.ToLower(l.str("env", "dev")),
		DBPath:   l.str("db_path", "./data/gatepass.db"),

		Secret:    l.str("secret", ""),
		JWTSecret: l.str("jwt_secret", ""),

		CredentialValidityHours: l.int("credential_validity_hours", 24),
		ScanDebounceMS:          l.int("scan_debounce_ms", 1500),
		QRSize:                  l.int("qr_size", 512),
		Timezone:                l.str("timezone", "Asia/Seoul"),

		RetentionDays:      l.int("retention_days", 365),
		PruneIntervalHours: l.int("prune_interval_hours", 6),

		RedisURL: l.str("redis_url", ""),
		Tracing:  l.bool("tracing", false),

		SMS: SMSConfig{
			Provider: strings.ToLower(l.str("sms.provider", "log")),
			BaseURL:  l.str("sms.base_url", ""),
			APIKey:   l.str("sms.api_key", ""),
			Sender:   l.str("sms.sender", ""),
			Timeout:  time.Duration(l.int("sms.timeout_seconds", 10)) * time.Second,
		},
		Reports: ReportsConfig{
			Dir:              l.str("reports.dir", "./data/reports"),
			BaseURL:          l.str("reports.base_url", "http://localhost:8080"),
			Bucket:           l.str("reports.s3_bucket", ""),
			Prefix:           l.str("reports.s3_prefix", "reports/"),
			Endpoint:         l.str("reports.s3_endpoint", ""),
			Region:           l.str("reports.s3_region", "us-east-1"),
			AccessKeyID:      l.str("reports.s3_access_key_id", ""),
			SecretAccessKey:  l.str("reports.s3_secret_access_key", ""),
			URLExpiryMinutes: l.int("reports.url_expiry_minutes", 60),
		},
	}

	errs := append(l.errs, cfg.Validate()...)
	return cfg, errs
}

// Validate reports every invalid setting.
func (c *Config) Validate() []error {
	var errs []error
	if c.Env != "dev" && c.Env != "prod" {
		errs = append(errs, ErrInvalidEnv)
	}
	if c.Env == "prod" {
		if strings.TrimSpace(c.Secret) == "" {
			errs = append(errs, ErrMissingSecret)
		}
		if strings.TrimSpace(c.JWTSecret) == "" {
			errs = append(errs, ErrMissingJWTSecret)
		}
	}
	switch c.SMS.Provider {
	case "log":
	case "http":
		if c.SMS.BaseURL == "" || c.SMS.APIKey == "" {
			errs = append(errs, ErrMissingSMSURL)
		}
	default:
		errs = append(errs, ErrInvalidProvider)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Timezone))
	}
	if c.CredentialValidityHours <= 0 {
		errs = append(errs, errors.New("credential_validity_hours must be positive"))
	}
	return errs
}

// Location resolves Timezone; call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) CredentialValidity() time.Duration {
	return time.Duration(c.CredentialValidityHours) * time.Hour
}

func (c *Config) ScanDebounce() time.Duration {
	return time.Duration(c.ScanDebounceMS) * time.Millisecond
}

// loader resolves one key: environment first, then the file, then def.
// "sms.api_key" maps to GATEPASS_SMS_API_KEY.
type loader struct {
	k    *koanf.Koanf
	errs []error
}

func envName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (l *loader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(envName(key))); v != "" {
		return v
	}
	if v := l.k.String(key); v != "" {
		return v
	}
	return def
}

func (l *loader) int(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(envName(key))); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			l.errs = append(l.errs, fmt.Errorf("%s: %q is not a non-negative integer", envName(key), v))
			return def
		}
		return n
	}
	if l.k.Exists(key) {
		return l.k.Int(key)
	}
	return def
}

func (l *loader) bool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(envName(key))); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			l.errs = append(l.errs, fmt.Errorf("%s: %q is not a boolean", envName(key), v))
			return def
		}
		return b
	}
	if l.k.Exists(key) {
		return l.k.Bool(key)
	}
	return def
}
