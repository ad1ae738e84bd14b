package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is required")
	ErrMissingBackendURL  = errors.New("BACKEND_URL environment variable is required")
	ErrMissingFrontendURL = errors.New("FRONTEND_URL environment variable is required")
	ErrMissingResendKey   = errors.New("RESEND_API_KEY environment variable is required for resend mail provider")
	ErrInvalidTransport   = errors.New("SESSION_TRANSPORT must be one of cookie, bearer, both")
	ErrInvalidSessionSpan = errors.New("SESSION_SPAN must be positive")
	ErrInvalidMailer      = errors.New("MAIL_PROVIDER must be one of resend, log")
)

// Transport selects how session ids travel between client and server.
type Transport string

const (
	TransportCookie Transport = "cookie"
	TransportBearer Transport = "bearer"
	TransportBoth   Transport = "both"
)

// Argon2 holds the Argon2id work factors.
type Argon2 struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
	SaltLen   uint32
}

// Auth configures the authentication core. Each component receives this
// value through its constructor.
type Auth struct {
	// Total lifetime of a freshly issued session. Sessions are renewed
	// once less than half of it remains.
	SessionSpan time.Duration
	CookieName  string
	Transport   Transport
	// Secure cookies are only issued in production.
	SecureCookies bool

	// Hosts accepted as request origins in addition to the request's own host.
	AllowedHosts       []string
	TrustForwardedHost bool

	VerificationTTL time.Duration
	BackendURL      string
	FrontendURL     string

	Argon2          Argon2
	HashConcurrency int
}

// Mail configures outbound transactional email.
type Mail struct {
	// Provider is "resend" or "log".
	Provider       string
	ResendAPIKey   string
	ResendEndpoint string // API base URL
	From           string
	RatePerSecond  float64
	Burst          int
}

// Config is the whole application configuration.
type Config struct {
	Port            string
	DatabaseURL     string
	Production      bool
	CORSOrigins     []string
	DBSlowThreshold time.Duration

	Auth Auth
	Mail Mail
}

const DefaultResendEndpoint = "https://api.resend.com/"

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port:            "3000",
		DBSlowThreshold: 100 * time.Millisecond,
		CORSOrigins:     []string{"http://localhost:5173"},
		Auth: Auth{
			SessionSpan:     14 * 24 * time.Hour,
			CookieName:      "auth_session",
			Transport:       TransportBoth,
			VerificationTTL: 2 * time.Hour,
			Argon2: Argon2{
				Time:      2,
				MemoryKiB: 19 * 1024,
				Threads:   1,
				KeyLen:    32,
				SaltLen:   16,
			},
			HashConcurrency: 4,
		},
		Mail: Mail{
			Provider:       "log",
			ResendEndpoint: DefaultResendEndpoint,
			From:           "decision-matrix@afabl.com",
			RatePerSecond:  2,
			Burst:          1,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
//
// Environment variables:
//   - PORT, DATABASE_URL, APP_ENV ("production" enables secure cookies)
//   - BACKEND_URL, FRONTEND_URL, CORS_ORIGINS (comma separated)
//   - SESSION_SPAN, SESSION_COOKIE_NAME, SESSION_TRANSPORT (cookie|bearer|both)
//   - CSRF_ALLOWED_HOSTS (comma separated), CSRF_TRUST_FORWARDED_HOST
//   - EMAIL_VERIFICATION_TTL
//   - ARGON2_TIME, ARGON2_MEMORY_KIB, ARGON2_THREADS, HASH_CONCURRENCY
//   - MAIL_PROVIDER (resend|log), RESEND_API_KEY, RESEND_ENDPOINT, MAIL_FROM, MAIL_RATE_PER_SECOND
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration can run the server.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.Auth.BackendURL == "" {
		return ErrMissingBackendURL
	}
	if c.Auth.FrontendURL == "" {
		return ErrMissingFrontendURL
	}
	if c.Auth.SessionSpan <= 0 {
		return ErrInvalidSessionSpan
	}
	switch c.Auth.Transport {
	case TransportCookie, TransportBearer, TransportBoth:
	default:
		return ErrInvalidTransport
	}
	switch c.Mail.Provider {
	case "resend":
		if c.Mail.ResendAPIKey == "" {
			return ErrMissingResendKey
		}
	case "log":
	default:
		return ErrInvalidMailer
	}
	return nil
}

type fileConfig struct {
	Port        string   `yaml:"port"`
	DatabaseURL string   `yaml:"database_url"`
	Production  *bool    `yaml:"production"`
	CORSOrigins []string `yaml:"cors_origins"`
	Auth        struct {
		SessionSpan        string   `yaml:"session_span"`
		CookieName         string   `yaml:"cookie_name"`
		Transport          string   `yaml:"transport"`
		AllowedHosts       []string `yaml:"allowed_hosts"`
		TrustForwardedHost *bool    `yaml:"trust_forwarded_host"`
		VerificationTTL    string   `yaml:"verification_ttl"`
		BackendURL         string   `yaml:"backend_url"`
		FrontendURL        string   `yaml:"frontend_url"`
		HashConcurrency    int      `yaml:"hash_concurrency"`
		Argon2             struct {
			Time      uint32 `yaml:"time"`
			MemoryKiB uint32 `yaml:"memory_kib"`
			Threads   uint8  `yaml:"threads"`
		} `yaml:"argon2"`
	} `yaml:"auth"`
	Mail struct {
		Provider       string  `yaml:"provider"`
		ResendEndpoint string  `yaml:"resend_endpoint"`
		From           string  `yaml:"from"`
		RatePerSecond  float64 `yaml:"rate_per_second"`
	} `yaml:"mail"`
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.Port, fc.Port)
	setString(&c.DatabaseURL, fc.DatabaseURL)
	if fc.Production != nil {
		c.Production = *fc.Production
		c.Auth.SecureCookies = *fc.Production
	}
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}

	if err := setDuration(&c.Auth.SessionSpan, fc.Auth.SessionSpan); err != nil {
		return fmt.Errorf("auth.session_span: %w", err)
	}
	if err := setDuration(&c.Auth.VerificationTTL, fc.Auth.VerificationTTL); err != nil {
		return fmt.Errorf("auth.verification_ttl: %w", err)
	}
	setString(&c.Auth.CookieName, fc.Auth.CookieName)
	if fc.Auth.Transport != "" {
		c.Auth.Transport = Transport(strings.ToLower(fc.Auth.Transport))
	}
	if len(fc.Auth.AllowedHosts) > 0 {
		c.Auth.AllowedHosts = fc.Auth.AllowedHosts
	}
	if fc.Auth.TrustForwardedHost != nil {
		c.Auth.TrustForwardedHost = *fc.Auth.TrustForwardedHost
	}
	setString(&c.Auth.BackendURL, fc.Auth.BackendURL)
	setString(&c.Auth.FrontendURL, fc.Auth.FrontendURL)
	if fc.Auth.HashConcurrency > 0 {
		c.Auth.HashConcurrency = fc.Auth.HashConcurrency
	}
	if fc.Auth.Argon2.Time > 0 {
		c.Auth.Argon2.Time = fc.Auth.Argon2.Time
	}
	if fc.Auth.Argon2.MemoryKiB > 0 {
		c.Auth.Argon2.MemoryKiB = fc.Auth.Argon2.MemoryKiB
	}
	if fc.Auth.Argon2.Threads > 0 {
		c.Auth.Argon2.Threads = fc.Auth.Argon2.Threads
	}

	setString(&c.Mail.Provider, fc.Mail.Provider)
	setString(&c.Mail.ResendEndpoint, fc.Mail.ResendEndpoint)
	setString(&c.Mail.From, fc.Mail.From)
	if fc.Mail.RatePerSecond > 0 {
		c.Mail.RatePerSecond = fc.Mail.RatePerSecond
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, env("PORT"))
	setString(&c.DatabaseURL, env("DATABASE_URL"))
	if v := env("APP_ENV"); v != "" {
		c.Production = strings.EqualFold(v, "production")
		c.Auth.SecureCookies = c.Production
	}
	if v := env("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	if err := setDuration(&c.Auth.SessionSpan, env("SESSION_SPAN")); err != nil {
		return fmt.Errorf("SESSION_SPAN: %w", err)
	}
	if err := setDuration(&c.Auth.VerificationTTL, env("EMAIL_VERIFICATION_TTL")); err != nil {
		return fmt.Errorf("EMAIL_VERIFICATION_TTL: %w", err)
	}
	setString(&c.Auth.CookieName, env("SESSION_COOKIE_NAME"))
	if v := env("SESSION_TRANSPORT"); v != "" {
		c.Auth.Transport = Transport(strings.ToLower(v))
	}
	if v := env("CSRF_ALLOWED_HOSTS"); v != "" {
		c.Auth.AllowedHosts = splitList(v)
	}
	if v := env("CSRF_TRUST_FORWARDED_HOST"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CSRF_TRUST_FORWARDED_HOST: %w", err)
		}
		c.Auth.TrustForwardedHost = b
	}
	setString(&c.Auth.BackendURL, strings.TrimRight(env("BACKEND_URL"), "/"))
	setString(&c.Auth.FrontendURL, strings.TrimRight(env("FRONTEND_URL"), "/"))

	if err := setUint32(&c.Auth.Argon2.Time, env("ARGON2_TIME")); err != nil {
		return fmt.Errorf("ARGON2_TIME: %w", err)
	}
	if err := setUint32(&c.Auth.Argon2.MemoryKiB, env("ARGON2_MEMORY_KIB")); err != nil {
		return fmt.Errorf("ARGON2_MEMORY_KIB: %w", err)
	}
	if v := env("ARGON2_THREADS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return fmt.Errorf("ARGON2_THREADS: %w", err)
		}
		c.Auth.Argon2.Threads = uint8(n)
	}
	if v := env("HASH_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HASH_CONCURRENCY: %w", err)
		}
		c.Auth.HashConcurrency = n
	}

	if v := env("MAIL_PROVIDER"); v != "" {
		c.Mail.Provider = strings.ToLower(v)
	}
	setString(&c.Mail.ResendAPIKey, env("RESEND_API_KEY"))
	setString(&c.Mail.ResendEndpoint, env("RESEND_ENDPOINT"))
	setString(&c.Mail.From, env("MAIL_FROM"))
	if v := env("MAIL_RATE_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MAIL_RATE_PER_SECOND: %w", err)
		}
		c.Mail.RatePerSecond = f
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func setUint32(dst *uint32, v string) error {
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return err
	}
	*dst = uint32(n)
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
