// Package config reads the site configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Zachkp/termfolio/internal/reveal"
)

// Config holds every setting of the site. Values come from environment
// variables, optionally seeded from a .env file.
type Config struct {
	Port    string
	GinMode string

	DBPath       string
	ContentPath  string
	WatchContent bool
	ResumePath   string
	ResumeName   string

	// Third-party form processor; FormID empty disables it.
	FormEndpoint string
	FormID       string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	ToEmail  string

	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
	AdminJWTSecret    string
	AdminSessionHours int

	RevealPolicy         reveal.Policy
	VisitorRetention     time.Duration
	ContactRatePerMinute int

	SoundEnabled bool
	SoundVolume  float64

	LogLevel string
}

// LoadDotEnv loads files into the environment without overriding variables
// that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from the environment.
func Load() (*Config, error) {
	c := &Config{
		Port:              getenv("PORT", "8080"),
		GinMode:           os.Getenv("GIN_MODE"),
		DBPath:            getenv("DB_PATH", "portfolio.db"),
		ContentPath:       os.Getenv("CONTENT_PATH"),
		ResumePath:        os.Getenv("RESUME_PATH"),
		ResumeName:        os.Getenv("RESUME_NAME"),
		FormEndpoint:      getenv("FORM_ENDPOINT", "https://formspree.io/f/"),
		FormID:            os.Getenv("FORM_ID"),
		SMTPHost:          getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:          getenv("SMTP_PORT", "587"),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPass:          os.Getenv("SMTP_PASS"),
		ToEmail:           os.Getenv("TO_EMAIL"),
		AdminUsername:     getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminJWTSecret:    os.Getenv("ADMIN_JWT_SECRET"),
		LogLevel:          strings.ToLower(getenv("LOG_LEVEL", "info")),
	}

	var err error
	if c.WatchContent, err = getbool("WATCH_CONTENT", false); err != nil {
		return nil, err
	}
	if c.SoundEnabled, err = getbool("SOUND_ENABLED", true); err != nil {
		return nil, err
	}
	if c.AdminSessionHours, err = getint("ADMIN_SESSION_HOURS", 24); err != nil {
		return nil, err
	}
	if c.ContactRatePerMinute, err = getint("CONTACT_RATE_PER_MINUTE", 5); err != nil {
		return nil, err
	}
	if c.SoundVolume, err = strconv.ParseFloat(getenv("SOUND_VOLUME", "0.3"), 64); err != nil {
		return nil, fmt.Errorf("invalid SOUND_VOLUME: %v", err)
	}
	if c.VisitorRetention, err = time.ParseDuration(getenv("VISITOR_RETENTION", "8760h")); err != nil {
		return nil, fmt.Errorf("invalid VISITOR_RETENTION: %v", err)
	}
	if c.RevealPolicy, err = reveal.ParsePolicy(os.Getenv("REVEAL_POLICY")); err != nil {
		return nil, fmt.Errorf("invalid REVEAL_POLICY: %v", err)
	}

	if err := c.normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// normalize validates the configuration.
func (c *Config) normalize() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.AdminSessionHours < 1 {
		return fmt.Errorf("ADMIN_SESSION_HOURS must be at least 1 hour, got: %d", c.AdminSessionHours)
	}
	if c.ContactRatePerMinute < 1 {
		return fmt.Errorf("CONTACT_RATE_PER_MINUTE must be positive, got: %d", c.ContactRatePerMinute)
	}
	if c.SoundVolume < 0 || c.SoundVolume > 1 {
		return fmt.Errorf("SOUND_VOLUME must be within 0..1, got: %v", c.SoundVolume)
	}
	if c.VisitorRetention <= 0 {
		return fmt.Errorf("VISITOR_RETENTION must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if c.WatchContent && c.ContentPath == "" {
		return fmt.Errorf("WATCH_CONTENT requires CONTENT_PATH")
	}
	return nil
}

// Addr is the listen address for the web server.
func (c *Config) Addr() string { return ":" + c.Port }

// FormURL is the submission URL of the third-party form processor, or empty
// when no form id is configured.
func (c *Config) FormURL() string {
	if c.FormID == "" {
		return ""
	}
	return strings.TrimRight(c.FormEndpoint, "/") + "/" + c.FormID
}

// SMTPConfigured reports whether mail delivery credentials are present.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPass != "" && c.ToEmail != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getbool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %v", key, err)
	}
	return b, nil
}
