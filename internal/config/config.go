// Package config loads service settings from defaults, the environment and
// command-line flags, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings.
//
// AccessTTL and RefreshTTL are configured in milliseconds. An empty
// DatabaseURL selects the in-memory store.
type Config struct {
	Addr             string
	DatabaseURL      string
	Secret           string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	ReadingYearFloor int
	StoreTimeout     time.Duration
	Debug            bool
	AdminUsername    string
	AdminPassword    string
}

// Defaults returns development settings. The secret must be overridden in production.
func Defaults() Config {
	return Config{
		Addr:             ":8080",
		Secret:           "dev-secret-change-me",
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       7 * 24 * time.Hour,
		ReadingYearFloor: 2000,
		StoreTimeout:     3 * time.Second,
	}
}

// Load applies environment variables and then args on top of Defaults.
func Load(args []string) (Config, error) {
	cfg := Defaults()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := parseFlags(&cfg, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Secret == "" {
		errs = append(errs, errors.New("secret must not be empty"))
	}
	// Token expiry is carried in whole seconds.
	if c.AccessTTL < time.Second {
		errs = append(errs, errors.New("access token ttl must be at least 1000ms"))
	}
	if c.RefreshTTL < time.Second {
		errs = append(errs, errors.New("refresh token ttl must be at least 1000ms"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("store timeout must be positive"))
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("admin username and password must be set together"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func applyEnv(c *Config) error {
	c.Addr = getEnv("ADDR", c.Addr)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.Secret = getEnv("JWT_SECRET", c.Secret)
	c.AdminUsername = getEnv("ADMIN_USERNAME", c.AdminUsername)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)

	var err error
	if c.AccessTTL, err = getEnvMillis("ACCESS_TTL_MILLIS", c.AccessTTL); err != nil {
		return err
	}
	if c.RefreshTTL, err = getEnvMillis("REFRESH_TTL_MILLIS", c.RefreshTTL); err != nil {
		return err
	}
	if c.StoreTimeout, err = getEnvMillis("STORE_TIMEOUT_MILLIS", c.StoreTimeout); err != nil {
		return err
	}
	if c.ReadingYearFloor, err = getEnvInt("READING_YEAR_FLOOR", c.ReadingYearFloor); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG: %w", err)
		}
		c.Debug = b
	}
	return nil
}

// parseFlags overlays command-line flags.
//
//	-a string   listen address
//	-d string   PostgreSQL connection string
//	-s string   JWT HMAC secret
//	-t int      access token ttl, milliseconds
//	-r int      refresh token ttl, milliseconds
//	-y int      earliest accepted reading year
//	-debug      development logging
func parseFlags(c *Config, args []string) error {
	fs := flag.NewFlagSet("meters", flag.ContinueOnError)

	fs.StringVar(&c.Addr, "a", c.Addr, "address and port to listen on")
	fs.StringVar(&c.DatabaseURL, "d", c.DatabaseURL, "database connection string")
	fs.StringVar(&c.Secret, "s", c.Secret, "token signing secret")
	accessMillis := fs.Int64("t", c.AccessTTL.Milliseconds(), "access token ttl (ms)")
	refreshMillis := fs.Int64("r", c.RefreshTTL.Milliseconds(), "refresh token ttl (ms)")
	fs.IntVar(&c.ReadingYearFloor, "y", c.ReadingYearFloor, "earliest accepted reading year")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "development logging")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	c.AccessTTL = time.Duration(*accessMillis) * time.Millisecond
	c.RefreshTTL = time.Duration(*refreshMillis) * time.Millisecond
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvMillis(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(n) * time.Millisecond, nil
}
