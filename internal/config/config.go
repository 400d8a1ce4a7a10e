// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.
//
// shamir-secret-sharing-app is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the YAML configuration of the REST server.
package config

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/virgill-e/shamir-secret-sharing-app/pkg/crypto/rand"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/logging"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/ratelimit"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/shamir"
)

// Config represents the complete server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	TLS       TLSConfig       `yaml:"tls"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Random    RandomConfig    `yaml:"random"`
	Sharing   SharingConfig   `yaml:"sharing"`
}

// ServerConfig contains server-level settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// Address returns host:port for net.Listen.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewLogger builds the structured logger described by the configuration.
func (c LoggingConfig) NewLogger(out io.Writer) (*logging.SlogAdapter, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewSlogAdapter(&logging.SlogConfig{
		Level:  level,
		Format: strings.ToLower(c.Format),
		Output: out,
	}), nil
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Path            string        `yaml:"path"`
	CollectInterval time.Duration `yaml:"collect_interval"`
}

// RateLimitConfig controls per-client rate limiting
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMin    int  `yaml:"requests_per_min"`
	Burst             int  `yaml:"burst"`
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// LimiterConfig converts the settings for ratelimit.New.
func (c RateLimitConfig) LimiterConfig() *ratelimit.Config {
	return &ratelimit.Config{
		Enabled:           c.Enabled,
		RequestsPerMinute: c.RequestsPerMin,
		Burst:             c.Burst,
		TrustProxyHeaders: c.TrustProxyHeaders,
	}
}

// RandomConfig selects the entropy source for polynomial coefficients
type RandomConfig struct {
	Mode     string       `yaml:"mode"`     // auto, software, tpm2, pkcs11
	Fallback string       `yaml:"fallback"` // optional secondary mode
	TPM2     TPM2Config   `yaml:"tpm2"`
	PKCS11   PKCS11Config `yaml:"pkcs11"`
}

// TPM2Config contains TPM 2.0 entropy settings
type TPM2Config struct {
	Device        string `yaml:"device"`
	UseSimulator  bool   `yaml:"use_simulator"`
	SimulatorHost string `yaml:"simulator_host"`
	SimulatorPort int    `yaml:"simulator_port"`
}

// PKCS11Config contains PKCS#11 entropy settings
type PKCS11Config struct {
	Module string `yaml:"module"`
	Slot   uint   `yaml:"slot"`
	PIN    string `yaml:"pin"`
}

// ResolverConfig converts the settings for rand.NewResolver.
func (c RandomConfig) ResolverConfig() (*rand.Config, error) {
	mode, err := rand.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}

	cfg := &rand.Config{Mode: mode}
	if c.Fallback != "" {
		if cfg.FallbackMode, err = rand.ParseMode(c.Fallback); err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
	}
	if c.TPM2 != (TPM2Config{}) {
		cfg.TPM2Config = &rand.TPM2Config{
			Device:        c.TPM2.Device,
			UseSimulator:  c.TPM2.UseSimulator,
			SimulatorHost: c.TPM2.SimulatorHost,
			SimulatorPort: c.TPM2.SimulatorPort,
		}
	}
	if c.PKCS11.Module != "" {
		cfg.PKCS11Config = &rand.PKCS11Config{
			Module: c.PKCS11.Module,
			SlotID: c.PKCS11.Slot,
			PIN:    c.PKCS11.PIN,
		}
	}
	return cfg, nil
}

// SharingConfig controls split defaults
type SharingConfig struct {
	Bits           int `yaml:"bits"`
	MaxSecretBytes int `yaml:"max_secret_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			Path:            "/metrics",
			CollectInterval: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:        false,
			RequestsPerMin: 600,
		},
		Random: RandomConfig{
			Mode: string(rand.ModeAuto),
		},
		Sharing: SharingConfig{
			Bits:           shamir.DefaultBits,
			MaxSecretBytes: 64 * 1024,
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults and
// applies environment variable overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 - Config file path is provided by admin/user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("SHAMIR_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if value := os.Getenv("SHAMIR_PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("Warning: invalid SHAMIR_PORT value %q, using %d: %v",
				value, cfg.Server.Port, err)
		} else if port < 1 || port > 65535 {
			log.Printf("Warning: invalid SHAMIR_PORT value %q (out of range 1-65535), using %d",
				value, cfg.Server.Port)
		} else {
			cfg.Server.Port = port
		}
	}

	if level := os.Getenv("SHAMIR_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("SHAMIR_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	if mode := os.Getenv("SHAMIR_RNG_MODE"); mode != "" {
		cfg.Random.Mode = mode
	}
	if pin := os.Getenv("SHAMIR_PKCS11_PIN"); pin != "" {
		cfg.Random.PKCS11.PIN = pin
	}

	if value := os.Getenv("SHAMIR_BITS"); value != "" {
		bits, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("Warning: invalid SHAMIR_BITS value %q, using %d: %v",
				value, cfg.Sharing.Bits, err)
		} else {
			cfg.Sharing.Bits = bits
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts cannot be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %q", c.Metrics.Path)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin < 1 {
		return fmt.Errorf("ratelimit requests_per_min must be positive when enabled")
	}

	if _, err := c.Random.ResolverConfig(); err != nil {
		return fmt.Errorf("invalid random configuration: %w", err)
	}
	if mode, _ := rand.ParseMode(c.Random.Mode); mode == rand.ModePKCS11 && c.Random.PKCS11.Module == "" {
		return fmt.Errorf("random.pkcs11.module is required when mode is pkcs11")
	}

	if _, err := shamir.FieldFor(c.Sharing.Bits); err != nil {
		return fmt.Errorf("invalid sharing.bits: %w", err)
	}
	if c.Sharing.MaxSecretBytes < 0 {
		return fmt.Errorf("sharing.max_secret_bytes cannot be negative")
	}

	if c.TLS.Enabled {
		if c.TLS.CertFile == "" {
			return fmt.Errorf("TLS cert_file is required when TLS is enabled")
		}
		if c.TLS.KeyFile == "" {
			return fmt.Errorf("TLS key_file is required when TLS is enabled")
		}
		if _, err := parseTLSVersion(c.TLS.MinVersion); err != nil {
			return err
		}
	}

	return nil
}
