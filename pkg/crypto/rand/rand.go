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

// Package rand provides the entropy sources used to generate polynomial
// coefficients when splitting secrets.
//
// # Sources
//
//   - Auto: the best available source (PKCS#11 > TPM2 > software)
//   - Software: crypto/rand from the standard library
//   - TPM2: TPM2_GetRandom from a Trusted Platform Module (build tag tpm2)
//   - PKCS11: C_GenerateRandom from an HSM (build tag pkcs11)
//
// Every Resolver implements io.Reader and can be passed directly as the
// random source of a shamir.Scheme:
//
//	rng, err := rand.NewResolver(&rand.Config{
//	    Mode:         rand.ModeTPM2,
//	    FallbackMode: rand.ModeSoftware,
//	})
//	if err != nil {
//	    return err
//	}
//	defer rng.Close()
//
//	scheme, err := shamir.NewScheme(&shamir.Config{Random: rng})
//
// NewDeterministic returns a seeded ChaCha20 keystream for tests and
// reproducible vectors. It is deliberately not selectable through Config.
//
// # Thread Safety
//
// All Resolver implementations are safe for concurrent use.
package rand

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

// Mode specifies which RNG source to use.
type Mode string

const (
	// ModeAuto automatically selects the best available RNG.
	ModeAuto Mode = "auto"

	// ModeSoftware uses crypto/rand.
	ModeSoftware Mode = "software"

	// ModeTPM2 uses the TPM 2.0 hardware RNG.
	ModeTPM2 Mode = "tpm2"

	// ModePKCS11 uses a PKCS#11 hardware security module RNG.
	ModePKCS11 Mode = "pkcs11"
)

// ParseMode converts a configuration string into a Mode. An empty string
// selects ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeSoftware:
		return ModeSoftware, nil
	case ModeTPM2:
		return ModeTPM2, nil
	case ModePKCS11:
		return ModePKCS11, nil
	default:
		return "", fmt.Errorf("unknown RNG mode: %s", s)
	}
}

// Config contains RNG configuration.
type Config struct {
	// Mode specifies the primary RNG source. Defaults to ModeAuto.
	Mode Mode

	// FallbackMode is used when the primary source cannot be opened or
	// fails at read time. Empty means failures are returned as errors.
	FallbackMode Mode

	// TPM2Config is used when Mode or FallbackMode is ModeTPM2.
	TPM2Config *TPM2Config

	// PKCS11Config is used when Mode or FallbackMode is ModePKCS11.
	PKCS11Config *PKCS11Config
}

// TPM2Config contains configuration for the TPM2 RNG.
type TPM2Config struct {
	// Device path to the TPM device (default: "/dev/tpm0").
	Device string

	// MaxRequestSize limits the bytes requested per TPM2_GetRandom call.
	// Default: 32.
	MaxRequestSize int

	// UseSimulator connects to a TCP simulator instead of Device.
	UseSimulator bool

	// SimulatorHost defaults to "localhost".
	SimulatorHost string

	// SimulatorPort defaults to 2321 (swtpm command port).
	SimulatorPort int
}

// PKCS11Config contains configuration for the PKCS#11 RNG.
type PKCS11Config struct {
	// Module path to the PKCS#11 library (e.g. /usr/lib/softhsm/libsofthsm2.so).
	Module string

	// SlotID specifies the slot providing the RNG.
	SlotID uint

	// PIN logs the session in when non-empty.
	PIN string
}

// Resolver is a source of cryptographically secure random bytes.
// Applications should create a Resolver at startup and reuse it.
type Resolver interface {
	io.Reader

	// Rand returns n random bytes.
	Rand(n int) ([]byte, error)

	// Name identifies the source in use ("software", "tpm2", ...).
	Name() string

	// Available returns true if the source is ready.
	Available() bool

	// Close releases any resources held by the source.
	Close() error
}

// NewResolver creates a resolver. config may be nil, a Mode or a *Config;
// anything else selects auto mode.
func NewResolver(config interface{}) (Resolver, error) {
	cfg := normalizeConfig(config)

	primary, err := newResolver(cfg.Mode, cfg)
	if err != nil {
		if cfg.FallbackMode == "" || cfg.FallbackMode == cfg.Mode {
			return nil, err
		}
		return newResolver(cfg.FallbackMode, cfg)
	}

	if cfg.FallbackMode == "" || cfg.FallbackMode == cfg.Mode || cfg.Mode == ModeAuto {
		return primary, nil
	}

	fallback, err := newResolver(cfg.FallbackMode, cfg)
	if err != nil {
		return primary, nil
	}
	return &fallbackResolver{primary: primary, fallback: fallback}, nil
}

// normalizeConfig converts the accepted config types to *Config.
func normalizeConfig(config interface{}) *Config {
	var cfg Config
	switch v := config.(type) {
	case Mode:
		cfg.Mode = v
	case *Config:
		if v != nil {
			cfg = *v
		}
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeAuto
	}
	return &cfg
}

func newResolver(mode Mode, cfg *Config) (Resolver, error) {
	switch mode {
	case ModeAuto:
		return newAutoResolver(cfg)
	case ModeSoftware:
		return newSoftwareResolver(), nil
	case ModeTPM2:
		return newTPM2Resolver(cfg.TPM2Config)
	case ModePKCS11:
		return newPKCS11Resolver(cfg.PKCS11Config)
	default:
		return nil, fmt.Errorf("unknown RNG mode: %s", mode)
	}
}

// SoftwareResolver uses crypto/rand from the Go standard library.
type SoftwareResolver struct{}

var _ Resolver = (*SoftwareResolver)(nil)

func newSoftwareResolver() Resolver {
	return &SoftwareResolver{}
}

func (s *SoftwareResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	return buf, err
}

func (s *SoftwareResolver) Read(p []byte) (int, error) {
	return rand.Read(p)
}

func (s *SoftwareResolver) Name() string {
	return string(ModeSoftware)
}

func (s *SoftwareResolver) Available() bool {
	return true
}

func (s *SoftwareResolver) Close() error {
	return nil
}

// fallbackResolver retries reads on a secondary source.
type fallbackResolver struct {
	primary  Resolver
	fallback Resolver
}

var _ Resolver = (*fallbackResolver)(nil)

func (f *fallbackResolver) Rand(n int) ([]byte, error) {
	out, err := f.primary.Rand(n)
	if err != nil {
		return f.fallback.Rand(n)
	}
	return out, nil
}

func (f *fallbackResolver) Read(p []byte) (int, error) {
	return readVia(f, p)
}

func (f *fallbackResolver) Name() string {
	return f.primary.Name() + "+" + f.fallback.Name()
}

func (f *fallbackResolver) Available() bool {
	return f.primary.Available() || f.fallback.Available()
}

func (f *fallbackResolver) Close() error {
	err := f.primary.Close()
	if ferr := f.fallback.Close(); err == nil {
		err = ferr
	}
	return err
}

// readVia implements io.Reader on top of Rand for hardware sources.
func readVia(r Resolver, p []byte) (int, error) {
	data, err := r.Rand(len(p))
	if err != nil {
		return 0, err
	}
	if len(data) != len(p) {
		return 0, fmt.Errorf("RNG returned %d bytes, expected %d", len(data), len(p))
	}
	return copy(p, data), nil
}
