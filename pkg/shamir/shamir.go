// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.

package shamir

import (
	"crypto/rand"
	"io"
)

// Config configures a Scheme.
type Config struct {
	// Bits is the field width, MinBits to MaxBits. Zero selects DefaultBits.
	Bits int

	// Random supplies polynomial coefficients and split tags. Nil selects
	// crypto/rand.Reader. Any replacement must be cryptographically secure
	// outside of tests.
	Random io.Reader
}

// Scheme splits and combines secrets. It holds no mutable state and is
// safe for concurrent use as long as its random source is.
type Scheme struct {
	field  *Field
	random io.Reader
}

// defaultScheme backs the package-level helpers: GF(2^8) and crypto/rand.
var defaultScheme = func() *Scheme {
	s, err := NewScheme(nil)
	if err != nil {
		panic(err)
	}
	return s
}()

// NewScheme creates a Scheme from cfg. A nil cfg yields the defaults.
func NewScheme(cfg *Config) (*Scheme, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	bits := cfg.Bits
	if bits == 0 {
		bits = DefaultBits
	}
	f, err := FieldFor(bits)
	if err != nil {
		return nil, err
	}

	random := cfg.Random
	if random == nil {
		random = rand.Reader
	}

	return &Scheme{
		field:  f,
		random: random,
	}, nil
}

// Bits returns the field width used for new splits.
func (s *Scheme) Bits() int {
	return s.field.Bits()
}

// Split divides secret into totalShares shares over GF(2^8) using
// crypto/rand.
func Split(secret []byte, totalShares, threshold int) ([]string, error) {
	return defaultScheme.Split(secret, totalShares, threshold)
}

// SplitString is Split for text secrets.
func SplitString(secret string, totalShares, threshold int) ([]string, error) {
	return defaultScheme.Split([]byte(secret), totalShares, threshold)
}

// Combine reconstructs a secret from shares produced by any Scheme.
func Combine(shares []string) ([]byte, error) {
	return defaultScheme.Combine(shares)
}

// CombineString is Combine for text secrets.
func CombineString(shares []string) (string, error) {
	secret, err := defaultScheme.Combine(shares)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
