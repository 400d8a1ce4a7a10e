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

package rand

import (
	"sync"
)

// autoResolver selects the best available RNG source.
// Preference order: PKCS#11 > TPM2 > Software
type autoResolver struct {
	resolver Resolver
	fallback Resolver
	mu       sync.RWMutex
}

var _ Resolver = (*autoResolver)(nil)

func newAutoResolver(cfg *Config) (Resolver, error) {
	var resolver Resolver

	// PKCS#11 needs an explicit module path
	if pkcs11Available() && cfg.PKCS11Config != nil {
		if r, err := newPKCS11Resolver(cfg.PKCS11Config); err == nil {
			if r.Available() {
				resolver = r
			} else {
				_ = r.Close()
			}
		}
	}

	if resolver == nil && tpm2Available() {
		if r, err := newTPM2Resolver(cfg.TPM2Config); err == nil {
			if r.Available() {
				resolver = r
			} else {
				_ = r.Close()
			}
		}
	}

	if resolver == nil {
		resolver = newSoftwareResolver()
	}

	var fallback Resolver
	if cfg.FallbackMode != "" && cfg.FallbackMode != ModeAuto {
		fallback, _ = newResolver(cfg.FallbackMode, cfg)
	}

	return &autoResolver{
		resolver: resolver,
		fallback: fallback,
	}, nil
}

func (a *autoResolver) Rand(n int) ([]byte, error) {
	a.mu.RLock()
	resolver := a.resolver
	fallback := a.fallback
	a.mu.RUnlock()

	result, err := resolver.Rand(n)
	if err != nil && fallback != nil {
		result, err = fallback.Rand(n)
	}
	return result, err
}

func (a *autoResolver) Read(p []byte) (int, error) {
	return readVia(a, p)
}

func (a *autoResolver) Name() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resolver.Name()
}

func (a *autoResolver) Available() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resolver.Available() || (a.fallback != nil && a.fallback.Available())
}

func (a *autoResolver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.resolver != nil {
		_ = a.resolver.Close()
	}
	if a.fallback != nil {
		_ = a.fallback.Close()
	}
	return nil
}
