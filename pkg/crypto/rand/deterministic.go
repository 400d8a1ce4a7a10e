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
	"crypto/sha256"
	"sync"

	"golang.org/x/crypto/chacha20"
)

// DeterministicResolver produces a ChaCha20 keystream derived from a seed.
// The same seed always yields the same byte sequence.
//
// Never use it to split real secrets: anyone who knows the seed can
// recompute every coefficient.
type DeterministicResolver struct {
	mu     sync.Mutex
	cipher *chacha20.Cipher
}

var _ Resolver = (*DeterministicResolver)(nil)

// NewDeterministic returns a reproducible resolver keyed by SHA-256(seed).
func NewDeterministic(seed []byte) *DeterministicResolver {
	key := sha256.Sum256(seed)
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		// key and nonce sizes are fixed above
		panic(err)
	}
	return &DeterministicResolver{cipher: c}
}

func (d *DeterministicResolver) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(p)
	d.cipher.XORKeyStream(p, p)
	return len(p), nil
}

func (d *DeterministicResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := d.Read(buf)
	return buf, err
}

func (d *DeterministicResolver) Name() string {
	return "deterministic"
}

func (d *DeterministicResolver) Available() bool {
	return true
}

func (d *DeterministicResolver) Close() error {
	return nil
}
