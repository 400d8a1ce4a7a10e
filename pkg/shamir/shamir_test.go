// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.

package shamir_test

import (
	"bytes"
	"errors"
	mrand "math/rand/v2"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rng "github.com/virgill-e/shamir-secret-sharing-app/pkg/crypto/rand"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/shamir"
)

// subsets returns every k-element subset of shares, preserving order.
func subsets(shares []string, k int) [][]string {
	var out [][]string
	var walk func(start int, acc []string)
	walk = func(start int, acc []string) {
		if len(acc) == k {
			out = append(out, append([]string(nil), acc...))
			return
		}
		for i := start; i < len(shares); i++ {
			walk(i+1, append(acc, shares[i]))
		}
	}
	walk(0, nil)
	return out
}

func TestSplitCombine_EveryThresholdSubset(t *testing.T) {
	shares, err := shamir.SplitString("hello", 5, 3)
	require.NoError(t, err)
	require.Len(t, shares, 5)

	for _, set := range subsets(shares, 3) {
		secret, err := shamir.CombineString(set)
		require.NoError(t, err)
		assert.Equal(t, "hello", secret)
	}

	for _, set := range subsets(shares, 4) {
		secret, err := shamir.CombineString(set)
		require.NoError(t, err)
		assert.Equal(t, "hello", secret)
	}

	secret, err := shamir.CombineString(shares)
	require.NoError(t, err)
	assert.Equal(t, "hello", secret)
}

func TestSplitCombine_BelowThreshold(t *testing.T) {
	shares, err := shamir.SplitString("hello", 5, 3)
	require.NoError(t, err)

	for _, set := range subsets(shares, 2) {
		secret, err := shamir.CombineString(set)
		assert.True(t, err != nil || secret != "hello", "two shares recovered the secret")
		if err != nil {
			assert.ErrorIs(t, err, shamir.ErrEncoding)
		}
	}
}

func TestSplitCombine_ShareOrderIrrelevant(t *testing.T) {
	shares, err := shamir.SplitString("order", 4, 3)
	require.NoError(t, err)

	secret, err := shamir.CombineString([]string{shares[3], shares[0], shares[2]})
	require.NoError(t, err)
	assert.Equal(t, "order", secret)
}

func TestSplit_Boundaries(t *testing.T) {
	t.Run("two of two", func(t *testing.T) {
		shares, err := shamir.SplitString("x", 2, 2)
		require.NoError(t, err)
		secret, err := shamir.CombineString(shares)
		require.NoError(t, err)
		assert.Equal(t, "x", secret)
	})

	t.Run("255 of 255", func(t *testing.T) {
		shares, err := shamir.SplitString("max", 255, 255)
		require.NoError(t, err)
		require.Len(t, shares, 255)
		secret, err := shamir.CombineString(shares)
		require.NoError(t, err)
		assert.Equal(t, "max", secret)
	})

	t.Run("threshold two of many", func(t *testing.T) {
		shares, err := shamir.SplitString("pair", 255, 2)
		require.NoError(t, err)
		secret, err := shamir.CombineString([]string{shares[254], shares[100]})
		require.NoError(t, err)
		assert.Equal(t, "pair", secret)
	})
}

func TestSplit_InvalidParameters(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		threshold int
	}{
		{"one share", 1, 2},
		{"threshold one", 5, 1},
		{"threshold zero", 5, 0},
		{"negative threshold", 5, -1},
		{"threshold above total", 3, 4},
		{"too many shares", 256, 3},
		{"zero shares", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := shamir.SplitString("secret", tt.total, tt.threshold)
			assert.ErrorIs(t, err, shamir.ErrInvalidParameter)
		})
	}
}

func TestSplit_EmptySecret(t *testing.T) {
	_, err := shamir.SplitString("", 3, 2)
	assert.ErrorIs(t, err, shamir.ErrEmptySecret)
	assert.ErrorIs(t, err, shamir.ErrEncoding)
}

func TestSplit_NonDeterministic(t *testing.T) {
	a, err := shamir.SplitString("same", 3, 2)
	require.NoError(t, err)
	b, err := shamir.SplitString("same", 3, 2)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSplit_ShareShape(t *testing.T) {
	shares, err := shamir.SplitString("shape", 6, 4)
	require.NoError(t, err)

	var tag uint32
	for i, raw := range shares {
		s, err := shamir.ParseShare(raw)
		require.NoError(t, err)
		assert.Equal(t, i+1, s.ID)
		assert.Equal(t, shamir.DefaultBits, s.Bits)
		assert.Len(t, s.Values, len("shape")+1)
		if i == 0 {
			tag = s.Tag
		}
		assert.Equal(t, tag, s.Tag)
	}
}

func TestCombine_TooFewShares(t *testing.T) {
	shares, err := shamir.SplitString("solo", 3, 2)
	require.NoError(t, err)

	_, err = shamir.CombineString(shares[:1])
	assert.ErrorIs(t, err, shamir.ErrShareParse)

	_, err = shamir.CombineString(nil)
	assert.ErrorIs(t, err, shamir.ErrShareParse)
}

func TestCombine_DuplicateShare(t *testing.T) {
	shares, err := shamir.SplitString("dup", 3, 2)
	require.NoError(t, err)

	_, err = shamir.CombineString([]string{shares[1], shares[1]})
	assert.ErrorIs(t, err, shamir.ErrDuplicateShareID)
	assert.ErrorIs(t, err, shamir.ErrShareParse)
}

func TestCombine_SharesFromDifferentSplits(t *testing.T) {
	a, err := shamir.SplitString("alpha", 3, 2)
	require.NoError(t, err)
	b, err := shamir.SplitString("alpha", 3, 2)
	require.NoError(t, err)

	_, err = shamir.CombineString([]string{a[0], b[1]})
	assert.ErrorIs(t, err, shamir.ErrInconsistentShares)

	wide, err := shamir.NewScheme(&shamir.Config{Bits: 16})
	require.NoError(t, err)
	c, err := wide.Split([]byte("alpha"), 3, 2)
	require.NoError(t, err)

	_, err = shamir.CombineString([]string{a[0], c[1]})
	assert.ErrorIs(t, err, shamir.ErrInconsistentShares)

	longer, err := shamir.SplitString("alphabet", 3, 2)
	require.NoError(t, err)
	_, err = shamir.CombineString([]string{a[0], longer[1]})
	assert.ErrorIs(t, err, shamir.ErrShareParse)
}

func TestCombine_MalformedShare(t *testing.T) {
	shares, err := shamir.SplitString("bad", 3, 2)
	require.NoError(t, err)

	_, err = shamir.CombineString([]string{shares[0], "not-a-share"})
	assert.ErrorIs(t, err, shamir.ErrShareParse)
	assert.Contains(t, err.Error(), "share 1")
}

func TestScheme_InvalidBits(t *testing.T) {
	for _, bits := range []int{-8, 7, 21} {
		_, err := shamir.NewScheme(&shamir.Config{Bits: bits})
		assert.ErrorIs(t, err, shamir.ErrInvalidParameter, "bits=%d", bits)
	}

	s, err := shamir.NewScheme(&shamir.Config{})
	require.NoError(t, err)
	assert.Equal(t, shamir.DefaultBits, s.Bits())
}

func TestScheme_AllWidths(t *testing.T) {
	secret := []byte{0x00, 0x01, 0xfe, 0xff, 0x00}

	for bits := shamir.MinBits; bits <= shamir.MaxBits; bits++ {
		s, err := shamir.NewScheme(&shamir.Config{Bits: bits})
		require.NoError(t, err)

		shares, err := s.Split(secret, 5, 3)
		require.NoError(t, err, "bits=%d", bits)

		// Combine reads the width from the shares.
		got, err := shamir.Combine(shares[2:])
		require.NoError(t, err, "bits=%d", bits)
		assert.Equal(t, secret, got, "bits=%d", bits)
	}
}

func TestScheme_DeterministicSource(t *testing.T) {
	split := func() []string {
		s, err := shamir.NewScheme(&shamir.Config{Random: rng.NewDeterministic([]byte("vector"))})
		require.NoError(t, err)
		shares, err := s.Split([]byte("reproducible"), 4, 2)
		require.NoError(t, err)
		return shares
	}

	first, second := split(), split()
	assert.Equal(t, first, second)

	secret, err := shamir.CombineString(first[1:3])
	require.NoError(t, err)
	assert.Equal(t, "reproducible", secret)
}

func TestScheme_RandomSourceFailure(t *testing.T) {
	boom := errors.New("entropy exhausted")
	s, err := shamir.NewScheme(&shamir.Config{Random: iotest.ErrReader(boom)})
	require.NoError(t, err)

	_, err = s.Split([]byte("secret"), 3, 2)
	assert.ErrorIs(t, err, boom)

	// Enough bytes for the tag but not for the coefficients.
	s, err = shamir.NewScheme(&shamir.Config{Random: bytes.NewReader([]byte{1, 2, 3, 4})})
	require.NoError(t, err)
	_, err = s.Split([]byte("secret"), 3, 2)
	assert.Error(t, err)
}

func TestScheme_ConcurrentUse(t *testing.T) {
	s, err := shamir.NewScheme(&shamir.Config{Bits: 10})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			secret := []byte{byte(i), 'c', 'o', 'n', 'c'}
			shares, err := s.Split(secret, 4, 3)
			if !assert.NoError(t, err) {
				return
			}
			got, err := s.Combine(shares[1:])
			assert.NoError(t, err)
			assert.Equal(t, secret, got)
		}(i)
	}
	wg.Wait()
}

func TestSplitCombine_RandomizedRoundTrip(t *testing.T) {
	r := mrand.New(mrand.NewPCG(7, 11))

	for iter := 0; iter < 100; iter++ {
		bits := shamir.MinBits + r.IntN(shamir.MaxBits-shamir.MinBits+1)
		total := 2 + r.IntN(19)
		threshold := 2 + r.IntN(total-1)

		secret := make([]byte, 1+r.IntN(64))
		for i := range secret {
			secret[i] = byte(r.Uint32())
		}

		s, err := shamir.NewScheme(&shamir.Config{Bits: bits})
		require.NoError(t, err)
		shares, err := s.Split(secret, total, threshold)
		require.NoError(t, err)

		picked := make([]string, 0, threshold)
		for _, i := range r.Perm(total)[:threshold] {
			picked = append(picked, shares[i])
		}

		got, err := shamir.Combine(picked)
		require.NoError(t, err, "bits=%d n=%d t=%d", bits, total, threshold)
		assert.Equal(t, secret, got)
	}
}
