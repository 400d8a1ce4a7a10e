// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.

package shamir

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldFor_SupportedWidths(t *testing.T) {
	for bits := MinBits; bits <= MaxBits; bits++ {
		f, err := FieldFor(bits)
		require.NoError(t, err, "bits=%d", bits)
		assert.Equal(t, bits, f.Bits())
		assert.Equal(t, uint32(1)<<bits, f.Size())
	}
}

func TestFieldFor_UnsupportedWidths(t *testing.T) {
	for _, bits := range []int{-1, 0, 1, 7, 21, 32} {
		_, err := FieldFor(bits)
		assert.True(t, errors.Is(err, ErrInvalidParameter), "bits=%d", bits)
	}
}

func TestFieldFor_SharedInstance(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]*Field, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := FieldFor(12)
			assert.NoError(t, err)
			results[i] = f
		}(i)
	}
	wg.Wait()

	for _, f := range results {
		assert.Same(t, results[0], f)
	}
}

func TestField_KnownProducts(t *testing.T) {
	f, err := FieldFor(8)
	require.NoError(t, err)

	// x^8 reduces to x^4 + x^3 + x^2 + 1 (0x1d)
	assert.Equal(t, Element(0x1d), f.Mul(0x80, 0x02))
	assert.Equal(t, Element(0x06), f.Mul(0x03, 0x02))
	assert.Equal(t, Element(0x05), f.Mul(0x03, 0x03))
	assert.Equal(t, Element(0), f.Mul(0x57, 0))
	assert.Equal(t, Element(0), f.Mul(0, 0x57))
	assert.Equal(t, Element(0x57), f.Mul(0x57, 1))
}

func TestField_AddIsXor(t *testing.T) {
	f, err := FieldFor(16)
	require.NoError(t, err)

	assert.Equal(t, Element(0x1234^0xffff), f.Add(0x1234, 0xffff))
	assert.Equal(t, Element(0), f.Add(0xbeef, 0xbeef))
}

func TestField_Axioms(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, bits := range []int{8, 13, 16, 20} {
		f, err := FieldFor(bits)
		require.NoError(t, err)

		elem := func() Element { return Element(rng.Uint32N(f.Size())) }
		nonzero := func() Element { return Element(1 + rng.Uint32N(f.Size()-1)) }

		for i := 0; i < 500; i++ {
			a, b, c := elem(), elem(), elem()
			n := nonzero()

			inv, err := f.Inverse(n)
			require.NoError(t, err)
			assert.Equal(t, Element(1), f.Mul(n, inv), "bits=%d a=%d", bits, n)

			assert.Equal(t, f.Mul(a, b), f.Mul(b, a))
			assert.Equal(t, f.Mul(f.Mul(a, b), c), f.Mul(a, f.Mul(b, c)))
			assert.Equal(t, f.Mul(a, f.Add(b, c)), f.Add(f.Mul(a, b), f.Mul(a, c)))

			q, err := f.Div(a, n)
			require.NoError(t, err)
			assert.Equal(t, a, f.Mul(q, n))
		}
	}
}

func TestField_InverseOfZero(t *testing.T) {
	f, err := FieldFor(8)
	require.NoError(t, err)

	_, err = f.Inverse(0)
	assert.ErrorIs(t, err, ErrFieldArithmetic)

	_, err = f.Div(5, 0)
	assert.ErrorIs(t, err, ErrFieldArithmetic)

	q, err := f.Div(0, 5)
	require.NoError(t, err)
	assert.Equal(t, Element(0), q)
}

func TestField_EveryNonzeroElementInvertible(t *testing.T) {
	f, err := FieldFor(8)
	require.NoError(t, err)

	seen := make(map[Element]bool)
	for a := Element(1); a < 256; a++ {
		inv, err := f.Inverse(a)
		require.NoError(t, err)
		assert.Equal(t, Element(1), f.Mul(a, inv))
		seen[inv] = true
	}
	assert.Len(t, seen, 255)
}
