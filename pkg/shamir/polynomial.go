// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.

package shamir

import (
	"fmt"
	"io"
)

// Polynomial holds coefficients in ascending order of degree. Index 0 is
// the shared chunk.
type Polynomial []Element

// NewPolynomial builds a polynomial of degree threshold-1 whose constant
// term is secret. The remaining coefficients are drawn uniformly from the
// field using r, which must be a cryptographically secure source outside
// of tests.
func NewPolynomial(f *Field, secret Element, threshold int, r io.Reader) (Polynomial, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("%w: threshold must be at least 1, got %d", ErrInvalidParameter, threshold)
	}
	if !f.Contains(uint32(secret)) {
		return nil, fmt.Errorf("%w: chunk %d does not fit in %d bits", ErrInvalidParameter, secret, f.Bits())
	}

	p := make(Polynomial, threshold)
	p[0] = secret
	if threshold == 1 {
		return p, nil
	}
	if err := randomElements(f, r, p[1:]); err != nil {
		return nil, err
	}
	return p, nil
}

// randomElements fills dst with uniformly distributed field elements.
// The field size is a power of two, so masking random bytes is unbiased.
func randomElements(f *Field, r io.Reader, dst []Element) error {
	width := (f.Bits() + 7) / 8
	buf := make([]byte, width*len(dst))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("failed to generate random coefficients: %w", err)
	}

	mask := f.Size() - 1
	for i := range dst {
		var v uint32
		for _, b := range buf[i*width : (i+1)*width] {
			v = v<<8 | uint32(b)
		}
		dst[i] = Element(v & mask)
	}
	clear(buf)
	return nil
}

// Evaluate returns p(x) using Horner's rule.
func (p Polynomial) Evaluate(f *Field, x Element) Element {
	if len(p) == 0 {
		return 0
	}
	result := p[len(p)-1]
	for i := len(p) - 2; i >= 0; i-- {
		result = f.Add(f.Mul(result, x), p[i])
	}
	return result
}

// Interpolate returns the value at x=0 of the unique polynomial of degree
// len(xs)-1 passing through the points (xs[i], ys[i]).
//
// The basis coefficient for point i is
//
//	Π_{j≠i} (0 - x_j) / (x_i - x_j)
//
// which in characteristic 2 is Π x_j / (x_i ⊕ x_j). Two equal x values make
// the denominator zero and return ErrFieldArithmetic.
func Interpolate(f *Field, xs, ys []Element) (Element, error) {
	if len(xs) == 0 {
		return 0, fmt.Errorf("%w: no points to interpolate", ErrInvalidParameter)
	}
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("%w: %d x values but %d y values", ErrInvalidParameter, len(xs), len(ys))
	}

	var result Element
	for i, xi := range xs {
		numerator, denominator := Element(1), Element(1)
		for j, xj := range xs {
			if i == j {
				continue
			}
			numerator = f.Mul(numerator, xj)
			denominator = f.Mul(denominator, f.Add(xi, xj))
		}
		basis, err := f.Div(numerator, denominator)
		if err != nil {
			return 0, fmt.Errorf("points %d share x=%d: %w", i, xi, err)
		}
		result = f.Add(result, f.Mul(ys[i], basis))
	}
	return result, nil
}
