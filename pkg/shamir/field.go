// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.

package shamir

import (
	"fmt"
	"sync"
)

// Supported field widths. The lower bound keeps every share id in
// [1, 255] a valid nonzero field element.
const (
	MinBits     = 8
	MaxBits     = 20
	DefaultBits = 8
)

// primitivePolynomials holds the low-order terms of a primitive polynomial
// for each width; the x^bits term is implied. With these polynomials the
// element 2 generates the multiplicative group.
var primitivePolynomials = map[int]uint32{
	8:  29,
	9:  17,
	10: 9,
	11: 5,
	12: 83,
	13: 27,
	14: 43,
	15: 3,
	16: 45,
	17: 9,
	18: 39,
	19: 39,
	20: 9,
}

// Element is a member of GF(2^bits), stored in the low bits of a uint32.
type Element uint32

// Field implements arithmetic in GF(2^bits) using precomputed
// logarithm and exponent tables. A Field is read-only once built and is
// safe for concurrent use.
type Field struct {
	bits  int
	order uint32 // 2^bits - 1, size of the multiplicative group
	exp   []uint32
	log   []uint32
}

// lazyField defers table construction until a width is first used.
type lazyField struct {
	once  sync.Once
	field *Field
}

// fieldCache is populated at init and never modified afterwards, so
// concurrent lookups need no lock.
var fieldCache = func() map[int]*lazyField {
	m := make(map[int]*lazyField, len(primitivePolynomials))
	for bits := range primitivePolynomials {
		m[bits] = &lazyField{}
	}
	return m
}()

// FieldFor returns the shared field for the given width, building its
// tables on first use.
func FieldFor(bits int) (*Field, error) {
	lf, ok := fieldCache[bits]
	if !ok {
		return nil, fmt.Errorf("%w: bits must be in [%d, %d], got %d",
			ErrInvalidParameter, MinBits, MaxBits, bits)
	}
	lf.once.Do(func() {
		lf.field = newField(bits, primitivePolynomials[bits])
	})
	return lf.field, nil
}

func newField(bits int, poly uint32) *Field {
	size := uint32(1) << bits
	order := size - 1
	f := &Field{
		bits:  bits,
		order: order,
		exp:   make([]uint32, 2*order),
		log:   make([]uint32, size),
	}

	x := uint32(1)
	for i := uint32(0); i < order; i++ {
		if i > 0 && x == 1 {
			panic(fmt.Sprintf("shamir: polynomial %#x is not primitive for GF(2^%d)", poly, bits))
		}
		f.exp[i] = x
		f.log[x] = i

		x <<= 1
		if x&size != 0 {
			x ^= size | poly
		}
	}
	// Second copy lets Mul index log(a)+log(b) without a modulo.
	copy(f.exp[order:], f.exp[:order])
	return f
}

// Bits returns the field width.
func (f *Field) Bits() int {
	return f.bits
}

// Size returns the number of elements, 2^bits.
func (f *Field) Size() uint32 {
	return f.order + 1
}

// Contains reports whether v is a valid element of the field.
func (f *Field) Contains(v uint32) bool {
	return v <= f.order
}

// Add returns a + b. In characteristic 2 this is also subtraction.
func (f *Field) Add(a, b Element) Element {
	return a ^ b
}

// Mul returns a * b.
func (f *Field) Mul(a, b Element) Element {
	if a == 0 || b == 0 {
		return 0
	}
	return Element(f.exp[f.log[a]+f.log[b]])
}

// Inverse returns the multiplicative inverse of a.
func (f *Field) Inverse(a Element) (Element, error) {
	if a == 0 {
		return 0, ErrDivisionByZero
	}
	return Element(f.exp[f.order-f.log[a]]), nil
}

// Div returns a / b.
func (f *Field) Div(a, b Element) (Element, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	if a == 0 {
		return 0, nil
	}
	return Element(f.exp[f.log[a]+f.order-f.log[b]]), nil
}
