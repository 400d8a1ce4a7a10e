// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.

package shamir

import "fmt"

// EncodeBytes converts a secret into field elements of the field's width.
//
// The secret is viewed as a bit stream prefixed by a single 1 bit and
// left-padded with zeros to a multiple of the width:
//
//	0…0 | 1 | secret bits
//
// The marker keeps leading zero bytes of the secret intact through the
// round trip, and the padding is always shorter than one element.
func EncodeBytes(f *Field, secret []byte) ([]Element, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	bits := f.Bits()
	payload := 8*len(secret) + 1
	count := (payload + bits - 1) / bits
	pad := count*bits - payload

	chunks := make([]Element, count)
	pos := 0
	for i := range chunks {
		var v uint32
		for j := 0; j < bits; j++ {
			v = v<<1 | streamBit(secret, pad, pos)
			pos++
		}
		chunks[i] = Element(v)
	}
	return chunks, nil
}

// streamBit returns bit pos of the padded stream described in EncodeBytes.
func streamBit(secret []byte, pad, pos int) uint32 {
	switch {
	case pos < pad:
		return 0
	case pos == pad:
		return 1
	}
	q := pos - pad - 1
	return uint32(secret[q/8]>>(7-q%8)) & 1
}

// DecodeBytes reverses EncodeBytes. It fails with ErrEncoding when the
// elements do not carry a well-formed marker and byte-aligned payload,
// which is what a reconstruction from unrelated or too few shares
// usually produces.
func DecodeBytes(f *Field, chunks []Element) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrEncoding)
	}

	bits := f.Bits()
	total := len(chunks) * bits

	bitAt := func(pos int) byte {
		c := chunks[pos/bits]
		return byte(uint32(c)>>(bits-1-pos%bits)) & 1
	}

	marker := -1
	for pos := 0; pos < bits; pos++ {
		if bitAt(pos) == 1 {
			marker = pos
			break
		}
	}
	if marker < 0 {
		return nil, fmt.Errorf("%w: missing length marker", ErrEncoding)
	}

	remaining := total - marker - 1
	if remaining <= 0 || remaining%8 != 0 {
		return nil, fmt.Errorf("%w: payload of %d bits is not byte aligned", ErrEncoding, remaining)
	}

	out := make([]byte, remaining/8)
	for i := 0; i < remaining; i++ {
		out[i/8] = out[i/8]<<1 | bitAt(marker+1+i)
	}
	return out, nil
}
