// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.

package shamir

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ValidateParameters checks the share count and threshold bounds:
// 2 <= threshold <= totalShares <= 255.
func ValidateParameters(totalShares, threshold int) error {
	if totalShares < 2 || totalShares > MaxShares {
		return fmt.Errorf("%w: total shares must be in [2, %d], got %d",
			ErrInvalidParameter, MaxShares, totalShares)
	}
	if threshold < 2 {
		return fmt.Errorf("%w: threshold must be at least 2, got %d", ErrInvalidParameter, threshold)
	}
	if threshold > totalShares {
		return fmt.Errorf("%w: threshold (%d) cannot exceed total shares (%d)",
			ErrInvalidParameter, threshold, totalShares)
	}
	return nil
}

// Split divides secret into totalShares shares, any threshold of which
// reconstruct it. Every call draws fresh coefficients and a fresh split
// tag, so repeated calls on the same input yield unrelated share sets.
func (s *Scheme) Split(secret []byte, totalShares, threshold int) ([]string, error) {
	if err := ValidateParameters(totalShares, threshold); err != nil {
		return nil, err
	}

	chunks, err := EncodeBytes(s.field, secret)
	if err != nil {
		return nil, err
	}

	tag, err := s.newTag()
	if err != nil {
		return nil, err
	}

	shares := make([]*Share, totalShares)
	for i := range shares {
		shares[i] = &Share{
			ID:     i + 1,
			Bits:   s.field.Bits(),
			Tag:    tag,
			Values: make([]Element, len(chunks)),
		}
	}

	for c, chunk := range chunks {
		poly, err := NewPolynomial(s.field, chunk, threshold, s.random)
		if err != nil {
			return nil, err
		}
		for _, share := range shares {
			share.Values[c] = poly.Evaluate(s.field, Element(share.ID))
		}
		clear(poly)
	}

	out := make([]string, totalShares)
	for i, share := range shares {
		encoded, err := share.Encode()
		if err != nil {
			return nil, fmt.Errorf("failed to encode share %d: %w", share.ID, err)
		}
		out[i] = encoded
	}
	return out, nil
}

func (s *Scheme) newTag() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(s.random, buf[:]); err != nil {
		return 0, fmt.Errorf("failed to generate split tag: %w", err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
