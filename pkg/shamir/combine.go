// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.

package shamir

import "fmt"

// Combine reconstructs the secret from a set of shares using Lagrange
// interpolation at x=0. The field width is taken from the shares, so the
// scheme's own width does not matter here.
//
// The shares must come from the same split (equal width, tag and chunk
// count) and carry distinct ids. Combining fewer shares than the split's
// threshold cannot be detected from the shares themselves: the result is
// either an ErrEncoding failure or bytes that differ from the secret.
func (s *Scheme) Combine(shares []string) ([]byte, error) {
	parsed, err := ParseShares(shares)
	if err != nil {
		return nil, err
	}

	first := parsed[0]
	f, err := FieldFor(first.Bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShareParse, err)
	}

	xs := make([]Element, len(parsed))
	ys := make([]Element, len(parsed))
	for i, share := range parsed {
		xs[i] = Element(share.ID)
	}

	chunks := make([]Element, len(first.Values))
	for c := range chunks {
		for i, share := range parsed {
			ys[i] = share.Values[c]
		}
		v, err := Interpolate(f, xs, ys)
		if err != nil {
			return nil, err
		}
		chunks[c] = v
	}

	secret, err := DecodeBytes(f, chunks)
	clear(chunks)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// ParseShares parses a share set and checks that its members belong
// together. It is the validation half of Combine.
func ParseShares(shares []string) ([]*Share, error) {
	if len(shares) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 shares, got %d", ErrShareParse, len(shares))
	}

	parsed := make([]*Share, len(shares))
	seen := make(map[int]int, len(shares))
	for i, raw := range shares {
		share, err := ParseShare(raw)
		if err != nil {
			return nil, fmt.Errorf("share %d: %w", i, err)
		}

		if i > 0 {
			first := parsed[0]
			switch {
			case share.Bits != first.Bits:
				return nil, fmt.Errorf("%w: share %d uses %d bits, share 0 uses %d",
					ErrInconsistentShares, i, share.Bits, first.Bits)
			case share.Tag != first.Tag:
				return nil, fmt.Errorf("%w: share %d has tag %08x, share 0 has %08x",
					ErrInconsistentShares, i, share.Tag, first.Tag)
			case len(share.Values) != len(first.Values):
				return nil, fmt.Errorf("%w: share %d has %d chunks, share 0 has %d",
					ErrInconsistentShares, i, len(share.Values), len(first.Values))
			}
		}

		if prev, ok := seen[share.ID]; ok {
			return nil, fmt.Errorf("%w: shares %d and %d both have id %d",
				ErrDuplicateShareID, prev, i, share.ID)
		}
		seen[share.ID] = i
		parsed[i] = share
	}
	return parsed, nil
}
