// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.

package shamir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// MaxShares is the largest share id and therefore the largest number of
// shares a single split can produce.
const MaxShares = 255

// Share string layout, all lowercase:
//
//	bits (1 base36 char) | id (2 hex) | tag (8 hex) | values | checksum (8 hex)
//
// Each value occupies ceil(bits/4) hex digits. The checksum is the first
// four bytes of SHA-256 over everything before it.
const (
	bitsLen     = 1
	idLen       = 2
	tagLen      = 8
	checksumLen = 8
	headerLen   = bitsLen + idLen + tagLen
)

// Share is the decoded form of one share string.
type Share struct {
	// ID is the evaluation point, 1 to 255.
	ID int

	// Bits is the field width used by the split.
	Bits int

	// Tag identifies the split that produced the share. All shares of one
	// split carry the same tag.
	Tag uint32

	// Values holds one field element per chunk of the secret.
	Values []Element
}

// valueDigits returns the number of hex digits used per value.
func valueDigits(bits int) int {
	return (bits + 3) / 4
}

// Encode serializes the share into its canonical string form.
func (s *Share) Encode() (string, error) {
	f, err := FieldFor(s.Bits)
	if err != nil {
		return "", err
	}
	if s.ID < 1 || s.ID > MaxShares {
		return "", fmt.Errorf("%w: share id must be in [1, %d], got %d", ErrInvalidParameter, MaxShares, s.ID)
	}
	if len(s.Values) == 0 {
		return "", fmt.Errorf("%w: share has no values", ErrInvalidParameter)
	}

	digits := valueDigits(s.Bits)
	var b strings.Builder
	b.Grow(headerLen + digits*len(s.Values) + checksumLen)

	b.WriteString(strconv.FormatInt(int64(s.Bits), 36))
	fmt.Fprintf(&b, "%02x%08x", s.ID, s.Tag)
	for i, v := range s.Values {
		if !f.Contains(uint32(v)) {
			return "", fmt.Errorf("%w: value %d at chunk %d does not fit in %d bits",
				ErrInvalidParameter, v, i, s.Bits)
		}
		fmt.Fprintf(&b, "%0*x", digits, uint32(v))
	}
	b.WriteString(checksum(b.String()))
	return b.String(), nil
}

// String returns the canonical encoding, or an empty string when the share
// is not encodable.
func (s *Share) String() string {
	out, err := s.Encode()
	if err != nil {
		return ""
	}
	return out
}

// ParseShare decodes a share string produced by Encode. Surrounding
// whitespace is ignored and hex digits are accepted in either case.
func ParseShare(raw string) (*Share, error) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if len(text) < headerLen+checksumLen+1 {
		return nil, fmt.Errorf("%w: share too short (%d characters)", ErrShareParse, len(text))
	}

	body, sum := text[:len(text)-checksumLen], text[len(text)-checksumLen:]
	if checksum(body) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrShareParse)
	}

	bits64, err := strconv.ParseInt(body[:bitsLen], 36, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid bits character %q", ErrShareParse, body[:bitsLen])
	}
	bits := int(bits64)
	f, err := FieldFor(bits)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported bit width %d", ErrShareParse, bits)
	}

	id, err := strconv.ParseUint(body[bitsLen:bitsLen+idLen], 16, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid share id: %v", ErrShareParse, err)
	}
	if id == 0 {
		return nil, fmt.Errorf("%w: share id 0 is reserved", ErrShareParse)
	}

	tag, err := strconv.ParseUint(body[bitsLen+idLen:headerLen], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tag: %v", ErrShareParse, err)
	}

	payload := body[headerLen:]
	digits := valueDigits(bits)
	if len(payload) == 0 || len(payload)%digits != 0 {
		return nil, fmt.Errorf("%w: payload length %d is not a multiple of %d",
			ErrShareParse, len(payload), digits)
	}

	values := make([]Element, len(payload)/digits)
	for i := range values {
		v, err := strconv.ParseUint(payload[i*digits:(i+1)*digits], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid value at chunk %d: %v", ErrShareParse, i, err)
		}
		if !f.Contains(uint32(v)) {
			return nil, fmt.Errorf("%w: value at chunk %d exceeds %d bits", ErrShareParse, i, bits)
		}
		values[i] = Element(v)
	}

	return &Share{
		ID:     int(id),
		Bits:   bits,
		Tag:    uint32(tag),
		Values: values,
	}, nil
}

func checksum(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:checksumLen/2])
}
