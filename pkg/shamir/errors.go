// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.

package shamir

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	// ErrInvalidParameter is returned when threshold, share count or field
	// width are out of bounds.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEncoding is returned when a secret cannot be converted to or from
	// field elements.
	ErrEncoding = errors.New("encoding error")

	// ErrShareParse is returned for malformed shares and for share sets
	// that cannot belong together.
	ErrShareParse = errors.New("share parse error")

	// ErrFieldArithmetic is returned on division by zero in the field.
	ErrFieldArithmetic = errors.New("field arithmetic error")
)

// Refinements of the kinds above.
var (
	ErrEmptySecret        = fmt.Errorf("%w: secret cannot be empty", ErrEncoding)
	ErrInconsistentShares = fmt.Errorf("%w: shares do not belong to the same split", ErrShareParse)
	ErrDuplicateShareID   = fmt.Errorf("%w: duplicate share id", ErrShareParse)
	ErrDivisionByZero     = fmt.Errorf("%w: division by zero", ErrFieldArithmetic)
)
