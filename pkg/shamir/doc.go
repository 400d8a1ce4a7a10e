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

// Package shamir implements Shamir's Secret Sharing over binary extension
// fields GF(2^bits).
//
// A secret is divided into N shares such that any T of them reconstruct it
// exactly and any T-1 of them reveal nothing about it. The package is
// self-contained and stateless: Split and Combine are pure functions of
// their inputs apart from the randomness consumed while splitting.
//
// # Mathematical Foundation
//
// The secret is encoded as a sequence of field elements (chunks). For each
// chunk a random polynomial of degree T-1 is generated with the chunk as
// its constant term:
//
//	p(x) = a0 + a1*x + a2*x^2 + ... + a(T-1)*x^(T-1)
//
// Share i holds p(i) for every chunk. Any T shares determine p, and
// Lagrange interpolation at x=0 recovers a0. Ids start at 1; x=0 is never
// used as an evaluation point because p(0) is the chunk itself.
//
// Field addition is XOR. Multiplication and inversion use logarithm and
// exponent tables built once per width from generator 2 and a fixed
// primitive polynomial. Supported widths are 8 to 20 bits; 8 is the default.
//
// # Share Format
//
// Shares are lowercase text:
//
//	8 01 1c9a04f2 01d3...  5be01a2c
//	| |  |        |        checksum (first 4 bytes of SHA-256)
//	| |  |        per-chunk values, ceil(bits/4) hex digits each
//	| |  split tag, shared by every share of one split
//	| share id, 1-255
//	field width in base 36
//
// (spaces added for readability). The tag lets Combine reject shares that
// come from different splits instead of silently producing garbage.
//
// # Usage Example
//
//	shares, err := shamir.SplitString("hello", 5, 3)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Later, with any 3 of the 5 shares:
//	secret, err := shamir.CombineString([]string{shares[0], shares[2], shares[4]})
//
// A Scheme configures the field width and the random source:
//
//	scheme, err := shamir.NewScheme(&shamir.Config{
//	    Bits:   16,
//	    Random: resolver, // any io.Reader backed by a secure RNG
//	})
//
// # Errors
//
// Every error wraps one of ErrInvalidParameter, ErrEncoding, ErrShareParse
// or ErrFieldArithmetic and can be tested with errors.Is.
//
// # Limitations
//
// Shares carry no threshold. Combining fewer shares than were required at
// split time produces either ErrEncoding or a value that is not the secret;
// it is impossible to tell which from the shares alone. Arithmetic is not
// constant time.
package shamir
