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

// Package sharing wraps the shamir scheme in a service that reports every
// outcome as a result envelope instead of an error or a panic.
//
// Envelopes serialize as
//
//	{"success": true,  "shares": ["..."]}
//	{"success": true,  "secret": "..."}
//	{"success": false, "error": "..."}
//
// which is the contract shared by the REST API and the CLI's JSON output.
package sharing

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/virgill-e/shamir-secret-sharing-app/pkg/logging"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/metrics"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/shamir"
)

// Error kinds reported by Kind.
const (
	KindInvalidParameter = "invalid_parameter"
	KindEncoding         = "encoding"
	KindShareParse       = "share_parse"
	KindFieldArithmetic  = "field_arithmetic"
	KindInternal         = "internal"
)

// ErrInternal marks failures that are not caused by the caller's input,
// including recovered panics and cancelled contexts.
var ErrInternal = errors.New("internal error")

// SplitResult is the outcome of Service.Split.
type SplitResult struct {
	Success bool     `json:"success"`
	Shares  []string `json:"shares,omitempty"`
	Error   string   `json:"error,omitempty"`

	err error
}

// Err returns the underlying error of a failed result, or nil.
func (r *SplitResult) Err() error {
	return r.err
}

// CombineResult is the outcome of Service.Combine.
type CombineResult struct {
	Success bool   `json:"success"`
	Secret  string `json:"secret,omitempty"`
	Error   string `json:"error,omitempty"`

	err error
}

// Err returns the underlying error of a failed result, or nil.
func (r *CombineResult) Err() error {
	return r.err
}

// Config configures a Service.
type Config struct {
	// Scheme performs the splits. Nil selects the default GF(2^8) scheme
	// backed by crypto/rand.
	Scheme *shamir.Scheme

	// Logger receives one record per call. Nil discards logs.
	Logger logging.ContextLogger

	// MaxSecretBytes rejects larger secrets. Zero means unlimited.
	MaxSecretBytes int
}

// Service splits and combines text secrets. It is safe for concurrent use.
type Service struct {
	scheme         *shamir.Scheme
	logger         logging.ContextLogger
	maxSecretBytes int
}

// NewService creates a Service. A nil config yields the defaults.
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.MaxSecretBytes < 0 {
		return nil, fmt.Errorf("%w: max secret bytes cannot be negative", shamir.ErrInvalidParameter)
	}

	scheme := cfg.Scheme
	if scheme == nil {
		var err error
		if scheme, err = shamir.NewScheme(nil); err != nil {
			return nil, err
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Service{
		scheme:         scheme,
		logger:         logger,
		maxSecretBytes: cfg.MaxSecretBytes,
	}, nil
}

// Bits returns the field width used for new splits.
func (s *Service) Bits() int {
	return s.scheme.Bits()
}

// Split divides secret into totalShares shares with the given threshold.
func (s *Service) Split(ctx context.Context, secret string, totalShares, threshold int) (result *SplitResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrInternal, r)
			result = &SplitResult{Error: err.Error(), err: err}
		}
		s.observe(ctx, metrics.OpSplit, start, result.err,
			logging.Int("secret_bytes", len(secret)),
			logging.Int("shares", totalShares),
			logging.Int("threshold", threshold),
		)
		if result.err == nil {
			metrics.RecordSecret(metrics.OpSplit, len(secret), totalShares)
		}
	}()

	if err := s.checkContext(ctx); err != nil {
		return &SplitResult{Error: err.Error(), err: err}
	}
	if s.maxSecretBytes > 0 && len(secret) > s.maxSecretBytes {
		err := fmt.Errorf("%w: secret is %d bytes, limit is %d",
			shamir.ErrInvalidParameter, len(secret), s.maxSecretBytes)
		return &SplitResult{Error: err.Error(), err: err}
	}

	shares, err := s.scheme.Split([]byte(secret), totalShares, threshold)
	if err != nil {
		return &SplitResult{Error: err.Error(), err: err}
	}
	return &SplitResult{Success: true, Shares: shares}
}

// Combine reconstructs a secret from shares. The recovered bytes must be
// valid UTF-8.
func (s *Service) Combine(ctx context.Context, shares []string) (result *CombineResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrInternal, r)
			result = &CombineResult{Error: err.Error(), err: err}
		}
		s.observe(ctx, metrics.OpCombine, start, result.err, logging.Int("shares", len(shares)))
		if result.err == nil {
			metrics.RecordSecret(metrics.OpCombine, len(result.Secret), len(shares))
		}
	}()

	if err := s.checkContext(ctx); err != nil {
		return &CombineResult{Error: err.Error(), err: err}
	}

	secret, err := s.scheme.Combine(shares)
	if err != nil {
		return &CombineResult{Error: err.Error(), err: err}
	}
	defer clear(secret)

	if !utf8.Valid(secret) {
		err := fmt.Errorf("%w: recovered secret is not valid UTF-8", shamir.ErrEncoding)
		return &CombineResult{Error: err.Error(), err: err}
	}
	return &CombineResult{Success: true, Secret: string(secret)}
}

func (s *Service) checkContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return nil
}

// observe logs and records the outcome of one operation. Only sizes and
// counts are logged, never secrets or shares.
func (s *Service) observe(ctx context.Context, op string, start time.Time, err error, fields ...logging.Field) {
	duration := time.Since(start)
	fields = append(fields,
		logging.String("operation", op),
		logging.Int("bits", s.scheme.Bits()),
		logging.Int64("duration_us", duration.Microseconds()),
	)

	if err == nil {
		metrics.RecordOperation(op, metrics.StatusSuccess, duration.Seconds())
		s.logger.InfoContext(ctx, op+" succeeded", fields...)
		return
	}

	kind := Kind(err)
	metrics.RecordOperation(op, metrics.StatusError, duration.Seconds())
	metrics.RecordError(op, kind)

	fields = append(fields, logging.String("kind", kind), logging.Error(err))
	if kind == KindInternal {
		s.logger.ErrorContext(ctx, op+" failed", fields...)
		return
	}
	s.logger.WarnContext(ctx, op+" failed", fields...)
}

// Kind returns the name of the error kind wrapped by err, KindInternal for
// errors outside the scheme's error kinds, and "" for nil.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, shamir.ErrInvalidParameter):
		return KindInvalidParameter
	case errors.Is(err, shamir.ErrEncoding):
		return KindEncoding
	case errors.Is(err, shamir.ErrShareParse):
		return KindShareParse
	case errors.Is(err, shamir.ErrFieldArithmetic):
		return KindFieldArithmetic
	default:
		return KindInternal
	}
}
