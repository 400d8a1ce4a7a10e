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

package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/virgill-e/shamir-secret-sharing-app/pkg/health"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/logging"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/sharing"
)

// HandlerContext holds the dependencies of the HTTP handlers.
type HandlerContext struct {
	service      *sharing.Service
	health       *health.Checker
	logger       logging.ContextLogger
	version      string
	maxBodyBytes int64
}

// NewHandlerContext creates the handler set.
func NewHandlerContext(service *sharing.Service, checker *health.Checker, log logging.ContextLogger, version string, maxBodyBytes int64) *HandlerContext {
	return &HandlerContext{
		service:      service,
		health:       checker,
		logger:       log,
		version:      version,
		maxBodyBytes: maxBodyBytes,
	}
}

// HealthHandler handles GET /health.
func (h *HandlerContext) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, HealthResponse{Status: "ok", Version: h.version}, http.StatusOK)
}

// LivenessHandler handles GET /health/live.
func (h *HandlerContext) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	result := h.health.Live(r.Context())
	writeJSON(w, h.logger, ProbeResponse{Status: result.Status}, http.StatusOK)
}

// ReadinessHandler handles GET /health/ready. It answers 503 unless every
// check is healthy or degraded.
func (h *HandlerContext) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	results := h.health.Ready(r.Context())
	status := health.AggregateStatus(results)

	code := http.StatusOK
	if status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, ProbeResponse{Status: status, Checks: results}, code)
}

// SplitHandler handles POST /api/v1/split.
func (h *HandlerContext) SplitHandler(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result := h.service.Split(r.Context(), req.Secret, req.Shares, req.Threshold)
	writeJSON(w, h.logger, result, mapErrorToStatusCode(result.Err()))
}

// CombineHandler handles POST /api/v1/combine.
func (h *HandlerContext) CombineHandler(w http.ResponseWriter, r *http.Request) {
	var req CombineRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result := h.service.Combine(r.Context(), req.Shares)
	writeJSON(w, h.logger, result, mapErrorToStatusCode(result.Err()))
}

// decode reads a single JSON object from the request body into dst.
func (h *HandlerContext) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer func() { _ = body.Close() }()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrRequestTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", ErrInvalidRequest)
	}
	return nil
}
