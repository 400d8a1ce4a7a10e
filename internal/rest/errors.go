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
	"net/http"

	"github.com/virgill-e/shamir-secret-sharing-app/pkg/logging"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/sharing"
)

// Request errors. They are reported in the envelope's error field.
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrRequestTooLarge = errors.New("request body too large")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrInternalError   = errors.New("internal server error")
)

// errorEnvelope is the failure shape shared by both result types.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// mapErrorToStatusCode maps errors to HTTP status codes.
func mapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	}

	switch sharing.Kind(err) {
	case sharing.KindInvalidParameter,
		sharing.KindEncoding,
		sharing.KindShareParse,
		sharing.KindFieldArithmetic:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, log logging.Logger, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Failed to encode JSON response", logging.Error(err))
	}
}

// writeError writes a failed envelope for err.
func writeError(w http.ResponseWriter, log logging.Logger, err error) {
	writeJSON(w, log, errorEnvelope{Error: err.Error()}, mapErrorToStatusCode(err))
}
