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

import "github.com/virgill-e/shamir-secret-sharing-app/pkg/health"

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ProbeResponse is returned by the liveness and readiness probes.
type ProbeResponse struct {
	Status health.Status        `json:"status"`
	Checks []health.CheckResult `json:"checks,omitempty"`
}

// SplitRequest is the body of POST /api/v1/split.
type SplitRequest struct {
	Secret    string `json:"secret"`
	Shares    int    `json:"shares"`
	Threshold int    `json:"threshold"`
}

// CombineRequest is the body of POST /api/v1/combine.
type CombineRequest struct {
	Shares []string `json:"shares"`
}
