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

// Package rest exposes secret splitting and recovery over HTTP.
//
// # Server Setup
//
//	svc, _ := sharing.NewService(&sharing.Config{Logger: log})
//	server, _ := rest.NewServer(&rest.Config{
//	    Address: "127.0.0.1:8080",
//	    Service: svc,
//	    Logger:  log,
//	    Version: "1.0.0",
//	})
//
//	go server.Start()
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	server.Stop(ctx)
//
// # API Endpoints
//
//   - GET  /health         - {"status":"ok","version":"..."}
//   - GET  /health/live    - liveness probe
//   - GET  /health/ready   - readiness probe with entropy and self-test checks
//   - GET  /metrics        - Prometheus exposition, when enabled
//   - POST /api/v1/split   - {"secret":"...","shares":5,"threshold":3}
//   - POST /api/v1/combine - {"shares":["...","..."]}
//
// Split and combine always answer with the result envelope of package
// sharing. Invalid input yields 400, an oversized body 413, a rate limited
// client 429 and anything else 500.
//
// Responses from /api/v1 carry Cache-Control: no-store since they contain
// shares or secrets.
package rest
