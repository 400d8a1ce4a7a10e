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

// Package health runs liveness and readiness checks for the REST server.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/virgill-e/shamir-secret-sharing-app/pkg/shamir"
)

// Status represents the health status of a component.
type Status string

const (
	// StatusHealthy indicates the component is operating normally.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the component is not functioning.
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded indicates the component is functioning but with reduced capacity.
	StatusDegraded Status = "degraded"
)

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Message string        `json:"message,omitempty"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// CheckFunc performs one health check. It should return quickly.
type CheckFunc func(ctx context.Context) CheckResult

// Checker manages health checks following Kubernetes probe semantics.
type Checker struct {
	mu        sync.RWMutex
	started   bool
	startTime time.Time
	checks    map[string]CheckFunc
}

// NewChecker creates a new health checker.
func NewChecker() *Checker {
	return &Checker{
		checks:    make(map[string]CheckFunc),
		startTime: time.Now(),
	}
}

// RegisterCheck adds a health check with the given name, replacing any
// check with the same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	if check == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// MarkStarted marks the service as ready to take traffic.
func (c *Checker) MarkStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
}

// MarkNotStarted marks the service as not ready, e.g. while shutting down.
func (c *Checker) MarkNotStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
}

// IsStarted returns true if the service has been marked as started.
func (c *Checker) IsStarted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started
}

// Uptime returns how long the service has been running.
func (c *Checker) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Live reports whether the process is alive. It only fails if the
// process needs a restart, which nothing here can detect, so it always
// succeeds.
func (c *Checker) Live(_ context.Context) CheckResult {
	return CheckResult{
		Name:    "liveness",
		Status:  StatusHealthy,
		Message: fmt.Sprintf("uptime %s", c.Uptime().Round(time.Second)),
	}
}

// Ready runs every registered check, ordered by name. A service that has
// not been marked started is reported unhealthy without running them.
func (c *Checker) Ready(ctx context.Context) []CheckResult {
	c.mu.RLock()
	started := c.started
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	if !started {
		return []CheckResult{{
			Name:    "startup",
			Status:  StatusUnhealthy,
			Message: "service initialization not complete",
		}}
	}

	sort.Strings(names)
	results := make([]CheckResult, 0, len(names))
	for _, name := range names {
		start := time.Now()
		result := checks[name](ctx)
		result.Latency = time.Since(start)
		if result.Name == "" {
			result.Name = name
		}
		results = append(results, result)
	}
	return results
}

// AggregateStatus returns unhealthy if any result is unhealthy, degraded if
// any is degraded, and healthy otherwise.
func AggregateStatus(results []CheckResult) Status {
	status := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// EntropySource is the part of an RNG resolver the entropy check needs.
type EntropySource interface {
	Name() string
	Available() bool
}

// EntropyCheck reports whether the random source used for splitting is
// available.
func EntropyCheck(src EntropySource) CheckFunc {
	return func(_ context.Context) CheckResult {
		if !src.Available() {
			return CheckResult{
				Name:    "entropy",
				Status:  StatusUnhealthy,
				Message: fmt.Sprintf("%s source unavailable", src.Name()),
			}
		}
		return CheckResult{
			Name:    "entropy",
			Status:  StatusHealthy,
			Message: src.Name(),
		}
	}
}

// selfTestSecret is split and recombined by SelfTestCheck.
var selfTestSecret = []byte("health-check")

// SelfTestCheck splits a fixed value with scheme and recombines it from a
// threshold subset, catching a broken random source or field.
func SelfTestCheck(scheme *shamir.Scheme) CheckFunc {
	return func(_ context.Context) CheckResult {
		fail := func(err error) CheckResult {
			return CheckResult{
				Name:   "self_test",
				Status: StatusUnhealthy,
				Error:  err.Error(),
			}
		}

		shares, err := scheme.Split(selfTestSecret, 3, 2)
		if err != nil {
			return fail(err)
		}
		got, err := scheme.Combine([]string{shares[2], shares[0]})
		if err != nil {
			return fail(err)
		}
		if string(got) != string(selfTestSecret) {
			return fail(fmt.Errorf("round trip returned %d unexpected bytes", len(got)))
		}
		return CheckResult{
			Name:    "self_test",
			Status:  StatusHealthy,
			Message: fmt.Sprintf("GF(2^%d) round trip ok", scheme.Bits()),
		}
	}
}
