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

package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectOnce(t *testing.T) {
	Enable()
	Goroutines.Set(0)
	MemorySysBytes.Set(0)

	CollectOnce()

	assert.Greater(t, testutil.ToFloat64(Goroutines), 0.0)
	assert.Greater(t, testutil.ToFloat64(MemorySysBytes), 0.0)
}

func TestResourceCollector_StopsOnCancel(t *testing.T) {
	Enable()
	ctx, cancel := context.WithCancel(context.Background())

	collector := NewResourceCollector(ctx, 10*time.Millisecond)
	done := make(chan struct{})
	go func() {
		collector.Start()
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after context cancellation")
	}
	assert.GreaterOrEqual(t, testutil.ToFloat64(ServerUptime), 0.0)
}

func TestStartResourceCollector_Stop(t *testing.T) {
	collector := StartResourceCollector(context.Background(), 0)
	assert.Equal(t, 30*time.Second, collector.interval)
	collector.Stop()
}
