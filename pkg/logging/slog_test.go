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

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virgill-e/shamir-secret-sharing-app/pkg/correlation"
)

func newJSONAdapter(buf *bytes.Buffer, level Level) *SlogAdapter {
	return NewSlogAdapter(&SlogConfig{Level: level, Format: FormatJSON, Output: buf})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestSlogAdapter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONAdapter(&buf, LevelWarn)

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	log.Error("shown too")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "ERROR", entries[1]["level"])
}

func TestSlogAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONAdapter(&buf, LevelDebug)

	log.Info("split completed",
		String("op", "split"),
		Int("shares", 5),
		Int64("bytes", 12),
		Float64("ms", 1.5),
		Bool("ok", true),
		Strings("routes", []string{"a", "b"}),
		Error(errors.New("boom")),
	)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "split completed", e["msg"])
	assert.Equal(t, "split", e["op"])
	assert.Equal(t, float64(5), e["shares"])
	assert.Equal(t, float64(12), e["bytes"])
	assert.Equal(t, 1.5, e["ms"])
	assert.Equal(t, true, e["ok"])
	assert.Equal(t, []interface{}{"a", "b"}, e["routes"])
	assert.Equal(t, "boom", e["error"])
}

func TestSlogAdapter_WithDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	parent := newJSONAdapter(&buf, LevelDebug)

	child := parent.With(String("component", "rest")).WithError(errors.New("bad"))
	child.Info("request failed", Int("status", 400))
	parent.Info("untouched")

	assert.Equal(t, 1, strings.Count(buf.String(), `"component":"rest"`))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "rest", entries[0]["component"])
	assert.Equal(t, "bad", entries[0]["error"])
	assert.Equal(t, float64(400), entries[0]["status"])
	assert.NotContains(t, entries[1], "component")
}

func TestSlogAdapter_ContextAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONAdapter(&buf, LevelDebug)

	ctx := correlation.WithCorrelationID(context.Background(), "corr-42")
	log.DebugContext(ctx, "debug")
	log.InfoContext(ctx, "info")
	log.WarnContext(ctx, "warn")
	log.ErrorContext(ctx, "error")
	log.InfoContext(context.Background(), "no id")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 5)
	for _, e := range entries[:4] {
		assert.Equal(t, "corr-42", e["correlation_id"])
	}
	assert.NotContains(t, entries[4], "correlation_id")
}

func TestSlogAdapter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogAdapter(&SlogConfig{Output: &buf})

	log.Info("hello", String("k", "v"))
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}

func TestSlogAdapter_WrapsExistingLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	log := NewSlogAdapter(&SlogConfig{Logger: base})
	assert.Same(t, base, log.Slog())

	log.Warn("wrapped")
	assert.Contains(t, buf.String(), `"msg":"wrapped"`)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.NotPanics(t, func() {
		log.Error("dropped", Any("value", struct{}{}))
	})

	// A nil config falls back to stderr at info level.
	assert.NotNil(t, NewSlogAdapter(nil))
}
