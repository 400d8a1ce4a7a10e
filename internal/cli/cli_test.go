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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virgill-e/shamir-secret-sharing-app/internal/rest"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/logging"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/sharing"
)

type envelope struct {
	Success bool     `json:"success"`
	Shares  []string `json:"shares"`
	Secret  string   `json:"secret"`
	Error   string   `json:"error"`
}

func run(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestSplitCombine_Text(t *testing.T) {
	code, out, stderr := run(t, "", "split", "-n", "5", "-t", "3", "--secret", "hunter2", "--rng", "software")
	require.Equal(t, 0, code, stderr)

	shares := lines(out)
	require.Len(t, shares, 5)
	for _, share := range shares {
		assert.True(t, strings.HasPrefix(share, "8"), share)
	}

	code, out, stderr = run(t, "", "combine", shares[3], shares[0], shares[4])
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "hunter2\n", out)
}

func TestSplit_SecretFromStdin(t *testing.T) {
	code, out, stderr := run(t, "multi word secret\r\n", "split", "-n", "3", "-t", "2")
	require.Equal(t, 0, code, stderr)
	shares := lines(out)
	require.Len(t, shares, 3)

	code, out, _ = run(t, "\n"+shares[2]+"\n\n  "+shares[1]+"  \n", "combine")
	require.Equal(t, 0, code)
	assert.Equal(t, "multi word secret\n", out)
}

func TestSplit_JSON(t *testing.T) {
	code, out, _ := run(t, "", "split", "-n", "4", "-t", "2", "-s", "json secret", "-o", "json")
	require.Equal(t, 0, code)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.True(t, env.Success)
	assert.Len(t, env.Shares, 4)
	assert.Empty(t, env.Error)

	input := strings.Join(env.Shares[:2], "\n")
	code, out, _ = run(t, input, "combine", "--output", "json")
	require.Equal(t, 0, code)

	env = envelope{}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "json secret", env.Secret)
}

func TestSplit_FailureJSON(t *testing.T) {
	code, out, stderr := run(t, "", "split", "-n", "2", "-t", "3", "-s", "x", "-o", "json")
	assert.Equal(t, 1, code)
	assert.Empty(t, stderr)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
	assert.Empty(t, env.Shares)
}

func TestSplit_FailureText(t *testing.T) {
	code, out, stderr := run(t, "", "split", "-n", "2", "-t", "3", "-s", "x")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.True(t, strings.HasPrefix(stderr, "Error: "), stderr)
}

func TestSplit_MissingRequiredFlag(t *testing.T) {
	code, _, stderr := run(t, "", "split", "-n", "3", "-s", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "threshold")
}

func TestCombine_Failures(t *testing.T) {
	code, out, stderr := run(t, "", "combine", "not-a-share", "also-not")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "Error: ")

	code, out, _ = run(t, "", "combine", "-o", "json")
	assert.Equal(t, 1, code)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.False(t, env.Success)
}

func TestBits_Precedence(t *testing.T) {
	firstShare := func(t *testing.T, args ...string) string {
		t.Helper()
		args = append([]string{"split", "-n", "2", "-t", "2", "-s", "x"}, args...)
		code, out, stderr := run(t, "", args...)
		require.Equal(t, 0, code, stderr)
		return lines(out)[0]
	}

	assert.True(t, strings.HasPrefix(firstShare(t, "--bits", "16"), "g"))

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sharing:\n  bits: 10\noutput: text\n"), 0600))
	assert.True(t, strings.HasPrefix(firstShare(t, "--config", path), "a"))

	t.Setenv("SHAMIR_BITS", "12")
	assert.True(t, strings.HasPrefix(firstShare(t), "c"))
	assert.True(t, strings.HasPrefix(firstShare(t, "--bits", "20"), "k"))
}

func TestInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"output format", []string{"version", "-o", "yaml"}},
		{"bits", []string{"split", "-n", "2", "-t", "2", "-s", "x", "--bits", "7"}},
		{"rng", []string{"split", "-n", "2", "-t", "2", "-s", "x", "--rng", "dice"}},
		{"config file", []string{"version", "--config", filepath.Join(t.TempDir(), "missing.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, "", tt.args...)
			assert.Equal(t, 1, code)
			assert.NotEmpty(t, stderr)
		})
	}
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, "", "version")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "shamir version "+Version)

	code, out, _ = run(t, "", "version", "-o", "json")
	require.Equal(t, 0, code)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, Version, info["version"])
}

func TestVerbose(t *testing.T) {
	code, _, stderr := run(t, "", "split", "-n", "3", "-t", "2", "-s", "zqj", "-v", "--rng", "software")
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "[VERBOSE] Splitting 3 bytes into 3 shares")
	assert.NotContains(t, stderr, "zqj")
}

func TestReadLines(t *testing.T) {
	got, err := readLines(strings.NewReader("a\n\n  b \r\nc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestTrimNewline(t *testing.T) {
	assert.Equal(t, "x", trimNewline("x\n"))
	assert.Equal(t, "x", trimNewline("x\r\n"))
	assert.Equal(t, "x\n", trimNewline("x\n\n"))
	assert.Equal(t, "x", trimNewline("x"))
}

func TestBuildServer(t *testing.T) {
	a := &app{v: viper.New(), in: strings.NewReader(""), out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	opts, err := a.loadOptions()
	require.NoError(t, err)
	opts.Config.Random.Mode = "software"
	a.opts = opts

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stack, err := a.buildServer(ctx, logging.Discard())
	require.NoError(t, err)
	defer stack.close()

	h := stack.server.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	stack.checker.MarkStarted()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entropy"`)
	assert.Contains(t, rec.Body.String(), `"self_test"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/split",
		strings.NewReader(`{"secret":"s","shares":3,"threshold":2}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shamir_")
}

func TestRemoteServer(t *testing.T) {
	svc, err := sharing.NewService(nil)
	require.NoError(t, err)
	server, err := rest.NewServer(&rest.Config{Service: svc})
	require.NoError(t, err)
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	code, out, stderr := run(t, "", "split", "-n", "3", "-t", "2", "-s", "remote", "--server", srv.URL)
	require.Equal(t, 0, code, stderr)
	shares := lines(out)
	require.Len(t, shares, 3)

	code, out, stderr = run(t, "", "combine", shares[0], shares[2], "--server", srv.URL)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "remote\n", out)

	code, out, _ = run(t, "", "split", "-n", "2", "-t", "3", "-s", "x", "--server", srv.URL, "-o", "json")
	assert.Equal(t, 1, code)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)

	t.Setenv("SHAMIR_SERVER", srv.URL)
	code, _, stderr = run(t, "", "combine", "only-one")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "server error (400)")
}

func TestRemoteServer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	code, _, stderr := run(t, "", "split", "-n", "3", "-t", "2", "-s", "x", "--server", url)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "connection failed")
}
