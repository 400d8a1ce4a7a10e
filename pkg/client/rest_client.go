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

package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/virgill-e/shamir-secret-sharing-app/pkg/correlation"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/sharing"
)

// maxResponseBytes bounds the response bodies the client reads.
const maxResponseBytes = 16 << 20

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type splitRequest struct {
	Secret    string `json:"secret"`
	Shares    int    `json:"shares"`
	Threshold int    `json:"threshold"`
}

type combineRequest struct {
	Shares []string `json:"shares"`
}

// Client talks to the REST API. It is safe for concurrent use once
// connected.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Connect prepares the HTTP transport and verifies the server answers
// GET /health.
func (c *Client) Connect(ctx context.Context) error {
	var tlsConfig *tls.Config
	if c.config.TLSEnabled {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: c.config.TLSInsecureSkipVerify, // #nosec G402 - opt-in for test servers
			MinVersion:         tls.VersionTLS12,
		}

		if c.config.TLSCAFile != "" {
			// #nosec G304 - CA path is provided by the user
			caCert, err := os.ReadFile(c.config.TLSCAFile)
			if err != nil {
				return fmt.Errorf("failed to read CA certificate: %w", err)
			}
			caCertPool := x509.NewCertPool()
			if !caCertPool.AppendCertsFromPEM(caCert) {
				return fmt.Errorf("failed to parse CA certificate")
			}
			tlsConfig.RootCAs = caCertPool
		}

		if c.config.TLSCertFile != "" && c.config.TLSKeyFile != "" {
			cert, err := tls.LoadX509KeyPair(c.config.TLSCertFile, c.config.TLSKeyFile)
			if err != nil {
				return fmt.Errorf("failed to load client certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
	}

	c.httpClient = &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: tlsConfig,
			Proxy:           http.ProxyFromEnvironment,
		},
		Timeout: c.config.Timeout,
	}

	if _, err := c.Health(ctx); err != nil {
		c.httpClient = nil
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	c.httpClient = nil
	return nil
}

// Health checks the health of the server.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	status, err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &ServerError{StatusCode: status, Message: resp.Status}
	}
	return &resp, nil
}

// Split asks the server to split secret into totalShares shares.
func (c *Client) Split(ctx context.Context, secret string, totalShares, threshold int) (*sharing.SplitResult, error) {
	var result sharing.SplitResult
	status, err := c.doRequest(ctx, http.MethodPost, "/api/v1/split",
		&splitRequest{Secret: secret, Shares: totalShares, Threshold: threshold}, &result)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return &result, &ServerError{StatusCode: status, Message: result.Error}
	}
	return &result, nil
}

// Combine asks the server to recover the secret from shares.
func (c *Client) Combine(ctx context.Context, shares []string) (*sharing.CombineResult, error) {
	var result sharing.CombineResult
	status, err := c.doRequest(ctx, http.MethodPost, "/api/v1/combine",
		&combineRequest{Shares: shares}, &result)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return &result, &ServerError{StatusCode: status, Message: result.Error}
	}
	return &result, nil
}

// doRequest sends body as JSON and decodes the JSON response into out,
// whatever its status. Non-JSON responses are reported as a ServerError.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	if c.httpClient == nil {
		return 0, ErrNotConnected
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := correlation.GetCorrelationID(ctx); id != "" {
		req.Header.Set(correlation.CorrelationIDHeader, id)
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return resp.StatusCode, &ServerError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp.StatusCode, nil
}
