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

// Package client is a Go client for the REST API served by "shamir serve".
//
//	c, err := client.NewFromURL("https://shamir.internal:8443")
//	if err != nil {
//	    return err
//	}
//	if err := c.Connect(ctx); err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	result, err := c.Split(ctx, "hunter2", 5, 3)
//
// Split and Combine return the server's result envelope. When the server
// reports a failure the envelope is returned together with a *ServerError.
package client

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUnsupportedScheme is returned for server URLs other than http or https
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrConnectionFailed is returned when the connection to the server fails
	ErrConnectionFailed = errors.New("connection failed")
	// ErrNotConnected is returned when trying to use a client that is not connected
	ErrNotConnected = errors.New("client not connected")
)

// DefaultTimeout bounds each request when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config configures the client.
type Config struct {
	// Address is the server base URL, http://host:port or https://host:port.
	// A bare host:port uses http unless TLSEnabled is set.
	Address string

	// TLSEnabled selects https for a bare host:port address
	TLSEnabled bool

	// TLSInsecureSkipVerify skips TLS certificate verification (not recommended)
	TLSInsecureSkipVerify bool

	// TLSCertFile is the path to the client certificate file (for mTLS)
	TLSCertFile string

	// TLSKeyFile is the path to the client key file (for mTLS)
	TLSKeyFile string

	// TLSCAFile is the path to the CA certificate file
	TLSCAFile string

	// Timeout bounds each request (default: 30s)
	Timeout time.Duration

	// Headers are additional HTTP headers to include in requests
	Headers map[string]string
}

// ServerError is a failure reported by the server.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// New creates a client for cfg. Call Connect before issuing requests.
func New(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, fmt.Errorf("server address is required")
	}

	baseURL := cfg.Address
	if !strings.Contains(baseURL, "://") {
		if cfg.TLSEnabled {
			baseURL = "https://" + baseURL
		} else {
			baseURL = "http://" + baseURL
		}
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL: missing host in %q", cfg.Address)
	}

	c := *cfg
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	c.TLSEnabled = u.Scheme == "https"

	return &Client{
		config:  &c,
		baseURL: strings.TrimSuffix(u.String(), "/"),
	}, nil
}

// NewFromURL creates a client from a server URL with default settings.
func NewFromURL(serverURL string) (*Client, error) {
	return New(&Config{Address: serverURL})
}
