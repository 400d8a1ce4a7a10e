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
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/virgill-e/shamir-secret-sharing-app/internal/config"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/crypto/rand"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/logging"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/shamir"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/sharing"
)

// Setting keys. The dotted keys match the YAML layout of the server
// configuration so a single file serves both.
const (
	keyConfig  = "config"
	keyOutput  = "output"
	keyBits    = "sharing.bits"
	keyRNG     = "random.mode"
	keyVerbose = "verbose"
	keyServer  = "server"
	keyTLSCA   = "tls-ca"
	keyTLSSkip = "tls-insecure"
)

// Options holds the merged settings of one invocation.
type Options struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// OutputFormat controls output formatting (text, json)
	OutputFormat OutputFormat

	// Verbose enables debug logging to stderr
	Verbose bool

	// Server is the URL of a remote shamir server. Empty splits and
	// combines locally.
	Server string

	// TLSCAFile verifies the remote server's certificate
	TLSCAFile string

	// TLSInsecure skips TLS certificate verification (not recommended)
	TLSInsecure bool

	// Config is the full configuration with flag overrides applied
	Config *config.Config
}

// bindSettings ties the persistent flags and SHAMIR_* environment
// variables to viper keys. Precedence is flag, environment, file, default.
func (a *app) bindSettings(flags *pflag.FlagSet) {
	_ = a.v.BindPFlag(keyConfig, flags.Lookup("config"))
	_ = a.v.BindPFlag(keyOutput, flags.Lookup("output"))
	_ = a.v.BindPFlag(keyBits, flags.Lookup("bits"))
	_ = a.v.BindPFlag(keyRNG, flags.Lookup("rng"))
	_ = a.v.BindPFlag(keyVerbose, flags.Lookup("verbose"))
	_ = a.v.BindPFlag(keyServer, flags.Lookup("server"))
	_ = a.v.BindPFlag(keyTLSCA, flags.Lookup("tls-ca"))
	_ = a.v.BindPFlag(keyTLSSkip, flags.Lookup("tls-insecure"))

	_ = a.v.BindEnv(keyConfig, "SHAMIR_CONFIG")
	_ = a.v.BindEnv(keyOutput, "SHAMIR_OUTPUT")
	_ = a.v.BindEnv(keyBits, "SHAMIR_BITS")
	_ = a.v.BindEnv(keyRNG, "SHAMIR_RNG_MODE")
	_ = a.v.BindEnv(keyVerbose, "SHAMIR_VERBOSE")
	_ = a.v.BindEnv(keyServer, "SHAMIR_SERVER")
	_ = a.v.BindEnv(keyTLSCA, "SHAMIR_TLS_CA")
}

// loadOptions merges flags, environment and the optional config file.
func (a *app) loadOptions() (*Options, error) {
	path := a.v.GetString(keyConfig)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		a.v.SetConfigFile(path)
		a.v.SetConfigType("yaml")
		if err := a.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	a.v.SetDefault(keyOutput, string(OutputFormatText))
	a.v.SetDefault(keyBits, cfg.Sharing.Bits)
	a.v.SetDefault(keyRNG, cfg.Random.Mode)

	format, err := ParseOutputFormat(a.v.GetString(keyOutput))
	if err != nil {
		return nil, err
	}

	if bits := a.v.GetInt(keyBits); bits != 0 {
		cfg.Sharing.Bits = bits
	}
	if mode := a.v.GetString(keyRNG); mode != "" {
		cfg.Random.Mode = mode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Options{
		ConfigFile:   path,
		OutputFormat: format,
		Verbose:      a.v.GetBool(keyVerbose),
		Server:       a.v.GetString(keyServer),
		TLSCAFile:    a.v.GetString(keyTLSCA),
		TLSInsecure:  a.v.GetBool(keyTLSSkip),
		Config:       cfg,
	}, nil
}

// newLogger returns a logger writing to errOut. Command line use only logs
// internal errors unless verbose is set; the server honours the configured
// level.
func (a *app) newLogger(server bool) (*logging.SlogAdapter, error) {
	logCfg := a.opts.Config.Logging
	switch {
	case a.opts.Verbose:
		logCfg.Level = "debug"
	case !server:
		logCfg.Level = "error"
	}
	return logCfg.NewLogger(a.errOut)
}

// newResolver opens the configured entropy source.
func (a *app) newResolver() (rand.Resolver, error) {
	rcfg, err := a.opts.Config.Random.ResolverConfig()
	if err != nil {
		return nil, err
	}
	resolver, err := rand.NewResolver(rcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s entropy source: %w", rcfg.Mode, err)
	}
	return resolver, nil
}

// newService builds a sharing service over resolver.
func (a *app) newService(resolver rand.Resolver, log logging.ContextLogger) (*sharing.Service, *shamir.Scheme, error) {
	scheme, err := shamir.NewScheme(&shamir.Config{
		Bits:   a.opts.Config.Sharing.Bits,
		Random: resolver,
	})
	if err != nil {
		return nil, nil, err
	}

	svc, err := sharing.NewService(&sharing.Config{
		Scheme:         scheme,
		Logger:         log,
		MaxSecretBytes: a.opts.Config.Sharing.MaxSecretBytes,
	})
	if err != nil {
		return nil, nil, err
	}
	return svc, scheme, nil
}

// printVerbose prints a message if verbose mode is enabled
func (a *app) printVerbose(format string, args ...interface{}) {
	if a.opts != nil && a.opts.Verbose {
		fmt.Fprintf(a.errOut, "[VERBOSE] "+strings.TrimSuffix(format, "\n")+"\n", args...)
	}
}
