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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/virgill-e/shamir-secret-sharing-app/internal/rest"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/health"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/logging"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/metrics"
	"github.com/virgill-e/shamir-secret-sharing-app/pkg/ratelimit"
)

const defaultShutdownTimeout = 10 * time.Second

func (a *app) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		Long: `Run the REST API server described by --config until SIGINT or SIGTERM.

Without --config the server listens on 127.0.0.1:8080 over plain HTTP with
metrics enabled and rate limiting disabled. SHAMIR_HOST, SHAMIR_PORT,
SHAMIR_LOG_LEVEL, SHAMIR_LOG_FORMAT, SHAMIR_RNG_MODE and SHAMIR_BITS
override the file.`,
		Example: `  shamir serve --config /etc/shamir/config.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := a.newLogger(true)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx, log)
		},
	}
}

// serverStack is a configured REST server and the resources it owns.
type serverStack struct {
	server    *rest.Server
	checker   *health.Checker
	collector *metrics.ResourceCollector
	close     func()
}

// buildServer wires entropy, metrics, health checks and rate limiting
// into a REST server from the loaded configuration.
func (a *app) buildServer(ctx context.Context, log logging.ContextLogger) (*serverStack, error) {
	cfg := a.opts.Config

	tlsConfig, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	resolver, err := a.newResolver()
	if err != nil {
		return nil, err
	}
	metrics.SetEntropySource(resolver.Name())

	svc, scheme, err := a.newService(resolver, log)
	if err != nil {
		_ = resolver.Close()
		return nil, err
	}

	checker := health.NewChecker()
	checker.RegisterCheck("entropy", health.EntropyCheck(resolver))
	checker.RegisterCheck("self_test", health.SelfTestCheck(scheme))

	limiter := ratelimit.New(cfg.RateLimit.LimiterConfig())

	server, err := rest.NewServer(&rest.Config{
		Address:        cfg.Server.Address(),
		Service:        svc,
		Health:         checker,
		Logger:         log,
		Limiter:        limiter,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
		Version:        Version,
		TLSConfig:      tlsConfig,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
	})
	if err != nil {
		limiter.Stop()
		_ = resolver.Close()
		return nil, err
	}

	stack := &serverStack{
		server:  server,
		checker: checker,
		close: func() {
			limiter.Stop()
			_ = resolver.Close()
		},
	}
	if cfg.Metrics.Enabled && cfg.Metrics.CollectInterval > 0 {
		stack.collector = metrics.StartResourceCollector(ctx, cfg.Metrics.CollectInterval)
	}

	log.Info("Server configured",
		logging.String("address", cfg.Server.Address()),
		logging.Bool("tls", tlsConfig != nil),
		logging.String("entropy", resolver.Name()),
		logging.Int("bits", svc.Bits()),
		logging.Bool("metrics", cfg.Metrics.Enabled),
		logging.Bool("ratelimit", limiter.IsEnabled()))

	return stack, nil
}

// serve runs the server until ctx is cancelled, then shuts it down within
// the configured timeout.
func (a *app) serve(ctx context.Context, log logging.ContextLogger) error {
	stack, err := a.buildServer(ctx, log)
	if err != nil {
		return err
	}
	defer stack.close()
	if stack.collector != nil {
		defer stack.collector.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- stack.server.Start()
	}()
	stack.checker.MarkStarted()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
		return errors.New("server exited unexpectedly")
	}

	stack.checker.MarkNotStarted()
	timeout := a.opts.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := stack.server.Stop(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("server error during shutdown: %w", err)
	}
	return nil
}
