// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/formgate/internal/config"
	"github.com/holomush/formgate/internal/logging"
	"github.com/holomush/formgate/internal/observability"
	"github.com/holomush/formgate/internal/telnet"
	"github.com/holomush/formgate/internal/web"
	"github.com/holomush/formgate/pkg/errutil"
)

const serviceName = "formgate"

// NewServeCmd creates the serve subcommand with all flags configured.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the login and registration forms",
		Long: `Serve the login and registration forms over HTTP (HTML pages and a JSON
API) and telnet, with metrics and health probes on a separate address.
An empty address disables that listener.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// runServeWithDeps runs every enabled server until a signal arrives or ctx
// is cancelled, then shuts them down within the configured timeout.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()

	logger, err := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	if cfg.Web.Addr == "" && cfg.Telnet.Addr == "" {
		return oops.Code("SERVE_NOTHING_ENABLED").Errorf("both web.addr and telnet.addr are empty")
	}

	shutdownTimeout, err := cfg.ShutdownTimeout()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ready atomic.Bool

	var obsServer ObservabilityServer
	var obsErrCh <-chan error
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, ready.Load)
		obsErrCh, err = obsServer.Start(ctx)
		if err != nil {
			return oops.Code("SERVE_START_FAILED").With("component", "observability").Wrap(err)
		}
		metrics = obsServer.Metrics()
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if obsServer != nil {
			if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
				errutil.LogError(logger, "error stopping observability server", stopErr)
			}
		}
	}

	var webServer BackgroundServer
	var webErrCh <-chan error
	if cfg.Web.Addr != "" {
		handler, handlerErr := web.NewHandler(web.WithLogger(logger), web.WithMetrics(metrics))
		if handlerErr != nil {
			shutdown()
			return handlerErr
		}
		webServer = deps.WebServerFactory(cfg.Web.Addr, handler, logger)
		webErrCh, err = webServer.Start(ctx)
		if err != nil {
			shutdown()
			return oops.Code("SERVE_START_FAILED").With("component", "web").Wrap(err)
		}
	}

	telnetCtx, cancelTelnet := context.WithCancel(ctx)
	defer cancelTelnet()
	var telnetDone chan error
	if cfg.Telnet.Addr != "" {
		telnetServer := deps.TelnetServerFactory(cfg.Telnet.Addr,
			telnet.WithLogger(logger),
			telnet.WithMetrics(metrics),
		)
		telnetDone = make(chan error, 1)
		go func() {
			telnetDone <- telnetServer.Run(telnetCtx)
		}()
	}

	ready.Store(true)
	cmd.Println("formgate started")
	logger.Info("formgate ready",
		"web_addr", addrOf(webServer),
		"telnet_addr", cfg.Telnet.Addr,
		"metrics_addr", addrOf(obsServer),
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down", "reason", context.Cause(ctx))
	case werr, ok := <-webErrCh:
		if ok && werr != nil {
			runErr = oops.Code("SERVE_WEB_FAILED").Wrap(werr)
		}
	case terr := <-telnetDone:
		telnetDone = nil
		if terr != nil {
			runErr = oops.Code("SERVE_TELNET_FAILED").Wrap(terr)
		}
	case oerr, ok := <-obsErrCh:
		if ok && oerr != nil {
			runErr = oops.Code("SERVE_OBSERVABILITY_FAILED").Wrap(oerr)
		}
	}
	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	cancelTelnet()
	if telnetDone != nil {
		select {
		case terr := <-telnetDone:
			if terr != nil {
				errutil.LogError(logger, "telnet server error", terr)
			}
		case <-shutdownCtx.Done():
			logger.Warn("telnet server did not stop in time", "timeout", shutdownTimeout.String())
		}
	}

	if webServer != nil {
		if err := webServer.Stop(shutdownCtx); err != nil {
			errutil.LogError(logger, "error stopping web server", err)
		}
	}
	shutdown()

	if runErr != nil {
		errutil.LogError(logger, "server failed", runErr)
		return runErr
	}
	logger.Info("shutdown complete")
	return nil
}

type addresser interface {
	Addr() string
}

func addrOf(s addresser) string {
	if s == nil {
		return ""
	}
	return s.Addr()
}
