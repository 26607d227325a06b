package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/joeydtaylor/webhook-handler/pkg/core"
	"github.com/joeydtaylor/webhook-handler/pkg/handlers"
	"github.com/joeydtaylor/webhook-handler/pkg/manifest"
	"github.com/joeydtaylor/webhook-handler/pkg/middleware/logger"
	"github.com/joeydtaylor/webhook-handler/pkg/middleware/metrics"
	"github.com/joeydtaylor/webhook-handler/pkg/transport/httpx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ---- Handler registry ----

func provideRegistry(lc fx.Lifecycle, log *zap.Logger) *core.Registry {
	reg := core.NewRegistry()
	b := handlers.Register(reg, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return b.Close() },
	})
	return reg
}

func provideHandlerConfig(o Options, reg *core.Registry, log *zap.Logger) (manifest.Config, error) {
	cfg, err := core.LoadConfig(o.ConfigPath, reg, o.Debug)
	if err != nil {
		log.Error("handler config load failed", zap.Error(err), zap.String("path", o.ConfigPath))
		return manifest.Config{}, err
	}
	names := make([]string, 0, len(cfg.Entries))
	for _, e := range cfg.Entries {
		names = append(names, e.Name)
	}
	log.Info("handler config loaded",
		zap.String("path", o.ConfigPath),
		zap.Strings("handlers", names),
		zap.Strings("available", reg.Names()),
	)
	return cfg, nil
}

func provideDispatcher(o Options, cfg manifest.Config, reg *core.Registry, log *zap.Logger) *core.Dispatcher {
	return core.NewDispatcher(cfg, reg, log, o.Debug)
}

// ---- Router ----

type routerDeps struct {
	fx.In

	Opts       Options
	Dispatcher *core.Dispatcher
	LogMW      *logger.Middleware
	Metrics    http.Handler `name:"metrics"`
	R          httpx.Router
}

func provideRouter(d routerDeps) http.Handler {
	return core.BuildRouter(core.BuildDeps{
		Dispatcher: d.Dispatcher,
		LogMW:      d.LogMW,
		Metrics:    d.Metrics,
		Router:     d.R,
		AllMethods: d.Opts.AllMethods,
	})
}

// ---- Server lifecycle ----

type serverDeps struct {
	fx.In
	Opts   Options
	Logger *zap.Logger
	App    http.Handler `name:"app"`
}

func registerHooks(lc fx.Lifecycle, d serverDeps) {
	addr := d.Opts.ListenAddr
	if addr == "" {
		addr = DefaultListen
	}
	cert, key := d.Opts.TLSCert, d.Opts.TLSKey
	useTLS := fileExists(cert) && fileExists(key)

	// No WriteTimeout: a run handler may legitimately block the response.
	srv := &http.Server{
		Addr:              addr,
		Handler:           d.App,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if useTLS {
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			if useTLS {
				d.Logger.Info("server starting (TLS)",
					zap.String("service", d.Opts.Service),
					zap.String("addr", ln.Addr().String()),
					zap.String("cert", cert),
				)
			} else {
				d.Logger.Info("server starting (PLAINTEXT)",
					zap.String("service", d.Opts.Service),
					zap.String("addr", ln.Addr().String()),
				)
			}
			go func() {
				var err error
				if useTLS {
					err = srv.ServeTLS(ln, cert, key)
				} else {
					err = srv.Serve(ln)
				}
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					d.Logger.Error("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping", zap.String("service", d.Opts.Service))
			return srv.Shutdown(ctx)
		},
	})
}

// ---- Public Fx module ----

func Module(opts Options) fx.Option {
	return fx.Options(
		// Supply options to DI.
		fx.Supply(opts),
		fx.Provide(func(o Options) logger.Config {
			return logger.Config{Dir: o.LogDir, Debug: o.Debug}
		}),

		// Logging + access-log middleware
		logger.Module,

		// Metrics (named)
		fx.Provide(fx.Annotate(metrics.ProvideMetrics, fx.ResultTags(`name:"metrics"`))),

		// Router implementation
		fx.Provide(httpx.NewChi),

		// Handlers, config, dispatcher
		fx.Provide(provideRegistry, provideHandlerConfig, provideDispatcher),

		// Router (named "app")
		fx.Provide(
			fx.Annotate(
				provideRouter,
				fx.ResultTags(`name:"app"`),
			),
		),

		// App lifecycle (starts the HTTP server)
		fx.Invoke(registerHooks),
	)
}
