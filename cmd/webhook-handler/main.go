package main

import (
	"fmt"
	"os"

	"github.com/joeydtaylor/webhook-handler/pkg/serverfx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := serverfx.FromEnv()

	cmd := &cobra.Command{
		Use:   "webhook-handler",
		Short: "Configurable JSON webhook receiver",
		Long: `webhook-handler accepts JSON webhook calls and runs the handlers listed in
its config file (print, dump, run, redis, kafka, null) once per option record.

Every request is answered with "OK". Handler failures are only visible in the
log, and only with --debug.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			app := newApp(opts)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath, "handler config file (JSON or .toml) [$"+serverfx.EnvConfig+"]")
	pf.BoolVar(&opts.Debug, "debug", opts.Debug, "log handler errors and debug output [$"+serverfx.EnvDebug+"]")

	f := cmd.Flags()
	f.StringVarP(&opts.ListenAddr, "listen", "l", opts.ListenAddr, "listen address [$"+serverfx.EnvListen+"]")
	f.BoolVar(&opts.AllMethods, "all-methods", opts.AllMethods, "dispatch GET, PUT and DELETE as well as POST [$"+serverfx.EnvAllMethods+"]")
	f.StringVar(&opts.LogDir, "log-dir", opts.LogDir, "directory for rotated log files, empty for stdout only [$"+serverfx.EnvLogDir+"]")
	f.StringVar(&opts.TLSCert, "tls-cert", opts.TLSCert, "TLS certificate file [$"+serverfx.EnvTLSCert+"]")
	f.StringVar(&opts.TLSKey, "tls-key", opts.TLSKey, "TLS key file [$"+serverfx.EnvTLSKey+"]")

	cmd.AddCommand(newCheckCmd(&opts))
	return cmd
}

func newApp(opts serverfx.Options) *fx.App {
	return fx.New(
		serverfx.Module(opts),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
	)
}
