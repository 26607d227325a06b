package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the system *zap.Logger and the access-log *Middleware.
// A logger.Config must be supplied alongside it.
var Module = fx.Options(
	fx.Provide(ProvideLoggerMiddleware),
	fx.Provide(ProvideLogger),
)

func ProvideLogger(cfg Config) *zap.Logger { return NewLog(cfg, "system.log") }

func ProvideLoggerMiddleware(cfg Config) *Middleware {
	return NewMiddleware(NewLog(cfg, "http-access.log"), cfg.Debug)
}
