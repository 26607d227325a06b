package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects where logs go and how verbose they are.
type Config struct {
	Dir   string // rotated log files live here; "" disables the file sink
	Debug bool   // lowers the level to debug
}

func (c Config) level() zapcore.Level {
	if c.Debug {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

// NewLog tees JSON logs to stdout and, when cfg.Dir is set, to a rotated file.
func NewLog(cfg Config, name string) *zap.Logger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	lvl := cfg.level()

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl),
	}
	if cfg.Dir != "" {
		_ = os.MkdirAll(cfg.Dir, 0o755)
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, name),
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		})
		cores = append(cores, zapcore.NewCore(enc.Clone(), w, lvl))
	}
	return zap.New(zapcore.NewTee(cores...))
}
