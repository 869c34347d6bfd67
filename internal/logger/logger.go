// Package logger builds the process logger, a zap core exposed as
// *slog.Logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Options selects level ("debug", "info", "warn", "error") and format
// ("json" or "console"). Output defaults to stderr.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New returns the logger and a sync func to flush it on exit.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	var enc zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "json":
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "", "console":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if opts.Output != nil {
			cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		enc = zapcore.NewConsoleEncoder(cfg)
	default:
		return nil, nil, fmt.Errorf("log format %q: want json or console", opts.Format)
	}

	var out zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if opts.Output != nil {
		out = zapcore.AddSync(opts.Output)
	}

	z := zap.New(zapcore.NewCore(enc, out, level))
	return slog.New(zapslog.NewHandler(z.Core())), z.Sync, nil
}
