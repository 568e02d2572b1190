// Package logger builds the zap logger shared by the CLI, the generator and
// the Zenkit client.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr. json selects machine-readable
// output; verbose enables debug messages.
func New(json, verbose bool) *zap.SugaredLogger {
	return NewWithWriter(os.Stderr, json, verbose)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, json, verbose bool) *zap.SugaredLogger {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	var enc zapcore.Encoder
	if json {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zapcore.EncoderConfig{
			LevelKey:         "level",
			MessageKey:       "msg",
			EncodeLevel:      zapcore.CapitalLevelEncoder,
			ConsoleSeparator: " ",
		}
		if verbose {
			cfg.TimeKey = "ts"
			cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		}
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level)).Sugar()
}
