package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// #region new-logger
// NewLogger builds a zap logger writing to stderr.
func NewLogger(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if cfg.Format != "json" && cfg.Format != "console" {
		return nil, fmt.Errorf("invalid log format %q (want json or console)", cfg.Format)
	}
	core := zapcore.NewCore(newEncoder(cfg.Format), zapcore.Lock(os.Stderr), level)
	return zap.New(core), nil
}

// newEncoder creates JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}

// #endregion new-logger

// #region decision-fields
// DecisionFields renders a decision entry as structured log fields.
func DecisionFields(e DecisionEntry) []zap.Field {
	fields := []zap.Field{
		zap.Uint64("cycle", e.Cycle),
		zap.String("state", e.State),
		zap.String("action", e.Action),
		zap.Float64("dispersion", e.Dispersion),
		zap.Bool("can_collapse", e.CanCollapse),
	}
	if e.WinnerIndex != nil {
		fields = append(fields, zap.Int("winner_index", *e.WinnerIndex))
	}
	if e.HoldKey != "" {
		fields = append(fields, zap.String("hold_key", e.HoldKey))
	}
	return fields
}

// #endregion decision-fields
