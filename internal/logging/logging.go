// Package logging builds the zap loggers used by the engine and the CLI.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field names shared across log statements.
const (
	FieldPrerequisite = "prerequisite"
	FieldDependant    = "dependant"
	FieldItem         = "item"
	FieldRole         = "role"
	FieldTag          = "tag"
	FieldProject      = "project"
	FieldCount        = "count"
	FieldSchedule     = "schedule"
	FieldDue          = "due"
)

// New returns a console logger writing to w at the named level.
func New(level string, w io.Writer) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}
