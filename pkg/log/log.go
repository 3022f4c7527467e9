// Copyright 2021 Consortium GARR and University of Rome "Tor Vergata"
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log implements a thin wrapper around uber/zap. Loggers are
// structured and carry context as key value pairs.
package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/netgroup/srv6-controller/pkg/private/serrors"
)

// Logger describes the logger interface.
type Logger interface {
	// New creates a logger with the given context, i.e. key value pairs.
	New(ctx ...interface{}) Logger
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Enabled(lvl Level) bool
}

// Level is the log level.
type Level = zapcore.Level

// The supported log levels.
const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	ErrorLevel = zapcore.ErrorLevel
)

type logger struct {
	logger *zap.Logger
}

func (l *logger) New(ctx ...interface{}) Logger {
	return &logger{logger: l.logger.With(convertCtx(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...interface{}) {
	l.logger.Debug(msg, convertCtx(ctx)...)
}

func (l *logger) Info(msg string, ctx ...interface{}) {
	l.logger.Info(msg, convertCtx(ctx)...)
}

func (l *logger) Error(msg string, ctx ...interface{}) {
	l.logger.Error(msg, convertCtx(ctx)...)
}

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(lvl)
}

func convertCtx(ctx []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		fields = append(fields, zap.Any(fmt.Sprint(ctx[i]), ctx[i+1]))
	}
	return fields
}

var root = zap.NewNop()

// Config configures the logging backend.
type Config struct {
	// Level of the logging: debug, info or error. Defaults to info.
	Level string
	// Format of the logging: human or json. Defaults to human.
	Format string
}

// Setup configures the process-wide root logger.
func Setup(cfg Config) error {
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return serrors.Wrap("unsupported log level", err, "level", cfg.Level)
		}
	}
	encoding := "console"
	switch cfg.Format {
	case "", "human", "console":
	case "json":
		encoding = "json"
	default:
		return serrors.New("unsupported log format", "format", cfg.Format)
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	l, err := zCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return serrors.Wrap("creating logger", err)
	}
	root = l
	return nil
}

// Root returns the root logger. It is guaranteed to never return nil.
func Root() Logger {
	return &logger{logger: root}
}

// New creates a logger with the given context on top of the root logger.
func New(ctx ...interface{}) Logger {
	return Root().New(ctx...)
}

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...interface{}) {
	Root().Debug(msg, ctx...)
}

// Info logs at info level on the root logger.
func Info(msg string, ctx ...interface{}) {
	Root().Info(msg, ctx...)
}

// Error logs at error level on the root logger.
func Error(msg string, ctx ...interface{}) {
	Root().Error(msg, ctx...)
}

// Flush writes the logs to the underlying buffer.
func Flush() {
	_ = root.Sync()
}

// DiscardLogger implements the Logger interface and discards all messages.
// Used in tests.
type DiscardLogger struct{}

func (DiscardLogger) New(ctx ...interface{}) Logger        { return DiscardLogger{} }
func (DiscardLogger) Debug(msg string, ctx ...interface{}) {}
func (DiscardLogger) Info(msg string, ctx ...interface{})  {}
func (DiscardLogger) Error(msg string, ctx ...interface{}) {}
func (DiscardLogger) Enabled(lvl Level) bool               { return false }
