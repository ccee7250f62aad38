// Copyright 2026 The Bottlerocket Settings Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package rlog is the structured logger every binary and package in the
// settings engine logs through. It is grounded on the teacher's
// logrus-backed leveled Logger (logging/logging.go, internal/logging's
// GetLevel/GetFormatter helpers), reimplemented directly against logrus
// rather than through the teacher's deprecated v0/v1 indirection.
package rlog

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level mirrors the teacher's four-level scheme.
type Level int

const (
	Error Level = iota
	Warn
	Info
	Debug
)

// ParseLevel parses a level name, defaulting to Info on an empty string.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return Debug, nil
	case "", "info":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Info, fmt.Errorf("rlog: invalid log level %q", level)
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case Error:
		return logrus.ErrorLevel
	case Warn:
		return logrus.WarnLevel
	case Debug:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// Fields attaches structured key/value context to a log line.
type Fields map[string]interface{}

// Logger is the interface every component logs through, so call sites never
// depend on logrus directly.
type Logger interface {
	Debug(fmt string, args ...interface{})
	Info(fmt string, args ...interface{})
	Warn(fmt string, args ...interface{})
	Error(fmt string, args ...interface{})
	WithFields(fields Fields) Logger
}

// logrusLogger is the production Logger, backed by a *logrus.Logger.
type logrusLogger struct {
	entry *logrus.Entry
}

// New returns a Logger writing JSON-formatted entries at level to w.
func New(w io.Writer, level Level) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level.logrus())
	l.SetFormatter(&logrus.JSONFormatter{})
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) Debug(f string, args ...interface{}) { l.entry.Debugf(f, args...) }
func (l *logrusLogger) Info(f string, args ...interface{})  { l.entry.Infof(f, args...) }
func (l *logrusLogger) Warn(f string, args ...interface{})  { l.entry.Warnf(f, args...) }
func (l *logrusLogger) Error(f string, args ...interface{}) { l.entry.Errorf(f, args...) }

func (l *logrusLogger) WithFields(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// NoOp is a Logger that discards everything, for tests.
type NoOp struct{}

func (NoOp) Debug(string, ...interface{})   {}
func (NoOp) Info(string, ...interface{})    {}
func (NoOp) Warn(string, ...interface{})    {}
func (NoOp) Error(string, ...interface{})   {}
func (n NoOp) WithFields(Fields) Logger     { return n }
