/*
 * Copyright 2022 The FlowSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package log wraps logrus behind a stable package-level facade so callers
// never import logrus directly.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Fields defines the field map to pass to WithFields.
type Fields logrus.Fields

const (
	// PanicLevel level, highest level of severity.
	PanicLevel = logrus.PanicLevel
	// FatalLevel level. Logs and then calls os.Exit(1).
	FatalLevel = logrus.FatalLevel
	// ErrorLevel level. Used for errors that should definitely be noted.
	ErrorLevel = logrus.ErrorLevel
	// WarnLevel level. Non-critical entries that deserve eyes.
	WarnLevel = logrus.WarnLevel
	// InfoLevel level. General operational entries.
	InfoLevel = logrus.InfoLevel
	// DebugLevel level. Very verbose logging.
	DebugLevel = logrus.DebugLevel
)

var std = logrus.New()

// SetLevel sets the standard logger level.
func SetLevel(level logrus.Level) {
	std.SetLevel(level)
}

// GetLevel returns the standard logger level.
func GetLevel() logrus.Level {
	return std.Level
}

// SetOutput sets the standard logger output.
func SetOutput(out io.Writer) {
	std.Out = out
}

// SetStringLevel sets the standard logger level by name, falling back to
// the supplied default on parse failure.
func SetStringLevel(level string, defaultLevel logrus.Level) {
	if lvl, err := logrus.ParseLevel(level); err != nil {
		std.SetLevel(defaultLevel)
	} else {
		std.SetLevel(lvl)
	}
}

// WithField allocates a new entry and adds a field to it.
func WithField(key string, value interface{}) *logrus.Entry {
	return std.WithField(key, value)
}

// WithFields allocates a new entry and adds multiple fields to it.
func WithFields(fields Fields) *logrus.Entry {
	return std.WithFields(logrus.Fields(fields))
}

// WithError adds an error as a single field to a new entry.
func WithError(err error) *logrus.Entry {
	return std.WithError(err)
}

// Debug logs a message at level Debug.
func Debug(args ...interface{}) { std.Debug(args...) }

// Info logs a message at level Info.
func Info(args ...interface{}) { std.Info(args...) }

// Warn logs a message at level Warn.
func Warn(args ...interface{}) { std.Warn(args...) }

// Error logs a message at level Error.
func Error(args ...interface{}) { std.Error(args...) }

// Fatal logs a message at level Fatal then the process will exit with status set to 1.
func Fatal(args ...interface{}) { std.Fatal(args...) }

// Panic logs a message at level Panic.
func Panic(args ...interface{}) { std.Panic(args...) }

// Debugf logs a message at level Debug.
func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }

// Infof logs a message at level Info.
func Infof(format string, args ...interface{}) { std.Infof(format, args...) }

// Warnf logs a message at level Warn.
func Warnf(format string, args ...interface{}) { std.Warnf(format, args...) }

// Errorf logs a message at level Error.
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }

// Fatalf logs a message at level Fatal then the process will exit with status set to 1.
func Fatalf(format string, args ...interface{}) { std.Fatalf(format, args...) }
