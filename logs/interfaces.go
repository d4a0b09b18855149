/*
 * SPDX-License-Identifier: Apache-2.0
 */

// Package logs defines a small structured-logging abstraction used by the
// streampipe, mocksocket, blockio and pingclient packages, backed by
// github.com/go-logr/logr implementations.
package logs

import "io"

type Loggers interface {
	io.Closer
	// Check checks whether the loggers are correctly defined or not.
	Check() error
	// SetLogSource sets the source of the log message, e.g. the stream or
	// surrogate that produced it.
	SetLogSource(source string) error
	// SetLoggerSource sets the source of the logger itself, e.g. the
	// package or worker that owns it.
	SetLoggerSource(source string) error
	// Log logs to the output logger.
	Log(output ...interface{})
	// LogError logs to the error logger.
	LogError(err ...interface{})
}
