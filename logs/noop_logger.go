/*
 * SPDX-License-Identifier: Apache-2.0
 */
package logs

import (
	"github.com/go-logr/logr"
)

// NewNoopLogger returns Loggers that discard everything, for tests and
// fault-injection scenarios that do not care about log output.
func NewNoopLogger(loggerSource string) (loggers Loggers, err error) {
	loggers = NewLogrLoggers(logr.Discard(), loggerSource)
	return
}
