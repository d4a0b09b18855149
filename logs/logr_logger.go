/*
 * SPDX-License-Identifier: Apache-2.0
 */
package logs

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/gorevive/gorevive/commonerrors"
)

const (
	KeyLogSource    = "source"
	KeyLoggerSource = "logger-source"
)

type logrLogger struct {
	logger  logr.Logger
	closeFn func() error
}

func (l *logrLogger) Close() error {
	if l.closeFn == nil {
		return nil
	}
	return l.closeFn()
}

func (l *logrLogger) Check() error {
	if l.logger.GetSink() == nil {
		return commonerrors.ErrNoLogger
	}
	return nil
}

func (l *logrLogger) SetLogSource(source string) error {
	if source == "" {
		return commonerrors.ErrNoLogSource
	}
	l.logger = l.logger.WithValues(KeyLogSource, source)
	return nil
}

func (l *logrLogger) SetLoggerSource(source string) error {
	if source == "" {
		return commonerrors.New(commonerrors.ErrInvalid, "missing logger source")
	}
	l.logger = l.logger.WithName(source).WithValues(KeyLoggerSource, source)
	return nil
}

func (l *logrLogger) Log(output ...interface{}) {
	l.logger.Info(fmt.Sprintln(output...))
}

func (l *logrLogger) LogError(err ...interface{}) {
	l.logger.Error(nil, fmt.Sprintln(err...))
}

// NewLogrLoggers creates Loggers backed by a logr.Logger
// (https://github.com/go-logr/logr). loggerSource names the component
// attaching the logger, e.g. "streampipe" or "mocksocket".
func NewLogrLoggers(logrImpl logr.Logger, loggerSource string) Loggers {
	return NewLogrLoggersWithClose(logrImpl, loggerSource, nil)
}

// NewLogrLoggersWithClose is like NewLogrLoggers but calls closeFn when the
// returned Loggers is closed, e.g. to flush an underlying zap core.
func NewLogrLoggersWithClose(logrImpl logr.Logger, loggerSource string, closeFn func() error) Loggers {
	l := &logrLogger{logger: logrImpl, closeFn: closeFn}
	_ = l.SetLoggerSource(loggerSource)
	return l
}
