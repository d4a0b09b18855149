/*
 * SPDX-License-Identifier: Apache-2.0
 */
package logs

import (
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/gorevive/gorevive/commonerrors"
)

// sync error can happen on Linux (sync /dev/stderr: invalid argument), see
// https://github.com/uber-go/zap/issues/328
const syncError = "invalid argument"

// NewZapLogger returns Loggers backed by a zap logger
// (https://github.com/uber-go/zap), flushing it on Close.
func NewZapLogger(zapL *zap.Logger, loggerSource string) (loggers Loggers, err error) {
	if zapL == nil {
		err = commonerrors.ErrNoLogger
		return
	}
	loggers = NewLogrLoggersWithClose(zapr.NewLogger(zapL), loggerSource, func() error {
		syncErr := zapL.Sync()
		if commonerrors.CorrespondTo(syncErr, syncError) {
			return nil
		}
		return syncErr
	})
	return
}
