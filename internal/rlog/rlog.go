// Package rlog provides the runtime's leveled diagnostics. Contract
// violations and resource exhaustion are fatal: Fatal logs a structured
// event and panics so a caller blocked on a root semaphore is never
// abandoned silently.
package rlog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	logger *zap.Logger
)

// L returns the process-wide structured logger, building a development
// logger lazily on first use. Production binaries (cmd/forkjoin-bench)
// call Configure before touching the runtime to install a production
// logger instead.
func L() *zap.Logger {
	once.Do(func() {
		if logger == nil {
			l, err := zap.NewDevelopment()
			if err != nil {
				l = zap.NewNop()
			}
			logger = l
		}
	})
	return logger
}

// Configure installs a production-style JSON logger when production is
// true, and a development console logger otherwise. Must be called
// before any worker context is initialised to take effect.
func Configure(production bool) {
	var l *zap.Logger
	var err error
	if production {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		l = zap.NewNop()
	}
	once.Do(func() {})
	logger = l
}

// Assert panics with a structured log line if cond is false. Used for
// contract violations: stacklet deallocation past the current segment's
// offset, finalize with work still queued, sync_wait called from within
// a running frame, nil submission handles.
func Assert(cond bool, msg string, fields ...zap.Field) {
	if cond {
		return
	}
	Fatal(msg, fields...)
}

// Fatal logs msg at error level with fields and panics. Reserved for
// contract violations and resource exhaustion; user failures must never
// reach here.
func Fatal(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
	panic(msg)
}
