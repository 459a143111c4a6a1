package recovery

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/MindFlowInteractive/quest-social-api/shared/logging"
)

// Safe invokes fn and converts a panic into an error so callers keep their
// normal failure path instead of crashing the process.
func Safe(logger *logging.Logger, task string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(logger, task, r)
			err = fmt.Errorf("panic in %s: %v", task, r)
		}
	}()
	return fn()
}

// Go runs fn in a goroutine with panic recovery. A panic is logged and the
// goroutine exits; the rest of the process keeps running.
func Go(logger *logging.Logger, task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, task, r)
			}
		}()
		fn()
	}()
}

// GoWithContext runs fn in a goroutine with panic recovery, passing ctx
// through to the function.
func GoWithContext(ctx context.Context, logger *logging.Logger, task string, fn func(context.Context)) {
	Go(logger, task, func() { fn(ctx) })
}

func logPanic(logger *logging.Logger, task string, recovered interface{}) {
	logger.WithFields(map[string]interface{}{
		"task":  task,
		"stack": string(debug.Stack()),
	}).Errorf("recovered panic: %v", recovered)
}
