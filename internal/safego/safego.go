// Package safego provides a panic-recovering goroutine launcher for
// fire-and-forget work such as email delivery and audit writes.
package safego

import (
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// reportPanic is replaced in tests.
var reportPanic = func(task string, r interface{}) {
	hub := sentry.CurrentHub().Clone()
	hub.Scope().SetTag("task", task)
	hub.Recover(fmt.Errorf("panic in %s: %v", task, r))
}

// Go runs fn in a new goroutine. A panic in fn is recovered, logged with the
// task name and reported to Sentry when a client is configured.
func Go(task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "task", task, "panic", r)
				reportPanic(task, r)
			}
		}()
		fn()
	}()
}
