package util

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// NotifyOnPanic reports a panic of the calling goroutine to sentry and the
// log, then panics again. Use as: defer util.NotifyOnPanic("Task#PatternMine", env).
func NotifyOnPanic(taskID, env string) {
	if pe := recover(); pe != nil {
		msg := fmt.Sprintf("Panic CausedBy: %v\nStackTrace: %v\n", pe, string(debug.Stack()))
		log.WithFields(log.Fields{"task_id": taskID, "env": env}).Error(msg)

		if hub := sentry.CurrentHub(); hub.Client() != nil {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("task_id", taskID)
				scope.SetTag("env", env)
				hub.Recover(pe)
			})
			sentry.Flush(2 * time.Second)
		}
		panic(pe)
	}
}
