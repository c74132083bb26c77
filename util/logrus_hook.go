package util

import (
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// SentryHook forwards error level entries to sentry. Entry fields become
// sentry extras.
type SentryHook struct {
	Hub *sentry.Hub
}

var (
	levels = []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
)

func NewSentryHook(hub *sentry.Hub) *SentryHook {
	return &SentryHook{Hub: hub}
}

func (h *SentryHook) Levels() []logrus.Level {
	return levels
}

func (h *SentryHook) Fire(entry *logrus.Entry) error {
	if h.Hub == nil || h.Hub.Client() == nil {
		return nil
	}
	h.Hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(SentryLevel(entry.Level))
		for key, value := range entry.Data {
			if key == logrus.ErrorKey {
				continue
			}
			scope.SetExtra(key, fmt.Sprintf("%v", value))
		}
		if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
			scope.SetExtra("message", entry.Message)
			h.Hub.CaptureException(err)
			return
		}
		h.Hub.CaptureException(errors.New(entry.Message))
	})
	return nil
}

func SentryLevel(level logrus.Level) sentry.Level {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return sentry.LevelFatal
	case logrus.ErrorLevel:
		return sentry.LevelError
	case logrus.WarnLevel:
		return sentry.LevelWarning
	case logrus.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
