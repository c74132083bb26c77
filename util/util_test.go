package util

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transportMock struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *transportMock) Configure(options sentry.ClientOptions) {}

func (t *transportMock) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *transportMock) Flush(timeout time.Duration) bool {
	return true
}

func newTestHub(t *testing.T) (*sentry.Hub, *transportMock) {
	transport := &transportMock{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://public@sentry.example.com/1",
		Transport: transport,
	})
	require.NoError(t, err)
	return sentry.NewHub(client, sentry.NewScope()), transport
}

func TestSentryHookLevels(t *testing.T) {
	hook := NewSentryHook(nil)
	assert.Equal(t, []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}, hook.Levels())
}

func TestSentryHookWithoutClient(t *testing.T) {
	hook := NewSentryHook(sentry.NewHub(nil, sentry.NewScope()))
	entry := logrus.NewEntry(logrus.New())
	entry.Message = "ignored"
	assert.NoError(t, hook.Fire(entry))
}

func TestSentryHookCapturesEntries(t *testing.T) {
	hub, transport := newTestHub(t)
	hook := NewSentryHook(hub)

	logger := logrus.New()
	entry := logger.WithFields(logrus.Fields{"run_id": "abc", logrus.ErrorKey: errors.New("disk full")})
	entry.Level = logrus.ErrorLevel
	entry.Message = "Failed to publish patterns."
	require.NoError(t, hook.Fire(entry))

	plain := logrus.NewEntry(logger)
	plain.Level = logrus.FatalLevel
	plain.Message = "Mining failed."
	require.NoError(t, hook.Fire(plain))

	require.Len(t, transport.events, 2)
	first := transport.events[0]
	assert.Equal(t, sentry.LevelError, first.Level)
	assert.Equal(t, "abc", first.Extra["run_id"])
	assert.Equal(t, "Failed to publish patterns.", first.Extra["message"])
	require.NotEmpty(t, first.Exception)
	assert.Equal(t, "disk full", first.Exception[0].Value)

	second := transport.events[1]
	assert.Equal(t, sentry.LevelFatal, second.Level)
	require.NotEmpty(t, second.Exception)
	assert.Equal(t, "Mining failed.", second.Exception[0].Value)
}

func TestSentryLevel(t *testing.T) {
	assert.Equal(t, sentry.LevelFatal, SentryLevel(logrus.PanicLevel))
	assert.Equal(t, sentry.LevelError, SentryLevel(logrus.ErrorLevel))
	assert.Equal(t, sentry.LevelWarning, SentryLevel(logrus.WarnLevel))
	assert.Equal(t, sentry.LevelInfo, SentryLevel(logrus.InfoLevel))
	assert.Equal(t, sentry.LevelDebug, SentryLevel(logrus.TraceLevel))
}

func TestNotifyOnPanicPanicsAgain(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		defer NotifyOnPanic("Task#Test", "development")
		panic("boom")
	})
}

func TestNotifyOnPanicWithoutPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		defer NotifyOnPanic("Task#Test", "development")
	})
}
