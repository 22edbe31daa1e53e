package notify

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifierLevels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := NewLogNotifier(logger)

	n.Notify(LevelSuccess, "Login successful")
	n.Notify(LevelError, "Failed to load accounts")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, "Login successful", entries[0].Message)
	assert.Equal(t, logrus.ErrorLevel, entries[1].Level)
	assert.Equal(t, "error", entries[1].Data["notice"])
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Notify(LevelError, "boom")
	r.Navigate("/login")

	assert.Equal(t, []Notice{{Level: LevelError, Message: "boom"}}, r.Notices())
	assert.Equal(t, []string{"/login"}, r.Navigations())

	r.Reset()
	assert.Empty(t, r.Notices())
	assert.Empty(t, r.Navigations())
}
