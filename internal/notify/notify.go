// Package notify carries user-visible notices and navigation requests out of
// the client layers. Front ends supply their own implementations.
package notify

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier shows transient notices to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// Navigator moves the user to another entry point, e.g. "/login".
type Navigator interface {
	Navigate(path string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(Level, string) {})

// Nowhere ignores navigation requests.
var Nowhere Navigator = NavigatorFunc(func(string) {})

// LogNotifier writes notices to a logrus logger.
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) Notify(level Level, message string) {
	entry := n.Logger.WithField("notice", string(level))
	if level == LevelError {
		entry.Error(message)
		return
	}
	entry.Info(message)
}

// Notice is one recorded notification.
type Notice struct {
	Level   Level
	Message string
}

// Recorder keeps notices and navigation requests in memory.
type Recorder struct {
	mu       sync.Mutex
	notices  []Notice
	navigate []string
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	r.notices = append(r.notices, Notice{Level: level, Message: message})
	r.mu.Unlock()
}

func (r *Recorder) Navigate(path string) {
	r.mu.Lock()
	r.navigate = append(r.navigate, path)
	r.mu.Unlock()
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Navigations returns a copy of the recorded navigation targets.
func (r *Recorder) Navigations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.navigate...)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.notices = nil
	r.navigate = nil
	r.mu.Unlock()
}
