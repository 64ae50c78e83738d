// Package observe provides the logging and tracing hooks used across the
// engine. Log lines never contain passwords, keys, salts, or plaintext; they
// carry component names, algorithm identifiers, and fallback warnings only.
package observe

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// Logger returns the process-wide logger. The default level is Warn so that
// library consumers only see fallback and deprecation warnings unless they
// opt into more.
func Logger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	})
	return logger
}

// Component returns an entry tagged with a component name, e.g. "derive" or
// "engine".
func Component(name string) *logrus.Entry {
	return Logger().WithField("component", name)
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	Logger().SetOutput(w)
}

// SetLevel adjusts the log level.
func SetLevel(level logrus.Level) {
	Logger().SetLevel(level)
}
