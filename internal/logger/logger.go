// Package logger builds the structured logrus logger shared by the server,
// the scheduler and the queue consumer.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logger writing to stdout at the given level.  Production
// environments get JSON lines, everything else a readable text format.
func New(level, env string) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, env)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(w io.Writer, level, env string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("invalid log level %q, defaulting to info", level)
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if env == "production" || env == "prod" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
