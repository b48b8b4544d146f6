package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. format "json" or a production environment
// selects the JSON formatter; anything else logs text. An unknown level falls
// back to info.
func New(level, format string, production bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	if format == "json" || (format == "" && production) {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}
