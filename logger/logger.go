// Package logger configures the process-wide logrus logger used
// for diagnostics. Progress and summaries go to stdout directly;
// logs are for humans debugging a run.
package logger

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/sirupsen/logrus"
)

// Enable turns on logging. With a fileName, logs are appended to
// that file as JSON; otherwise they go to stderr as text. verbose
// lowers the level to debug so each sample is logged.
func Enable(fileName string, verbose bool) error {
	logrus.SetLevel(logrus.InfoLevel)
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if fileName == "" {
		logrus.SetFormatter(&logrus.TextFormatter{})
		logrus.SetOutput(os.Stderr)
		return nil
	}

	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(f)
	return nil
}

// Disable discards all log output. This is the default for
// the CLI unless --v or --log is given.
func Disable() {
	logrus.SetOutput(ioutil.Discard)
}

// SetOutput redirects logs to w, mostly for tests.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}
