package monitoring

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the structured logger behind Logf. Commands configure its level and
// output at startup; library code should go through Logf.
var Log = newLogger(os.Stderr)

// Logf is the package-level diagnostic logger. It defaults to Log.Infof but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = Log.Infof

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return l
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Configure points Log at w with the named level ("debug", "info", "warn",
// "error") and routes Logf through it.
func Configure(w io.Writer, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Log.SetOutput(w)
	Log.SetLevel(lvl)
	Logf = Log.Infof
	return nil
}

// CheckLevel reports whether level names a known log level.
func CheckLevel(level string) error {
	_, err := logrus.ParseLevel(level)
	return err
}

// WithSession returns an entry tagged with the capture session id.
func WithSession(id string) *logrus.Entry {
	return Log.WithField("session", id)
}
