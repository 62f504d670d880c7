// Package candidlog is the optional diagnostic sink: the warning path
// emits a diagnostic through the caller's log sink if present, while the
// core itself never performs I/O. The core packages never import this one
// — they accept a narrow Warnf-shaped function value instead — so a
// caller who wants nothing never writes a single line of logging code.
package candidlog

import (
	"os"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("candid")

var stderrFormat = logging.MustStringFormatter(
	`%{color}candid ▶ %{level:.6s} %{message}%{color:reset}`,
)

// Setup installs a stderr backend at a level controlled by the
// CANDID_LOG_LEVEL environment variable (falling back to defaultLevel),
// and returns a Logger that wraps it.
func Setup(defaultLevel logging.Level) *Logger {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	logging.SetFormatter(stderrFormat)
	leveled := logging.AddModuleLevel(backend)

	switch os.Getenv("CANDID_LOG_LEVEL") {
	case "CRITICAL":
		leveled.SetLevel(logging.CRITICAL, "candid")
	case "ERROR":
		leveled.SetLevel(logging.ERROR, "candid")
	case "WARNING":
		leveled.SetLevel(logging.WARNING, "candid")
	case "NOTICE":
		leveled.SetLevel(logging.NOTICE, "candid")
	case "INFO":
		leveled.SetLevel(logging.INFO, "candid")
	case "DEBUG":
		leveled.SetLevel(logging.DEBUG, "candid")
	default:
		leveled.SetLevel(defaultLevel, "candid")
	}

	logging.SetBackend(leveled)
	return &Logger{inner: log}
}

// Logger adapts *logging.Logger to the narrow Warnf shape that
// candid.Config.Warnf and the coerce package accept, so those packages
// never import go-logging directly.
type Logger struct {
	inner *logging.Logger
}

// Warnf logs a formatted warning, matching the coerce package's
// func(format string, args ...interface{}) callback shape.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.inner.Warningf(format, args...)
}
