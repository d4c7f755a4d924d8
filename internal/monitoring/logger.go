// Package monitoring holds the package-level diagnostic logger shared by the
// viewer packages. Keeping it in one place lets binaries and tests redirect
// or mute all pipeline logging with a single call.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Warnf logs a non-fatal condition (skipped record, clamped config value).
// It shares the sink with Logf but prefixes the message so warnings remain
// greppable in mixed output.
func Warnf(format string, v ...interface{}) {
	Logf("warn: "+format, v...)
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
