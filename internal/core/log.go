package core

import (
	"log/slog"
	"sync/atomic"
)

// logger holds the logger installed with SetLogger. Nil means "derive one
// from slog.Default()".
var logger atomic.Pointer[slog.Logger]

// fallback caches the logger derived from slog.Default() so Logger does not
// allocate on every call. SetLogger clears it.
var fallback atomic.Pointer[slog.Logger]

// Logger returns the package logger: the one installed with SetLogger, or
// slog.Default() with a "component=realmenv" attribute.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := fallback.Load(); l != nil {
		return l
	}
	l := slog.Default().With("component", "realmenv")
	if fallback.CompareAndSwap(nil, l) {
		return l
	}
	if cached := fallback.Load(); cached != nil {
		return cached
	}
	return l
}

// SetLogger installs l as the package logger. A nil l restores the default,
// re-derived from slog.Default() on the next Logger call.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	fallback.Store(nil)
}
