package realmenv

import (
	"log/slog"

	"github.com/giantswarm/realmenv/internal/core"
)

// SetLogger replaces the package-level logger used by realmenv. The logger
// should already carry any attributes the application wants; realmenv adds
// none to it.
//
// If l is nil, the logger resets to slog.Default() with a
// "component=realmenv" attribute. Call SetLogger(nil) after slog.SetDefault
// to pick up the new default.
//
// SetLogger is safe to call concurrently with other realmenv operations.
// Loggers are captured when a reconciliation starts, so a change applies
// from the next Ensure call.
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
