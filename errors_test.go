package realmenv_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/giantswarm/realmenv"
)

var allErrors = map[string]error{
	"ErrClosed":             realmenv.ErrClosed,
	"ErrContainerExited":    realmenv.ErrContainerExited,
	"ErrDisabled":           realmenv.ErrDisabled,
	"ErrProvisioning":       realmenv.ErrProvisioning,
	"ErrRuntimeUnavailable": realmenv.ErrRuntimeUnavailable,
	"ErrStartupTimeout":     realmenv.ErrStartupTimeout,
}

// TestPublicErrorConstants verifies that every exported error constant has a
// message and matches itself, directly and wrapped.
func TestPublicErrorConstants(t *testing.T) {
	t.Parallel()

	for name, sentinel := range allErrors {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if msg := sentinel.Error(); msg == "" {
				t.Errorf("%s.Error() returned empty string", name)
			}
			if !errors.Is(sentinel, sentinel) {
				t.Errorf("errors.Is(%s, %s) = false", name, name)
			}
			if wrapped := fmt.Errorf("wrapping: %w", sentinel); !errors.Is(wrapped, sentinel) {
				t.Errorf("errors.Is(wrapped %s) = false", name)
			}
		})
	}
}

func TestPublicErrorConstantsAreDistinct(t *testing.T) {
	t.Parallel()

	for a, errA := range allErrors {
		for b, errB := range allErrors {
			if a != b && errors.Is(errA, errB) {
				t.Errorf("errors.Is(%s, %s) = true: constants must be distinct", a, b)
			}
		}
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want bool
	}{
		"nil":                 {err: nil},
		"disabled":            {err: realmenv.ErrDisabled},
		"runtime unavailable": {err: fmt.Errorf("ping: %w", realmenv.ErrRuntimeUnavailable)},
		"closed":              {err: realmenv.ErrClosed},
		"startup timeout":     {err: fmt.Errorf("start: %w", realmenv.ErrStartupTimeout), want: true},
		"exited":              {err: realmenv.ErrContainerExited, want: true},
		"status error":        {err: &realmenv.StatusError{Status: 500}, want: true},
		"other":               {err: errors.New("boom")},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := realmenv.IsFatal(tc.err); got != tc.want {
				t.Errorf("IsFatal(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
