package core

import (
	"context"
	"errors"
	"testing"

	"github.com/giantswarm/realmenv/internal/runtime"
)

func TestOwnership_String(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		o     Ownership
		want  string
		valid bool
	}{
		"owned":      {o: Owned, want: "owned", valid: true},
		"discovered": {o: Discovered, want: "discovered", valid: true},
		"unknown":    {o: Ownership(7), want: "Ownership(7)"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := tc.o.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
			if got := tc.o.IsValid(); got != tc.valid {
				t.Errorf("IsValid() = %v, want %v", got, tc.valid)
			}
		})
	}
}

func TestService_CloseOnce(t *testing.T) {
	t.Parallel()

	addr := runtime.Address{ID: "c1", Host: "127.0.0.1", Port: 8080}
	svc := newService(Owned, addr, addr, map[string]string{PropHost: "127.0.0.1"})

	calls := 0
	boom := errors.New("boom")
	svc.closeFn = func(context.Context) error {
		calls++
		return boom
	}

	for range 3 {
		if err := svc.Close(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("Close() error = %v, want %v", err, boom)
		}
	}
	if calls != 1 {
		t.Errorf("close function ran %d times, want 1", calls)
	}
}

func TestService_PropertiesIsCopy(t *testing.T) {
	t.Parallel()

	addr := runtime.Address{ID: "c1", Host: "127.0.0.1", Port: 8080}
	svc := newService(Discovered, addr, addr, map[string]string{PropHost: "127.0.0.1"})

	props := svc.Properties()
	props[PropHost] = "changed"

	if got := svc.Properties()[PropHost]; got != "127.0.0.1" {
		t.Errorf("host = %q after mutating a copy", got)
	}
	if err := svc.Close(context.Background()); err != nil {
		t.Errorf("Close() on discovered service = %v", err)
	}
}
