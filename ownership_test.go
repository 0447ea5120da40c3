package realmenv_test

import (
	"reflect"
	"testing"

	"github.com/giantswarm/realmenv"
)

// TestOwnershipMethods is a canary for methods added to core.Ownership, which
// become public API through the alias in ownership.go.
func TestOwnershipMethods(t *testing.T) {
	t.Parallel()

	want := map[string]bool{
		"IsValid": true,
		"String":  true,
	}

	typ := reflect.TypeFor[realmenv.Ownership]()
	if typ.NumMethod() != len(want) {
		t.Errorf("Ownership has %d methods, want %d", typ.NumMethod(), len(want))
	}
	for i := range typ.NumMethod() {
		name := typ.Method(i).Name
		if !want[name] {
			t.Errorf("unexpected method %q on Ownership", name)
		}
		delete(want, name)
	}
	for name := range want {
		t.Errorf("expected method %q not found on Ownership", name)
	}
}

func TestOwnershipString(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		o    realmenv.Ownership
		want string
	}{
		"owned":      {o: realmenv.Owned, want: "owned"},
		"discovered": {o: realmenv.Discovered, want: "discovered"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := tc.o.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}
