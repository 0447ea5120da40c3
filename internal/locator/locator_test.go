package locator

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/realmenv/internal/config"
	"github.com/giantswarm/realmenv/internal/runtime"
	"github.com/giantswarm/realmenv/internal/testutil/fakeruntime"
)

func TestLocate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		seed      map[string]string
		service   string
		shared    bool
		mode      config.LaunchMode
		wantFound bool
	}{
		"hit": {
			seed:      Labels("lorisgate", config.LaunchDev),
			service:   "lorisgate",
			shared:    true,
			mode:      config.LaunchDev,
			wantFound: true,
		},
		"sharing disabled": {
			seed:    Labels("lorisgate", config.LaunchDev),
			service: "lorisgate",
			shared:  false,
			mode:    config.LaunchDev,
		},
		"test mode never discovers": {
			seed:    Labels("lorisgate", config.LaunchTest),
			service: "lorisgate",
			shared:  true,
			mode:    config.LaunchTest,
		},
		"other service name": {
			seed:    Labels("billing", config.LaunchDev),
			service: "lorisgate",
			shared:  true,
			mode:    config.LaunchDev,
		},
		"container from a test run": {
			seed:    Labels("lorisgate", config.LaunchTest),
			service: "lorisgate",
			shared:  true,
			mode:    config.LaunchDev,
		},
		"unlabelled container": {
			seed:    map[string]string{"app": "lorisgate"},
			service: "lorisgate",
			shared:  true,
			mode:    config.LaunchDev,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rt := fakeruntime.New()
			t.Cleanup(rt.Close)
			id, err := rt.Seed(tc.seed)
			if err != nil {
				t.Fatal(err)
			}

			addr, found, err := New(rt, nil).Locate(context.Background(), tc.service, tc.shared, tc.mode, nil)
			if err != nil {
				t.Fatalf("Locate() error = %v", err)
			}
			if found != tc.wantFound {
				t.Fatalf("Locate() found = %v, want %v", found, tc.wantFound)
			}
			if !found {
				return
			}
			if addr.ID != id {
				t.Errorf("Locate() id = %q, want %q", addr.ID, id)
			}
			if addr.Host != rt.Host() || addr.Port == 0 {
				t.Errorf("Locate() address = %+v, want host %s and a port", addr, rt.Host())
			}
		})
	}
}

func TestLocate_SkipsStoppedAndUnpublished(t *testing.T) {
	t.Parallel()

	rt := fakeruntime.New()
	t.Cleanup(rt.Close)

	labels := Labels("lorisgate", config.LaunchDev)
	stopped, err := rt.Seed(labels)
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.Stop(context.Background(), stopped, 0); err != nil {
		t.Fatal(err)
	}
	running, err := rt.Seed(labels)
	if err != nil {
		t.Fatal(err)
	}

	addr, found, err := New(rt, nil).Locate(context.Background(), "lorisgate", true, config.LaunchDev, nil)
	if err != nil || !found {
		t.Fatalf("Locate() = %+v, %v, %v", addr, found, err)
	}
	if addr.ID != running {
		t.Errorf("Locate() id = %q, want the running container %q", addr.ID, running)
	}
}

func TestLocate_Exclude(t *testing.T) {
	t.Parallel()

	rt := fakeruntime.New()
	t.Cleanup(rt.Close)

	labels := Labels("lorisgate", config.LaunchDev)
	retired, err := rt.Seed(labels)
	if err != nil {
		t.Fatal(err)
	}

	l := New(rt, nil)
	if _, found, err := l.Locate(context.Background(), "lorisgate", true, config.LaunchDev, sets.New(retired)); err != nil || found {
		t.Fatalf("Locate() found = %v, err = %v, want a miss", found, err)
	}

	other, err := rt.Seed(labels)
	if err != nil {
		t.Fatal(err)
	}
	addr, found, err := l.Locate(context.Background(), "lorisgate", true, config.LaunchDev, sets.New(retired))
	if err != nil || !found {
		t.Fatalf("Locate() = %+v, %v, %v", addr, found, err)
	}
	if addr.ID != other {
		t.Errorf("Locate() id = %q, want %q", addr.ID, other)
	}
}

func TestLocate_LogAttributes(t *testing.T) {
	t.Parallel()

	rt := fakeruntime.New()
	t.Cleanup(rt.Close)
	if _, err := rt.Seed(Labels("lorisgate", config.LaunchDev)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil)).With("service", "lorisgate")
	if _, found, err := New(rt, log).Locate(context.Background(), "lorisgate", true, config.LaunchDev, nil); err != nil || !found {
		t.Fatalf("Locate() found = %v, err = %v", found, err)
	}

	out := strings.TrimSpace(buf.String())
	if out == "" {
		t.Fatal("no log record for the located container")
	}
	for _, line := range strings.Split(out, "\n") {
		if n := strings.Count(line, " service="); n > 1 {
			t.Errorf("record repeats the service attribute:\n%s", line)
		}
	}
}

func TestLabels(t *testing.T) {
	t.Parallel()

	got := Labels("shop", config.LaunchTest)
	if got[runtime.LabelService] != "shop" || got[runtime.LabelLaunchMode] != "test" || len(got) != 2 {
		t.Errorf("Labels() = %v", got)
	}
}
