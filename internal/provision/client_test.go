package provision

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giantswarm/realmenv/internal/config"
	"github.com/giantswarm/realmenv/internal/testutil/fakegate"
)

func newGate(t *testing.T) *fakegate.Server {
	t.Helper()
	gate, err := fakegate.Start("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = gate.Close() })
	return gate
}

func newClient(t *testing.T, gate *fakegate.Server) *AdminClient {
	t.Helper()
	c := NewAdminClient(gate.URL(), 5*time.Second, nil)
	t.Cleanup(c.Close)
	return c
}

func TestGetRealm(t *testing.T) {
	t.Parallel()

	gate := newGate(t)
	gate.SeedRealm("dev")
	c := newClient(t, gate)

	r, found, err := c.GetRealm(context.Background(), "dev")
	if err != nil || !found || r.Name != "dev" {
		t.Fatalf("GetRealm(dev) = %+v, %v, %v", r, found, err)
	}

	_, found, err = c.GetRealm(context.Background(), "missing")
	if err != nil || found {
		t.Fatalf("GetRealm(missing) found=%v err=%v, want absent and nil", found, err)
	}
}

func TestCreateIfAbsent_Idempotent(t *testing.T) {
	t.Parallel()

	gate := newGate(t)
	c := newClient(t, gate)
	realm := DefaultRealm(config.Default().DefaultRealm)

	created, err := c.CreateIfAbsent(context.Background(), realm)
	if err != nil || !created {
		t.Fatalf("first CreateIfAbsent() = %v, %v, want true, nil", created, err)
	}
	created, err = c.CreateIfAbsent(context.Background(), realm)
	if err != nil || created {
		t.Fatalf("second CreateIfAbsent() = %v, %v, want false, nil", created, err)
	}

	if _, creates, _ := gate.Calls(); creates != 1 {
		t.Errorf("create calls = %d, want 1", creates)
	}
	if n := gate.RealmCount(); n != 1 {
		t.Errorf("realms stored = %d, want 1", n)
	}

	stored, _ := gate.Realm("dev")
	users, _ := stored["users"].(map[string]any)
	clients, _ := stored["clients"].(map[string]any)
	if len(users) != 2 || len(clients) != 2 {
		t.Errorf("stored realm has %d users and %d clients, want 2 and 2", len(users), len(clients))
	}
}

func TestCreateRealm_StatusError(t *testing.T) {
	t.Parallel()

	gate := newGate(t)
	gate.FailCreates(http.StatusInternalServerError)
	c := newClient(t, gate)

	_, err := c.CreateIfAbsent(context.Background(), Realm{Name: "dev", Enabled: true})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("CreateIfAbsent() error = %v, want *StatusError", err)
	}
	if se.Status != http.StatusInternalServerError || se.Body != "create rejected" {
		t.Errorf("StatusError = %+v, want status 500 and body", se)
	}
	if !errors.Is(err, ErrProvisioning) {
		t.Error("StatusError does not match ErrProvisioning")
	}
}

func TestCreateRealm_ExistingIsConflict(t *testing.T) {
	t.Parallel()

	gate := newGate(t)
	gate.SeedRealm("dev")
	c := newClient(t, gate)

	err := c.CreateRealm(context.Background(), Realm{Name: "dev"})
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusConflict {
		t.Fatalf("CreateRealm() error = %v, want 409 StatusError", err)
	}
}

func TestAdminClient_TransportError(t *testing.T) {
	t.Parallel()

	gate := newGate(t)
	url := gate.URL()
	_ = gate.Close()

	c := NewAdminClient(url, time.Second, nil)
	defer c.Close()

	_, _, err := c.GetRealm(context.Background(), "dev")
	if !errors.Is(err, ErrProvisioning) {
		t.Fatalf("GetRealm() error = %v, want ErrProvisioning", err)
	}
}

func TestAdminClient_Closed(t *testing.T) {
	t.Parallel()

	gate := newGate(t)
	c := NewAdminClient(gate.URL(), time.Second, nil)
	c.Close()
	c.Close()

	if _, _, err := c.GetRealm(context.Background(), "dev"); !errors.Is(err, ErrProvisioning) {
		t.Fatalf("GetRealm() after Close error = %v, want ErrProvisioning", err)
	}
}

func TestAdminClient_CanceledContext(t *testing.T) {
	t.Parallel()

	gate := newGate(t)
	c := newClient(t, gate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := c.GetRealm(ctx, "dev"); !errors.Is(err, context.Canceled) {
		t.Fatalf("GetRealm() error = %v, want context.Canceled", err)
	}
	if gets, _, _ := gate.Calls(); gets != 0 {
		t.Errorf("gets = %d, want 0", gets)
	}
}

func TestAdminClient_CancelInFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := NewAdminClient(srv.URL, 30*time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, found, err := c.GetRealm(ctx, "dev")
	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrProvisioning) {
		t.Errorf("GetRealm() error = %v, want ErrProvisioning and context.Canceled", err)
	}
	if found {
		t.Error("GetRealm() reported a realm for an abandoned call")
	}
	if elapsed > 2*time.Second {
		t.Errorf("GetRealm() returned after %s, want prompt return on cancellation", elapsed)
	}

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Error("Close() blocked on an abandoned request")
	}
}
