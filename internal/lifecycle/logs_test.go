package lifecycle

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/giantswarm/realmenv/internal/testutil/fakeruntime"
)

func TestForward(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	forward(io.NopCloser(strings.NewReader("first\n\nsecond\n")), log)

	out := buf.String()
	if strings.Count(out, "level=INFO") != 2 {
		t.Errorf("forwarded lines:\n%s\nwant two info records", out)
	}
	if !strings.Contains(out, "msg=first") || !strings.Contains(out, "msg=second") {
		t.Errorf("forwarded lines:\n%s", out)
	}
}

func TestStart_LogAttributesDoNotRepeatService(t *testing.T) {
	t.Parallel()

	rt := fakeruntime.New()
	t.Cleanup(rt.Close)

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).With("service", "lorisgate")
	l := New(rt, Config{PollInterval: 10 * time.Millisecond, Logger: log})

	ctx := context.Background()
	h, err := l.Create(ctx, baseSpec())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Start(ctx, h, testTimeout); err != nil {
		t.Fatal(err)
	}
	if err := l.Stop(ctx, h); err != nil {
		t.Fatal(err)
	}

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if n := strings.Count(line, " service="); n > 1 {
			t.Errorf("record repeats the service attribute:\n%s", line)
		}
	}
	if !strings.Contains(buf.String(), "service_addr=") {
		t.Errorf("health record lacks service_addr:\n%s", buf.String())
	}
}
