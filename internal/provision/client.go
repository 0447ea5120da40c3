package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds each admin API call. It is generous so that a cold
// server still answers.
const DefaultTimeout = 5 * time.Minute

// AdminClient is a short-lived client for one orchestration pass. Close
// releases its pooled HTTP client once no request is in flight; calls after
// Close fail.
type AdminClient struct {
	endpoint string
	timeout  time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	client   *fiber.Client
	inflight int
	closed   bool
}

// NewAdminClient creates a client for the server at endpoint (scheme, host
// and port, no trailing slash). A non-positive timeout uses DefaultTimeout.
func NewAdminClient(endpoint string, timeout time.Duration, log *slog.Logger) *AdminClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &AdminClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		timeout:  timeout,
		log:      log,
		client:   fiber.AcquireClient(),
	}
}

// Endpoint returns the server base URL.
func (c *AdminClient) Endpoint() string {
	return c.endpoint
}

// Close releases the client. A request abandoned by its caller keeps the
// client until it finishes. Safe to call more than once.
func (c *AdminClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.releaseLocked()
}

func (c *AdminClient) releaseLocked() {
	if c.closed && c.inflight == 0 && c.client != nil {
		fiber.ReleaseClient(c.client)
		c.client = nil
	}
}

// GetRealm reads a realm. A 404 reports found=false with a nil error.
func (c *AdminClient) GetRealm(ctx context.Context, name string) (Realm, bool, error) {
	u := c.endpoint + "/admin/realms/" + url.PathEscape(name)

	status, body, err := c.do(ctx, fiber.MethodGet, u, nil)
	if err != nil {
		return Realm{}, false, err
	}
	switch status {
	case fiber.StatusOK:
	case fiber.StatusNotFound:
		return Realm{}, false, nil
	default:
		return Realm{}, false, &StatusError{Method: fiber.MethodGet, URL: u, Status: status, Body: string(body)}
	}

	var r Realm
	if err := json.Unmarshal(body, &r); err != nil {
		return Realm{}, false, fmt.Errorf("%w: decode realm %s: %w", ErrProvisioning, name, err)
	}
	return r, true, nil
}

// CreateRealm posts a realm. Only 201 Created counts as success.
func (c *AdminClient) CreateRealm(ctx context.Context, r Realm) error {
	u := c.endpoint + "/admin/realms"

	status, body, err := c.do(ctx, fiber.MethodPost, u, r)
	if err != nil {
		return err
	}
	if status != fiber.StatusCreated {
		return &StatusError{Method: fiber.MethodPost, URL: u, Status: status, Body: string(body)}
	}
	return nil
}

// CreateIfAbsent creates r unless a realm with its name exists. It reports
// whether a realm was created. Existing realms are left untouched.
func (c *AdminClient) CreateIfAbsent(ctx context.Context, r Realm) (bool, error) {
	existing, found, err := c.GetRealm(ctx, r.Name)
	if err != nil {
		return false, err
	}
	if found {
		c.log.Warn("realm already exists", "realm", existing.Name, "endpoint", c.endpoint)
		return false, nil
	}
	if err := c.CreateRealm(ctx, r); err != nil {
		return false, err
	}
	c.log.Info("realm created", "realm", r.Name, "endpoint", c.endpoint)
	return true, nil
}

type response struct {
	status int
	body   []byte
	errs   []error
}

// do sends one request. It returns as soon as ctx is done; the request
// itself then runs on until its own timeout.
func (c *AdminClient) do(ctx context.Context, method, u string, payload any) (int, []byte, error) {
	timeout, err := c.callTimeout(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %w", ErrProvisioning, method, u, err)
	}

	a, err := c.agent(method, u, payload)
	if err != nil {
		return 0, nil, err
	}
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON).Timeout(timeout)

	done := make(chan response, 1)
	go func() {
		defer c.finish()
		status, body, errs := a.Bytes()
		done <- response{status: status, body: body, errs: errs}
	}()

	select {
	case <-ctx.Done():
		c.log.Debug("admin call abandoned", "method", method, "url", u, "error", ctx.Err())
		return 0, nil, fmt.Errorf("%w: %s %s: %w", ErrProvisioning, method, u, ctx.Err())
	case r := <-done:
		if len(r.errs) > 0 {
			return 0, nil, fmt.Errorf("%w: %s %s: %w", ErrProvisioning, method, u, errors.Join(r.errs...))
		}
		c.log.Debug("admin call", "method", method, "url", u, "status", r.status)
		return r.status, r.body, nil
	}
}

// agent prepares a request and counts it as in flight. finish must follow.
func (c *AdminClient) agent(method, u string, payload any) (*fiber.Agent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("%w: %s %s: client closed", ErrProvisioning, method, u)
	}
	c.inflight++

	switch method {
	case fiber.MethodPost:
		return c.client.Post(u).JSON(payload), nil
	default:
		return c.client.Get(u), nil
	}
}

func (c *AdminClient) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	c.releaseLocked()
}

// callTimeout bounds a call by both the client timeout and ctx's deadline.
func (c *AdminClient) callTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}
	return timeout, nil
}
