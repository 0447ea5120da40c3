// Package fakegate is an in-process stand-in for the auth server's HTTP
// surface: the health endpoint, the realm admin API and the OIDC discovery
// and token endpoints. Tests use it to observe provisioning calls.
package fakegate

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
)

// Server is a running fake auth server.
type Server struct {
	app *fiber.App
	ln  net.Listener

	mu           sync.Mutex
	realms       map[string]map[string]any
	healthy      bool
	createStatus int
	gets         int
	creates      int
	tokens       int
	closed       bool
}

// Start serves a fake on addr ("127.0.0.1:0" for a random port).
func Start(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	s := &Server{
		ln:      ln,
		realms:  make(map[string]map[string]any),
		healthy: true,
	}
	s.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	s.routes()

	go func() { _ = s.app.Listener(ln) }()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/q/health", s.health)

	admin := s.app.Group("/admin/realms")
	admin.Get("/:name", s.getRealm)
	admin.Post("/", s.createRealm)

	realm := s.app.Group("/realms/:name")
	realm.Get("/.well-known/openid-configuration", s.discovery)
	realm.Post("/protocol/openid-connect/token", s.token)
}

// URL returns the base URL of the server.
func (s *Server) URL() string {
	return "http://" + s.ln.Addr().String()
}

// Port returns the port the server listens on.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Close stops the server. Safe to call more than once.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.app.Shutdown()
	// Covers a Close that races the serving goroutine's startup.
	_ = s.ln.Close()
	return err
}

// SetHealthy controls whether the health endpoint answers 200 or 503.
func (s *Server) SetHealthy(healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = healthy
}

// FailCreates makes every realm creation answer status.
func (s *Server) FailCreates(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createStatus = status
}

// SeedRealm stores a realm as if it had been created earlier.
func (s *Server) SeedRealm(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.realms[name] = map[string]any{"name": name, "enabled": true}
}

// Realm returns the stored realm document.
func (s *Server) Realm(name string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.realms[name]
	return r, ok
}

// RealmCount returns the number of stored realms.
func (s *Server) RealmCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.realms)
}

// Calls returns the number of realm reads, realm creations and issued tokens.
func (s *Server) Calls() (gets, creates, tokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.creates, s.tokens
}

// AdminCalls returns the total number of admin API requests served.
func (s *Server) AdminCalls() int {
	gets, creates, _ := s.Calls()
	return gets + creates
}

func (s *Server) health(c *fiber.Ctx) error {
	s.mu.Lock()
	healthy := s.healthy
	s.mu.Unlock()

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "DOWN"})
	}
	return c.JSON(fiber.Map{"status": "UP"})
}

func (s *Server) getRealm(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++

	r, ok := s.realms[c.Params("name")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "realm not found"})
	}
	return c.JSON(r)
}

func (s *Server) createRealm(c *fiber.Ctx) error {
	var doc map[string]any
	if err := json.Unmarshal(c.Body(), &doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	name, _ := doc["name"].(string)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "realm name is required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++

	if s.createStatus != 0 {
		return c.Status(s.createStatus).SendString("create rejected")
	}
	if _, exists := s.realms[name]; exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "realm exists"})
	}
	s.realms[name] = doc
	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) discovery(c *fiber.Ctx) error {
	name := c.Params("name")
	if _, ok := s.Realm(name); !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	issuer := s.URL() + "/realms/" + name
	return c.JSON(fiber.Map{
		"issuer":         issuer,
		"token_endpoint": issuer + "/protocol/openid-connect/token",
	})
}

// token implements the client_credentials grant against the stored realm's
// confidential clients.
func (s *Server) token(c *fiber.Ctx) error {
	realm, ok := s.Realm(c.Params("name"))
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if c.FormValue("grant_type") != "client_credentials" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported_grant_type"})
	}

	id, secret := clientCredentials(c)
	if !confidentialClient(realm, id, secret) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_client"})
	}

	s.mu.Lock()
	s.tokens++
	s.mu.Unlock()

	return c.JSON(fiber.Map{
		"access_token": "fake-" + id,
		"token_type":   "Bearer",
		"expires_in":   300,
	})
}

func clientCredentials(c *fiber.Ctx) (id, secret string) {
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Basic ") {
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
		if err == nil {
			id, secret, _ = strings.Cut(string(raw), ":")
			return id, secret
		}
	}
	return c.FormValue("client_id"), c.FormValue("client_secret")
}

func confidentialClient(realm map[string]any, id, secret string) bool {
	clients, _ := realm["clients"].(map[string]any)
	cl, ok := clients[id].(map[string]any)
	if !ok {
		return false
	}
	confidential, _ := cl["confidential"].(bool)
	return confidential && cl["clientSecret"] == secret
}
