package provision

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/realmenv/internal/config"
)

// Built-in clients of the default realm.
const (
	DefaultClientID       = "quarkus-app"
	DefaultPublicClientID = "quarkus-app-public"
	DefaultClientSecret   = "secret"
)

var defaultScopes = []string{"openid", "profile", "email"}

// Realm is the admin API realm document. Roles, users and clients are keyed
// by role name, username and client id.
type Realm struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"displayName,omitempty"`
	Enabled     bool              `json:"enabled"`
	Roles       map[string]Role   `json:"roles,omitempty"`
	Users       map[string]User   `json:"users,omitempty"`
	Clients     map[string]Client `json:"clients,omitempty"`
}

// Role is a realm role.
type Role struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// User is a realm user. Password is the initial plain-text credential and
// Roles names realm roles.
type User struct {
	ID            string   `json:"id,omitempty"`
	Username      string   `json:"username"`
	Name          string   `json:"name,omitempty"`
	Email         string   `json:"email,omitempty"`
	Password      string   `json:"password,omitempty"`
	Enabled       bool     `json:"enabled"`
	EmailVerified bool     `json:"emailVerified"`
	Roles         []string `json:"roles,omitempty"`
}

// Client is an OAuth2 client of a realm. Public clients have no secret.
type Client struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret,omitempty"`
	Confidential bool     `json:"confidential"`
	Scopes       []string `json:"scopes,omitempty"`
	RedirectURIs []string `json:"redirectUris,omitempty"`
}

// DefaultRealm assembles the default realm: the built-in roles, clients and
// users enabled by their switches, then the explicit entries of cfg on top.
// An explicit entry replaces a built-in one with the same key.
func DefaultRealm(cfg config.DefaultRealmConfig) Realm {
	r := newRealm(cfg.Name, cfg.DisplayName, cfg.Enabled)

	if cfg.CreateDefaultUsers {
		r.Users = map[string]User{
			"alice": builtinUser("alice", "admin", "user"),
			"bob":   builtinUser("bob", "user"),
		}
	}
	if cfg.CreateDefaultClients {
		r.Clients = map[string]Client{
			DefaultClientID: {
				ClientID:     DefaultClientID,
				ClientSecret: DefaultClientSecret,
				Confidential: true,
				Scopes:       setOf(defaultScopes),
			},
			DefaultPublicClientID: {
				ClientID:     DefaultPublicClientID,
				Scopes:       setOf(defaultScopes),
				RedirectURIs: []string{"*"},
			},
		}
	}
	if cfg.CreateDefaultRoles {
		r.Roles = map[string]Role{
			"admin": {Name: "admin", Description: "Admin role", Enabled: true},
			"user":  {Name: "user", Description: "User role", Enabled: true},
		}
	}

	overlay(&r, cfg.Realm())
	return r
}

// BuildRealm assembles an additional realm from its explicit entries only.
func BuildRealm(name string, cfg config.RealmConfig) Realm {
	r := newRealm(name, "", cfg.Enabled)
	overlay(&r, cfg)
	return r
}

func newRealm(name, displayName string, enabled bool) Realm {
	if displayName == "" {
		displayName = name
	}
	return Realm{Name: name, DisplayName: displayName, Enabled: enabled}
}

func builtinUser(name string, roles ...string) User {
	return User{
		ID:            name,
		Username:      name,
		Name:          name,
		Email:         name + "@localhost",
		Password:      name,
		Enabled:       true,
		EmailVerified: true,
		Roles:         setOf(roles),
	}
}

func overlay(r *Realm, cfg config.RealmConfig) {
	for username, u := range cfg.Users {
		r.Users = put(r.Users, username, User{
			Username:      username,
			Name:          u.Name,
			Email:         u.Email,
			Password:      u.Password,
			Enabled:       u.Enabled,
			EmailVerified: u.EmailVerified,
			Roles:         setOf(u.Roles),
		})
	}
	for name, role := range cfg.Roles {
		r.Roles = put(r.Roles, name, Role{
			Name:        name,
			Description: role.Description,
			Enabled:     role.Enabled,
		})
	}
	for id, c := range cfg.Clients {
		r.Clients = put(r.Clients, id, Client{
			ClientID:     id,
			ClientSecret: c.Secret,
			Confidential: c.Confidential,
			Scopes:       setOf(c.Scopes),
			RedirectURIs: setOf(c.RedirectURIs),
		})
	}
}

func put[V any](m map[string]V, k string, v V) map[string]V {
	if m == nil {
		m = make(map[string]V)
	}
	m[k] = v
	return m
}

// setOf returns values sorted and without duplicates.
func setOf(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return sets.List(sets.New(values...))
}
