package config

import (
	"time"
)

// Default values applied by Default.
const (
	DefaultServiceName = "lorisgate"
	DefaultRealmName   = "dev"
)

// ServiceConfig describes the desired auth-server instance and the realms
// provisioned inside it.
type ServiceConfig struct {
	// Enabled turns the dev service on. When false, Ensure is a no-op.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Shared allows discovery of, and discovery by, other processes that
	// run a container labelled with the same ServiceName.
	Shared bool `yaml:"shared" json:"shared"`

	// ServiceName is the value of the discovery label.
	ServiceName string `yaml:"serviceName" json:"serviceName"`

	// Image overrides the orchestrator's default image when non-empty.
	Image string `yaml:"image,omitempty" json:"image,omitempty"`

	// Port is a fixed host port. Zero lets the runtime pick one.
	Port int `yaml:"port,omitempty" json:"port,omitempty"`

	// Reuse keeps the container alive after the orchestrator closes it so
	// the next run can pick it up again.
	Reuse bool `yaml:"reuse" json:"reuse"`

	// Log forwards container output to the realmenv logger.
	Log bool `yaml:"log" json:"log"`

	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// VolumeMounts maps a source directory to a path inside the container.
	// Mounts are always read-only.
	VolumeMounts map[string]string `yaml:"volumeMounts,omitempty" json:"volumeMounts,omitempty"`

	// UseClasspathMounts resolves VolumeMounts sources against the
	// orchestrator's resource directories instead of the filesystem.
	UseClasspathMounts bool `yaml:"useClasspathMounts" json:"useClasspathMounts"`

	// StartupTimeout bounds the health wait. Zero uses the orchestrator default.
	StartupTimeout time.Duration `yaml:"startupTimeout,omitempty" json:"startupTimeout,omitempty"`

	DefaultRealm DefaultRealmConfig     `yaml:"defaultRealm" json:"defaultRealm"`
	Realms       map[string]RealmConfig `yaml:"realms,omitempty" json:"realms,omitempty"`

	// OIDC exposes the auth-server URL and the default client credentials
	// as properties, both under the service prefix and the generic oidc prefix.
	OIDC bool `yaml:"oidc" json:"oidc"`
}

// DefaultRealmConfig is the realm created with built-in roles, clients and
// users. Each built-in set has its own switch; explicit entries are merged
// on top.
type DefaultRealmConfig struct {
	Create               bool `yaml:"create" json:"create"`
	CreateDefaultRoles   bool `yaml:"createDefaultRoles" json:"createDefaultRoles"`
	CreateDefaultClients bool `yaml:"createDefaultClients" json:"createDefaultClients"`
	CreateDefaultUsers   bool `yaml:"createDefaultUsers" json:"createDefaultUsers"`

	// DisplayName defaults to Name.
	Name        string                  `yaml:"name" json:"name"`
	DisplayName string                  `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	Enabled     bool                    `yaml:"enabled" json:"enabled"`
	Roles       map[string]RoleConfig   `yaml:"roles,omitempty" json:"roles,omitempty"`
	Users       map[string]UserConfig   `yaml:"users,omitempty" json:"users,omitempty"`
	Clients     map[string]ClientConfig `yaml:"clients,omitempty" json:"clients,omitempty"`
}

// Realm returns the explicit part of the default realm, without built-ins.
func (d DefaultRealmConfig) Realm() RealmConfig {
	return RealmConfig{
		Name:    d.Name,
		Enabled: d.Enabled,
		Roles:   d.Roles,
		Users:   d.Users,
		Clients: d.Clients,
	}
}

// RealmConfig describes one realm. Map keys are the role name, username
// and client id respectively.
type RealmConfig struct {
	Name    string                  `yaml:"name,omitempty" json:"name,omitempty"`
	Enabled bool                    `yaml:"enabled" json:"enabled"`
	Roles   map[string]RoleConfig   `yaml:"roles,omitempty" json:"roles,omitempty"`
	Users   map[string]UserConfig   `yaml:"users,omitempty" json:"users,omitempty"`
	Clients map[string]ClientConfig `yaml:"clients,omitempty" json:"clients,omitempty"`
}

// RoleConfig describes a realm role keyed by role name.
type RoleConfig struct {
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Enabled     bool   `yaml:"enabled" json:"enabled"`
}

// UserConfig describes a realm user keyed by username. Roles name realm
// roles.
type UserConfig struct {
	Password      string   `yaml:"password,omitempty" json:"password,omitempty"`
	Name          string   `yaml:"name,omitempty" json:"name,omitempty"`
	Email         string   `yaml:"email,omitempty" json:"email,omitempty"`
	EmailVerified bool     `yaml:"emailVerified" json:"emailVerified"`
	Enabled       bool     `yaml:"enabled" json:"enabled"`
	Roles         []string `yaml:"roles,omitempty" json:"roles,omitempty"`
}

// ClientConfig describes an OAuth2 client keyed by client id.
type ClientConfig struct {
	Secret       string   `yaml:"secret,omitempty" json:"secret,omitempty"`
	Confidential bool     `yaml:"confidential" json:"confidential"`
	Scopes       []string `yaml:"scopes,omitempty" json:"scopes,omitempty"`
	RedirectURIs []string `yaml:"redirectUris,omitempty" json:"redirectUris,omitempty"`
}

// Default returns a configuration with every switch at its default: enabled,
// shared, and a default realm carrying all built-in roles, clients and users.
func Default() ServiceConfig {
	return ServiceConfig{
		Enabled:     true,
		Shared:      true,
		ServiceName: DefaultServiceName,
		DefaultRealm: DefaultRealmConfig{
			Create:               true,
			CreateDefaultRoles:   true,
			CreateDefaultClients: true,
			CreateDefaultUsers:   true,
			Name:                 DefaultRealmName,
			Enabled:              true,
		},
	}
}

// AllRealmNames returns the names of every realm provisioned for c, the
// default realm first when it is created.
func (c ServiceConfig) AllRealmNames() []string {
	names := make([]string, 0, len(c.Realms)+1)
	if c.DefaultRealm.Create {
		names = append(names, c.DefaultRealm.Name)
	}
	for _, name := range sortedKeys(c.Realms) {
		names = append(names, c.RealmName(name))
	}
	return names
}

// RealmName returns the effective name of the additional realm stored under
// key: its Name field when set, the key otherwise.
func (c ServiceConfig) RealmName(key string) string {
	if r, ok := c.Realms[key]; ok && r.Name != "" {
		return r.Name
	}
	return key
}
