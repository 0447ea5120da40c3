package realmenv

import (
	"github.com/giantswarm/realmenv/internal/config"
	"github.com/giantswarm/realmenv/internal/core"
)

// orchestratorConfig wraps core.OrchestratorConfig via embedding, keeping
// internal/core types out of the public API signature.
type orchestratorConfig struct {
	core.OrchestratorConfig
}

func (c orchestratorConfig) toCoreConfig() core.OrchestratorConfig {
	return c.OrchestratorConfig
}

// Service configuration types. They are aliases so values decoded with
// LoadConfig or built from DefaultConfig pass straight to Ensure.
type (
	ServiceConfig      = config.ServiceConfig
	DefaultRealmConfig = config.DefaultRealmConfig
	RealmConfig        = config.RealmConfig
	RoleConfig         = config.RoleConfig
	UserConfig         = config.UserConfig
	ClientConfig       = config.ClientConfig
)

// LaunchMode is the mode of the consuming process. Only dev sessions share
// containers with each other.
type LaunchMode = config.LaunchMode

const (
	LaunchDev  = config.LaunchDev
	LaunchTest = config.LaunchTest
)

// DefaultConfig returns a service configuration with every default applied.
func DefaultConfig() ServiceConfig {
	return config.Default()
}

// LoadConfig reads a YAML service configuration file. Keys missing from the
// file keep their DefaultConfig values.
func LoadConfig(path string) (ServiceConfig, error) {
	return config.Load(path)
}

// ParseConfig decodes a YAML service configuration.
func ParseConfig(data []byte) (ServiceConfig, error) {
	return config.Parse(data)
}

// ParseLaunchMode parses "dev" or "test".
func ParseLaunchMode(s string) (LaunchMode, error) {
	return config.ParseLaunchMode(s)
}
