package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML configuration file. See Parse.
func Load(path string) (ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ServiceConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return ServiceConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML onto Default, so fields absent from the document keep
// their defaults, and validates the result. Unknown top-level fields are
// rejected. An empty document yields Default.
func Parse(data []byte) (ServiceConfig, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return ServiceConfig{}, fmt.Errorf("decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return ServiceConfig{}, fmt.Errorf("validate: %w", err)
	}
	return cfg, nil
}

// UnmarshalYAML defaults Enabled to true for realms that do not set it.
func (r *RealmConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain RealmConfig
	p := plain{Enabled: true}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = RealmConfig(p)
	return nil
}

// UnmarshalYAML defaults Enabled to true for roles that do not set it.
func (r *RoleConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain RoleConfig
	p := plain{Enabled: true}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = RoleConfig(p)
	return nil
}

// UnmarshalYAML defaults Enabled to true for users that do not set it.
func (u *UserConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain UserConfig
	p := plain{Enabled: true}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*u = UserConfig(p)
	return nil
}
