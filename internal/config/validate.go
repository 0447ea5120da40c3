package config

import (
	"errors"
	"fmt"
	"path"
)

// Validate reports every problem in c at once, joined with errors.Join.
func (c ServiceConfig) Validate() error {
	var errs []error

	if c.ServiceName == "" {
		errs = append(errs, errors.New("service name must not be empty"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 0 and 65535, got %d", c.Port))
	}
	if c.StartupTimeout < 0 {
		errs = append(errs, fmt.Errorf("startup timeout must not be negative, got %s", c.StartupTimeout))
	}
	for k := range c.Env {
		if k == "" {
			errs = append(errs, errors.New("env variable name must not be empty"))
		}
	}
	for src, dst := range c.VolumeMounts {
		if src == "" {
			errs = append(errs, errors.New("volume mount source must not be empty"))
		}
		if !path.IsAbs(dst) {
			errs = append(errs, fmt.Errorf("volume mount target for %q must be an absolute path, got %q", src, dst))
		}
	}

	seen := make(map[string]string, len(c.Realms)+1)
	if c.DefaultRealm.Create {
		if c.DefaultRealm.Name == "" {
			errs = append(errs, errors.New("default realm name must not be empty"))
		} else {
			seen[c.DefaultRealm.Name] = "default realm"
		}
		errs = append(errs, c.DefaultRealm.Realm().validate("default realm")...)
	}

	for _, key := range sortedKeys(c.Realms) {
		if key == "" {
			errs = append(errs, errors.New("realm key must not be empty"))
			continue
		}
		name := c.RealmName(key)
		where := fmt.Sprintf("realm %q", key)
		if prev, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("%s: name %q already used by %s", where, name, prev))
		} else {
			seen[name] = where
		}
		errs = append(errs, c.Realms[key].validate(where)...)
	}

	return errors.Join(errs...)
}

func (r RealmConfig) validate(where string) []error {
	var errs []error
	for name := range r.Roles {
		if name == "" {
			errs = append(errs, fmt.Errorf("%s: role name must not be empty", where))
		}
	}
	for username, u := range r.Users {
		if username == "" {
			errs = append(errs, fmt.Errorf("%s: username must not be empty", where))
		}
		for _, role := range u.Roles {
			if role == "" {
				errs = append(errs, fmt.Errorf("%s: user %q has an empty role", where, username))
			}
		}
	}
	for id := range r.Clients {
		if id == "" {
			errs = append(errs, fmt.Errorf("%s: client id must not be empty", where))
		}
	}
	return errs
}
