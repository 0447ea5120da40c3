package config

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Fingerprint returns a short, deterministic digest of c. Two configurations
// have the same fingerprint exactly when they describe the same desired
// state: role, scope and redirect lists compare as sets, and empty maps
// compare equal to nil maps.
//
// The digest is the first 16 hex characters (64 bits) of a SHA-256 over the
// canonical JSON form of the normalized configuration.
func (c ServiceConfig) Fingerprint() string {
	// json.Marshal sorts map keys and the normalized value holds only
	// plain data, so marshalling cannot fail.
	data, err := json.Marshal(c.normalized())
	if err != nil {
		panic("realmenv: marshal configuration for fingerprint: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

func (c ServiceConfig) normalized() ServiceConfig {
	out := c
	out.Env = nilIfEmpty(c.Env)
	out.VolumeMounts = nilIfEmpty(c.VolumeMounts)
	dr := c.DefaultRealm.Realm().normalized()
	out.DefaultRealm.Roles, out.DefaultRealm.Users, out.DefaultRealm.Clients = dr.Roles, dr.Users, dr.Clients
	out.Realms = nil
	if len(c.Realms) > 0 {
		out.Realms = make(map[string]RealmConfig, len(c.Realms))
		for k, r := range c.Realms {
			out.Realms[k] = r.normalized()
		}
	}
	return out
}

func (r RealmConfig) normalized() RealmConfig {
	out := r
	out.Roles = nilIfEmpty(r.Roles)
	out.Users = nil
	if len(r.Users) > 0 {
		out.Users = make(map[string]UserConfig, len(r.Users))
		for k, u := range r.Users {
			u.Roles = sortedSet(u.Roles)
			out.Users[k] = u
		}
	}
	out.Clients = nil
	if len(r.Clients) > 0 {
		out.Clients = make(map[string]ClientConfig, len(r.Clients))
		for k, cl := range r.Clients {
			cl.Scopes = sortedSet(cl.Scopes)
			cl.RedirectURIs = sortedSet(cl.RedirectURIs)
			out.Clients[k] = cl
		}
	}
	return out
}

func sortedSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return sets.List(sets.New(values...))
}

func nilIfEmpty[K comparable, V any](m map[K]V) map[K]V {
	if len(m) == 0 {
		return nil
	}
	return m
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
