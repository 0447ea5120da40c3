// Package provision talks to the auth server's admin API.
//
// AdminClient reads and creates realms. Creation is idempotent through
// CreateIfAbsent: an existing realm is never modified. DefaultRealm and
// BuildRealm assemble realm documents from configuration, and Realms
// provisions every configured realm for one orchestration pass.
package provision
