// Package config holds the service configuration consumed by the
// orchestrator: the container settings, the default realm and any
// additional realms, plus validation, fingerprinting and YAML loading.
//
// Values are plain data. Callers build one with Default, Parse or Load,
// adjust it, and hand it to the orchestrator; the orchestrator never
// mutates it.
package config
