// Package core implements the realmenv orchestrator: one cached dev service
// per process, reconciled against a service configuration fingerprint.
// Ensure discovers a running container or creates, starts and provisions a
// new one; Close tears down whatever this process owns.
package core
