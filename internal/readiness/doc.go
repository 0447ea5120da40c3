// Package readiness polls a service until a health check passes, the
// timeout elapses, or the watched container exits.
package readiness
