// Package lifecycle creates, starts and stops the auth-server container.
// Start blocks until the server answers its health endpoint; Stop removes
// the container unless it was created for reuse.
package lifecycle
