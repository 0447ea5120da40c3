// Package docker implements runtime.Runtime on top of the Docker Engine SDK.
package docker
