package provision

import (
	"fmt"

	"github.com/giantswarm/realmenv/internal/sentinel"
)

// ErrProvisioning matches every failure of an admin API call, including
// transport errors and unexpected statuses.
const ErrProvisioning = sentinel.Error("provisioning failed")

// StatusError is returned when the admin API answers with an unexpected
// status. It matches ErrProvisioning.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %s: status %d, body: %s", ErrProvisioning, e.Method, e.URL, e.Status, e.Body)
}

// Is reports whether target is ErrProvisioning.
func (e *StatusError) Is(target error) bool {
	return target == ErrProvisioning
}
