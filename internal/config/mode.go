package config

import "fmt"

// LaunchMode is the execution mode of the consuming process. Discovery of
// shared containers is restricted to containers started in the same mode.
type LaunchMode string

const (
	// LaunchDev is an interactive development session. Only dev sessions
	// share containers across processes.
	LaunchDev LaunchMode = "dev"

	// LaunchTest is a test run. Test runs always get their own container.
	LaunchTest LaunchMode = "test"
)

// IsValid reports whether m is a recognized LaunchMode.
func (m LaunchMode) IsValid() bool {
	switch m {
	case LaunchDev, LaunchTest:
		return true
	default:
		return false
	}
}

func (m LaunchMode) String() string {
	return string(m)
}

// ParseLaunchMode converts s into a LaunchMode.
func ParseLaunchMode(s string) (LaunchMode, error) {
	m := LaunchMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid launch mode %q: must be %q or %q", s, LaunchDev, LaunchTest)
	}
	return m, nil
}
