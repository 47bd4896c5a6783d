package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownDomain is returned when an operation names a domain
	// that was never registered.
	ErrUnknownDomain = errors.New("registry: unknown domain")

	// ErrUnknownEvent is returned by OnEvent for unsupported event
	// kinds.
	ErrUnknownEvent = errors.New("registry: unknown event kind")

	// ErrInvalidProcessor is returned when registering a nil processor
	// or one without a name.
	ErrInvalidProcessor = errors.New("registry: processor without a name")
)

// DependencyError reports a registration that names dependencies which
// are not registered yet.
type DependencyError struct {
	Domain  string
	Missing []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("registry: domain %q requires unregistered dependencies: %s",
		e.Domain, strings.Join(e.Missing, ", "))
}

// DependentsError reports an unregistration blocked by domains that
// still depend on the target.
type DependentsError struct {
	Domain     string
	Dependents []string
}

func (e *DependentsError) Error() string {
	return fmt.Sprintf("registry: cannot unregister %q, still required by: %s",
		e.Domain, strings.Join(e.Dependents, ", "))
}
