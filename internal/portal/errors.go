package portal

import (
	"fmt"
	"time"
)

// ElementTimeoutError is returned when a required page element did not become
// visible within its budget. A wrong password ends up here too, since the
// portal then never shows the attendance view.
type ElementTimeoutError struct {
	Element string
	Timeout time.Duration
	Err     error
}

func (e *ElementTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Element)
}

func (e *ElementTimeoutError) Unwrap() error { return e.Err }
