package event

import (
	"errors"
	"fmt"
)

// ErrHandlerPanic is wrapped by the error a panicking handler is converted to.
var ErrHandlerPanic = errors.New("event handler panicked")

// DispatchError reports the handlers that failed for one event. Errs is in
// registration order, so Errs[0] is the first registered handler that failed.
type DispatchError struct {
	Event    Event
	Handlers int // number of handlers the event was delivered to
	Errs     []error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s %s: %d of %d handlers failed: %v",
		e.Event.Kind(), e.Event.ID(), len(e.Errs), e.Handlers, e.First())
}

// First is the error surfaced to callers.
func (e *DispatchError) First() error {
	if len(e.Errs) == 0 {
		return nil
	}
	return e.Errs[0]
}

func (e *DispatchError) Unwrap() []error { return e.Errs }
