package handler

import "fmt"

// ErrNotRegistered is the error returned when no handler is registered under the requested name.
type ErrNotRegistered struct {
	Kind string
	Name string
}

func (err ErrNotRegistered) Error() string {
	return fmt.Sprintf("%s %s is not registered", err.Kind, err.Name)
}
