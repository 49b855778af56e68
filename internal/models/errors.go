package models

import (
	"errors"
	"fmt"
)

var (
	ErrMissingInput      = errors.New("please enter both a 'From' and 'To' location")
	ErrLocationNotFound  = errors.New("could not find one or both locations")
	ErrNoRoute           = errors.New("routing engine found no route")
	ErrMalformedResponse = errors.New("malformed response")
	ErrBusy              = errors.New("a route search is already in progress")
)

// ServiceError reports a failed call to an external service. StatusCode is zero
// when the request never got a response.
type ServiceError struct {
	Stage      string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s failed with status %d", e.Stage, e.StatusCode)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Malformed wraps ErrMalformedResponse with the stage and reason.
func Malformed(stage, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w: %s", stage, ErrMalformedResponse, fmt.Sprintf(format, args...))
}
