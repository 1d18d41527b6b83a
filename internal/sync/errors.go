package sync

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed connection or schedule spec. It is
// returned synchronously from create/update; execution failures never use it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ErrConnectionInUse rejects deleting a connection that schedules still
// reference.
var ErrConnectionInUse = errors.New("connection is referenced by one or more schedules")
