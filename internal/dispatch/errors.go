package dispatch

import (
	"errors"
	"fmt"
)

// ErrNoStopover is returned when a page of a job carries no stopover.
var ErrNoStopover = errors.New("no stopover on page")

// ErrPageOutOfRange is returned for a page outside the job's document.
var ErrPageOutOfRange = errors.New("page out of range")

// ErrSendInProgress is returned while another send for the same stopover
// is still running.
var ErrSendInProgress = errors.New("a send for this stopover is already in progress")

// UnmappedError refuses a send for a code without recipients.
type UnmappedError struct {
	Code string
}

func (e *UnmappedError) Error() string {
	return fmt.Sprintf("no recipients configured for stopover %s", e.Code)
}

// IsUnmapped reports whether err is, or wraps, an UnmappedError.
func IsUnmapped(err error) bool {
	var u *UnmappedError
	return errors.As(err, &u)
}
