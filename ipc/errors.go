package ipc

import (
	"errors"
	"fmt"

	"github.com/sarchlab/kipc/sched"
)

var (
	// ErrInvalidPort is returned when a port id does not resolve to a live
	// port.
	ErrInvalidPort = errors.New("ipc: invalid port")

	// ErrPortClosed is returned when the port was torn down before or
	// during the operation.
	ErrPortClosed = errors.New("ipc: port closed")

	// ErrRejected is returned by Send when the port closed while the
	// message was still pending. It matches ErrPortClosed under errors.Is.
	ErrRejected = fmt.Errorf("%w: message rejected", ErrPortClosed)

	// ErrInvalidHandle is returned by Respond for a handle that was never
	// issued or has already been used.
	ErrInvalidHandle = errors.New("ipc: invalid response handle")
)

// Kernel error codes as seen by system call callers.
const (
	EOK    = 0
	EINVAL = 22
	ETIME  = 62
)

// Errno maps an error returned by this package to the negative error code
// reported to user space.
func Errno(err error) int {
	switch {
	case err == nil:
		return EOK
	case errors.Is(err, sched.ErrTimedOut):
		return -ETIME
	default:
		return -EINVAL
	}
}
