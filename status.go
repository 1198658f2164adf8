// status.go maps errors to the process status codes.

package v4l2pipeline

import (
	"errors"

	"github.com/xaionaro-go/v4l2pipeline/types"
	"golang.org/x/sys/unix"
)

// StatusCode returns the negative errno-like status for err: -EBUSY when
// help was requested, -EINVAL for rejected formats and options, -ENODEV
// for devices which cannot be opened, -ENOMEM for allocation failures
// and -EIO for any other failure.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}
	switch {
	case errors.As(err, &types.ErrHelpRequested{}):
		return -int(unix.EBUSY)
	case errors.As(err, &types.ErrOpenDevice{}):
		return -int(unix.ENODEV)
	case errors.As(err, &types.ErrAllocation{}):
		return -int(unix.ENOMEM)
	case errors.As(err, &types.ErrFormat{}),
		errors.As(err, &types.ErrFormatMismatch{}),
		errors.As(err, &types.ErrUnsupportedFormat{}),
		errors.As(err, &types.ErrUnsupportedDevice{}),
		errors.As(err, &types.ErrUnsupportedMemoryMode{}),
		errors.As(err, &types.ErrInvalidConfig{}):
		return -int(unix.EINVAL)
	default:
		return -int(unix.EIO)
	}
}
