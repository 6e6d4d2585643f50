package pool

import "github.com/pkg/errors"

var (
	// ErrOutOfSpace is returned if there is no contiguous run of free slots big enough to serve the request.
	ErrOutOfSpace = errors.New("out of space")

	// ErrInvalidRelease is returned if released handle or address does not match any granted allocation.
	ErrInvalidRelease = errors.New("invalid release")

	// ErrInvalidSize is returned if requested size is not allowed.
	ErrInvalidSize = errors.New("invalid size")
)
