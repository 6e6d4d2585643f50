package parcel

import "github.com/pkg/errors"

var (
	// ErrReleased is returned if block is used after its slots were released.
	ErrReleased = errors.New("block has been released")

	// ErrNoOriginal is returned on reset if block does not reference the original data anymore.
	ErrNoOriginal = errors.New("block does not reference original data")

	// ErrSizeMismatch is returned if source of the data copy has different size than the data stored in block.
	ErrSizeMismatch = errors.New("data size mismatch")

	// ErrCorruptedHeader is returned if header of the block does not match its checksum.
	ErrCorruptedHeader = errors.New("block header is corrupted")
)
