package parcel

import (
	"unsafe"

	"github.com/outofforest/photon"
	"github.com/pkg/errors"

	"github.com/outofforest/parcel/pool"
)

// PackageValue packages the bytes of the value. The value stays the original data of the block,
// so Reset copies its current content.
func PackageValue[T comparable](allocator pool.Allocator, fn Func, v *T, workspace uint64) (*Block, error) {
	return Package(allocator, fn, photon.NewFromValue(v).B, workspace)
}

// DataAs returns the data copy of the block interpreted as T.
func DataAs[T comparable](b *Block) (*T, error) {
	var v T
	if b.DataSize() != uint64(unsafe.Sizeof(v)) {
		return nil, errors.Wrapf(ErrSizeMismatch, "block stores %d bytes of data, %T requires %d",
			b.DataSize(), v, unsafe.Sizeof(v))
	}
	return photon.NewFromBytes[T](b.Data()).V, nil
}
