package parcel

import (
	"math"

	"github.com/outofforest/photon"
	"github.com/pkg/errors"

	"github.com/outofforest/parcel/pool"
)

// Func is the function packaged in the block. It must access its data and workspace only through the block
// and must not keep the block after it is released.
type Func func(b *Block)

// Block bundles the function with the private copy of its data and the scratch workspace.
type Block struct {
	allocator  pool.Allocator
	allocation pool.Allocation
	fn         Func

	header    photon.Union[*header]
	data      []byte
	workspace []byte

	original    []byte
	hasOriginal bool
	released    bool
}

// Package reserves space for the block, copies data into it and zeroes the workspace.
// Space left in the last slot is added to the workspace, so it might be bigger than requested.
func Package(allocator pool.Allocator, fn Func, data []byte, workspace uint64) (*Block, error) {
	dataSize := uint64(len(data))
	if workspace > math.MaxUint64-HeaderSize-dataSize {
		return nil, errors.Wrapf(pool.ErrOutOfSpace, "block carrying %d bytes of data cannot have %d bytes of workspace",
			dataSize, workspace)
	}

	size := HeaderSize + dataSize + workspace
	allocation, err := allocator.Allocate(size)
	if err != nil {
		return nil, err
	}

	totalSize := uint64(len(allocation.B))
	if totalSize < size {
		if err := allocator.Deallocate(allocation); err != nil {
			return nil, err
		}
		return nil, errors.Wrapf(pool.ErrOutOfSpace, "requested %d bytes, allocator granted %d",
			size, totalSize)
	}
	dataEnd := HeaderSize + dataSize

	b := &Block{
		allocator:  allocator,
		allocation: allocation,
		fn:         fn,
		header: newHeader(allocation.B, header{
			Generation:    allocation.Handle.Generation,
			TotalSize:     totalSize,
			DataSize:      dataSize,
			WorkspaceSize: totalSize - dataEnd,
		}),
		data:        allocation.B[HeaderSize:dataEnd:dataEnd],
		workspace:   allocation.B[dataEnd:totalSize:totalSize],
		original:    data,
		hasOriginal: true,
	}

	copy(b.data, data)
	clear(b.workspace)

	return b, nil
}

// Handle returns the handle of the slots occupied by the block.
func (b *Block) Handle() pool.Handle {
	return b.allocation.Handle
}

// Size returns the total number of bytes reserved for the block.
func (b *Block) Size() uint64 {
	if b.released {
		return 0
	}
	return b.header.V.TotalSize
}

// DataSize returns the size of the data copy.
func (b *Block) DataSize() uint64 {
	if b.released {
		return 0
	}
	return b.header.V.DataSize
}

// WorkspaceSize returns the size of the workspace.
func (b *Block) WorkspaceSize() uint64 {
	if b.released {
		return 0
	}
	return b.header.V.WorkspaceSize
}

// Data returns the private copy of the data.
func (b *Block) Data() []byte {
	return b.data
}

// Workspace returns the workspace.
func (b *Block) Workspace() []byte {
	return b.workspace
}

// Run runs the packaged function. Block without function is inert.
// Whatever the function writes to data and workspace is visible to the next run.
func (b *Block) Run() error {
	if err := b.verify(); err != nil {
		return err
	}
	if b.fn != nil {
		b.fn(b)
	}
	return nil
}

// RunAndRelease runs the packaged function and releases the block.
func (b *Block) RunAndRelease() error {
	if err := b.Run(); err != nil {
		return err
	}
	return b.Release()
}

// ResetAndRun restores the original data and runs the packaged function.
func (b *Block) ResetAndRun() error {
	if err := b.Reset(); err != nil {
		return err
	}
	return b.Run()
}

// Reset copies the current content of the original data into the block.
func (b *Block) Reset() error {
	if err := b.verify(); err != nil {
		return err
	}
	if !b.hasOriginal {
		return errors.WithStack(ErrNoOriginal)
	}
	return b.overwrite(b.original)
}

// ResetAndClear resets the data and zeroes the workspace.
func (b *Block) ResetAndClear() error {
	if err := b.Reset(); err != nil {
		return err
	}
	clear(b.workspace)
	return nil
}

// Refresh copies new data into the block. Reference to the original data is not changed.
func (b *Block) Refresh(data []byte) error {
	if err := b.verify(); err != nil {
		return err
	}
	return b.overwrite(data)
}

// RefreshAndClear refreshes the data and zeroes the workspace.
func (b *Block) RefreshAndClear(data []byte) error {
	if err := b.Refresh(data); err != nil {
		return err
	}
	clear(b.workspace)
	return nil
}

// Detach drops the reference to the original data. Reset is not possible afterwards.
func (b *Block) Detach() error {
	if err := b.verify(); err != nil {
		return err
	}
	b.original = nil
	b.hasOriginal = false
	return nil
}

// Release returns the slots of the block to the allocator.
func (b *Block) Release() error {
	if err := b.verify(); err != nil {
		return err
	}
	if err := b.allocator.Deallocate(b.allocation); err != nil {
		return err
	}

	b.released = true
	b.header = photon.Union[*header]{}
	b.data = nil
	b.workspace = nil
	b.original = nil
	b.hasOriginal = false

	return nil
}

func (b *Block) overwrite(src []byte) error {
	if uint64(len(src)) != b.header.V.DataSize {
		return errors.Wrapf(ErrSizeMismatch, "block stores %d bytes of data, source has %d",
			b.header.V.DataSize, len(src))
	}
	copy(b.data, src)
	return nil
}

func (b *Block) verify() error {
	if b.released {
		return errors.WithStack(ErrReleased)
	}
	if checksum := computeChecksum(b.header); checksum != b.header.V.Checksum {
		return errors.Wrapf(ErrCorruptedHeader, "checksum mismatch for block %d, computed: %x, stored: %x",
			b.allocation.Handle.Generation, checksum, b.header.V.Checksum)
	}
	return nil
}
