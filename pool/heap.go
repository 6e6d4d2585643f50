package pool

import (
	"github.com/pkg/errors"

	"github.com/outofforest/parcel/types"
)

// MaxHeapAllocation is the biggest allocation the heap allocator attempts to serve.
const MaxHeapAllocation = 1 << 40 // 1 TiB

var _ Allocator = &Heap{}

// Heap serves allocations from the general-purpose heap. It trades the fixed capacity for unbounded sizes.
type Heap struct {
	limit uint64
	used  uint64

	lastGeneration types.Generation
	live           map[types.Generation]uint64
}

// NewHeap creates heap allocator. If limit is not zero, total size of live allocations is capped by it.
func NewHeap(limit uint64) *Heap {
	return &Heap{
		limit: limit,
		live:  map[types.Generation]uint64{},
	}
}

// Allocate allocates exactly size bytes.
func (h *Heap) Allocate(size uint64) (Allocation, error) {
	if size == 0 {
		return Allocation{}, errors.Wrap(ErrInvalidSize, "at least one byte must be allocated")
	}
	if size > MaxHeapAllocation {
		return Allocation{}, errors.Wrapf(ErrOutOfSpace, "requested %d bytes, at most %d can be allocated",
			size, uint64(MaxHeapAllocation))
	}
	if h.limit != 0 && size > h.limit-h.used {
		return Allocation{}, errors.Wrapf(ErrOutOfSpace, "requested %d bytes, %d of %d are available",
			size, h.limit-h.used, h.limit)
	}

	h.lastGeneration++
	h.live[h.lastGeneration] = size
	h.used += size

	return Allocation{
		Handle: Handle{
			Slots:      1,
			Generation: h.lastGeneration,
		},
		B: make([]byte, size),
	}, nil
}

// Deallocate forgets the allocation.
func (h *Heap) Deallocate(a Allocation) error {
	size, exists := h.live[a.Handle.Generation]
	if !exists {
		return errors.Wrapf(ErrInvalidRelease, "allocation %d does not exist", a.Handle.Generation)
	}
	if uint64(len(a.B)) != size {
		return errors.Wrapf(ErrInvalidRelease, "allocation %d has %d bytes, provided: %d",
			a.Handle.Generation, size, len(a.B))
	}

	delete(h.live, a.Handle.Generation)
	h.used -= size
	return nil
}

// Used returns the number of bytes in live allocations.
func (h *Heap) Used() uint64 {
	return h.used
}
