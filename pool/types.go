package pool

import (
	"github.com/outofforest/parcel/types"
)

// Allocator is the contract shared by the slot pool and the heap fallback.
type Allocator interface {
	// Allocate reserves at least size bytes. Returned buffer may be bigger than requested.
	Allocate(size uint64) (Allocation, error)

	// Deallocate returns allocation back to the allocator. Buffer must not be used afterwards.
	Deallocate(a Allocation) error
}

// Config defines the geometry of the pool.
type Config struct {
	Slots    uint64
	SlotSize uint64
}

// DefaultConfig returns config with default geometry.
func DefaultConfig() Config {
	return Config{
		Slots:    DefaultSlots,
		SlotSize: DefaultSlotSize,
	}
}

// Handle identifies granted run of slots.
type Handle struct {
	Index      types.SlotIndex
	Slots      uint64
	Generation types.Generation
}

// Allocation is the handle together with the bytes it covers.
type Allocation struct {
	Handle Handle
	B      []byte
}

// Stats reports the occupancy of the pool.
type Stats struct {
	Slots          uint64
	SlotSize       uint64
	Free           uint64
	Owned          uint64
	LargestFreeRun uint64
	Allocations    uint64
}
