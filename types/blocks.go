package types

const (
	// Alignment specifies the alignment requirements of the architecture.
	Alignment = 8

	// MinSlotSize is the smallest slot able to carry any header.
	MinSlotSize = 64
)

// SlotState is the enum representing the committed state of the slot.
type SlotState byte

// Slot states. There is no transient state here, a scan in progress is tracked locally by the allocator
// and never written to the table.
const (
	FreeSlotState SlotState = iota
	OwnedSlotState
)

// SlotIndex is the index of the slot in the pool.
type SlotIndex uint64

// Generation identifies single allocation. Zero is never assigned.
type Generation uint64

// Hash represents hash.
type Hash uint64

// Align rounds size up to the architecture alignment.
func Align(size uint64) uint64 {
	return (size + Alignment - 1) / Alignment * Alignment
}
