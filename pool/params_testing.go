//go:build test

package pool

const (
	// DefaultSlots is the number of slots in the pool created from default config.
	DefaultSlots = 8

	// DefaultSlotSize is the size of the slot in the pool created from default config.
	DefaultSlotSize = 128
)
