// Package pool implements the fixed-capacity allocator of contiguous slot runs.
package pool

import (
	"github.com/pkg/errors"

	"github.com/outofforest/parcel/types"
)

var _ Allocator = &Pool{}

// Pool allocates contiguous runs of equal-size slots from the storage allocated once on creation.
type Pool struct {
	slotSize uint64
	storage  []byte

	states      []types.SlotState
	runs        []uint64
	generations []types.Generation

	lastGeneration types.Generation
	allocations    uint64
}

// New creates new pool.
func New(cfg Config) (*Pool, error) {
	if cfg.Slots == 0 {
		return nil, errors.Wrap(ErrInvalidSize, "pool must contain at least one slot")
	}
	if cfg.SlotSize < types.MinSlotSize || cfg.SlotSize%types.Alignment != 0 {
		return nil, errors.Wrapf(ErrInvalidSize,
			"slot size must be a multiplication of %d not smaller than %d, provided: %d",
			types.Alignment, types.MinSlotSize, cfg.SlotSize)
	}

	return &Pool{
		slotSize:    cfg.SlotSize,
		storage:     make([]byte, cfg.Slots*cfg.SlotSize),
		states:      make([]types.SlotState, cfg.Slots),
		runs:        make([]uint64, cfg.Slots),
		generations: make([]types.Generation, cfg.Slots),
	}, nil
}

// SlotSize returns the size of the slot.
func (p *Pool) SlotSize() uint64 {
	return p.slotSize
}

// SlotsFor returns the number of slots required to store size bytes.
func (p *Pool) SlotsFor(size uint64) uint64 {
	n := size / p.slotSize
	if size%p.slotSize != 0 {
		n++
	}
	return n
}

// scanAttempt is the run of free slots provisionally claimed by the ongoing scan.
// It lives only for the duration of one reservation so nothing has to be rolled back in the table.
type scanAttempt struct {
	start  uint64
	length uint64
}

// Reserve reserves slotCount contiguous slots. The lowest possible start index is chosen.
func (p *Pool) Reserve(slotCount uint64) (Handle, error) {
	if slotCount == 0 {
		return Handle{}, errors.Wrap(ErrInvalidSize, "at least one slot must be reserved")
	}

	nSlots := uint64(len(p.states))
	if slotCount > nSlots {
		return Handle{}, errors.Wrapf(ErrOutOfSpace, "requested %d slots, pool contains %d", slotCount, nSlots)
	}

	for i := uint64(0); i+slotCount <= nSlots; {
		if p.states[i] != types.FreeSlotState {
			i++
			continue
		}

		attempt := scanAttempt{start: i}
		for attempt.length < slotCount && p.states[attempt.start+attempt.length] == types.FreeSlotState {
			attempt.length++
		}
		if attempt.length == slotCount {
			return p.commit(attempt), nil
		}

		// Slot right after the attempt is owned, scan continues from there.
		i = attempt.start + attempt.length
	}

	return Handle{}, errors.Wrapf(ErrOutOfSpace, "no run of %d free slots", slotCount)
}

func (p *Pool) commit(attempt scanAttempt) Handle {
	for i := attempt.start; i < attempt.start+attempt.length; i++ {
		p.states[i] = types.OwnedSlotState
	}

	p.lastGeneration++
	p.runs[attempt.start] = attempt.length
	p.generations[attempt.start] = p.lastGeneration
	p.allocations++

	return Handle{
		Index:      types.SlotIndex(attempt.start),
		Slots:      attempt.length,
		Generation: p.lastGeneration,
	}
}

// Release returns the slots covered by the handle back to the pool.
// If handle does not match the granted run exactly, pool is not modified.
func (p *Pool) Release(h Handle) error {
	if err := p.validate(h); err != nil {
		return err
	}

	start := uint64(h.Index)
	for i := start; i < start+h.Slots; i++ {
		p.states[i] = types.FreeSlotState
	}
	p.runs[start] = 0
	p.generations[start] = 0
	p.allocations--

	return nil
}

// ReleaseAt releases the run starting at byte offset of the storage. Number of slots is derived from size.
func (p *Pool) ReleaseAt(offset, size uint64) error {
	if offset%p.slotSize != 0 || offset >= uint64(len(p.storage)) {
		return errors.Wrapf(ErrInvalidRelease, "offset %d is not a slot boundary", offset)
	}

	start := offset / p.slotSize
	return p.Release(Handle{
		Index:      types.SlotIndex(start),
		Slots:      p.SlotsFor(size),
		Generation: p.generations[start],
	})
}

// Offset returns the byte offset of the run in the storage.
func (p *Pool) Offset(h Handle) uint64 {
	return uint64(h.Index) * p.slotSize
}

// Bytes returns bytes covered by the handle.
func (p *Pool) Bytes(h Handle) ([]byte, error) {
	if err := p.validate(h); err != nil {
		return nil, err
	}

	start := p.Offset(h)
	end := start + h.Slots*p.slotSize
	return p.storage[start:end:end], nil
}

// Allocate reserves enough slots to store size bytes.
func (p *Pool) Allocate(size uint64) (Allocation, error) {
	h, err := p.Reserve(p.SlotsFor(size))
	if err != nil {
		return Allocation{}, err
	}

	b, err := p.Bytes(h)
	if err != nil {
		return Allocation{}, err
	}

	return Allocation{
		Handle: h,
		B:      b,
	}, nil
}

// Deallocate releases allocation.
func (p *Pool) Deallocate(a Allocation) error {
	return p.Release(a.Handle)
}

// Stats returns current occupancy of the pool.
func (p *Pool) Stats() Stats {
	stats := Stats{
		Slots:       uint64(len(p.states)),
		SlotSize:    p.slotSize,
		Allocations: p.allocations,
	}

	var run uint64
	for _, state := range p.states {
		if state == types.OwnedSlotState {
			stats.Owned++
			run = 0
			continue
		}

		stats.Free++
		run++
		if run > stats.LargestFreeRun {
			stats.LargestFreeRun = run
		}
	}

	return stats
}

func (p *Pool) validate(h Handle) error {
	start := uint64(h.Index)
	nSlots := uint64(len(p.states))

	if start >= nSlots {
		return errors.Wrapf(ErrInvalidRelease, "slot %d is out of range", start)
	}
	if h.Generation == 0 || p.generations[start] != h.Generation {
		return errors.Wrapf(ErrInvalidRelease, "slot %d is not the start of allocation %d", start, h.Generation)
	}
	if h.Slots == 0 || p.runs[start] != h.Slots {
		return errors.Wrapf(ErrInvalidRelease, "allocation at slot %d covers %d slots, provided: %d",
			start, p.runs[start], h.Slots)
	}
	for i := start; i < start+h.Slots; i++ {
		if p.states[i] != types.OwnedSlotState {
			return errors.Wrapf(ErrInvalidRelease, "slot %d is not owned", i)
		}
	}

	return nil
}
