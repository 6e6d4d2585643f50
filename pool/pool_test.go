package pool

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/parcel/types"
)

const (
	nSlots   = 8
	slotSize = 64
)

func newPool(t *testing.T) *Pool {
	p, err := New(Config{Slots: nSlots, SlotSize: slotSize})
	require.NoError(t, err)
	return p
}

type snapshot struct {
	states      []types.SlotState
	runs        []uint64
	generations []types.Generation
}

func takeSnapshot(p *Pool) snapshot {
	return snapshot{
		states:      append([]types.SlotState{}, p.states...),
		runs:        append([]uint64{}, p.runs...),
		generations: append([]types.Generation{}, p.generations...),
	}
}

func TestNewValidatesConfig(t *testing.T) {
	assertT := assert.New(t)

	_, err := New(Config{Slots: 0, SlotSize: slotSize})
	assertT.ErrorIs(err, ErrInvalidSize)

	_, err = New(Config{Slots: nSlots, SlotSize: types.MinSlotSize - types.Alignment})
	assertT.ErrorIs(err, ErrInvalidSize)

	_, err = New(Config{Slots: nSlots, SlotSize: 100})
	assertT.ErrorIs(err, ErrInvalidSize)

	p, err := New(Config{Slots: nSlots, SlotSize: slotSize})
	assertT.NoError(err)
	assertT.Len(p.storage, nSlots*slotSize)
}

func TestDefaultConfig(t *testing.T) {
	requireT := require.New(t)

	p, err := New(DefaultConfig())
	requireT.NoError(err)

	stats := p.Stats()
	requireT.EqualValues(DefaultSlots, stats.Slots)
	requireT.EqualValues(DefaultSlotSize, stats.SlotSize)
	requireT.EqualValues(DefaultSlots, stats.Free)
}

func TestReserveFirstFit(t *testing.T) {
	requireT := require.New(t)

	p := newPool(t)

	h1, err := p.Reserve(2)
	requireT.NoError(err)
	requireT.EqualValues(0, h1.Index)
	requireT.EqualValues(2, h1.Slots)

	h2, err := p.Reserve(3)
	requireT.NoError(err)
	requireT.EqualValues(2, h2.Index)

	h3, err := p.Reserve(1)
	requireT.NoError(err)
	requireT.EqualValues(5, h3.Index)

	requireT.NoError(p.Release(h2))

	// Lowest start index wins even though the hole is bigger than needed.
	h4, err := p.Reserve(2)
	requireT.NoError(err)
	requireT.EqualValues(2, h4.Index)

	// Slot 4 is too small, run at 6 is used.
	h5, err := p.Reserve(2)
	requireT.NoError(err)
	requireT.EqualValues(6, h5.Index)

	h6, err := p.Reserve(1)
	requireT.NoError(err)
	requireT.EqualValues(4, h6.Index)

	requireT.EqualValues(0, p.Stats().Free)
}

func TestReserveSkipsTooSmallHoles(t *testing.T) {
	requireT := require.New(t)

	p := newPool(t)

	h0, err := p.Reserve(1)
	requireT.NoError(err)
	_, err = p.Reserve(1)
	requireT.NoError(err)
	h2, err := p.Reserve(2)
	requireT.NoError(err)
	_, err = p.Reserve(1)
	requireT.NoError(err)
	h5, err := p.Reserve(3)
	requireT.NoError(err)
	requireT.EqualValues(5, h5.Index)

	requireT.NoError(p.Release(h0))
	requireT.NoError(p.Release(h2))
	requireT.NoError(p.Release(h5))

	// Layout: F O F F O F F F
	h, err := p.Reserve(3)
	requireT.NoError(err)
	requireT.EqualValues(5, h.Index)
	requireT.Equal([]types.SlotState{
		types.FreeSlotState,
		types.OwnedSlotState,
		types.FreeSlotState,
		types.FreeSlotState,
		types.OwnedSlotState,
		types.OwnedSlotState,
		types.OwnedSlotState,
		types.OwnedSlotState,
	}, p.states)
}

func TestReserveOutOfSpaceLeavesPoolUnchanged(t *testing.T) {
	requireT := require.New(t)

	p := newPool(t)

	_, err := p.Reserve(3)
	requireT.NoError(err)
	h, err := p.Reserve(2)
	requireT.NoError(err)
	_, err = p.Reserve(3)
	requireT.NoError(err)
	requireT.NoError(p.Release(h))

	before := takeSnapshot(p)

	_, err = p.Reserve(3)
	requireT.ErrorIs(err, ErrOutOfSpace)
	requireT.Equal(before, takeSnapshot(p))

	_, err = p.Reserve(nSlots + 1)
	requireT.ErrorIs(err, ErrOutOfSpace)
	requireT.Equal(before, takeSnapshot(p))

	h, err = p.Reserve(2)
	requireT.NoError(err)
	requireT.EqualValues(3, h.Index)
}

func TestReserveZeroSlots(t *testing.T) {
	p := newPool(t)

	_, err := p.Reserve(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestReleaseRejectsInvalidHandles(t *testing.T) {
	requireT := require.New(t)

	p := newPool(t)

	h, err := p.Reserve(3)
	requireT.NoError(err)
	_, err = p.Reserve(2)
	requireT.NoError(err)

	before := takeSnapshot(p)

	invalid := []Handle{
		{Index: h.Index, Slots: 2, Generation: h.Generation},
		{Index: h.Index, Slots: 4, Generation: h.Generation},
		{Index: h.Index, Slots: 0, Generation: h.Generation},
		{Index: h.Index, Slots: h.Slots, Generation: h.Generation + 1},
		{Index: h.Index, Slots: h.Slots},
		{Index: 1, Slots: 2, Generation: h.Generation},
		{Index: 6, Slots: 1, Generation: h.Generation},
		{Index: nSlots, Slots: 1, Generation: h.Generation},
	}
	for _, invalidHandle := range invalid {
		requireT.ErrorIs(p.Release(invalidHandle), ErrInvalidRelease, "handle: %#v", invalidHandle)
		requireT.Equal(before, takeSnapshot(p), "handle: %#v", invalidHandle)
	}

	requireT.NoError(p.Release(h))
	requireT.ErrorIs(p.Release(h), ErrInvalidRelease)
}

func TestStaleHandleIsRejected(t *testing.T) {
	requireT := require.New(t)

	p := newPool(t)

	h1, err := p.Reserve(2)
	requireT.NoError(err)
	requireT.NoError(p.Release(h1))

	h2, err := p.Reserve(2)
	requireT.NoError(err)
	requireT.Equal(h1.Index, h2.Index)
	requireT.NotEqual(h1.Generation, h2.Generation)

	requireT.ErrorIs(p.Release(h1), ErrInvalidRelease)
	requireT.NoError(p.Release(h2))
}

func TestReleaseAt(t *testing.T) {
	requireT := require.New(t)

	p := newPool(t)

	_, err := p.Reserve(1)
	requireT.NoError(err)
	h, err := p.Reserve(2)
	requireT.NoError(err)

	offset := p.Offset(h)
	requireT.EqualValues(slotSize, offset)

	before := takeSnapshot(p)

	requireT.ErrorIs(p.ReleaseAt(offset+1, 2*slotSize), ErrInvalidRelease)
	requireT.ErrorIs(p.ReleaseAt(nSlots*slotSize, slotSize), ErrInvalidRelease)
	requireT.ErrorIs(p.ReleaseAt(offset, slotSize), ErrInvalidRelease)
	requireT.ErrorIs(p.ReleaseAt(3*slotSize, slotSize), ErrInvalidRelease)
	requireT.Equal(before, takeSnapshot(p))

	// Size is rounded up to whole slots.
	requireT.NoError(p.ReleaseAt(offset, slotSize+1))
	requireT.EqualValues(nSlots-1, p.Stats().Free)
}

func TestAllocateRoundsUpToSlots(t *testing.T) {
	requireT := require.New(t)

	p := newPool(t)

	a, err := p.Allocate(slotSize + 1)
	requireT.NoError(err)
	requireT.EqualValues(2, a.Handle.Slots)
	requireT.Len(a.B, 2*slotSize)
	requireT.Equal(2*slotSize, cap(a.B))

	_, err = p.Allocate(0)
	requireT.ErrorIs(err, ErrInvalidSize)

	_, err = p.Allocate(nSlots * slotSize)
	requireT.ErrorIs(err, ErrOutOfSpace)

	requireT.NoError(p.Deallocate(a))
	requireT.ErrorIs(p.Deallocate(a), ErrInvalidRelease)

	a, err = p.Allocate(nSlots * slotSize)
	requireT.NoError(err)
	requireT.EqualValues(nSlots, a.Handle.Slots)
}

func TestAllocationsAreDisjoint(t *testing.T) {
	requireT := require.New(t)

	p := newPool(t)

	a1, err := p.Allocate(slotSize)
	requireT.NoError(err)
	a2, err := p.Allocate(slotSize)
	requireT.NoError(err)

	for i := range a1.B {
		a1.B[i] = 0xff
	}
	a1.B = append(a1.B, 0xff)

	requireT.Equal(make([]byte, slotSize), a2.B)
}

func TestBytesOfReleasedHandle(t *testing.T) {
	requireT := require.New(t)

	p := newPool(t)

	h, err := p.Reserve(1)
	requireT.NoError(err)

	b, err := p.Bytes(h)
	requireT.NoError(err)
	requireT.Len(b, slotSize)

	requireT.NoError(p.Release(h))

	_, err = p.Bytes(h)
	requireT.ErrorIs(err, ErrInvalidRelease)
}

func TestStats(t *testing.T) {
	requireT := require.New(t)

	p := newPool(t)

	_, err := p.Reserve(1)
	requireT.NoError(err)
	h, err := p.Reserve(2)
	requireT.NoError(err)
	_, err = p.Reserve(1)
	requireT.NoError(err)
	requireT.NoError(p.Release(h))

	requireT.Equal(Stats{
		Slots:          nSlots,
		SlotSize:       slotSize,
		Free:           6,
		Owned:          2,
		LargestFreeRun: 4,
		Allocations:    2,
	}, p.Stats())
}

func TestErrorsAreWrapped(t *testing.T) {
	p := newPool(t)

	_, err := p.Reserve(nSlots + 1)
	assert.True(t, errors.Is(err, ErrOutOfSpace))
	assert.NotEqual(t, ErrOutOfSpace.Error(), err.Error())
}

func TestSlotsForDoesNotOverflow(t *testing.T) {
	requireT := require.New(t)

	p := newPool(t)

	requireT.EqualValues(0, p.SlotsFor(0))
	requireT.EqualValues(1, p.SlotsFor(1))
	requireT.EqualValues(1, p.SlotsFor(slotSize))
	requireT.EqualValues(2, p.SlotsFor(slotSize+1))
	requireT.EqualValues(uint64(math.MaxUint64)/slotSize+1, p.SlotsFor(math.MaxUint64))

	before := takeSnapshot(p)

	_, err := p.Allocate(math.MaxUint64)
	requireT.ErrorIs(err, ErrOutOfSpace)
	requireT.Equal(before, takeSnapshot(p))
}
