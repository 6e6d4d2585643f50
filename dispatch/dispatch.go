package dispatch

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/outofforest/parcel"
)

var (
	// ErrQueueFull is returned if block is pushed to the queue which has no free entries.
	ErrQueueFull = errors.New("dispatch queue is full")

	// ErrNilBlock is returned if nil block is pushed to the queue.
	ErrNilBlock = errors.New("nil block")
)

// Dispatcher is the fixed-size FIFO queue of blocks, each executed exactly once and released afterwards.
// Once pushed, block is owned by the dispatcher.
type Dispatcher struct {
	logger *log.Logger
	queue  []*parcel.Block
	head   uint64
	length uint64
}

// New creates new dispatcher.
func New(capacity uint64, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger,
		queue:  make([]*parcel.Block, capacity),
	}
}

// Len returns the number of queued blocks.
func (d *Dispatcher) Len() uint64 {
	return d.length
}

// Push appends block to the queue.
func (d *Dispatcher) Push(b *parcel.Block) error {
	if b == nil {
		return errors.WithStack(ErrNilBlock)
	}
	if d.length == uint64(len(d.queue)) {
		return errors.Wrapf(ErrQueueFull, "capacity: %d", len(d.queue))
	}

	d.queue[(d.head+d.length)%uint64(len(d.queue))] = b
	d.length++
	return nil
}

// Drain runs and releases queued blocks in FIFO order until queue is empty.
// Blocks pushed by running blocks are executed by the same call.
// Failing block does not stop the drain, first error is returned once queue is empty.
func (d *Dispatcher) Drain(ctx context.Context) error {
	var firstErr error
	var nFailed, nRun uint64

	for d.length > 0 {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}

		b := d.pop()
		nRun++

		handle := b.Handle()
		if err := b.RunAndRelease(); err != nil {
			d.logger.Error("Block failed", "slot", handle.Index, "generation", handle.Generation, "err", err)
			nFailed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		d.logger.Debug("Block executed", "slot", handle.Index, "generation", handle.Generation)
	}

	if firstErr != nil {
		return errors.Wrapf(firstErr, "%d of %d blocks failed", nFailed, nRun)
	}
	return nil
}

// Discard releases queued blocks without running them.
func (d *Dispatcher) Discard() error {
	var firstErr error
	for d.length > 0 {
		b := d.pop()
		if err := b.Release(); err != nil {
			d.logger.Error("Releasing block failed", "slot", b.Handle().Index, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (d *Dispatcher) pop() *parcel.Block {
	b := d.queue[d.head]
	d.queue[d.head] = nil
	d.head = (d.head + 1) % uint64(len(d.queue))
	d.length--
	return b
}
