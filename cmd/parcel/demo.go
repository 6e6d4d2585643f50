package main

import (
	"fmt"

	"github.com/outofforest/photon"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/outofforest/parcel"
	"github.com/outofforest/parcel/dispatch"
	"github.com/outofforest/parcel/pool"
)

type counter struct {
	ID     uint64
	Value  uint64
	Report uint64
}

func (a *app) demoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Packages counter blocks, reruns them and dispatches them through the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			allocator, err := parcel.NewAllocator(a.cfg.PoolGeometry())
			if err != nil {
				return err
			}
			d := dispatch.New(a.cfg.Dispatch.Capacity, a.logger)

			increment := func(b *parcel.Block) {
				c, err := parcel.DataAs[counter](b)
				if err != nil {
					a.logger.Error("Unexpected data", "err", err)
					return
				}
				c.Value++
				b.Workspace()[0]++
				if c.Report != 0 {
					fmt.Fprintf(a.out, "block %d: value=%d runs=%d\n", c.ID, c.Value, b.Workspace()[0])
				}
			}

			for i := uint64(0); i < a.cfg.Demo.Blocks; i++ {
				b, err := parcel.PackageValue(allocator, increment, &counter{ID: i}, a.cfg.Demo.Workspace+1)
				if errors.Is(err, pool.ErrOutOfSpace) {
					a.logger.Warn("Pool exhausted, block dropped", "id", i)
					continue
				}
				if err != nil {
					return err
				}

				if err := a.prepare(b); err != nil {
					return a.abort(d, b, err)
				}
				a.logger.Debug("Block packaged", "id", i, "slot", b.Handle().Index, "size", b.Size(),
					"workspace", b.WorkspaceSize())

				if err := d.Push(b); err != nil {
					return a.abort(d, b, err)
				}
			}

			a.logStats(allocator)
			if err := d.Drain(cmd.Context()); err != nil {
				return err
			}
			a.logStats(allocator)

			return nil
		},
	}
}

// prepare reruns the block and switches reporting on for the run done by the dispatcher.
func (a *app) prepare(b *parcel.Block) error {
	for r := uint64(0); r < a.cfg.Demo.Runs; r++ {
		if err := b.Run(); err != nil {
			return err
		}
	}

	c, err := parcel.DataAs[counter](b)
	if err != nil {
		return err
	}
	next := *c
	next.Report = 1
	return b.Refresh(photon.NewFromValue(&next).B)
}

func (a *app) abort(d *dispatch.Dispatcher, b *parcel.Block, err error) error {
	if releaseErr := b.Release(); releaseErr != nil {
		a.logger.Error("Releasing block failed", "slot", b.Handle().Index, "err", releaseErr)
	}
	if discardErr := d.Discard(); discardErr != nil {
		a.logger.Error("Discarding queued blocks failed", "err", discardErr)
	}
	return err
}

func (a *app) logStats(allocator pool.Allocator) {
	switch alloc := allocator.(type) {
	case *pool.Pool:
		stats := alloc.Stats()
		a.logger.Info("Pool occupancy", "owned", stats.Owned, "free", stats.Free,
			"largestFreeRun", stats.LargestFreeRun, "allocations", stats.Allocations)
	case *pool.Heap:
		a.logger.Info("Heap occupancy", "used", alloc.Used())
	}
}
