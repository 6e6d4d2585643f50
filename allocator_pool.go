//go:build !heapalloc

package parcel

import "github.com/outofforest/parcel/pool"

// NewAllocator returns the allocator selected at build time. By default it is the slot pool.
func NewAllocator(cfg pool.Config) (pool.Allocator, error) {
	p, err := pool.New(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}
