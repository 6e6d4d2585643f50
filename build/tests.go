package build

import (
	"context"

	"github.com/outofforest/build"
	"github.com/outofforest/buildgo"
)

// goTests runs tests with reduced pool geometry taken from pool/params_testing.go.
func goTests(ctx context.Context, deps build.DepsFunc) error {
	return buildgo.GoTest(ctx, deps, "test")
}

// goTestsHeap runs tests with parcel.NewAllocator returning the heap allocator, covering allocator_heap_test.go.
func goTestsHeap(ctx context.Context, deps build.DepsFunc) error {
	return buildgo.GoTest(ctx, deps, "heapalloc")
}
