package parcel

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/outofforest/photon"

	"github.com/outofforest/parcel/types"
)

const (
	// HeaderSize is the size of the header stored at the beginning of each block.
	// This magic ensures that the header size is a multiplication of 8, meaning that data following the header are
	// correctly aligned.
	HeaderSize = (uint64(unsafe.Sizeof(header{})-1)/types.Alignment + 1) * types.Alignment

	checksumOffset = unsafe.Offsetof(header{}.Checksum)
)

// header stores the metadata of the block. It is written once, when block is packaged.
type header struct {
	Generation    types.Generation
	TotalSize     uint64
	DataSize      uint64
	WorkspaceSize uint64
	Checksum      types.Hash
}

func newHeader(b []byte, h header) photon.Union[*header] {
	hdr := photon.NewFromBytes[header](b)
	*hdr.V = h
	hdr.V.Checksum = computeChecksum(hdr)
	return hdr
}

func computeChecksum(hdr photon.Union[*header]) types.Hash {
	return types.Hash(xxhash.Sum64(hdr.B[:checksumOffset]))
}
