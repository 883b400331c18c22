package voxel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrCorrupt is returned by Restore when the data does not decode to a
// sign field of the expected resolution.
var ErrCorrupt = errors.New("voxel: corrupt compressed signs")

// The encoder and decoder are safe for concurrent EncodeAll/DecodeAll and
// shared by every field.
var codec = sync.OnceValues(func() (*zstd.Encoder, *zstd.Decoder) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		panic(fmt.Sprintf("voxel: zstd encoder: %v", err))
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic(fmt.Sprintf("voxel: zstd decoder: %v", err))
	}
	return enc, dec
})

func packedLen(resolution int) int {
	return (resolution*resolution*resolution + 7) / 8
}

// Compress returns a bitset of the signs, zstd compressed. The result
// shares no memory with the field.
func (f *Field) Compress() []byte {
	f.packed = f.packed[:packedLen(f.n)]
	clear(f.packed)
	for i, s := range f.signs {
		if s {
			f.packed[i>>3] |= 1 << uint(i&7)
		}
	}
	enc, _ := codec()
	return enc.EncodeAll(f.packed, nil)
}

// Restore overwrites the signs with data produced by Compress on a field of
// the same resolution.
func (f *Field) Restore(data []byte) error {
	_, dec := codec()
	out, err := dec.DecodeAll(data, f.packed[:0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(out) != packedLen(f.n) {
		return fmt.Errorf("%w: %d bytes, want %d", ErrCorrupt, len(out), packedLen(f.n))
	}
	f.packed = out
	for i := range f.signs {
		f.signs[i] = out[i>>3]&(1<<uint(i&7)) != 0
	}
	return nil
}
