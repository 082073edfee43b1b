package lossless

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/szgo/codec"
	"github.com/hupe1980/szgo/internal/conv"
)

// Type identifies the lossless algorithm. The value is persisted.
type Type uint8

const (
	// None stores the payload as is.
	None Type = 0
	// LZ4 favors speed.
	LZ4 Type = 1
	// Zstd favors ratio.
	Zstd Type = 2
)

var (
	// ErrUnknownType is returned for an unsupported Type.
	ErrUnknownType = errors.New("lossless: unknown type")
	// ErrCorrupt is returned when a block cannot be decompressed.
	ErrCorrupt = errors.New("lossless: corrupt block")
)

const headerSize = 16

// lz4 cannot expand by more than this factor.
const maxLZ4Ratio = 255

// maxRawSize bounds the decoded size a block header may claim.
const maxRawSize = 1 << 34

// String returns the name of the type.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseType returns the Type with the given name.
func ParseType(name string) (Type, error) {
	switch name {
	case "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return t <= Zstd
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	// DecodeAll never grows dst past its capacity, which Decompress sets to
	// the size recorded in the block header.
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxRawSize), zstd.WithDecodeAllCapLimit(true))
}

// Compress returns data wrapped in a block of the given type.
func Compress(data []byte, t Type) ([]byte, error) {
	var (
		compressed []byte
		err        error
	)
	switch t {
	case None:
	case LZ4:
		compressed, err = compressLZ4(data)
	case Zstd:
		compressed, err = compressZstd(data)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
	if err != nil {
		return nil, err
	}

	w := codec.NewWriter(headerSize + len(data))
	w.WriteUint64(uint64(len(data)))
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		w.WriteUint64(0)
		w.WriteBytes(data)
		return w.Bytes(), nil
	}
	w.WriteUint64(uint64(len(compressed)))
	w.WriteBytes(compressed)
	return w.Bytes(), nil
}

func compressLZ4(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("lossless: lz4: %w", err)
	}
	// n == 0 means incompressible.
	return compressed[:n], nil
}

func compressZstd(data []byte) ([]byte, error) {
	enc, err := getZstdEncoder()
	if err != nil {
		return nil, fmt.Errorf("lossless: zstd: %w", err)
	}
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

// Decompress unwraps a block written by Compress with the same type.
func Decompress(block []byte, t Type) ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}

	r := codec.NewReader(block)
	rawSize64, err := r.ReadUint64()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	compSize64, err := r.ReadUint64()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if rawSize64 > maxRawSize {
		return nil, fmt.Errorf("%w: raw size %d", ErrCorrupt, rawSize64)
	}
	rawSize, err := conv.Uint64ToInt(rawSize64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	compSize, err := conv.Uint64ToInt(compSize64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	if compSize == 0 {
		data, err := r.ReadBytes(rawSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if r.Remaining() != 0 {
			return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r.Remaining())
		}
		return data, nil
	}

	payload, err := r.ReadBytes(compSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r.Remaining())
	}

	switch t {
	case LZ4:
		if rawSize > compSize*maxLZ4Ratio+16 {
			return nil, fmt.Errorf("%w: lz4 size %d from %d bytes", ErrCorrupt, rawSize, compSize)
		}
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		if n != rawSize {
			return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrCorrupt, n, rawSize)
		}
		return out, nil
	case Zstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("lossless: zstd: %w", err)
		}
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(payload, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		if len(out) != rawSize {
			return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrCorrupt, len(out), rawSize)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: compressed block for type %s", ErrCorrupt, t)
	}
}
