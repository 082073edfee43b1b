package entropy

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/huff0"

	"github.com/hupe1980/szgo/codec"
)

const huffmanVersion = 1

type chunkMode uint8

const (
	chunkRaw chunkMode = iota
	chunkRLE
	chunkHuff0
	chunkVarint
)

type chunk struct {
	mode    chunkMode
	count   int
	payload []byte
}

// Huffman is an Encoder backed by huff0.
//
// Symbols are coded in chunks of at most huff0.BlockSizeMax values. A chunk is
// stored as a huff0 1X stream (table inline), as a single repeated symbol, as
// raw bytes when huff0 reports it incompressible, or as uvarints when a symbol
// does not fit in a byte.
//
// Header: version (uint8), chunk count (uint32).
// Chunk:  mode (uint8), symbol count (uint32), payload length (uint32), payload.
//
// A Huffman value is not safe for concurrent use.
type Huffman struct {
	chunkSize int
	scratch   *huff0.Scratch

	prepared bool
	chunks   []chunk
	total    int

	loaded     bool
	loadChunks int
}

// NewHuffman returns a Huffman encoder with the default chunk size.
func NewHuffman() *Huffman {
	return &Huffman{chunkSize: huff0.BlockSizeMax}
}

// PreprocessEncode implements Encoder.
func (h *Huffman) PreprocessEncode(symbols []int, alphabetHint int) error {
	h.PostprocessEncode()

	maxSym := 0
	for i, s := range symbols {
		if s < 0 {
			return &ErrSymbolRange{Index: i, Symbol: s}
		}
		maxSym = max(maxSym, s)
	}

	wide := maxSym > 255
	maxSymbolValue := uint8(min(255, max(maxSym, alphabetHint-1)))

	for start := 0; start < len(symbols); start += h.chunkSize {
		part := symbols[start:min(start+h.chunkSize, len(symbols))]
		var (
			c   chunk
			err error
		)
		if wide {
			c = varintChunk(part)
		} else {
			c, err = h.byteChunk(part, maxSymbolValue)
			if err != nil {
				return err
			}
		}
		h.chunks = append(h.chunks, c)
	}
	h.total = len(symbols)
	h.prepared = true
	return nil
}

func varintChunk(symbols []int) chunk {
	w := codec.NewWriter(len(symbols))
	for _, s := range symbols {
		w.WriteUvarint(uint64(s))
	}
	return chunk{mode: chunkVarint, count: len(symbols), payload: w.Bytes()}
}

func (h *Huffman) byteChunk(symbols []int, maxSymbolValue uint8) (chunk, error) {
	raw := make([]byte, len(symbols))
	for i, s := range symbols {
		raw[i] = byte(s)
	}

	if h.scratch == nil {
		h.scratch = &huff0.Scratch{}
	}
	h.scratch.MaxSymbolValue = maxSymbolValue
	// Every chunk carries its own table; decodeChunk always reads one.
	h.scratch.Reuse = huff0.ReusePolicyNone

	out, reUsed, err := huff0.Compress1X(raw, h.scratch)
	switch {
	case err == nil && reUsed:
		return chunk{}, errors.New("entropy: huff0 omitted the chunk table")
	case err == nil:
		// out aliases the scratch buffer, which the next chunk reuses.
		return chunk{mode: chunkHuff0, count: len(raw), payload: append([]byte(nil), out...)}, nil
	case errors.Is(err, huff0.ErrUseRLE):
		return chunk{mode: chunkRLE, count: len(raw), payload: []byte{raw[0]}}, nil
	case errors.Is(err, huff0.ErrIncompressible):
		return chunk{mode: chunkRaw, count: len(raw), payload: raw}, nil
	default:
		return chunk{}, fmt.Errorf("entropy: huff0 compress: %w", err)
	}
}

// Save implements Encoder.
func (h *Huffman) Save(w *codec.Writer) error {
	if !h.prepared {
		return ErrNotPrepared
	}
	w.WriteUint8(huffmanVersion)
	w.WriteUint32(uint32(len(h.chunks)))
	return nil
}

// Encode implements Encoder.
func (h *Huffman) Encode(symbols []int, w *codec.Writer) error {
	if !h.prepared {
		return ErrNotPrepared
	}
	if len(symbols) != h.total {
		return fmt.Errorf("%w: %d symbols prepared, %d given", ErrNotPrepared, h.total, len(symbols))
	}
	for _, c := range h.chunks {
		w.WriteUint8(uint8(c.mode))
		w.WriteUint32(uint32(c.count))
		w.WriteUint32(uint32(len(c.payload)))
		w.WriteBytes(c.payload)
	}
	return nil
}

// PostprocessEncode implements Encoder.
func (h *Huffman) PostprocessEncode() {
	h.prepared = false
	h.chunks = nil
	h.total = 0
}

// Load implements Encoder.
func (h *Huffman) Load(r *codec.Reader) error {
	version, err := r.ReadUint8()
	if err != nil {
		return err
	}
	if version != huffmanVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, version)
	}
	n, err := r.ReadUint32()
	if err != nil {
		return err
	}
	h.loadChunks = int(n)
	h.loaded = true
	return nil
}

// Decode implements Encoder.
func (h *Huffman) Decode(r *codec.Reader, n int) ([]int, error) {
	if !h.loaded {
		return nil, ErrNotPrepared
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative symbol count %d", ErrCorrupt, n)
	}

	// Every symbol costs at least one byte except in RLE chunks, so the
	// remaining length does not bound n; cap the preallocation instead.
	out := make([]int, 0, min(n, h.chunkSize))
	for i := 0; i < h.loadChunks; i++ {
		mode, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		count32, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		size32, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		count := int(count32)
		if count > n-len(out) {
			return nil, fmt.Errorf("%w: chunk of %d symbols exceeds expected total %d", ErrCorrupt, count, n)
		}
		payload, err := r.ReadBytes(int(size32))
		if err != nil {
			return nil, err
		}
		out, err = h.decodeChunk(out, chunkMode(mode), count, payload)
		if err != nil {
			return nil, err
		}
	}
	if len(out) != n {
		return nil, fmt.Errorf("%w: decoded %d symbols, expected %d", ErrCorrupt, len(out), n)
	}
	return out, nil
}

func (h *Huffman) decodeChunk(out []int, mode chunkMode, count int, payload []byte) ([]int, error) {
	switch mode {
	case chunkRaw:
		if len(payload) != count {
			return nil, fmt.Errorf("%w: raw chunk length %d, expected %d", ErrCorrupt, len(payload), count)
		}
		for _, b := range payload {
			out = append(out, int(b))
		}
	case chunkRLE:
		if len(payload) != 1 {
			return nil, fmt.Errorf("%w: rle chunk length %d", ErrCorrupt, len(payload))
		}
		for i := 0; i < count; i++ {
			out = append(out, int(payload[0]))
		}
	case chunkHuff0:
		if count > h.chunkSize {
			return nil, fmt.Errorf("%w: huff0 chunk of %d symbols", ErrCorrupt, count)
		}
		s, remain, err := huff0.ReadTable(payload, h.scratch)
		if err != nil {
			return nil, fmt.Errorf("%w: huff0 table: %w", ErrCorrupt, err)
		}
		h.scratch = s
		decoded, err := s.Decoder().Decompress1X(make([]byte, 0, count), remain)
		if err != nil {
			return nil, fmt.Errorf("%w: huff0 stream: %w", ErrCorrupt, err)
		}
		if len(decoded) != count {
			return nil, fmt.Errorf("%w: huff0 chunk decoded %d symbols, expected %d", ErrCorrupt, len(decoded), count)
		}
		for _, b := range decoded {
			out = append(out, int(b))
		}
	case chunkVarint:
		cr := codec.NewReader(payload)
		for i := 0; i < count; i++ {
			v, err := cr.ReadUvarint()
			if err != nil {
				return nil, fmt.Errorf("%w: varint chunk: %w", ErrCorrupt, err)
			}
			if v > uint64(maxInt) {
				return nil, fmt.Errorf("%w: symbol %d overflows int", ErrCorrupt, v)
			}
			out = append(out, int(v))
		}
		if cr.Remaining() != 0 {
			return nil, fmt.Errorf("%w: %d trailing bytes in varint chunk", ErrCorrupt, cr.Remaining())
		}
	default:
		return nil, fmt.Errorf("%w: unknown chunk mode %d", ErrCorrupt, mode)
	}
	return out, nil
}

// PostprocessDecode implements Encoder.
func (h *Huffman) PostprocessDecode() {
	h.loaded = false
	h.loadChunks = 0
}

const maxInt = int(^uint(0) >> 1)

var _ Encoder = (*Huffman)(nil)
