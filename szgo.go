package szgo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/szgo/codec"
	"github.com/hupe1980/szgo/internal/conv"
	"github.com/hupe1980/szgo/internal/lossless"
	"github.com/hupe1980/szgo/ndarray"
	"github.com/hupe1980/szgo/predictor"
	"github.com/hupe1980/szgo/quantization"
)

const (
	magic         = "SZGO"
	formatVersion = 1

	// HeaderSize is the length of the uncompressed stream prefix read by ReadHeader.
	HeaderSize = len(magic) + 3

	// MaxRank is the highest array rank the compressor accepts.
	MaxRank = 8

	maxPredictors = math.MaxUint8
)

// Header is the uncompressed prefix of every stream.
type Header struct {
	Version     uint8
	ElementSize int
	Compression Compression
}

// ReadHeader parses the stream prefix without decompressing the payload.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize || string(data[:len(magic)]) != magic {
		return Header{}, ErrInvalidHeader
	}
	h := Header{
		Version:     data[4],
		ElementSize: int(data[5]),
		Compression: Compression(data[6]),
	}
	if h.Version != formatVersion {
		return Header{}, fmt.Errorf("%w: version %d", ErrInvalidHeader, h.Version)
	}
	if h.ElementSize != 4 && h.ElementSize != 8 {
		return Header{}, fmt.Errorf("%w: element size %d", ErrInvalidHeader, h.ElementSize)
	}
	if !h.Compression.Valid() {
		return Header{}, fmt.Errorf("%w: compression %d", ErrInvalidHeader, data[6])
	}
	return h, nil
}

// PredictorUsage reports how many blocks a candidate predictor won.
type PredictorUsage struct {
	Kind PredictorKind
	predictor.Usage
}

// Stats describes the most recent Compress call.
type Stats struct {
	Elements        int
	ElementSize     int
	BlockSize       int
	Blocks          int
	CompressedBytes int
	Unpredictable   int
	Usage           []PredictorUsage
	Duration        time.Duration

	// Report is the per-predictor usage report of the selection.
	Report string
}

// Ratio returns the compression ratio of the run.
func (s Stats) Ratio() float64 {
	if s.CompressedBytes == 0 {
		return 0
	}
	return float64(s.Elements*s.ElementSize) / float64(s.CompressedBytes)
}

// Compressor is an error-bounded lossy compressor for dense float arrays.
// It splits an array into blocks, selects the best candidate predictor per
// block, quantizes prediction residuals and packs everything into a single
// byte stream.
//
// A Compressor is safe for concurrent use; every call owns its predictors.
type Compressor[T ndarray.Float] struct {
	opts options

	mu    sync.Mutex
	stats Stats
}

// New creates a Compressor for element type T.
func New[T ndarray.Float](optFns ...Option) (*Compressor[T], error) {
	o := applyOptions(optFns)

	if !(o.errorBound > 0) || math.IsInf(o.errorBound, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidErrorBound, o.errorBound)
	}
	if o.blockSize != 0 && o.blockSize < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, o.blockSize)
	}
	if len(o.predictors) == 0 {
		return nil, predictor.ErrNoPredictors
	}
	if len(o.predictors) > maxPredictors {
		return nil, fmt.Errorf("szgo: %d predictors, at most %d allowed", len(o.predictors), maxPredictors)
	}
	for _, k := range o.predictors {
		if _, err := newPredictor[T](k, 1); err != nil {
			return nil, err
		}
	}
	if _, err := quantization.NewLinearQuantizer[T](o.errorBound, o.radius); err != nil {
		return nil, err
	}
	if !o.compression.Valid() {
		return nil, fmt.Errorf("%w: %d", lossless.ErrUnknownType, o.compression)
	}

	return &Compressor[T]{opts: o}, nil
}

// Stats returns the statistics of the most recently finished Compress call.
func (c *Compressor[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// ErrorBound returns the configured absolute error bound.
func (c *Compressor[T]) ErrorBound() float64 { return c.opts.errorBound }

// Compression returns the configured lossless stage.
func (c *Compressor[T]) Compression() Compression { return c.opts.compression }

func (c *Compressor[T]) blockSize(rank int) int {
	if c.opts.blockSize > 0 {
		return c.opts.blockSize
	}
	return defaultBlockSize(rank)
}

// Compress encodes a. The array is not modified.
func (c *Compressor[T]) Compress(ctx context.Context, a *ndarray.Array[T]) (out []byte, err error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil array", ndarray.ErrInvalidShape)
	}

	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		c.opts.metricsCollector.RecordCompress(a.Len(), len(out), elapsed, err)
		c.opts.logger.LogCompress(ctx, a.Len(), len(out), err)
	}()

	stats, out, err := c.compress(ctx, a)
	if err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)

	c.mu.Lock()
	c.stats = stats
	c.mu.Unlock()

	return out, nil
}

func (c *Compressor[T]) compress(ctx context.Context, a *ndarray.Array[T]) (Stats, []byte, error) {
	rank := a.Rank()
	if rank > MaxRank {
		return Stats{}, nil, fmt.Errorf("%w: rank %d exceeds %d", ndarray.ErrInvalidShape, rank, MaxRank)
	}
	bs := c.blockSize(rank)
	log := c.opts.logger.WithShape(a.Dims()).WithErrorBound(c.opts.errorBound)

	preds, err := newPredictors[T](c.opts.predictors, rank)
	if err != nil {
		return Stats{}, nil, err
	}
	comp, err := predictor.NewComposed(preds, predictor.WithLogger(log.Logger))
	if err != nil {
		return Stats{}, nil, err
	}
	q, err := quantization.NewLinearQuantizer[T](c.opts.errorBound, c.opts.radius)
	if err != nil {
		return Stats{}, nil, err
	}

	work := a.Clone()
	begin := work.Full().Begin()
	bins := make([]int, 0, work.Len())

	// Reconstructed values replace the input in the working copy, so every
	// prediction sees exactly what decompression will see.
	comp.PrecompressData(begin)
	for block := range work.Blocks(bs) {
		if err := ctx.Err(); err != nil {
			return Stats{}, nil, err
		}
		comp.PrecompressBlock(block)
		comp.PrecompressBlockCommit()
		for it := range block.All() {
			bin, recon := q.Quantize(it.Value(), comp.Predict(it))
			it.Set(recon)
			bins = append(bins, bin)
		}
	}
	comp.PostcompressData(begin)

	w := codec.NewWriter(2 * work.Len())
	w.WriteUint8(uint8(rank))
	for _, d := range work.Dims() {
		w.WriteUvarint(uint64(d))
	}
	w.WriteUvarint(uint64(bs))
	w.WriteUint8(uint8(len(c.opts.predictors)))
	for _, k := range c.opts.predictors {
		w.WriteUint8(uint8(k))
	}
	if err := comp.Save(w); err != nil {
		return Stats{}, nil, err
	}
	if err := q.Save(w); err != nil {
		return Stats{}, nil, err
	}
	w.WriteUvarint(uint64(len(bins)))
	for _, b := range bins {
		w.WriteVarint(int64(b - q.Radius()))
	}

	block, err := lossless.Compress(w.Bytes(), c.opts.compression)
	if err != nil {
		return Stats{}, nil, err
	}

	out := make([]byte, 0, HeaderSize+len(block))
	out = append(out, magic...)
	out = append(out, formatVersion, uint8(ndarray.ElemSize[T]()), uint8(c.opts.compression))
	out = append(out, block...)

	usage := comp.Usage()
	won := make([]int, len(usage))
	stats := Stats{
		Elements:        work.Len(),
		ElementSize:     ndarray.ElemSize[T](),
		BlockSize:       bs,
		Blocks:          len(comp.Selection()),
		CompressedBytes: len(out),
		Unpredictable:   q.Unpredictable(),
		Usage:           make([]PredictorUsage, len(usage)),
	}
	for i, u := range usage {
		stats.Usage[i] = PredictorUsage{Kind: c.opts.predictors[i], Usage: u}
		won[i] = u.Blocks
	}
	var report bytes.Buffer
	comp.Print(&report)
	stats.Report = report.String()

	c.opts.metricsCollector.RecordSelection(won)
	log.DebugContext(ctx, "selection finished",
		"blocks", stats.Blocks,
		"unpredictable", stats.Unpredictable,
	)

	return stats, out, nil
}

// Decompress decodes a stream written by Compress for the same element type.
// Options of the Compressor other than logging and metrics do not affect
// decompression; everything needed is read from the stream.
func (c *Compressor[T]) Decompress(ctx context.Context, data []byte) (arr *ndarray.Array[T], err error) {
	start := time.Now()
	defer func() {
		elements := 0
		if arr != nil {
			elements = arr.Len()
		}
		c.opts.metricsCollector.RecordDecompress(len(data), elements, time.Since(start), err)
		c.opts.logger.LogDecompress(ctx, len(data), elements, err)
	}()

	arr, err = c.decompress(ctx, data)
	if err != nil {
		return nil, translateError(err)
	}
	return arr, nil
}

func (c *Compressor[T]) decompress(ctx context.Context, data []byte) (*ndarray.Array[T], error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if h.ElementSize != ndarray.ElemSize[T]() {
		return nil, &ErrElementTypeMismatch{Expected: ndarray.ElemSize[T](), Actual: h.ElementSize}
	}

	payload, err := lossless.Decompress(data[HeaderSize:], h.Compression)
	if err != nil {
		return nil, err
	}
	r := codec.NewReader(payload)

	rank8, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	rank := int(rank8)
	if rank == 0 || rank > MaxRank {
		return nil, fmt.Errorf("%w: rank %d", ErrCorrupt, rank)
	}
	dims := make([]int, rank)
	for i := range dims {
		if dims[i], err = readInt(r); err != nil {
			return nil, err
		}
	}
	bs, err := readInt(r)
	if err != nil {
		return nil, err
	}
	if bs < 2 {
		return nil, fmt.Errorf("%w: block size %d", ErrCorrupt, bs)
	}

	nk, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	kinds := make([]PredictorKind, nk)
	for i := range kinds {
		k, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		kinds[i] = PredictorKind(k)
	}
	preds, err := newPredictors[T](kinds, rank)
	if err != nil {
		return nil, err
	}
	comp, err := predictor.NewComposed(preds, predictor.WithLogger(c.opts.logger.Logger))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := comp.Load(r); err != nil {
		return nil, err
	}

	q, err := quantization.NewLinearQuantizer[T](1, 1)
	if err != nil {
		return nil, err
	}
	if err := q.Load(r); err != nil {
		return nil, err
	}

	count, err := readInt(r)
	if err != nil {
		return nil, err
	}
	// Every bin takes at least one byte.
	if err := r.Need(count); err != nil {
		return nil, err
	}
	bins := make([]int, count)
	for i := range bins {
		v, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		bins[i] = int(v) + q.Radius()
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r.Remaining())
	}

	arr, err := ndarray.FromSlice(make([]T, count), dims...)
	if err != nil {
		return nil, err
	}

	begin := arr.Full().Begin()
	next := 0
	comp.PredecompressData(begin)
	for block := range arr.Blocks(bs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := comp.PredecompressBlock(block); err != nil {
			return nil, err
		}
		for it := range block.All() {
			v, err := q.Recover(comp.Predict(it), bins[next])
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", next, err)
			}
			it.Set(v)
			next++
		}
	}
	comp.PostdecompressData(begin)

	return arr, nil
}

func readInt(r *codec.Reader) (int, error) {
	v, err := r.ReadUvarint()
	if err != nil {
		return 0, err
	}
	n, err := conv.Uint64ToInt(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return n, nil
}

// CompressBatch compresses independent arrays in parallel, at most
// WithConcurrency at a time. The result is in input order. The first failure
// cancels the remaining work.
func (c *Compressor[T]) CompressBatch(ctx context.Context, arrays []*ndarray.Array[T]) ([][]byte, error) {
	out := make([][]byte, len(arrays))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.concurrency)
	for i, a := range arrays {
		g.Go(func() error {
			b, err := c.Compress(gctx, a)
			if err != nil {
				return fmt.Errorf("szgo: batch item %d: %w", i, err)
			}
			out[i] = b
			return nil
		})
	}

	err := g.Wait()
	c.opts.logger.LogBatch(ctx, len(arrays), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecompressBatch is the inverse of CompressBatch.
func (c *Compressor[T]) DecompressBatch(ctx context.Context, streams [][]byte) ([]*ndarray.Array[T], error) {
	out := make([]*ndarray.Array[T], len(streams))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.concurrency)
	for i, data := range streams {
		g.Go(func() error {
			arr, err := c.Decompress(gctx, data)
			if err != nil {
				return fmt.Errorf("szgo: batch item %d: %w", i, err)
			}
			out[i] = arr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// IsCorrupt reports whether err was caused by an undecodable stream.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt) || errors.Is(err, ErrInvalidHeader)
}
