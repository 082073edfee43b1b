package predictor

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/szgo/codec"
	"github.com/hupe1980/szgo/entropy"
	"github.com/hupe1980/szgo/internal/conv"
	"github.com/hupe1980/szgo/ndarray"
)

type composedOptions struct {
	encoder entropy.Encoder
	logger  *slog.Logger
}

// ComposedOption configures a Composed predictor.
type ComposedOption func(*composedOptions)

// WithSelectionEncoder sets the coder used to persist the selection history.
// If nil is passed, entropy.NewHuffman is used.
func WithSelectionEncoder(e entropy.Encoder) ComposedOption {
	return func(o *composedOptions) {
		o.encoder = e
	}
}

// WithLogger logs every block selection at debug level.
func WithLogger(l *slog.Logger) ComposedOption {
	return func(o *composedOptions) {
		o.logger = l
	}
}

// Composed selects one of its predictors per block and records the choice.
type Composed[T ndarray.Float] struct {
	predictors []Predictor[T]
	encoder    entropy.Encoder
	logger     *slog.Logger

	selection  []int
	sid        int
	cursor     int // next selection to replay
	predictErr []float64
}

// NewComposed creates a Composed predictor over the given candidates.
// The list is copied; candidate order is part of the persisted format.
func NewComposed[T ndarray.Float](predictors []Predictor[T], optFns ...ComposedOption) (*Composed[T], error) {
	if len(predictors) == 0 {
		return nil, ErrNoPredictors
	}
	for i, p := range predictors {
		if p == nil {
			return nil, fmt.Errorf("predictor: candidate %d is nil", i)
		}
	}

	opts := composedOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.encoder == nil {
		opts.encoder = entropy.NewHuffman()
	}

	return &Composed[T]{
		predictors: append([]Predictor[T](nil), predictors...),
		encoder:    opts.encoder,
		logger:     opts.logger,
		predictErr: make([]float64, len(predictors)),
	}, nil
}

// Len returns the number of candidate predictors.
func (c *Composed[T]) Len() int { return len(c.predictors) }

// Predictors returns a copy of the candidate list.
func (c *Composed[T]) Predictors() []Predictor[T] {
	return append([]Predictor[T](nil), c.predictors...)
}

// SID returns the index selected for the current block.
func (c *Composed[T]) SID() int { return c.sid }

// SetSID overrides the selected index.
func (c *Composed[T]) SetSID(sid int) { c.sid = sid }

// Selection returns a copy of the selection history.
func (c *Composed[T]) Selection() []int {
	return append([]int(nil), c.selection...)
}

// Reset clears the selection history and the replay cursor.
func (c *Composed[T]) Reset() {
	c.selection = c.selection[:0]
	c.cursor = 0
	c.sid = 0
}

// PrecompressData implements Predictor.
func (c *Composed[T]) PrecompressData(it *ndarray.Iterator[T]) {
	for _, p := range c.predictors {
		p.PrecompressData(it)
	}
}

// PostcompressData implements Predictor.
func (c *Composed[T]) PostcompressData(it *ndarray.Iterator[T]) {
	for _, p := range c.predictors {
		p.PostcompressData(it)
	}
}

// PredecompressData implements Predictor.
func (c *Composed[T]) PredecompressData(it *ndarray.Iterator[T]) {
	for _, p := range c.predictors {
		p.PredecompressData(it)
	}
}

// PostdecompressData implements Predictor.
func (c *Composed[T]) PostdecompressData(it *ndarray.Iterator[T]) {
	for _, p := range c.predictors {
		p.PostdecompressData(it)
	}
}

// PrecompressBlock prepares every candidate for the block, estimates their
// cost on a diagonal sample and selects the cheapest one.
func (c *Composed[T]) PrecompressBlock(r *ndarray.Range[T]) {
	for _, p := range c.predictors {
		p.PrecompressBlock(r)
	}

	c.estimateError(r.Begin(), r.Rank(), r.MinDimension())

	// The choice is only recorded on commit: a Composed nested as a
	// candidate sees PrecompressBlock for blocks it loses.
	c.sid = argmin(c.predictErr)

	if c.logger != nil {
		c.logger.Debug("block predictor selected",
			"block", len(c.selection),
			"predictor", c.sid,
			"cost", c.predictErr[c.sid],
		)
	}
}

// PrecompressBlockCommit records the selection and commits the selected
// predictor only.
func (c *Composed[T]) PrecompressBlockCommit() {
	c.selection = append(c.selection, c.sid)
	c.predictors[c.sid].PrecompressBlockCommit()
}

// PredecompressBlock replays the next recorded selection and forwards the
// block to that predictor only.
func (c *Composed[T]) PredecompressBlock(r *ndarray.Range[T]) error {
	if c.cursor >= len(c.selection) {
		return fmt.Errorf("%w: %d blocks recorded", ErrSelectionExhausted, len(c.selection))
	}
	c.sid = c.selection[c.cursor]
	c.cursor++
	return c.predictors[c.sid].PredecompressBlock(r)
}

// Predict delegates to the selected predictor.
func (c *Composed[T]) Predict(it *ndarray.Iterator[T]) T {
	return c.predictors[c.sid].Predict(it)
}

// EstimateError delegates to the selected predictor, which lets a Composed
// take part as a candidate in another Composed.
func (c *Composed[T]) EstimateError(it *ndarray.Iterator[T]) T {
	return c.predictors[c.sid].EstimateError(it)
}

// Save writes every candidate's state, the selection count and the coded
// selection history.
func (c *Composed[T]) Save(w *codec.Writer) error {
	for i, p := range c.predictors {
		if err := p.Save(w); err != nil {
			return fmt.Errorf("predictor: save candidate %d: %w", i, err)
		}
	}

	w.WriteUint64(uint64(len(c.selection)))

	if err := c.encoder.PreprocessEncode(c.selection, 4*len(c.predictors)); err != nil {
		return fmt.Errorf("predictor: encode selection: %w", err)
	}
	defer c.encoder.PostprocessEncode()

	if err := c.encoder.Save(w); err != nil {
		return fmt.Errorf("predictor: encode selection: %w", err)
	}
	if err := c.encoder.Encode(c.selection, w); err != nil {
		return fmt.Errorf("predictor: encode selection: %w", err)
	}
	return nil
}

// Load restores the state written by Save and rewinds the replay cursor.
func (c *Composed[T]) Load(r *codec.Reader) error {
	for i, p := range c.predictors {
		if err := p.Load(r); err != nil {
			return fmt.Errorf("predictor: load candidate %d: %w", i, err)
		}
	}

	count64, err := r.ReadUint64()
	if err != nil {
		return fmt.Errorf("predictor: load selection count: %w", err)
	}
	count, err := conv.Uint64ToInt(count64)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSelection, err)
	}

	if err := c.encoder.Load(r); err != nil {
		return fmt.Errorf("predictor: decode selection: %w", err)
	}
	defer c.encoder.PostprocessDecode()

	selection, err := c.encoder.Decode(r, count)
	if err != nil {
		return fmt.Errorf("predictor: decode selection: %w", err)
	}
	for i, s := range selection {
		if s < 0 || s >= len(c.predictors) {
			return fmt.Errorf("%w: block %d selects predictor %d of %d", ErrCorruptSelection, i, s, len(c.predictors))
		}
	}

	c.selection = selection
	c.cursor = 0
	c.sid = 0
	return nil
}

func argmin(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] < v[best] {
			best = i
		}
	}
	return best
}

var _ Predictor[float32] = (*Composed[float32])(nil)
