package predictor

import (
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/szgo/codec"
	"github.com/hupe1980/szgo/internal/conv"
	"github.com/hupe1980/szgo/ndarray"
)

const regressionVersion = 1

// Regression predicts every value of a block from a linear model
// b0 + b1·x1 + ... + bN·xN over the block-local coordinates. The model is a
// least-squares fit over the block; committed coefficients are persisted
// and replayed during decompression, so decompression never refits.
type Regression[T ndarray.Float] struct {
	rank    int
	current []float64

	history []float64 // rank+1 coefficients per committed block
	cursor  int
}

// NewRegression creates a regression predictor for arrays of the given rank.
func NewRegression[T ndarray.Float](rank int) *Regression[T] {
	return &Regression[T]{
		rank:    rank,
		current: make([]float64, rank+1),
	}
}

// Blocks returns the number of blocks with stored coefficients.
func (g *Regression[T]) Blocks() int { return len(g.history) / (g.rank + 1) }

// Coefficients returns a copy of the model used by Predict.
func (g *Regression[T]) Coefficients() []float64 {
	return append([]float64(nil), g.current...)
}

func (g *Regression[T]) PrecompressData(*ndarray.Iterator[T])    {}
func (g *Regression[T]) PostcompressData(*ndarray.Iterator[T])   {}
func (g *Regression[T]) PredecompressData(*ndarray.Iterator[T])  { g.cursor = 0 }
func (g *Regression[T]) PostdecompressData(*ndarray.Iterator[T]) {}

// PrecompressBlock fits the model to the block.
//
// On a full grid every coordinate axis is independent, so each slope is
// cov(x_i, v) / var(x_i) and no system has to be solved.
func (g *Regression[T]) PrecompressBlock(r *ndarray.Range[T]) {
	dims := r.Dimensions()
	n := float64(r.Volume())

	var sum float64
	xv := make([]float64, g.rank)
	for it := range r.All() {
		v := float64(it.Value())
		sum += v
		for i := range xv {
			xv[i] += float64(it.Local(i)) * v
		}
	}

	mean := sum / n
	b0 := mean
	for i, d := range dims {
		slope := 0.0
		if d > 1 {
			m := float64(d-1) / 2
			variance := n * float64(d*d-1) / 12
			slope = (xv[i] - m*sum) / variance
			b0 -= slope * m
		}
		g.current[i+1] = slope
	}
	g.current[0] = b0
}

func (g *Regression[T]) PrecompressBlockCommit() {
	g.history = append(g.history, g.current...)
}

func (g *Regression[T]) PredecompressBlock(*ndarray.Range[T]) error {
	stride := g.rank + 1
	if g.cursor+stride > len(g.history) {
		return fmt.Errorf("%w: %d blocks stored", ErrCoefficientsExhausted, g.Blocks())
	}
	copy(g.current, g.history[g.cursor:g.cursor+stride])
	g.cursor += stride
	return nil
}

// Save writes version, rank, block count and the coefficients of every
// committed block as float64.
func (g *Regression[T]) Save(w *codec.Writer) error {
	w.WriteUint8(regressionVersion)
	w.WriteUint8(uint8(g.rank))
	w.WriteUint64(uint64(g.Blocks()))
	for _, c := range g.history {
		w.WriteFloat64(c)
	}
	return nil
}

func (g *Regression[T]) Load(r *codec.Reader) error {
	v, err := r.ReadUint8()
	if err != nil {
		return err
	}
	if v != regressionVersion {
		return fmt.Errorf("%w: regression version %d", ErrCorruptState, v)
	}
	rank, err := r.ReadUint8()
	if err != nil {
		return err
	}
	if int(rank) != g.rank {
		return fmt.Errorf("%w: regression rank %d, expected %d", ErrCorruptState, rank, g.rank)
	}
	count64, err := r.ReadUint64()
	if err != nil {
		return err
	}
	count, err := conv.Uint64ToInt(count64)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	stride := g.rank + 1
	if count > r.Remaining()/(8*stride) {
		need := math.MaxInt
		if count <= math.MaxInt/(8*stride) {
			need = count * 8 * stride
		}
		return &codec.ShortBufferError{Need: need, Remaining: r.Remaining()}
	}

	history := make([]float64, count*stride)
	for i := range history {
		if history[i], err = r.ReadFloat64(); err != nil {
			return err
		}
	}
	g.history = history
	g.cursor = 0
	return nil
}

func (g *Regression[T]) Predict(it *ndarray.Iterator[T]) T {
	p := g.current[0]
	for i := 0; i < g.rank; i++ {
		p += g.current[i+1] * float64(it.Local(i))
	}
	return T(p)
}

func (g *Regression[T]) EstimateError(it *ndarray.Iterator[T]) T {
	return abs(g.Predict(it) - it.Value())
}

func (g *Regression[T]) Print(w io.Writer) {
	fmt.Fprintf(w, "Regression (rank %d): blocks=%d\n", g.rank, g.Blocks())
}

var _ Predictor[float32] = (*Regression[float32])(nil)
