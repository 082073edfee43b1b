package quantization

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/szgo/codec"
	"github.com/hupe1980/szgo/internal/conv"
	"github.com/hupe1980/szgo/ndarray"
)

var (
	// ErrInvalidErrorBound is returned for a non-positive or non-finite error bound.
	ErrInvalidErrorBound = errors.New("quantization: error bound must be positive and finite")

	// ErrInvalidRadius is returned for a radius outside [1, MaxRadius].
	ErrInvalidRadius = errors.New("quantization: radius out of range")

	// ErrUnpredictableExhausted is returned when Recover meets more unpredictable
	// bins than values were stored.
	ErrUnpredictableExhausted = errors.New("quantization: unpredictable values exhausted")

	// ErrBinRange is returned when Recover is given a bin outside [0, 2·radius).
	ErrBinRange = errors.New("quantization: bin out of range")
)

// MaxRadius is the largest supported bin radius.
const MaxRadius = 1 << 30

// LinearQuantizer quantizes residuals into bins of width 2·errorBound.
type LinearQuantizer[T ndarray.Float] struct {
	errorBound float64
	radius     int

	unpred []T
	cursor int
}

// NewLinearQuantizer creates a quantizer with the given absolute error bound
// and bin radius.
func NewLinearQuantizer[T ndarray.Float](errorBound float64, radius int) (*LinearQuantizer[T], error) {
	if !(errorBound > 0) || math.IsInf(errorBound, 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidErrorBound, errorBound)
	}
	if radius <= 0 || radius > MaxRadius {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRadius, radius)
	}
	return &LinearQuantizer[T]{errorBound: errorBound, radius: radius}, nil
}

// ErrorBound returns the absolute error bound.
func (q *LinearQuantizer[T]) ErrorBound() float64 { return q.errorBound }

// Radius returns the bin radius.
func (q *LinearQuantizer[T]) Radius() int { return q.radius }

// Unpredictable returns the number of stored unpredictable values.
func (q *LinearQuantizer[T]) Unpredictable() int { return len(q.unpred) }

// Quantize returns the bin for data given its prediction, and the value
// decompression will reconstruct from that bin.
func (q *LinearQuantizer[T]) Quantize(data, pred T) (int, T) {
	diff := float64(data) - float64(pred)
	ad := math.Abs(diff)

	// Negated so NaN residuals are unpredictable too.
	if !(ad < 2*float64(q.radius)*q.errorBound) {
		return q.store(data)
	}

	half := (int(ad/q.errorBound) + 1) >> 1
	if half >= q.radius {
		return q.store(data)
	}
	if diff < 0 {
		half = -half
	}

	recon := T(float64(pred) + float64(2*half)*q.errorBound)
	if math.Abs(float64(recon)-float64(data)) > q.errorBound {
		return q.store(data)
	}
	return half + q.radius, recon
}

func (q *LinearQuantizer[T]) store(data T) (int, T) {
	q.unpred = append(q.unpred, data)
	return 0, data
}

// Recover reconstructs a value from its prediction and bin.
func (q *LinearQuantizer[T]) Recover(pred T, bin int) (T, error) {
	if bin == 0 {
		if q.cursor >= len(q.unpred) {
			return 0, fmt.Errorf("%w: %d stored", ErrUnpredictableExhausted, len(q.unpred))
		}
		v := q.unpred[q.cursor]
		q.cursor++
		return v, nil
	}
	if bin < 0 || bin >= 2*q.radius {
		return 0, fmt.Errorf("%w: %d with radius %d", ErrBinRange, bin, q.radius)
	}
	return T(float64(pred) + float64(2*(bin-q.radius))*q.errorBound), nil
}

// Reset drops stored unpredictable values and rewinds Recover.
func (q *LinearQuantizer[T]) Reset() {
	q.unpred = q.unpred[:0]
	q.cursor = 0
}

// Save writes the error bound, radius and unpredictable values.
// Values are stored at the width of T.
func (q *LinearQuantizer[T]) Save(w *codec.Writer) error {
	w.WriteFloat64(q.errorBound)
	r, err := conv.IntToUint32(q.radius)
	if err != nil {
		return err
	}
	w.WriteUint32(r)
	w.WriteUint64(uint64(len(q.unpred)))

	wide := ndarray.ElemSize[T]() == 8
	for _, v := range q.unpred {
		if wide {
			w.WriteFloat64(float64(v))
		} else {
			w.WriteFloat32(float32(v))
		}
	}
	return nil
}

// Load restores the state written by Save.
func (q *LinearQuantizer[T]) Load(r *codec.Reader) error {
	eb, err := r.ReadFloat64()
	if err != nil {
		return err
	}
	radius, err := r.ReadUint32()
	if err != nil {
		return err
	}
	count64, err := r.ReadUint64()
	if err != nil {
		return err
	}
	count, err := conv.Uint64ToInt(count64)
	if err != nil {
		return err
	}

	size := ndarray.ElemSize[T]()
	if count > r.Remaining()/size {
		return &codec.ShortBufferError{Need: min(count, math.MaxInt/size) * size, Remaining: r.Remaining()}
	}

	loaded, err := NewLinearQuantizer[T](eb, int(radius))
	if err != nil {
		return err
	}
	loaded.unpred = make([]T, count)
	for i := range loaded.unpred {
		if size == 8 {
			v, err := r.ReadFloat64()
			if err != nil {
				return err
			}
			loaded.unpred[i] = T(v)
		} else {
			v, err := r.ReadFloat32()
			if err != nil {
				return err
			}
			loaded.unpred[i] = T(v)
		}
	}
	*q = *loaded
	return nil
}
