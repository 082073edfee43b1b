package predictor

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/hupe1980/szgo/codec"
	"github.com/hupe1980/szgo/ndarray"
)

const lorenzoVersion = 1

// Lorenzo is the first-order Lorenzo predictor: the value at x is predicted
// from the 2^rank-1 neighbours that precede it on every combination of axes,
// with alternating signs. Neighbours before the array start count as zero.
type Lorenzo[T ndarray.Float] struct {
	rank    int
	offsets [][]int
	signs   []T

	committed int
	replayed  int
}

// NewLorenzo creates a Lorenzo predictor for arrays of the given rank.
func NewLorenzo[T ndarray.Float](rank int) *Lorenzo[T] {
	n := 1<<rank - 1
	l := &Lorenzo[T]{
		rank:    rank,
		offsets: make([][]int, 0, n),
		signs:   make([]T, 0, n),
	}
	for mask := uint(1); mask <= uint(n); mask++ {
		back := make([]int, rank)
		for axis := range back {
			back[axis] = int(mask >> axis & 1)
		}
		sign := T(1)
		if bits.OnesCount(mask)%2 == 0 {
			sign = -1
		}
		l.offsets = append(l.offsets, back)
		l.signs = append(l.signs, sign)
	}
	return l
}

func (l *Lorenzo[T]) PrecompressData(*ndarray.Iterator[T])    {}
func (l *Lorenzo[T]) PostcompressData(*ndarray.Iterator[T])   {}
func (l *Lorenzo[T]) PredecompressData(*ndarray.Iterator[T])  {}
func (l *Lorenzo[T]) PostdecompressData(*ndarray.Iterator[T]) {}

func (l *Lorenzo[T]) PrecompressBlock(*ndarray.Range[T]) {}

func (l *Lorenzo[T]) PrecompressBlockCommit() { l.committed++ }

func (l *Lorenzo[T]) PredecompressBlock(*ndarray.Range[T]) error {
	l.replayed++
	return nil
}

// Save writes the format version; the predictor has no other persistent state.
func (l *Lorenzo[T]) Save(w *codec.Writer) error {
	w.WriteUint8(lorenzoVersion)
	return nil
}

func (l *Lorenzo[T]) Load(r *codec.Reader) error {
	v, err := r.ReadUint8()
	if err != nil {
		return err
	}
	if v != lorenzoVersion {
		return fmt.Errorf("%w: lorenzo version %d", ErrCorruptState, v)
	}
	return nil
}

func (l *Lorenzo[T]) Predict(it *ndarray.Iterator[T]) T {
	var p T
	for i, back := range l.offsets {
		p += l.signs[i] * it.Prev(back...)
	}
	return p
}

func (l *Lorenzo[T]) EstimateError(it *ndarray.Iterator[T]) T {
	return abs(l.Predict(it) - it.Value())
}

func (l *Lorenzo[T]) Print(w io.Writer) {
	fmt.Fprintf(w, "Lorenzo (rank %d): committed=%d replayed=%d\n", l.rank, l.committed, l.replayed)
}

var _ Predictor[float32] = (*Lorenzo[float32])(nil)
