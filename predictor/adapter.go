package predictor

import (
	"io"

	"github.com/hupe1980/szgo/codec"
	"github.com/hupe1980/szgo/ndarray"
)

// Adapter exposes a concrete predictor through the Predictor interface while
// keeping its concrete type reachable through Unwrap.
//
// The same concrete predictor may be wrapped by several adapters or Composed
// predictors; they all share the one instance.
type Adapter[T ndarray.Float, P Predictor[T]] struct {
	base P
}

// Wrap returns an adapter forwarding every call to p.
//
//	lorenzo := predictor.NewLorenzo[float32](3)
//	a := predictor.Wrap[float32](lorenzo)
func Wrap[T ndarray.Float, P Predictor[T]](p P) *Adapter[T, P] {
	return &Adapter[T, P]{base: p}
}

// Unwrap returns the wrapped predictor.
func (a *Adapter[T, P]) Unwrap() P { return a.base }

func (a *Adapter[T, P]) PrecompressData(it *ndarray.Iterator[T])   { a.base.PrecompressData(it) }
func (a *Adapter[T, P]) PostcompressData(it *ndarray.Iterator[T])  { a.base.PostcompressData(it) }
func (a *Adapter[T, P]) PredecompressData(it *ndarray.Iterator[T]) { a.base.PredecompressData(it) }
func (a *Adapter[T, P]) PostdecompressData(it *ndarray.Iterator[T]) {
	a.base.PostdecompressData(it)
}

func (a *Adapter[T, P]) PrecompressBlock(r *ndarray.Range[T]) { a.base.PrecompressBlock(r) }
func (a *Adapter[T, P]) PrecompressBlockCommit()              { a.base.PrecompressBlockCommit() }
func (a *Adapter[T, P]) PredecompressBlock(r *ndarray.Range[T]) error {
	return a.base.PredecompressBlock(r)
}

func (a *Adapter[T, P]) Save(w *codec.Writer) error { return a.base.Save(w) }
func (a *Adapter[T, P]) Load(r *codec.Reader) error { return a.base.Load(r) }

func (a *Adapter[T, P]) Predict(it *ndarray.Iterator[T]) T       { return a.base.Predict(it) }
func (a *Adapter[T, P]) EstimateError(it *ndarray.Iterator[T]) T { return a.base.EstimateError(it) }

func (a *Adapter[T, P]) Print(w io.Writer) { a.base.Print(w) }
