package predictor

import (
	"errors"
	"io"

	"github.com/hupe1980/szgo/codec"
	"github.com/hupe1980/szgo/ndarray"
)

var (
	// ErrNoPredictors is returned when a Composed predictor is built without candidates.
	ErrNoPredictors = errors.New("predictor: no predictors")

	// ErrSelectionExhausted is returned when more blocks are replayed than were recorded.
	// It means compression and decompression visited blocks in different orders.
	ErrSelectionExhausted = errors.New("predictor: selection history exhausted")

	// ErrCorruptSelection is returned when a loaded selection names a predictor that does not exist.
	ErrCorruptSelection = errors.New("predictor: corrupt selection")

	// ErrCoefficientsExhausted is returned when a regression predictor replays
	// more blocks than it stored coefficients for.
	ErrCoefficientsExhausted = errors.New("predictor: regression coefficients exhausted")

	// ErrCorruptState is returned when persisted predictor state has an unknown
	// version or does not match the predictor's configuration.
	ErrCorruptState = errors.New("predictor: corrupt state")
)

// Predictor is the capability every predictor implements, including Composed,
// so predictors can be nested.
type Predictor[T ndarray.Float] interface {
	// PrecompressData runs once before the first block of a compression pass.
	PrecompressData(it *ndarray.Iterator[T])
	// PostcompressData runs once after the last block of a compression pass.
	PostcompressData(it *ndarray.Iterator[T])
	// PredecompressData runs once before the first block of a decompression pass.
	PredecompressData(it *ndarray.Iterator[T])
	// PostdecompressData runs once after the last block of a decompression pass.
	PostdecompressData(it *ndarray.Iterator[T])

	// PrecompressBlock prepares prediction for the block. It may be called on
	// predictors that are not selected for the block.
	PrecompressBlock(r *ndarray.Range[T])
	// PrecompressBlockCommit keeps the state prepared by the last
	// PrecompressBlock. It is only called on the selected predictor.
	PrecompressBlockCommit()
	// PredecompressBlock restores the state committed for the block.
	PredecompressBlock(r *ndarray.Range[T]) error

	// Save appends the persistent state to w.
	Save(w *codec.Writer) error
	// Load restores the state written by Save. It fails with codec.ErrShortBuffer
	// when fewer bytes remain than the state needs.
	Load(r *codec.Reader) error

	// Predict returns the predicted value at the iterator position.
	Predict(it *ndarray.Iterator[T]) T
	// EstimateError returns a non-negative cost of predicting the value at the
	// iterator position. Costs are only compared, never persisted.
	EstimateError(it *ndarray.Iterator[T]) T

	// Print writes a human-readable summary.
	Print(w io.Writer)
}

func abs[T ndarray.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}
