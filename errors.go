package szgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/szgo/codec"
	"github.com/hupe1980/szgo/entropy"
	"github.com/hupe1980/szgo/internal/conv"
	"github.com/hupe1980/szgo/internal/lossless"
	"github.com/hupe1980/szgo/ndarray"
	"github.com/hupe1980/szgo/predictor"
	"github.com/hupe1980/szgo/quantization"
)

var (
	// ErrInvalidErrorBound is returned when the error bound is not a positive finite number.
	ErrInvalidErrorBound = errors.New("error bound must be positive and finite")

	// ErrInvalidBlockSize is returned when the block size is too small.
	ErrInvalidBlockSize = errors.New("block size must be at least 2")

	// ErrInvalidHeader is returned when the input does not start with a valid szgo header.
	ErrInvalidHeader = errors.New("invalid szgo header")

	// ErrCorrupt is returned when a compressed stream cannot be decoded.
	ErrCorrupt = errors.New("corrupt szgo stream")
)

// ErrElementTypeMismatch indicates that a stream was written for another
// element type than the one it is decompressed into.
type ErrElementTypeMismatch struct {
	Expected int // element width in bytes
	Actual   int
}

func (e *ErrElementTypeMismatch) Error() string {
	return fmt.Sprintf("element type mismatch: expected %d-byte elements, stream has %d", e.Expected, e.Actual)
}

// ErrUnknownPredictor indicates an unsupported predictor kind.
type ErrUnknownPredictor struct {
	Kind PredictorKind
}

func (e *ErrUnknownPredictor) Error() string {
	return fmt.Sprintf("unknown predictor kind: %d", uint8(e.Kind))
}

// translateError folds decoding errors of the lower layers into ErrCorrupt.
// The original error stays reachable through errors.Is/As.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCorrupt) || errors.Is(err, ErrInvalidHeader) {
		return err
	}

	var unknown *ErrUnknownPredictor
	if errors.As(err, &unknown) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	for _, target := range []error{
		codec.ErrShortBuffer,
		codec.ErrMalformedVarint,
		conv.ErrOverflow,
		entropy.ErrCorrupt,
		lossless.ErrCorrupt,
		lossless.ErrUnknownType,
		ndarray.ErrInvalidShape,
		predictor.ErrSelectionExhausted,
		predictor.ErrCorruptSelection,
		predictor.ErrCoefficientsExhausted,
		predictor.ErrCorruptState,
		quantization.ErrUnpredictableExhausted,
		quantization.ErrBinRange,
		quantization.ErrInvalidErrorBound,
		quantization.ErrInvalidRadius,
	} {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}
	return err
}
