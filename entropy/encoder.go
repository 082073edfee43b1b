package entropy

import (
	"errors"
	"fmt"

	"github.com/hupe1980/szgo/codec"
)

var (
	// ErrCorrupt is returned when a persisted stream cannot be decoded.
	ErrCorrupt = errors.New("entropy: corrupt stream")

	// ErrNotPrepared is returned when Save or Encode runs without a matching
	// PreprocessEncode, or Decode runs without Load.
	ErrNotPrepared = errors.New("entropy: encoder not prepared")
)

// ErrSymbolRange indicates a symbol the coder cannot represent.
type ErrSymbolRange struct {
	Index  int
	Symbol int
}

func (e *ErrSymbolRange) Error() string {
	return fmt.Sprintf("entropy: symbol %d at index %d out of range", e.Symbol, e.Index)
}

// Encoder is an entropy coder over sequences of small non-negative integers.
type Encoder interface {
	// PreprocessEncode analyses symbols and builds the coding tables.
	// alphabetHint is an upper bound estimate of the number of distinct values.
	PreprocessEncode(symbols []int, alphabetHint int) error

	// Save writes the coder header.
	Save(w *codec.Writer) error

	// Encode writes the coded symbols. They must be the ones passed to PreprocessEncode.
	Encode(symbols []int, w *codec.Writer) error

	// PostprocessEncode releases transient encoding state.
	PostprocessEncode()

	// Load reads the coder header written by Save.
	Load(r *codec.Reader) error

	// Decode reads exactly n symbols written by Encode.
	Decode(r *codec.Reader, n int) ([]int, error)

	// PostprocessDecode releases transient decoding state.
	PostprocessDecode()
}
