package szgo

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/szgo/internal/lossless"
	"github.com/hupe1980/szgo/ndarray"
	"github.com/hupe1980/szgo/predictor"
	"github.com/hupe1980/szgo/quantization"
	"github.com/hupe1980/szgo/testutil"
)

func roundTrip[T ndarray.Float](t *testing.T, c *Compressor[T], arr *ndarray.Array[T]) *ndarray.Array[T] {
	t.Helper()

	data, err := c.Compress(context.Background(), arr)
	require.NoError(t, err)

	got, err := c.Decompress(context.Background(), data)
	require.NoError(t, err)
	require.Equal(t, arr.Dims(), got.Dims())
	return got
}

func TestRoundTripRanks(t *testing.T) {
	shapes := map[string][]int{
		"1D": {1000},
		"2D": {37, 41},
		"3D": {13, 9, 17},
		"4D": {5, 6, 7, 8},
	}

	for name, dims := range shapes {
		t.Run(name+"/float32", func(t *testing.T) {
			const eb = 1e-3
			c, err := New[float32](WithErrorBound(eb))
			require.NoError(t, err)

			arr := testutil.SmoothField[float32](testutil.NewRNG(1), dims...)
			got := roundTrip(t, c, arr)
			assert.LessOrEqual(t, testutil.MaxAbsError(arr.Data(), got.Data()), eb)
		})

		t.Run(name+"/float64", func(t *testing.T) {
			const eb = 1e-6
			c, err := New[float64](WithErrorBound(eb))
			require.NoError(t, err)

			arr := testutil.SmoothField[float64](testutil.NewRNG(2), dims...)
			got := roundTrip(t, c, arr)
			assert.LessOrEqual(t, testutil.MaxAbsError(arr.Data(), got.Data()), eb)
		})
	}
}

func TestRoundTripCompression(t *testing.T) {
	arr := testutil.SmoothField[float32](testutil.NewRNG(3), 64, 64)

	for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(comp.String(), func(t *testing.T) {
			c, err := New[float32](WithErrorBound(1e-2), WithCompression(comp))
			require.NoError(t, err)

			data, err := c.Compress(context.Background(), arr)
			require.NoError(t, err)

			h, err := ReadHeader(data)
			require.NoError(t, err)
			assert.Equal(t, comp, h.Compression)
			assert.Equal(t, 4, h.ElementSize)

			got, err := c.Decompress(context.Background(), data)
			require.NoError(t, err)
			assert.LessOrEqual(t, testutil.MaxAbsError(arr.Data(), got.Data()), 1e-2)
		})
	}
}

func TestRoundTripBlockSizes(t *testing.T) {
	arr := testutil.SmoothField[float64](testutil.NewRNG(4), 20, 30)

	for _, bs := range []int{2, 3, 7, 16, 64} {
		c, err := New[float64](WithErrorBound(1e-4), WithBlockSize(bs))
		require.NoError(t, err)

		got := roundTrip(t, c, arr)
		assert.LessOrEqual(t, testutil.MaxAbsError(arr.Data(), got.Data()), 1e-4, "block size %d", bs)
		assert.Equal(t, arr.NumBlocks(bs), c.Stats().Blocks)
	}
}

func TestRoundTripTinyShapes(t *testing.T) {
	for _, dims := range [][]int{{1}, {2}, {1, 1}, {2, 1}, {1, 1, 1}, {3, 3, 3, 3}} {
		c, err := New[float32]()
		require.NoError(t, err)

		arr := testutil.NoiseField[float32](testutil.NewRNG(5), dims...)
		got := roundTrip(t, c, arr)
		assert.LessOrEqual(t, testutil.MaxAbsError(arr.Data(), got.Data()), DefaultErrorBound, "dims %v", dims)
	}
}

func TestRoundTripSpecialValues(t *testing.T) {
	arr := testutil.SmoothField[float64](testutil.NewRNG(6), 10, 10)
	arr.Set(math.NaN(), 0, 0)
	arr.Set(math.Inf(1), 4, 5)
	arr.Set(math.Inf(-1), 9, 9)
	arr.Set(1e300, 3, 3)

	c, err := New[float64](WithErrorBound(1e-3))
	require.NoError(t, err)
	got := roundTrip(t, c, arr)

	assert.True(t, math.IsNaN(got.At(0, 0)))
	assert.True(t, math.IsInf(got.At(4, 5), 1))
	assert.True(t, math.IsInf(got.At(9, 9), -1))
	assert.Equal(t, 1e300, got.At(3, 3))
	assert.Positive(t, c.Stats().Unpredictable)

	for i, want := range arr.Data() {
		if math.IsNaN(want) || math.IsInf(want, 0) {
			continue
		}
		assert.LessOrEqual(t, math.Abs(want-got.Data()[i]), 1e-3, "element %d", i)
	}
}

func TestCompressDoesNotModifyInput(t *testing.T) {
	arr := testutil.SmoothField[float32](testutil.NewRNG(7), 16, 16)
	orig := arr.Clone()

	c, err := New[float32](WithErrorBound(0.5))
	require.NoError(t, err)
	_, err = c.Compress(context.Background(), arr)
	require.NoError(t, err)

	assert.Equal(t, orig.Data(), arr.Data())
}

func TestCompressDeterministic(t *testing.T) {
	arr := testutil.SmoothField[float64](testutil.NewRNG(8), 12, 12, 12)
	c, err := New[float64]()
	require.NoError(t, err)

	a, err := c.Compress(context.Background(), arr)
	require.NoError(t, err)
	b, err := c.Compress(context.Background(), arr)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompressSmallerThanInput(t *testing.T) {
	arr := testutil.SmoothField[float32](testutil.NewRNG(9), 64, 64, 16)
	c, err := New[float32](WithErrorBound(1e-2))
	require.NoError(t, err)

	data, err := c.Compress(context.Background(), arr)
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, len(data), stats.CompressedBytes)
	assert.Equal(t, arr.Len(), stats.Elements)
	assert.Greater(t, stats.Ratio(), 3.0)
}

func TestStatsUsage(t *testing.T) {
	arr := testutil.SmoothField[float64](testutil.NewRNG(10), 48, 48)

	c, err := New[float64](WithBlockSize(8))
	require.NoError(t, err)
	_, err = c.Compress(context.Background(), arr)
	require.NoError(t, err)

	stats := c.Stats()
	require.Len(t, stats.Usage, 2)
	assert.Equal(t, PredictorLorenzo, stats.Usage[0].Kind)
	assert.Equal(t, PredictorRegression, stats.Usage[1].Kind)
	assert.Equal(t, 36, stats.Blocks)

	total := 0
	fraction := 0.0
	for _, u := range stats.Usage {
		total += u.Blocks
		fraction += u.Fraction
		assert.Equal(t, uint64(u.Blocks), u.Won.GetCardinality())
	}
	assert.Equal(t, stats.Blocks, total)
	assert.InDelta(t, 1.0, fraction, 1e-9)

	assert.Contains(t, stats.Report, "Lorenzo (rank 2)")
	assert.Contains(t, stats.Report, "Regression (rank 2)")
	assert.Contains(t, stats.Report, "Blocks:")
}

func TestSinglePredictor(t *testing.T) {
	arr := testutil.RampField[float32]([]float64{0.25, -0.5, 2}, 10, 10, 10)

	c, err := New[float32](WithPredictors(PredictorRegression), WithErrorBound(1e-3))
	require.NoError(t, err)
	got := roundTrip(t, c, arr)

	assert.LessOrEqual(t, testutil.MaxAbsError(arr.Data(), got.Data()), 1e-3)
	require.Len(t, c.Stats().Usage, 1)
	assert.Equal(t, 1.0, c.Stats().Usage[0].Fraction)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		err  error
	}{
		{"ZeroErrorBound", []Option{WithErrorBound(0)}, ErrInvalidErrorBound},
		{"NegativeErrorBound", []Option{WithErrorBound(-1)}, ErrInvalidErrorBound},
		{"NaNErrorBound", []Option{WithErrorBound(math.NaN())}, ErrInvalidErrorBound},
		{"InfErrorBound", []Option{WithErrorBound(math.Inf(1))}, ErrInvalidErrorBound},
		{"BlockSizeOne", []Option{WithBlockSize(1)}, ErrInvalidBlockSize},
		{"NegativeBlockSize", []Option{WithBlockSize(-4)}, ErrInvalidBlockSize},
		{"NoPredictors", []Option{WithPredictors()}, predictor.ErrNoPredictors},
		{"ZeroRadius", []Option{WithQuantizationRadius(0)}, quantization.ErrInvalidRadius},
		{"UnknownCompression", []Option{WithCompression(Compression(9))}, lossless.ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[float32](tt.opts...)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("UnknownPredictor", func(t *testing.T) {
		_, err := New[float32](WithPredictors(PredictorLorenzo, PredictorKind(42)))
		var up *ErrUnknownPredictor
		require.ErrorAs(t, err, &up)
		assert.Equal(t, PredictorKind(42), up.Kind)
	})

	t.Run("Defaults", func(t *testing.T) {
		c, err := New[float64](nil, WithLogger(nil), WithMetricsCollector(nil), WithConcurrency(0))
		require.NoError(t, err)
		assert.Equal(t, DefaultErrorBound, c.opts.errorBound)
		assert.Equal(t, DefaultQuantizationRadius, c.opts.radius)
		assert.Equal(t, CompressionZstd, c.opts.compression)
		assert.Positive(t, c.opts.concurrency)
		assert.Equal(t, 6, c.blockSize(3))
		assert.Equal(t, 16, c.blockSize(2))
		assert.Equal(t, 128, c.blockSize(1))
	})
}

func TestCompressErrors(t *testing.T) {
	c, err := New[float32]()
	require.NoError(t, err)

	_, err = c.Compress(context.Background(), nil)
	assert.ErrorIs(t, err, ndarray.ErrInvalidShape)

	highRank, err := ndarray.New[float32](1, 1, 1, 1, 1, 1, 1, 1, 1)
	require.NoError(t, err)
	_, err = c.Compress(context.Background(), highRank)
	assert.ErrorIs(t, err, ndarray.ErrInvalidShape)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Compress(ctx, testutil.NoiseField[float32](testutil.NewRNG(1), 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecompressErrors(t *testing.T) {
	c32, err := New[float32]()
	require.NoError(t, err)
	c64, err := New[float64]()
	require.NoError(t, err)

	data, err := c32.Compress(context.Background(), testutil.SmoothField[float32](testutil.NewRNG(1), 32, 32))
	require.NoError(t, err)

	t.Run("ElementTypeMismatch", func(t *testing.T) {
		_, err := c64.Decompress(context.Background(), data)
		var mm *ErrElementTypeMismatch
		require.ErrorAs(t, err, &mm)
		assert.Equal(t, 8, mm.Expected)
		assert.Equal(t, 4, mm.Actual)
	})

	t.Run("Header", func(t *testing.T) {
		for name, mutate := range map[string]func([]byte) []byte{
			"Empty":       func([]byte) []byte { return nil },
			"Short":       func(b []byte) []byte { return b[:5] },
			"Magic":       func(b []byte) []byte { b[0] = 'X'; return b },
			"Version":     func(b []byte) []byte { b[4] = 2; return b },
			"ElementSize": func(b []byte) []byte { b[5] = 3; return b },
			"Compression": func(b []byte) []byte { b[6] = 9; return b },
		} {
			bad := mutate(bytes.Clone(data))
			_, err := c32.Decompress(context.Background(), bad)
			assert.ErrorIs(t, err, ErrInvalidHeader, name)
			assert.True(t, IsCorrupt(err), name)
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		for _, n := range []int{HeaderSize, HeaderSize + 3, len(data) / 2, len(data) - 1} {
			_, err := c32.Decompress(context.Background(), data[:n])
			assert.ErrorIs(t, err, ErrCorrupt, "length %d", n)
		}
	})

	t.Run("TruncatedPayload", func(t *testing.T) {
		c, err := New[float32](WithCompression(CompressionNone))
		require.NoError(t, err)
		raw, err := c.Compress(context.Background(), testutil.SmoothField[float32](testutil.NewRNG(2), 8, 8))
		require.NoError(t, err)

		_, err = c.Decompress(context.Background(), raw[:len(raw)-2])
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, lossless.ErrCorrupt)
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c32.Decompress(ctx, data)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, IsCorrupt(err))
	})
}

func TestBatch(t *testing.T) {
	rng := testutil.NewRNG(11)
	arrays := make([]*ndarray.Array[float64], 6)
	for i := range arrays {
		arrays[i] = testutil.SmoothField[float64](rng, 10+i, 12)
	}

	c, err := New[float64](WithErrorBound(1e-5), WithConcurrency(2))
	require.NoError(t, err)

	streams, err := c.CompressBatch(context.Background(), arrays)
	require.NoError(t, err)
	require.Len(t, streams, len(arrays))

	got, err := c.DecompressBatch(context.Background(), streams)
	require.NoError(t, err)
	for i := range arrays {
		assert.Equal(t, arrays[i].Dims(), got[i].Dims())
		assert.LessOrEqual(t, testutil.MaxAbsError(arrays[i].Data(), got[i].Data()), 1e-5)
	}

	t.Run("Failure", func(t *testing.T) {
		_, err := c.CompressBatch(context.Background(), []*ndarray.Array[float64]{arrays[0], nil})
		assert.ErrorIs(t, err, ndarray.ErrInvalidShape)

		_, err = c.DecompressBatch(context.Background(), [][]byte{streams[0], []byte("nope")})
		assert.ErrorIs(t, err, ErrInvalidHeader)
	})
}

func TestMetricsAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := &BasicMetricsCollector{}

	c, err := New[float32](WithLogger(logger), WithMetricsCollector(metrics))
	require.NoError(t, err)

	arr := testutil.SmoothField[float32](testutil.NewRNG(12), 20, 20)
	roundTrip(t, c, arr)

	_, err = c.Decompress(context.Background(), []byte("garbage"))
	require.Error(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.CompressCount)
	assert.Equal(t, int64(0), stats.CompressErrors)
	assert.Equal(t, int64(arr.Len()), stats.CompressElements)
	assert.Equal(t, int64(c.Stats().CompressedBytes), stats.CompressBytes)
	assert.Equal(t, int64(2), stats.DecompressCount)
	assert.Equal(t, int64(1), stats.DecompressErrors)
	assert.Equal(t, int64(c.Stats().Blocks), stats.SelectedBlocks)
	assert.Equal(t, int64(c.Stats().Usage[0].Blocks), stats.PrimaryBlocks)
	assert.Positive(t, stats.BitsPerValue())

	out := buf.String()
	assert.Contains(t, out, "block predictor selected")
	assert.Contains(t, out, "compress completed")
	assert.Contains(t, out, "decompress completed")
	assert.Contains(t, out, "decompress failed")
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	other := errors.New("boom")
	assert.Equal(t, other, translateError(other))

	err := translateError(predictor.ErrSelectionExhausted)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorIs(t, err, predictor.ErrSelectionExhausted)

	err = translateError(&ErrUnknownPredictor{Kind: 7})
	assert.ErrorIs(t, err, ErrCorrupt)
	var up *ErrUnknownPredictor
	assert.ErrorAs(t, err, &up)
}
