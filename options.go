package szgo

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/szgo/internal/lossless"
)

const (
	// DefaultErrorBound is the absolute error bound used when none is configured.
	DefaultErrorBound = 1e-3

	// DefaultQuantizationRadius gives 2^16 quantization bins.
	DefaultQuantizationRadius = 32768
)

// Compression selects the lossless stage applied to the encoded payload.
type Compression = lossless.Type

// Supported lossless stages.
const (
	CompressionNone = lossless.None
	CompressionLZ4  = lossless.LZ4
	CompressionZstd = lossless.Zstd
)

type options struct {
	errorBound       float64
	blockSize        int // 0 picks a size from the array rank
	predictors       []PredictorKind
	radius           int
	compression      Compression
	concurrency      int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Compressor.
type Option func(*options)

// WithErrorBound sets the absolute error bound. Every decompressed value
// differs from the input by at most eb.
func WithErrorBound(eb float64) Option {
	return func(o *options) {
		o.errorBound = eb
	}
}

// WithBlockSize sets the edge length of the blocks a predictor is selected for.
//
// If size is 0, the block size is derived from the array rank: 128 for 1D,
// 16 for 2D and 6 otherwise.
func WithBlockSize(size int) Option {
	return func(o *options) {
		o.blockSize = size
	}
}

// WithPredictors sets the candidate predictors, in selection priority order.
// On equal estimated cost the earlier kind wins.
//
// Example:
//
//	c, _ := szgo.New[float32](szgo.WithPredictors(szgo.PredictorRegression, szgo.PredictorLorenzo))
func WithPredictors(kinds ...PredictorKind) Option {
	return func(o *options) {
		o.predictors = append([]PredictorKind(nil), kinds...)
	}
}

// WithQuantizationRadius sets the number of quantization bins on each side
// of the prediction. Values further away are stored verbatim.
func WithQuantizationRadius(radius int) Option {
	return func(o *options) {
		o.radius = radius
	}
}

// WithCompression sets the lossless stage.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithConcurrency bounds the number of arrays CompressBatch works on at once.
// Values below 1 use GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &szgo.BasicMetricsCollector{}
//	c, _ := szgo.New[float64](szgo.WithMetricsCollector(metrics))
//	// ... use c ...
//	stats := metrics.GetStats()
//	fmt.Printf("Compressed: %d, Avg latency: %dns\n", stats.CompressCount, stats.CompressAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := szgo.NewJSONLogger(slog.LevelDebug)
//	c, _ := szgo.New[float32](szgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		errorBound:       DefaultErrorBound,
		predictors:       []PredictorKind{PredictorLorenzo, PredictorRegression},
		radius:           DefaultQuantizationRadius,
		compression:      CompressionZstd,
		concurrency:      runtime.GOMAXPROCS(0),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.concurrency < 1 {
		o.concurrency = runtime.GOMAXPROCS(0)
	}
	return o
}

func defaultBlockSize(rank int) int {
	switch rank {
	case 1:
		return 128
	case 2:
		return 16
	default:
		return 6
	}
}
