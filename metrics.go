package szgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
// Implementations must be safe for concurrent use; CompressBatch records from
// several goroutines.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    compressCounter   prometheus.Counter
//	    ratioHistogram    prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordCompress(elements, bytes int, duration time.Duration, err error) {
//	    p.compressCounter.Inc()
//	    // ... record ratio, duration, etc.
//	}
type MetricsCollector interface {
	// RecordCompress is called after each compress operation.
	// elements is the number of array values, bytes the size of the output.
	RecordCompress(elements, bytes int, duration time.Duration, err error)

	// RecordDecompress is called after each decompress operation.
	RecordDecompress(bytes, elements int, duration time.Duration, err error)

	// RecordSelection is called once per compressed array with the number of
	// blocks each candidate predictor won, in candidate order.
	RecordSelection(blocksWon []int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCompress(int, int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordDecompress(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSelection([]int)                           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CompressCount        atomic.Int64
	CompressErrors       atomic.Int64
	CompressTotalNanos   atomic.Int64
	CompressElements     atomic.Int64
	CompressBytes        atomic.Int64
	DecompressCount      atomic.Int64
	DecompressErrors     atomic.Int64
	DecompressTotalNanos atomic.Int64
	SelectedBlocks       atomic.Int64

	// blocks won by the first candidate; the rest is SelectedBlocks minus this.
	PrimaryBlocks atomic.Int64
}

// RecordCompress implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompress(elements, bytes int, duration time.Duration, err error) {
	b.CompressCount.Add(1)
	b.CompressTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CompressErrors.Add(1)
		return
	}
	b.CompressElements.Add(int64(elements))
	b.CompressBytes.Add(int64(bytes))
}

// RecordDecompress implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDecompress(bytes, elements int, duration time.Duration, err error) {
	b.DecompressCount.Add(1)
	b.DecompressTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DecompressErrors.Add(1)
	}
}

// RecordSelection implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelection(blocksWon []int) {
	for i, n := range blocksWon {
		b.SelectedBlocks.Add(int64(n))
		if i == 0 {
			b.PrimaryBlocks.Add(int64(n))
		}
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CompressCount:      b.CompressCount.Load(),
		CompressErrors:     b.CompressErrors.Load(),
		CompressAvgNanos:   avg(b.CompressTotalNanos.Load(), b.CompressCount.Load()),
		CompressElements:   b.CompressElements.Load(),
		CompressBytes:      b.CompressBytes.Load(),
		DecompressCount:    b.DecompressCount.Load(),
		DecompressErrors:   b.DecompressErrors.Load(),
		DecompressAvgNanos: avg(b.DecompressTotalNanos.Load(), b.DecompressCount.Load()),
		SelectedBlocks:     b.SelectedBlocks.Load(),
		PrimaryBlocks:      b.PrimaryBlocks.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CompressCount      int64
	CompressErrors     int64
	CompressAvgNanos   int64
	CompressElements   int64
	CompressBytes      int64
	DecompressCount    int64
	DecompressErrors   int64
	DecompressAvgNanos int64
	SelectedBlocks     int64
	PrimaryBlocks      int64
}

// BitsPerValue returns the average compressed size per element in bits.
func (s BasicMetricsStats) BitsPerValue() float64 {
	if s.CompressElements == 0 {
		return 0
	}
	return float64(8*s.CompressBytes) / float64(s.CompressElements)
}
