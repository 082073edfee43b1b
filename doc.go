// Package szgo provides error-bounded lossy compression of dense float arrays.
//
// szgo follows the prediction-based design of SZ: an array is split into
// fixed-size blocks, a candidate predictor is selected per block by sampling
// its error along the block diagonals, prediction residuals are quantized
// into bins within the error bound and the result is packed losslessly.
//
// # Quick Start
//
//	arr, _ := ndarray.FromSlice(values, 100, 500, 500)
//	c, _ := szgo.New[float32](szgo.WithErrorBound(1e-3))
//	data, _ := c.Compress(ctx, arr)
//	restored, _ := c.Decompress(ctx, data) // |restored - arr| <= 1e-3
//
// # Predictor Selection
//
// The candidates are configured with WithPredictors; by default the Lorenzo
// predictor competes against a per-block linear regression. The winner of
// every block is recorded and entropy coded into the stream, so
// decompression replays the selection instead of repeating it:
//
//	c.Compress(ctx, arr)
//	for _, u := range c.Stats().Usage {
//	    fmt.Println(u.Kind, u.Blocks, u.Fraction)
//	}
//
// # Stream Format
//
// A stream starts with a 7-byte header (magic "SZGO", version, element
// width, lossless type) followed by the lossless block holding shape, block
// size, predictor kinds, predictor state, the coded selection, quantizer state
// and the quantization bins.
//
// # Key Features
//
//   - Absolute error bound on every value, NaN and Inf preserved verbatim
//   - float32 and float64 arrays of rank 1 to 8
//   - Huffman-coded selection streams (huff0)
//   - zstd or lz4 lossless stage
//   - Parallel batch compression
//
// # Storage
//
// Package archive keeps versioned streams in a blobstore.BlobStore (memory,
// local files, MinIO or S3) with a catalog of entries (in-memory or DynamoDB).
package szgo
