// Package predictor defines the predictor capability and the block-adaptive
// Composed predictor that picks the cheapest candidate for every block.
//
// # Selection
//
// For each block, Composed calls PrecompressBlock on every candidate, samples a
// handful of points along the block diagonals, sums each candidate's
// EstimateError over them and selects the index with the lowest cost (the
// lowest index wins ties). PrecompressBlockCommit appends the selection to the
// history and forwards to the winner only, so a Composed used as a candidate
// of another Composed records exactly the blocks it won.
//
// Sampling cost per candidate, for a block whose smallest extent is m:
//
//	rank 1:  2 points (block start and start+m-1)
//	rank 2:  2·(m-2) points (both diagonals of the leading m×m square)
//	rank 3+: 4·(m-2) points (four diagonals of the leading m×m×m cube)
//
// # Replay
//
// On decompression, PredecompressBlock consumes the recorded selections in
// order and forwards the call to the recorded predictor only. Blocks must be
// visited in the same order as during compression.
//
// # Persistence
//
// Composed.Save writes every candidate's own state in list order, then the
// selection count as a little-endian uint64, then the selection stream coded by
// an entropy.Encoder (huff0 by default).
//
// Predictors are not safe for concurrent use.
package predictor
