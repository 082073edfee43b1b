// Package ndarray provides the dense multi-dimensional array, block range and
// iterator types the predictors operate on.
//
// Arrays are stored in row-major order: the last axis is contiguous.
//
//	arr, _ := ndarray.New[float32](64, 64, 64)
//	for blk := range arr.Blocks(6) {
//	    for it := range blk.All() {
//	        _ = it.Value()
//	    }
//	}
//
// An Iterator is positioned relative to the origin of its Range. Move shifts it
// by one signed offset per leading axis; axes without an offset are left
// unchanged. Move does not check bounds, so callers that sample a block (for
// example along its diagonals) must keep the position inside the array before
// reading a value.
package ndarray
