// Package lossless applies the final byte-level compression stage to an
// encoded payload.
//
// Block format: [uncompressed size uint64][compressed size uint64][data].
// A compressed size of 0 means the data is stored uncompressed, which happens
// when compression saves less than 10%.
package lossless
