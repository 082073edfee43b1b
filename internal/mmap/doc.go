// Package mmap maps compressed streams read from local files into memory.
//
// Streams are decoded front to back, so mappings are advised for sequential
// access. An empty file maps to a nil slice.
package mmap
