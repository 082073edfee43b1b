package ndarray

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"unsafe"
)

// ErrInvalidShape is returned for empty shapes, non-positive extents or a data
// length that does not match the shape.
var ErrInvalidShape = errors.New("ndarray: invalid shape")

// Float is the set of element types the compressor supports.
type Float interface {
	~float32 | ~float64
}

// Array is a dense row-major array of rank >= 1.
type Array[T Float] struct {
	data    []T
	dims    []int
	strides []int
}

// New allocates a zero-filled array with the given extents.
func New[T Float](dims ...int) (*Array[T], error) {
	n, err := volume(dims)
	if err != nil {
		return nil, err
	}
	return newArray(make([]T, n), dims), nil
}

// FromSlice wraps data as an array with the given extents. The array aliases data.
func FromSlice[T Float](data []T, dims ...int) (*Array[T], error) {
	n, err := volume(dims)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d elements for shape %v", ErrInvalidShape, len(data), dims)
	}
	return newArray(data, dims), nil
}

func newArray[T Float](data []T, dims []int) *Array[T] {
	d := append([]int(nil), dims...)
	strides := make([]int, len(d))
	s := 1
	for i := len(d) - 1; i >= 0; i-- {
		strides[i] = s
		s *= d[i]
	}
	return &Array[T]{data: data, dims: d, strides: strides}
}

func volume(dims []int) (int, error) {
	if len(dims) == 0 {
		return 0, fmt.Errorf("%w: rank 0", ErrInvalidShape)
	}
	n := 1
	for _, d := range dims {
		if d <= 0 {
			return 0, fmt.Errorf("%w: extent %d in %v", ErrInvalidShape, d, dims)
		}
		if n > math.MaxInt/d {
			return 0, fmt.Errorf("%w: volume of %v overflows", ErrInvalidShape, dims)
		}
		n *= d
	}
	return n, nil
}

// Rank returns the number of axes.
func (a *Array[T]) Rank() int { return len(a.dims) }

// Dims returns a copy of the per-axis extents.
func (a *Array[T]) Dims() []int { return append([]int(nil), a.dims...) }

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.data) }

// Data returns the backing slice.
func (a *Array[T]) Data() []T { return a.data }

// Clone returns a deep copy.
func (a *Array[T]) Clone() *Array[T] {
	return newArray(append([]T(nil), a.data...), a.dims)
}

// At returns the element at the given coordinates.
func (a *Array[T]) At(idx ...int) T {
	return a.data[a.offset(idx)]
}

// Set stores v at the given coordinates.
func (a *Array[T]) Set(v T, idx ...int) {
	a.data[a.offset(idx)] = v
}

func (a *Array[T]) offset(idx []int) int {
	if len(idx) != len(a.dims) {
		panic(fmt.Sprintf("ndarray: %d indices for rank %d", len(idx), len(a.dims)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= a.dims[i] {
			panic(fmt.Sprintf("ndarray: index %v out of range %v", idx, a.dims))
		}
		off += v * a.strides[i]
	}
	return off
}

// Full returns a range covering the whole array.
func (a *Array[T]) Full() *Range[T] {
	return &Range[T]{arr: a, origin: make([]int, len(a.dims)), extents: a.Dims()}
}

// Sub returns the range with the given origin and extents.
func (a *Array[T]) Sub(origin, extents []int) (*Range[T], error) {
	if len(origin) != len(a.dims) || len(extents) != len(a.dims) {
		return nil, fmt.Errorf("%w: range rank does not match array rank %d", ErrInvalidShape, len(a.dims))
	}
	for i := range a.dims {
		if origin[i] < 0 || extents[i] <= 0 || origin[i]+extents[i] > a.dims[i] {
			return nil, fmt.Errorf("%w: range %v+%v outside %v", ErrInvalidShape, origin, extents, a.dims)
		}
	}
	return &Range[T]{
		arr:     a,
		origin:  append([]int(nil), origin...),
		extents: append([]int(nil), extents...),
	}, nil
}

// NumBlocks returns the number of blocks Blocks(size) yields.
func (a *Array[T]) NumBlocks(size int) int {
	if size <= 0 {
		return 0
	}
	n := 1
	for _, d := range a.dims {
		n *= (d + size - 1) / size
	}
	return n
}

// Blocks yields the array partitioned into blocks of the given edge length,
// in row-major block order. Blocks on the upper edges are truncated.
//
// Compression and decompression must walk blocks in the same order; this
// order is part of the persisted format.
func (a *Array[T]) Blocks(size int) iter.Seq[*Range[T]] {
	return func(yield func(*Range[T]) bool) {
		if size <= 0 {
			return
		}
		rank := len(a.dims)
		origin := make([]int, rank)
		for {
			extents := make([]int, rank)
			for i := range extents {
				extents[i] = min(size, a.dims[i]-origin[i])
			}
			blk := &Range[T]{arr: a, origin: append([]int(nil), origin...), extents: extents}
			if !yield(blk) {
				return
			}

			axis := rank - 1
			for ; axis >= 0; axis-- {
				origin[axis] += size
				if origin[axis] < a.dims[axis] {
					break
				}
				origin[axis] = 0
			}
			if axis < 0 {
				return
			}
		}
	}
}

// ElemSize returns the size of T in bytes: 4 for float32, 8 for float64.
func ElemSize[T Float]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
