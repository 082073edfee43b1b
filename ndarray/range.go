package ndarray

import "iter"

// Range is a contiguous sub-region of an Array: an origin plus per-axis extents.
type Range[T Float] struct {
	arr     *Array[T]
	origin  []int
	extents []int
}

// Array returns the array the range belongs to.
func (r *Range[T]) Array() *Array[T] { return r.arr }

// Rank returns the number of axes.
func (r *Range[T]) Rank() int { return len(r.extents) }

// Dimensions returns a copy of the per-axis extents.
func (r *Range[T]) Dimensions() []int { return append([]int(nil), r.extents...) }

// Origin returns a copy of the range origin in array coordinates.
func (r *Range[T]) Origin() []int { return append([]int(nil), r.origin...) }

// MinDimension returns the smallest extent across all axes.
func (r *Range[T]) MinDimension() int {
	m := r.extents[0]
	for _, e := range r.extents[1:] {
		m = min(m, e)
	}
	return m
}

// Volume returns the number of elements in the range.
func (r *Range[T]) Volume() int {
	n := 1
	for _, e := range r.extents {
		n *= e
	}
	return n
}

// Begin returns an iterator at the range origin.
func (r *Range[T]) Begin() *Iterator[T] {
	off := 0
	for i, o := range r.origin {
		off += o * r.arr.strides[i]
	}
	return &Iterator[T]{r: r, local: make([]int, len(r.extents)), offset: off}
}

// All yields every element of the range in row-major order.
//
// The same iterator is advanced between yields; clone it to keep a position.
func (r *Range[T]) All() iter.Seq[*Iterator[T]] {
	return func(yield func(*Iterator[T]) bool) {
		it := r.Begin()
		for {
			if !yield(it) {
				return
			}
			if !it.advance() {
				return
			}
		}
	}
}
