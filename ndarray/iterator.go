package ndarray

import "fmt"

// Iterator addresses one element of an Array relative to a Range origin.
type Iterator[T Float] struct {
	r      *Range[T]
	local  []int
	offset int
}

// Clone returns an independent copy positioned at the same element.
func (it *Iterator[T]) Clone() *Iterator[T] {
	return &Iterator[T]{r: it.r, local: append([]int(nil), it.local...), offset: it.offset}
}

// Range returns the range the iterator walks.
func (it *Iterator[T]) Range() *Range[T] { return it.r }

// Move shifts the iterator by one signed offset per leading axis.
// Axes beyond len(offsets) are unchanged. It returns the iterator for chaining.
func (it *Iterator[T]) Move(offsets ...int) *Iterator[T] {
	if len(offsets) > len(it.local) {
		panic(fmt.Sprintf("ndarray: %d offsets for rank %d", len(offsets), len(it.local)))
	}
	strides := it.r.arr.strides
	for i, o := range offsets {
		it.local[i] += o
		it.offset += o * strides[i]
	}
	return it
}

// Local returns the position along axis relative to the range origin.
func (it *Iterator[T]) Local(axis int) int { return it.local[axis] }

// Global returns the position along axis in array coordinates.
func (it *Iterator[T]) Global(axis int) int { return it.r.origin[axis] + it.local[axis] }

// Offset returns the linear index of the element in the array data.
func (it *Iterator[T]) Offset() int { return it.offset }

// Value returns the element at the current position.
func (it *Iterator[T]) Value() T { return it.r.arr.data[it.offset] }

// Set stores v at the current position.
func (it *Iterator[T]) Set(v T) { it.r.arr.data[it.offset] = v }

// Prev returns the element back[i] steps before the current position along
// each leading axis i. Positions before the array start read as zero.
func (it *Iterator[T]) Prev(back ...int) T {
	strides := it.r.arr.strides
	off := it.offset
	for i, b := range back {
		if it.r.origin[i]+it.local[i]-b < 0 {
			return 0
		}
		off -= b * strides[i]
	}
	return it.r.arr.data[off]
}

func (it *Iterator[T]) advance() bool {
	strides := it.r.arr.strides
	for axis := len(it.local) - 1; axis >= 0; axis-- {
		if it.local[axis]+1 < it.r.extents[axis] {
			it.local[axis]++
			it.offset += strides[axis]
			return true
		}
		it.offset -= it.local[axis] * strides[axis]
		it.local[axis] = 0
	}
	return false
}
