package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/szgo/ndarray"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// NormFloat64 returns a standard normal pseudo-random number.
func (r *RNG) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.NormFloat64()
}

// Symbols returns n selection-like symbols in [0, alphabet) where symbol 0
// dominates with probability p.
func (r *RNG) Symbols(n, alphabet int, p float64) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, n)
	for i := range out {
		if alphabet > 1 && r.rand.Float64() >= p {
			out[i] = 1 + r.rand.Intn(alphabet-1)
		}
	}
	return out
}

// SmoothField returns a field of superposed low-frequency sines with a little
// Gaussian noise. Panics on an invalid shape.
func SmoothField[T ndarray.Float](r *RNG, dims ...int) *ndarray.Array[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	freq := make([]float64, len(dims))
	phase := make([]float64, len(dims))
	for i := range freq {
		freq[i] = 0.5 + r.rand.Float64()
		phase[i] = r.rand.Float64() * 2 * math.Pi
	}

	return fill[T](dims, func(idx []int) float64 {
		v := 0.0
		for i, x := range idx {
			v += math.Sin(freq[i]*float64(x)/float64(dims[i])*2*math.Pi + phase[i])
		}
		return 10*v + 0.01*r.rand.NormFloat64()
	})
}

// RampField returns b0 + Σ slope_i·x_i over the global coordinates, with
// b0 = 1. Panics on an invalid shape.
func RampField[T ndarray.Float](slopes []float64, dims ...int) *ndarray.Array[T] {
	return fill[T](dims, func(idx []int) float64 {
		v := 1.0
		for i, x := range idx {
			if i < len(slopes) {
				v += slopes[i] * float64(x)
			}
		}
		return v
	})
}

// NoiseField returns uniformly distributed values in [-1, 1).
// Panics on an invalid shape.
func NoiseField[T ndarray.Float](r *RNG, dims ...int) *ndarray.Array[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fill[T](dims, func([]int) float64 {
		return r.rand.Float64()*2 - 1
	})
}

func fill[T ndarray.Float](dims []int, f func(idx []int) float64) *ndarray.Array[T] {
	arr, err := ndarray.New[T](dims...)
	if err != nil {
		panic(err)
	}
	for it := range arr.Full().All() {
		idx := make([]int, len(dims))
		for i := range idx {
			idx[i] = it.Global(i)
		}
		it.Set(T(f(idx)))
	}
	return arr
}

// MaxAbsError returns the largest absolute element-wise difference.
// Panics if the lengths differ.
func MaxAbsError[T ndarray.Float](want, got []T) float64 {
	if len(want) != len(got) {
		panic("testutil: length mismatch")
	}
	maxErr := 0.0
	for i := range want {
		maxErr = max(maxErr, math.Abs(float64(want[i])-float64(got[i])))
	}
	return maxErr
}
