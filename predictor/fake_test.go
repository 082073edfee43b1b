package predictor

import (
	"fmt"
	"io"

	"github.com/hupe1980/szgo/codec"
	"github.com/hupe1980/szgo/ndarray"
)

// fakePredictor returns a scripted per-block cost from every EstimateError
// call and records every call it receives.
type fakePredictor struct {
	name  string
	costs []float64
	state []byte

	block    int
	sampled  [][]int
	estimate int

	dataHooks   []string
	precompress int
	committed   []int
	replayed    int
}

func newFake(name string, costs ...float64) *fakePredictor {
	return &fakePredictor{name: name, costs: costs, state: []byte(name)}
}

func (f *fakePredictor) PrecompressData(*ndarray.Iterator[float64]) {
	f.dataHooks = append(f.dataHooks, "precompress")
}

func (f *fakePredictor) PostcompressData(*ndarray.Iterator[float64]) {
	f.dataHooks = append(f.dataHooks, "postcompress")
}

func (f *fakePredictor) PredecompressData(*ndarray.Iterator[float64]) {
	f.dataHooks = append(f.dataHooks, "predecompress")
}

func (f *fakePredictor) PostdecompressData(*ndarray.Iterator[float64]) {
	f.dataHooks = append(f.dataHooks, "postdecompress")
}

func (f *fakePredictor) PrecompressBlock(*ndarray.Range[float64]) {
	f.block++
	f.precompress++
}

func (f *fakePredictor) PrecompressBlockCommit() {
	f.committed = append(f.committed, f.block-1)
}

func (f *fakePredictor) PredecompressBlock(*ndarray.Range[float64]) error {
	f.replayed++
	return nil
}

func (f *fakePredictor) Save(w *codec.Writer) error {
	w.WriteUint32(uint32(len(f.state)))
	w.WriteBytes(f.state)
	return nil
}

func (f *fakePredictor) Load(r *codec.Reader) error {
	n, err := r.ReadUint32()
	if err != nil {
		return err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return err
	}
	f.state = append([]byte(nil), b...)
	return nil
}

func (f *fakePredictor) Predict(it *ndarray.Iterator[float64]) float64 {
	return float64(len(f.name))
}

func (f *fakePredictor) EstimateError(it *ndarray.Iterator[float64]) float64 {
	f.estimate++

	pos := make([]int, it.Range().Rank())
	for i := range pos {
		pos[i] = it.Local(i)
	}
	f.sampled = append(f.sampled, pos)

	if f.block-1 < len(f.costs) {
		return f.costs[f.block-1]
	}
	return 0
}

func (f *fakePredictor) Print(w io.Writer) {
	fmt.Fprintf(w, "fake %s\n", f.name)
}
