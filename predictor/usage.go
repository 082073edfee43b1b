package predictor

import (
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Usage summarizes how often one candidate was selected.
type Usage struct {
	// Blocks is the number of blocks the candidate won.
	Blocks int
	// Fraction is Blocks divided by the total number of blocks (0 when no
	// blocks were processed).
	Fraction float64
	// Won holds the ordinals of the blocks the candidate won.
	Won *roaring64.Bitmap
}

// Usage returns one entry per candidate, aggregated over the selection history.
func (c *Composed[T]) Usage() []Usage {
	out := make([]Usage, len(c.predictors))
	for i := range out {
		out[i].Won = roaring64.New()
	}
	for block, sid := range c.selection {
		out[sid].Blocks++
		out[sid].Won.AddInt(block)
	}
	if total := len(c.selection); total > 0 {
		for i := range out {
			out[i].Fraction = float64(out[i].Blocks) / float64(total)
		}
	}
	return out
}

// Print writes every candidate's own summary followed by its block count and
// share of the selection history.
func (c *Composed[T]) Print(w io.Writer) {
	for i, u := range c.Usage() {
		c.predictors[i].Print(w)
		fmt.Fprintf(w, "Blocks:%d, Percentage:%.2f\n", u.Blocks, u.Fraction)
	}
}
