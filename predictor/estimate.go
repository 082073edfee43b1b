package predictor

import "github.com/hupe1980/szgo/ndarray"

// estimateError fills predictErr with each candidate's summed cost over a
// sparse diagonal sample of the block starting at begin. m is the smallest
// block extent; no ray leaves the leading m-wide hypercube.
func (c *Composed[T]) estimateError(begin *ndarray.Iterator[T], rank, m int) {
	clear(c.predictErr)

	switch rank {
	case 1:
		c.estimate1D(begin, m)
	case 2:
		c.estimate2D(begin, m)
	default:
		c.estimate3D(begin, m)
	}
}

// estimate1D samples both ends of the block.
func (c *Composed[T]) estimate1D(begin *ndarray.Iterator[T], m int) {
	it1 := begin.Clone()
	it2 := begin.Clone().Move(m - 1)
	for p, pred := range c.predictors {
		c.predictErr[p] += float64(pred.EstimateError(it1))
		c.predictErr[p] += float64(pred.EstimateError(it2))
	}
}

// estimate2D walks the two diagonals of the leading m×m square, one from
// (0,0) towards (+1,+1) and one from (0,m-1) towards (+1,-1).
func (c *Composed[T]) estimate2D(begin *ndarray.Iterator[T], m int) {
	it1 := begin.Clone()
	it2 := begin.Clone().Move(0, m-1)
	for i := 2; i < m; i++ {
		for p, pred := range c.predictors {
			c.predictErr[p] += float64(pred.EstimateError(it1))
			c.predictErr[p] += float64(pred.EstimateError(it2))
		}
		it1.Move(1, 1)
		it2.Move(1, -1)
	}
}

// estimate3D walks four diagonals of the leading m×m×m cube on the first three
// axes. Any further axes stay at the block origin.
func (c *Composed[T]) estimate3D(begin *ndarray.Iterator[T], m int) {
	it1 := begin.Clone()
	it2 := begin.Clone().Move(0, 0, m-1)
	it3 := begin.Clone().Move(0, m-1, 0)
	it4 := begin.Clone().Move(0, m-1, m-1)
	for i := 2; i < m; i++ {
		for p, pred := range c.predictors {
			c.predictErr[p] += float64(pred.EstimateError(it1))
			c.predictErr[p] += float64(pred.EstimateError(it2))
			c.predictErr[p] += float64(pred.EstimateError(it3))
			c.predictErr[p] += float64(pred.EstimateError(it4))
		}
		it1.Move(1, 1, 1)
		it2.Move(1, 1, -1)
		it3.Move(1, -1, 1)
		it4.Move(1, -1, -1)
	}
}
